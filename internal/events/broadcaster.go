package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/calebwray/shapepet/pkg/pet"
)

// Envelope is the wire form of an engine event, tagged with the pet it
// belongs to.
type Envelope struct {
	Type  pet.EventType  `json:"type"`
	PetID string         `json:"pet_id"`
	Data  map[string]any `json:"data,omitempty"`
}

// Broadcaster publishes engine events to Redis Pub/Sub for SSE
// distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// ChannelFor returns the Pub/Sub channel name carrying one pet's events.
func ChannelFor(petID uuid.UUID) string {
	return fmt.Sprintf("pet-events:%s", petID.String())
}

// Publish sends one event to the pet's channel. Publish failures are
// logged and swallowed; event delivery never blocks the simulation.
func (b *Broadcaster) Publish(ctx context.Context, petID uuid.UUID, event pet.Event) {
	envelope := Envelope{
		Type:  event.Type,
		PetID: petID.String(),
		Data:  event.Data,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		b.logger.Error("Failed to marshal event", "pet_id", petID, "type", event.Type, "error", err)
		return
	}

	if err := b.redisClient.Publish(ctx, ChannelFor(petID), data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "pet_id", petID, "type", event.Type, "error", err)
		return
	}

	b.logger.Debug("Event published", "pet_id", petID, "type", event.Type)
}

// PetSink adapts the broadcaster to the engine's Sink interface for one
// pet.
func (b *Broadcaster) PetSink(petID uuid.UUID) pet.Sink {
	return pet.SinkFunc(func(event pet.Event) {
		b.Publish(context.Background(), petID, event)
	})
}
