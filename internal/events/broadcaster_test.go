package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/calebwray/shapepet/pkg/pet"
)

func setupBroadcaster(t *testing.T) (*Broadcaster, *redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewBroadcaster(client, logger), client, mr
}

func TestBroadcaster_Publish(t *testing.T) {
	b, client, mr := setupBroadcaster(t)
	defer mr.Close()
	defer client.Close()

	petID := uuid.New()
	sub := client.Subscribe(context.Background(), ChannelFor(petID))
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	b.Publish(context.Background(), petID, pet.Event{
		Type: pet.EventLevelUp,
		Data: map[string]any{"ability": "strength", "level": 2},
	})

	select {
	case msg := <-sub.Channel():
		var envelope Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			t.Fatalf("Failed to unmarshal envelope: %v", err)
		}
		if envelope.Type != pet.EventLevelUp {
			t.Errorf("Expected levelup event, got %s", envelope.Type)
		}
		if envelope.PetID != petID.String() {
			t.Errorf("Expected pet ID %s, got %s", petID, envelope.PetID)
		}
		if envelope.Data["ability"] != "strength" {
			t.Errorf("Expected ability payload, got %v", envelope.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for published event")
	}
}

func TestBroadcaster_PetSinkWiresEngine(t *testing.T) {
	b, client, mr := setupBroadcaster(t)
	defer mr.Close()
	defer client.Close()

	petID := uuid.New()
	sub := client.Subscribe(context.Background(), ChannelFor(petID))
	defer sub.Close()
	if _, err := sub.Receive(context.Background()); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	engine := pet.New(petID, pet.WithSink(b.PetSink(petID)))
	engine.Die()

	select {
	case msg := <-sub.Channel():
		var envelope Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			t.Fatalf("Failed to unmarshal envelope: %v", err)
		}
		if envelope.Type != pet.EventDied {
			t.Errorf("Expected died event, got %s", envelope.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for engine event")
	}
}

func TestBroadcaster_PublishSurvivesRedisOutage(t *testing.T) {
	b, client, mr := setupBroadcaster(t)
	defer client.Close()
	mr.Close()

	// Must not panic or block; failures are logged and dropped.
	b.Publish(context.Background(), uuid.New(), pet.Event{Type: pet.EventShake})
}
