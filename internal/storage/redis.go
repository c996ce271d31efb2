package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/calebwray/shapepet/pkg/pet"
)

const (
	petStateKeyPrefix = "petstate:"
	activePetsKey     = "pets:active"
)

// RedisStorage implements the Storage interface using Redis
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

// Client exposes the underlying Redis client for collaborators that
// share the connection (event broadcaster, SSE handler).
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Pet state operations

func (r *RedisStorage) SavePetState(ctx context.Context, id uuid.UUID, snap *pet.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		r.logger.Error("Failed to marshal pet snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal pet snapshot: %w", err)
	}

	key := petStateKeyPrefix + id.String()
	cmd := r.client.Set(ctx, key, string(data), 0)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to save pet snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to save pet snapshot: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadPetState(ctx context.Context, id uuid.UUID) (*pet.Snapshot, error) {
	key := petStateKeyPrefix + id.String()
	cmd := r.client.Get(ctx, key)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load pet snapshot", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load pet snapshot: %w", err)
	}

	data := cmd.Val()
	if data == "" {
		return nil, nil
	}

	// Snapshot decoding is tolerant; a corrupted blob degrades to an
	// empty snapshot rather than an error.
	var snap pet.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		r.logger.Error("Failed to unmarshal pet snapshot", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal pet snapshot: %w", err)
	}

	return &snap, nil
}

func (r *RedisStorage) DeletePetState(ctx context.Context, id uuid.UUID) error {
	key := petStateKeyPrefix + id.String()
	cmd := r.client.Del(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.Error("Failed to delete pet snapshot", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete pet snapshot: %w", err)
	}
	return nil
}

// Active-pet registry operations

func (r *RedisStorage) AddActivePet(ctx context.Context, id uuid.UUID) error {
	if err := r.client.SAdd(ctx, activePetsKey, id.String()).Err(); err != nil {
		r.logger.Error("Failed to register active pet", "uuid", id, "error", err)
		return fmt.Errorf("failed to register active pet: %w", err)
	}
	return nil
}

func (r *RedisStorage) RemoveActivePet(ctx context.Context, id uuid.UUID) error {
	if err := r.client.SRem(ctx, activePetsKey, id.String()).Err(); err != nil {
		r.logger.Error("Failed to deregister active pet", "uuid", id, "error", err)
		return fmt.Errorf("failed to deregister active pet: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListActivePets(ctx context.Context) ([]uuid.UUID, error) {
	members, err := r.client.SMembers(ctx, activePetsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active pets: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			r.logger.Warn("Skipping malformed active pet entry", "value", m)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
