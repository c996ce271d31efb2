package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/calebwray/shapepet/pkg/pet"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage defines the interface for pet state persistence. It embeds the
// engine's snapshot collaborator so a Storage can be handed to
// pet.WithStore directly.
type Storage interface {
	HealthChecker
	Closer
	pet.SnapshotStore

	// DeletePetState removes a pet snapshot by ID
	DeletePetState(ctx context.Context, id uuid.UUID) error

	// Active-pet registry, used by the simulation worker to know which
	// pets to keep ticking.
	AddActivePet(ctx context.Context, id uuid.UUID) error
	RemoveActivePet(ctx context.Context, id uuid.UUID) error
	ListActivePets(ctx context.Context) ([]uuid.UUID, error)
}
