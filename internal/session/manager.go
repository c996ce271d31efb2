// Package session tracks live pet engines by ID. The manager is the
// bridge between the HTTP layer and the engine: it creates engines with
// their storage and event collaborators wired, rehydrates them from
// snapshots on demand, and evicts them on delete.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/calebwray/shapepet/internal/events"
	"github.com/calebwray/shapepet/internal/storage"
	"github.com/calebwray/shapepet/pkg/pet"
)

// Manager owns the in-memory engine registry for one process.
type Manager struct {
	mu      sync.RWMutex
	engines map[uuid.UUID]*pet.Engine

	store       storage.Storage
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

// NewManager creates a session manager. The broadcaster may be nil, in
// which case engines run without an event sink.
func NewManager(store storage.Storage, broadcaster *events.Broadcaster, logger *slog.Logger) *Manager {
	return &Manager{
		engines:     make(map[uuid.UUID]*pet.Engine),
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (m *Manager) options(id uuid.UUID, snap *pet.Snapshot) []pet.Option {
	opts := []pet.Option{
		pet.WithStore(m.store),
		pet.WithLogger(m.logger),
	}
	if m.broadcaster != nil {
		opts = append(opts, pet.WithSink(m.broadcaster.PetSink(id)))
	}
	if snap != nil {
		opts = append(opts, pet.WithSnapshot(snap))
	}
	return opts
}

// Create starts a fresh pet and registers it as active.
func (m *Manager) Create(ctx context.Context) (*pet.Engine, error) {
	id := uuid.New()
	engine := pet.New(id, m.options(id, nil)...)

	if err := m.store.AddActivePet(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to register pet: %w", err)
	}

	m.mu.Lock()
	m.engines[id] = engine
	m.mu.Unlock()

	m.logger.Info("Pet created", "pet_id", id)
	return engine, nil
}

// Get returns the live engine for a pet, rehydrating it from its
// snapshot if this process has not seen it yet. Returns nil when the
// pet is unknown.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*pet.Engine, error) {
	m.mu.RLock()
	engine, ok := m.engines[id]
	m.mu.RUnlock()
	if ok {
		return engine, nil
	}

	snap, err := m.store.LoadPetState(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load pet: %w", err)
	}
	if snap == nil {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have rehydrated it while we were loading.
	if engine, ok := m.engines[id]; ok {
		return engine, nil
	}
	engine = pet.New(id, m.options(id, snap)...)
	m.engines[id] = engine
	m.logger.Debug("Pet rehydrated from snapshot", "pet_id", id)
	return engine, nil
}

// Ensure returns the live engine for a pet, creating one with default
// state when no snapshot exists. Used by the simulation driver, which
// trusts the active registry rather than snapshot presence.
func (m *Manager) Ensure(ctx context.Context, id uuid.UUID) (*pet.Engine, error) {
	engine, err := m.Get(ctx, id)
	if err != nil || engine != nil {
		return engine, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if engine, ok := m.engines[id]; ok {
		return engine, nil
	}
	engine = pet.New(id, m.options(id, nil)...)
	m.engines[id] = engine
	return engine, nil
}

// Delete evicts the engine and removes the pet's persisted state.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	_, existed := m.engines[id]
	delete(m.engines, id)
	m.mu.Unlock()

	if err := m.store.RemoveActivePet(ctx, id); err != nil {
		return err
	}
	if err := m.store.DeletePetState(ctx, id); err != nil {
		return err
	}

	if existed {
		m.logger.Info("Pet deleted", "pet_id", id)
	}
	return nil
}

// Live returns the engines currently held in memory.
func (m *Manager) Live() []*pet.Engine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*pet.Engine, 0, len(m.engines))
	for _, e := range m.engines {
		out = append(out, e)
	}
	return out
}
