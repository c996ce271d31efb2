package session

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/calebwray/shapepet/internal/storage"
)

func newTestManager(t *testing.T) (*Manager, *storage.MockStorage) {
	t.Helper()
	store := storage.NewMockStorage()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewManager(store, nil, logger), store
}

func TestManager_CreateAndGet(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	engine, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Failed to create pet: %v", err)
	}

	got, err := m.Get(ctx, engine.ID())
	if err != nil {
		t.Fatalf("Failed to get pet: %v", err)
	}
	if got != engine {
		t.Error("Expected the same live engine instance")
	}

	active, _ := store.ListActivePets(ctx)
	if len(active) != 1 || active[0] != engine.ID() {
		t.Errorf("Expected the pet to be registered active, got %v", active)
	}
}

func TestManager_GetUnknownPet(t *testing.T) {
	m, _ := newTestManager(t)

	engine, err := m.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if engine != nil {
		t.Error("Expected nil for an unknown pet")
	}
}

func TestManager_RehydratesFromSnapshot(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	engine, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Failed to create pet: %v", err)
	}
	engine.Feed() // persists a snapshot through the store
	id := engine.ID()

	// Simulate a fresh process: same store, empty registry.
	m2 := NewManager(store, nil, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	restored, err := m2.Get(ctx, id)
	if err != nil {
		t.Fatalf("Failed to rehydrate pet: %v", err)
	}
	if restored == nil {
		t.Fatal("Expected the pet to rehydrate from its snapshot")
	}
	if got := restored.State().Hunger; got != 30 {
		t.Errorf("Rehydrated hunger = %v, want 30", got)
	}
}

func TestManager_Delete(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	engine, err := m.Create(ctx)
	if err != nil {
		t.Fatalf("Failed to create pet: %v", err)
	}
	engine.Feed()
	id := engine.ID()

	if err := m.Delete(ctx, id); err != nil {
		t.Fatalf("Failed to delete pet: %v", err)
	}

	got, err := m.Get(ctx, id)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != nil {
		t.Error("Deleted pet should be gone")
	}
	if active, _ := store.ListActivePets(ctx); len(active) != 0 {
		t.Errorf("Deleted pet should leave the active registry, got %v", active)
	}
}

func TestManager_Live(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Create(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Create(ctx); err != nil {
		t.Fatal(err)
	}
	if got := len(m.Live()); got != 2 {
		t.Errorf("Live engines = %d, want 2", got)
	}
}
