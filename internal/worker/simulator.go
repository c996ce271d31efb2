// Package worker runs the background simulation loop: it keeps every
// active pet ticking even when no client is connected, so pets decay,
// evolve and die in real time.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/calebwray/shapepet/internal/session"
	"github.com/calebwray/shapepet/internal/storage"
	"github.com/calebwray/shapepet/pkg/pet"
)

// incomeEvery is the passive-income cadence in simulation ticks at the
// default 1s interval.
const incomeEvery = 5 * time.Second

// Simulator drives time forward for all registered pets.
type Simulator struct {
	sessions *session.Manager
	store    storage.Storage
	interval time.Duration
	log      *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a simulator ticking at the given interval.
func New(sessions *session.Manager, store storage.Storage, interval time.Duration, log *slog.Logger) *Simulator {
	ctx, cancel := context.WithCancel(context.Background())
	if interval <= 0 {
		interval = time.Second
	}
	return &Simulator{
		sessions: sessions,
		store:    store,
		interval: interval,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the simulation loop until Stop is called.
func (s *Simulator) Start() error {
	s.log.Info("Simulator starting", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var sinceIncome time.Duration
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info("Simulator shutting down")
			return nil
		case <-ticker.C:
			sinceIncome += s.interval
			income := sinceIncome >= incomeEvery
			if income {
				sinceIncome = 0
			}
			s.tickAll(income)
		}
	}
}

// Stop gracefully shuts down the simulator
func (s *Simulator) Stop() {
	s.cancel()
}

// tickAll advances every active pet by one interval.
func (s *Simulator) tickAll(income bool) {
	ids, err := s.store.ListActivePets(s.ctx)
	if err != nil {
		s.log.Error("Failed to list active pets", "error", err)
		return
	}

	dt := s.interval.Seconds()
	for _, id := range ids {
		engine, err := s.sessions.Ensure(s.ctx, id)
		if err != nil {
			s.log.Error("Failed to load pet for tick", "pet_id", id, "error", err)
			continue
		}

		engine.Tick(pet.ActivityIdle, dt)
		if income {
			engine.TickPassiveIncome()
		}
	}
}
