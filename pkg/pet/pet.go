// Package pet implements the virtual-pet state and progression engine:
// the tick/decay model, the evolution state machine, training, battle
// resolution and the item economy. The engine owns all mutable state and
// is driven externally: a coarse simulation tick plus discrete action
// calls. It has no internal concurrency; a single mutex serializes all
// operations so the engine can be shared across goroutines.
package pet

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock supplies "now". Injected so tests can drive synthetic time; the
// engine never reads the wall clock directly.
type Clock func() time.Time

// SnapshotStore is the external persistence collaborator: a key-value
// snapshot blob per pet. Failures are tolerated; the simulation
// continues in memory and the next mutation retries the save.
type SnapshotStore interface {
	SavePetState(ctx context.Context, id uuid.UUID, snap *Snapshot) error
	LoadPetState(ctx context.Context, id uuid.UUID) (*Snapshot, error)
}

// Result reports whether an operation took effect, with a machine
// readable reason when it was refused. Refusals are not errors.
type Result struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

func refused(reason string) Result { return Result{Reason: reason} }

// Refusal reasons returned in Result.Reason.
const (
	ReasonDead         = "dead"
	ReasonInBattle     = "in-battle"
	ReasonNotInBattle  = "not-in-battle"
	ReasonFrozen       = "frozen"
	ReasonSaturated    = "saturated"
	ReasonExhausted    = "exhausted"
	ReasonCooldown     = "cooldown"
	ReasonUnknown      = "unknown"
	ReasonNoCoins      = "insufficient-coins"
	ReasonNoItem       = "not-owned"
	ReasonAlreadyOwned = "already-active"
)

// Engine owns one pet's State and applies every mutation to it.
type Engine struct {
	mu    sync.Mutex
	id    uuid.UUID
	state *State

	now    Clock
	rng    *rand.Rand
	sink   Sink
	store  SnapshotStore
	logger *slog.Logger

	// set by WithSnapshot, consumed once in New
	pendingSnapshot *Snapshot
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the time source.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.now = c }
}

// WithRand injects the random source, typically seeded in tests.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSink injects the event sink.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithStore injects the snapshot store. Without one the engine runs
// purely in memory.
func WithStore(s SnapshotStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithLogger injects the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSnapshot overlays a previously persisted snapshot onto the
// defaults at construction time.
func WithSnapshot(sn *Snapshot) Option {
	return func(e *Engine) { e.pendingSnapshot = sn }
}

// New constructs an engine with fixed defaults, then overlays any
// snapshot supplied via WithSnapshot.
func New(id uuid.UUID, opts ...Option) *Engine {
	e := &Engine{
		id:   id,
		now:  time.Now,
		sink: noopSink{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.state = newState(e.now())
	e.state.apply(e.pendingSnapshot)
	e.pendingSnapshot = nil
	return e
}

// ID returns the pet's identifier.
func (e *Engine) ID() uuid.UUID { return e.id }

// State returns a deep copy of the current state.
func (e *Engine) State() *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// log prepends an entry to the capped action log.
func (e *Engine) log(format string, args ...any) {
	entry := fmt.Sprintf("[%s] %s", e.now().Format("15:04:05"), fmt.Sprintf(format, args...))
	e.state.Log = append([]string{entry}, e.state.Log...)
	if len(e.state.Log) > ActionLogLimit {
		e.state.Log = e.state.Log[:ActionLogLimit]
	}
}

// emit sends an event to the sink. Sinks cannot fail the caller.
func (e *Engine) emit(t EventType, data map[string]any) {
	e.sink.Emit(Event{Type: t, Data: data})
}

// persist snapshots the state to the store, best effort.
func (e *Engine) persist() {
	if e.store == nil {
		return
	}
	if err := e.store.SavePetState(context.Background(), e.id, e.state.snapshot()); err != nil {
		e.logger.Warn("Snapshot save failed, continuing in memory", "pet_id", e.id, "error", err)
	}
}

// Freeze stops all stat changes, including aging, until Unfreeze.
func (e *Engine) Freeze() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Frozen {
		return
	}
	e.state.Frozen = true
	e.state.FreezeTime = e.now()
	e.log("Pet frozen in time")
	e.persist()
}

// Unfreeze resumes normal stat changes.
func (e *Engine) Unfreeze() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.Frozen {
		return
	}
	e.state.Frozen = false
	e.state.FreezeTime = time.Time{}
	e.log("Pet unfrozen!")
	e.persist()
}

// Die moves the pet to the terminal dead form. Idempotent.
func (e *Engine) Die() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.die()
}

func (e *Engine) die() {
	if e.state.Form == FormDead {
		return
	}
	e.state.Form = FormDead
	e.state.InBattle = false
	e.state.CurrentEnemy = nil
	e.state.BattleLog = nil
	e.state.Evolving = false
	e.state.EvolveFrom = ""
	e.state.EvolveTo = ""
	e.state.EvolveStart = time.Time{}
	e.state.EvolveDuration = 0
	e.log("Pet has died")
	e.logger.Info("Pet died", "pet_id", e.id, "age_seconds", e.state.Age)
	e.emit(EventDied, nil)
	e.persist()
}

// Reset restores the initial defaults. A dead pet revives straight to
// circle; a living, evolved pet de-evolves to circle with a short
// visual transition.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if e.state.InBattle {
		e.endBattle(nil)
	}

	s := e.state
	s.Hunger = 50
	s.Happiness = 70
	s.Energy = 80
	s.Health = 100
	s.Age = 0
	s.CircleTimer = 0
	s.TriangleTimer = 0
	s.SquareTimer = 0
	for _, a := range Abilities() {
		s.Training[a] = &AbilityProgress{}
	}
	s.Coins = 0
	s.Inventory = make(map[ItemID]int)
	s.TrainingPowderUntil = time.Time{}
	s.XPBoostUntil = time.Time{}
	s.CoinMultiplier = false
	s.StatBoostKitUsed = false
	s.PassiveIncome = false

	s.Evolving = false
	s.EvolveFrom = ""
	s.EvolveTo = ""
	s.EvolveStart = time.Time{}
	s.EvolveDuration = 0

	switch {
	case s.Form == FormDead:
		s.Form = FormCircle
		e.emit(EventRevived, nil)
		e.persist()
	case s.Form != FormCircle:
		e.startEvolution(FormCircle, 1500*time.Millisecond)
	default:
		e.persist()
	}

	s.LastActionTime = now
	s.LastActionState = ""
	s.LastActionCount = 0
	e.log("Reset to beginning")
}

// triggerShake records a refusal: the renderer-visible head shake, a
// flat happiness penalty, a log line and a Shake event.
func (e *Engine) triggerShake(shakeType string, duration time.Duration) {
	e.state.ShakeType = shakeType
	e.state.ShakeUntil = e.now().Add(duration)
	e.state.Happiness = clamp(e.state.Happiness - 2)
	e.log("Refused: %s", shakeType)
	e.emit(EventShake, map[string]any{
		"type":        shakeType,
		"duration_ms": duration.Milliseconds(),
	})
}

// noise returns a uniform random value in [-width/2, width/2).
func (e *Engine) noise(width float64) float64 {
	return (e.rng.Float64() - 0.5) * width
}
