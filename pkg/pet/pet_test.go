package pet

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fakeClock is a manually advanced time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// eventRecorder captures emitted events for assertions.
type eventRecorder struct{ events []Event }

func (r *eventRecorder) Emit(ev Event) { r.events = append(r.events, ev) }

func (r *eventRecorder) count(t EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func (r *eventRecorder) last(t EventType) (Event, bool) {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == t {
			return r.events[i], true
		}
	}
	return Event{}, false
}

func newTestEngine(t *testing.T, seed int64) (*Engine, *fakeClock, *eventRecorder) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	rec := &eventRecorder{}
	e := New(uuid.New(),
		WithClock(clock.Now),
		WithRand(rand.New(rand.NewSource(seed))),
		WithSink(rec),
	)
	return e, clock, rec
}

type failingStore struct{}

func (failingStore) SavePetState(ctx context.Context, id uuid.UUID, snap *Snapshot) error {
	return errors.New("store unavailable")
}

func (failingStore) LoadPetState(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return nil, nil
}

func TestNewDefaults(t *testing.T) {
	e, _, _ := newTestEngine(t, 1)
	s := e.State()

	if s.Hunger != 50 || s.Happiness != 70 || s.Energy != 80 || s.Health != 100 {
		t.Errorf("unexpected default vitals: %+v", s)
	}
	if s.Form != FormCircle {
		t.Errorf("expected circle form, got %s", s.Form)
	}
	for _, a := range Abilities() {
		p := s.Training[a]
		if p == nil || p.Level != 0 || p.XP != 0 {
			t.Errorf("expected zero progress for %s, got %+v", a, p)
		}
	}
	if s.Coins != 0 || len(s.Inventory) != 0 {
		t.Errorf("expected empty economy, got coins=%d inventory=%v", s.Coins, s.Inventory)
	}
}

func TestDieIdempotent(t *testing.T) {
	e, _, rec := newTestEngine(t, 1)
	e.Die()
	e.Die()

	if got := e.State().Form; got != FormDead {
		t.Fatalf("expected dead form, got %s", got)
	}
	if n := rec.count(EventDied); n != 1 {
		t.Errorf("expected exactly one died event, got %d", n)
	}
}

func TestDieClearsBattleAndEvolution(t *testing.T) {
	e, _, _ := newTestEngine(t, 1)
	e.StartBattle()
	e.StartEvolution(FormTriangle, time.Second)
	e.Die()

	s := e.State()
	if s.InBattle || s.CurrentEnemy != nil || s.Evolving {
		t.Errorf("death should clear battle and evolution state: %+v", s)
	}
}

func TestDeadPetRefusesEverything(t *testing.T) {
	e, _, _ := newTestEngine(t, 1)
	e.Die()

	for name, res := range map[string]Result{
		"play":  e.Play(),
		"feed":  e.Feed(),
		"sleep": e.Sleep(),
		"heal":  e.Heal(),
		"train": e.TrainAbility(AbilityStrength),
	} {
		if res.OK || res.Reason != ReasonDead {
			t.Errorf("%s on dead pet: expected dead refusal, got %+v", name, res)
		}
	}
	if e.StartBattle() {
		t.Error("dead pet should not start battles")
	}
}

func TestResetRevivesDead(t *testing.T) {
	e, _, rec := newTestEngine(t, 1)
	e.state.Coins = 500
	e.state.CoinMultiplier = true
	e.Die()
	e.Reset()

	s := e.State()
	if s.Form != FormCircle {
		t.Fatalf("expected revived circle, got %s", s.Form)
	}
	if s.Hunger != 50 || s.Happiness != 70 || s.Energy != 80 || s.Health != 100 {
		t.Errorf("expected default vitals after reset, got %+v", s)
	}
	if s.Coins != 0 || s.CoinMultiplier {
		t.Errorf("reset should clear the economy, got coins=%d mult=%v", s.Coins, s.CoinMultiplier)
	}
	if rec.count(EventRevived) != 1 {
		t.Error("expected a revived event")
	}
}

func TestResetDeEvolvesLivingPet(t *testing.T) {
	e, _, rec := newTestEngine(t, 1)
	e.state.Form = FormSquare
	e.Reset()

	s := e.State()
	if !s.Evolving || s.EvolveTo != FormCircle {
		t.Errorf("expected transition back to circle, got %+v", s)
	}
	if rec.count(EventEvolve) != 1 {
		t.Error("expected an evolve event for the de-evolution")
	}
}

func TestFreezeBlocksTickAndAging(t *testing.T) {
	e, clock, _ := newTestEngine(t, 1)
	e.Freeze()
	clock.Advance(time.Minute)
	e.Tick(ActivityIdle, 60)

	s := e.State()
	if s.Age != 0 || s.Hunger != 50 || s.Energy != 80 {
		t.Errorf("frozen pet should not change: %+v", s)
	}

	e.Unfreeze()
	e.Tick(ActivityIdle, 60)
	if e.State().Age != 60 {
		t.Error("unfrozen pet should age again")
	}
}

func TestShakePenalty(t *testing.T) {
	e, clock, rec := newTestEngine(t, 1)
	e.state.Hunger = 0

	res := e.Feed()
	if res.OK || res.Reason != ReasonSaturated {
		t.Fatalf("expected saturated refusal, got %+v", res)
	}

	s := e.State()
	if s.Happiness != 68 {
		t.Errorf("refusal should cost 2 happiness, got %v", s.Happiness)
	}
	if s.ShakeType != ShakeNoFeed || !s.IsShaking(clock.Now()) {
		t.Errorf("expected active no-feed shake, got %+v", s)
	}
	ev, ok := rec.last(EventShake)
	if !ok || ev.Data["type"] != ShakeNoFeed {
		t.Errorf("expected shake event, got %+v", ev)
	}

	clock.Advance(time.Second)
	if e.State().IsShaking(clock.Now()) {
		t.Error("shake should expire after its duration")
	}
}

func TestPersistFailureTolerated(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	e := New(uuid.New(),
		WithClock(clock.Now),
		WithRand(rand.New(rand.NewSource(1))),
		WithStore(failingStore{}),
	)

	if res := e.Play(); !res.OK {
		t.Errorf("store failure must not fail the action, got %+v", res)
	}
	if e.State().Happiness != 82 {
		t.Error("action effect should still apply when the save fails")
	}
}

func TestStateCloneIsolation(t *testing.T) {
	e, _, _ := newTestEngine(t, 1)
	s := e.State()
	s.Hunger = 99
	s.Training[AbilityStrength].Level = 9
	s.Inventory[ItemApple] = 3

	fresh := e.State()
	if fresh.Hunger == 99 || fresh.Training[AbilityStrength].Level == 9 || fresh.Inventory[ItemApple] == 3 {
		t.Error("State() must return an isolated copy")
	}
}

func TestWellness(t *testing.T) {
	tests := []struct {
		name                   string
		hunger, energy, health float64
		want                   float64
	}{
		{"defaults", 50, 80, 100, 69},
		{"perfect care", 0, 100, 100, 100},
		{"total neglect", 100, 0, 0, 0},
		{"starving but rested", 100, 100, 100, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &State{Hunger: tt.hunger, Energy: tt.energy, Health: tt.health}
			if got := s.Wellness(); got != tt.want {
				t.Errorf("wellness = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActionLogCap(t *testing.T) {
	e, _, _ := newTestEngine(t, 1)
	for i := 0; i < 15; i++ {
		e.state.Energy = 0
		e.Sleep()
	}
	log := e.State().Log
	if len(log) != ActionLogLimit {
		t.Errorf("log length = %d, want %d", len(log), ActionLogLimit)
	}
}
