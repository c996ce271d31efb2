package pet

import (
	"math"
	"testing"
	"time"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestTickBaselineDrift(t *testing.T) {
	e, clock, _ := newTestEngine(t, 1)
	clock.Advance(10 * time.Second)
	e.Tick(ActivityIdle, 10)

	s := e.State()
	if !approx(s.Hunger, 50.5) {
		t.Errorf("hunger = %v, want 50.5", s.Hunger)
	}
	if !approx(s.Energy, 79.7) {
		t.Errorf("energy = %v, want 79.7", s.Energy)
	}
	if s.Happiness >= 70 {
		t.Errorf("idle boredom should drain happiness, got %v", s.Happiness)
	}
	if s.Age != 10 {
		t.Errorf("age = %v, want 10", s.Age)
	}
}

func TestTickActivityModifiers(t *testing.T) {
	tests := []struct {
		name     string
		activity Activity
		check    func(t *testing.T, before, after *State)
	}{
		{"sleeping restores energy", ActivitySleeping, func(t *testing.T, before, after *State) {
			if after.Energy <= before.Energy {
				t.Errorf("energy %v -> %v, expected increase", before.Energy, after.Energy)
			}
		}},
		{"feeding reduces hunger", ActivityFeeding, func(t *testing.T, before, after *State) {
			if after.Hunger >= before.Hunger {
				t.Errorf("hunger %v -> %v, expected decrease", before.Hunger, after.Hunger)
			}
		}},
		{"playing lifts happiness", ActivityPlaying, func(t *testing.T, before, after *State) {
			if after.Happiness <= before.Happiness {
				t.Errorf("happiness %v -> %v, expected increase", before.Happiness, after.Happiness)
			}
		}},
		{"sickness erodes health", ActivitySick, func(t *testing.T, before, after *State) {
			if after.Health >= before.Health {
				t.Errorf("health %v -> %v, expected decrease", before.Health, after.Health)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, clock, _ := newTestEngine(t, 1)
			before := e.State()
			clock.Advance(10 * time.Second)
			e.Tick(tt.activity, 10)
			tt.check(t, before, e.State())
		})
	}
}

func TestTickVitalsStayClamped(t *testing.T) {
	e, clock, _ := newTestEngine(t, 1)
	e.state.Hunger = 99.9
	e.state.Energy = 0.1
	for i := 0; i < 50; i++ {
		clock.Advance(10 * time.Second)
		e.Tick(ActivityIdle, 10)
		s := e.State()
		for name, v := range map[string]float64{
			"hunger": s.Hunger, "happiness": s.Happiness, "energy": s.Energy, "health": s.Health,
		} {
			if v < 0 || v > 100 {
				t.Fatalf("%s out of range after tick %d: %v", name, i, v)
			}
		}
		if s.Form == FormDead {
			return
		}
	}
}

func TestTickDeathFromNeglect(t *testing.T) {
	e, clock, rec := newTestEngine(t, 1)
	e.state.Hunger = 100
	e.state.Energy = 0
	e.state.Health = 0

	clock.Advance(time.Second)
	e.Tick(ActivityIdle, 1)

	if got := e.State().Form; got != FormDead {
		t.Fatalf("expected death at zero wellness, got %s", got)
	}
	if rec.count(EventDied) != 1 {
		t.Error("expected a single died event")
	}

	// A dead pet only ages.
	age := e.State().Age
	clock.Advance(time.Minute)
	e.Tick(ActivityIdle, 60)
	s := e.State()
	if s.Age != age+60 {
		t.Errorf("dead pet should still age, got %v", s.Age)
	}
	if s.Hunger != 100 || s.Energy != 0 {
		t.Error("dead pet stats must not move")
	}
}

func TestEvolutionAccumulatesAndTriggers(t *testing.T) {
	e, clock, rec := newTestEngine(t, 1)
	e.state.Hunger = 20 // wellness 84, above the circle edge threshold

	clock.Advance(time.Minute)
	e.Tick(ActivityIdle, 60)
	if got := e.State().CircleTimer; got != 60 {
		t.Fatalf("timer = %v, want 60", got)
	}

	clock.Advance(time.Minute)
	e.Tick(ActivityIdle, 60)

	s := e.State()
	if !s.Evolving || s.EvolveTo != FormTriangle {
		t.Fatalf("expected evolution to triangle after 120s, got %+v", s)
	}
	if s.CircleTimer != 0 {
		t.Errorf("timer should reset once the evolution starts, got %v", s.CircleTimer)
	}
	ev, ok := rec.last(EventEvolve)
	if !ok || ev.Data["to"] != FormTriangle {
		t.Errorf("expected evolve event to triangle, got %+v", ev)
	}
}

func TestEvolutionTimerResetsOnDip(t *testing.T) {
	e, clock, _ := newTestEngine(t, 1)
	e.state.Hunger = 20

	clock.Advance(time.Minute)
	e.Tick(ActivityIdle, 60)
	if e.State().CircleTimer != 60 {
		t.Fatal("expected 60s of accumulated progress")
	}

	// One second below the threshold wipes all progress.
	e.state.Hunger = 100
	clock.Advance(time.Second)
	e.Tick(ActivityIdle, 1)
	if got := e.State().CircleTimer; got != 0 {
		t.Fatalf("timer should zero on a wellness dip, got %v", got)
	}

	e.state.Hunger = 20
	clock.Advance(time.Minute)
	e.Tick(ActivityIdle, 60)
	if got := e.State().CircleTimer; got != 60 {
		t.Errorf("progress should restart from zero, got %v", got)
	}
}

func TestEvolutionCompletes(t *testing.T) {
	e, clock, rec := newTestEngine(t, 1)
	if !e.StartEvolution(FormTriangle, 4*time.Second) {
		t.Fatal("expected evolution to start")
	}

	// Form is unchanged until the transition duration elapses.
	clock.Advance(2 * time.Second)
	e.Tick(ActivityIdle, 2)
	if s := e.State(); s.Form != FormCircle || !s.Evolving {
		t.Fatalf("mid-transition state wrong: %+v", s)
	}

	clock.Advance(2 * time.Second)
	e.Tick(ActivityIdle, 2)
	s := e.State()
	if s.Form != FormTriangle || s.Evolving {
		t.Fatalf("expected completed evolution, got %+v", s)
	}
	ev, ok := rec.last(EventEvolved)
	if !ok || ev.Data["to"] != FormTriangle {
		t.Errorf("expected evolved event, got %+v", ev)
	}
}

func TestStartEvolutionGuards(t *testing.T) {
	e, _, _ := newTestEngine(t, 1)
	if e.StartEvolution(FormCircle, time.Second) {
		t.Error("evolving to the current form should refuse")
	}
	if !e.StartEvolution(FormTriangle, time.Minute) {
		t.Fatal("expected evolution to start")
	}
	if e.StartEvolution(FormSquare, time.Second) {
		t.Error("a second evolution should refuse while one is underway")
	}
}

func TestEncounterScheduling(t *testing.T) {
	e, clock, _ := newTestEngine(t, 7)
	clock.Advance(time.Second)
	e.Tick(ActivityIdle, 1)

	next := e.State().NextBattleTime
	if next.IsZero() {
		t.Fatal("first tick should schedule the next encounter roll")
	}
	delay := next.Sub(clock.Now())
	if delay < 2*time.Minute || delay > 5*time.Minute {
		t.Errorf("encounter delay %v outside 2-5min window", delay)
	}

	// Past the scheduled time the roll happens and a new time is set.
	clock.Advance(5 * time.Minute)
	e.Tick(ActivityIdle, 1)
	s := e.State()
	if !s.NextBattleTime.After(clock.Now()) {
		t.Error("a consumed roll should reschedule")
	}
}
