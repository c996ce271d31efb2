package pet

import "time"

// Per-second rates and thresholds for the decay model. Values are tuned
// for a session-scale pet: minutes to evolve, sustained neglect to die.
const (
	baseHungerRate = 0.05
	baseEnergyRate = 0.03

	hungerPenaltyThreshold = 85
	neglectGraceSeconds    = 60
	neglectRampSeconds     = 120
	lowEnergyThreshold     = 15
	boredomRate            = 0.02
	ageDecayCap            = 0.015
	evolutionStressRate    = 0.05
	anxietyThreshold       = 30

	encounterChance = 0.4
)

// Evolution edges: wellness threshold, seconds of continuous wellness
// required, and the visual transition duration once triggered.
var evolutionEdges = map[Form]struct {
	To        Form
	Threshold float64
	HoldSecs  float64
	Duration  time.Duration
}{
	FormCircle:   {To: FormTriangle, Threshold: 70, HoldSecs: 120, Duration: 4 * time.Second},
	FormTriangle: {To: FormSquare, Threshold: 60, HoldSecs: 300, Duration: 6 * time.Second},
	FormSquare:   {To: FormCirclePlus, Threshold: 70, HoldSecs: 240, Duration: 7 * time.Second},
}

// Tick advances the simulation by dt seconds, assuming the pet spent the
// whole interval in the given activity. Frozen pets do not change at
// all; dead pets only age.
func (e *Engine) Tick(activity Activity, dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Frozen || dt <= 0 {
		return
	}
	s := e.state
	s.Age += dt
	if s.Form == FormDead {
		return
	}

	now := e.now()

	// Commit a finished evolution before stats move.
	if s.Evolving && now.Sub(s.EvolveStart) >= s.EvolveDuration {
		from := s.EvolveFrom
		s.Form = s.EvolveTo
		s.Evolving = false
		s.EvolveFrom = ""
		s.EvolveTo = ""
		s.EvolveStart = time.Time{}
		s.EvolveDuration = 0
		e.log("Evolved into %s", s.Form)
		e.emit(EventEvolved, map[string]any{"from": from, "to": s.Form})
		e.persist()
	}

	// Baseline drift.
	s.Hunger += baseHungerRate * dt
	s.Energy -= baseEnergyRate * dt

	// Activity modifier.
	switch activity {
	case ActivityPlaying:
		s.Happiness += 0.5 * dt
		s.Energy -= 0.06 * dt
		s.Hunger += 0.02 * dt
	case ActivityFeeding:
		s.Hunger -= 0.3 * dt
		s.Happiness += 0.15 * dt
	case ActivitySleeping:
		s.Energy += 0.25 * dt
		s.Hunger += 0.02 * dt
	case ActivitySick:
		s.Health -= 0.2 * dt
		s.Happiness -= 0.1 * dt
	}

	// Happiness drains, all additive.
	if s.Hunger > hungerPenaltyThreshold {
		intensity := (s.Hunger - hungerPenaltyThreshold) / (100 - hungerPenaltyThreshold)
		s.Happiness -= 0.08 * intensity * dt
	}

	sinceAction := now.Sub(s.LastActionTime).Seconds()
	if sinceAction > neglectGraceSeconds {
		intensity := min(1, (sinceAction-neglectGraceSeconds)/neglectRampSeconds)
		s.Happiness -= 0.04 * intensity * dt
	}

	if s.Energy < lowEnergyThreshold {
		intensity := (lowEnergyThreshold - s.Energy) / lowEnergyThreshold
		s.Happiness -= 0.06 * intensity * dt
	}

	if activity == ActivityIdle {
		s.Happiness -= boredomRate * dt
	}

	s.Happiness -= min(ageDecayCap, s.Age/3000) * dt

	if s.Evolving {
		s.Happiness -= evolutionStressRate * dt
	}

	// Death anxiety uses the pre-clamp wellness estimate.
	if w := s.Wellness(); w < anxietyThreshold {
		s.Happiness -= 0.15 * ((anxietyThreshold - w) / anxietyThreshold) * dt
	}

	// Positive feedback when well cared for.
	if s.Health > 50 && s.Hunger < 40 && s.Energy > 40 {
		s.Happiness += 0.2 * dt
	}

	s.clampVitals()

	// Starvation/exhaustion slowly erode health.
	if s.Hunger > 90 || s.Energy < 10 {
		s.Health -= 0.04 * dt
		s.Health = clamp(s.Health)
	}

	// Canonical post-clamp wellness drives death and evolution.
	wellness := s.Wellness()
	if wellness <= 0 {
		e.die()
		return
	}

	e.accumulateEvolution(wellness, dt)

	// Random encounter roll on its own wall-clock schedule.
	if !s.InBattle && activity != ActivitySick {
		if s.NextBattleTime.IsZero() {
			s.NextBattleTime = now.Add(e.randomBattleDelay())
		}
		if !now.Before(s.NextBattleTime) {
			if e.rng.Float64() < encounterChance {
				e.startBattle()
			}
			s.NextBattleTime = now.Add(e.randomBattleDelay())
		}
	}
}

// accumulateEvolution advances the current form's evolution timer while
// wellness holds above the edge threshold, and zeroes it the instant it
// doesn't. No partial credit survives a dip.
func (e *Engine) accumulateEvolution(wellness, dt float64) {
	s := e.state
	if s.Evolving {
		return
	}
	edge, ok := evolutionEdges[s.Form]
	if !ok {
		return
	}
	timer := e.evolutionTimer(s.Form)
	if wellness < edge.Threshold {
		*timer = 0
		return
	}
	*timer += dt
	if *timer >= edge.HoldSecs {
		*timer = 0
		e.startEvolution(edge.To, edge.Duration)
	}
}

func (e *Engine) evolutionTimer(f Form) *float64 {
	switch f {
	case FormCircle:
		return &e.state.CircleTimer
	case FormTriangle:
		return &e.state.TriangleTimer
	default:
		return &e.state.SquareTimer
	}
}

// StartEvolution begins a form transition. No-op while already evolving,
// dead, or when the target equals the current form.
func (e *Engine) StartEvolution(to Form, duration time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startEvolution(to, duration)
}

func (e *Engine) startEvolution(to Form, duration time.Duration) bool {
	s := e.state
	if s.Evolving || s.Form == FormDead || s.Form == to {
		return false
	}
	s.Evolving = true
	s.EvolveFrom = s.Form
	s.EvolveTo = to
	s.EvolveStart = e.now()
	s.EvolveDuration = duration
	e.emit(EventEvolve, map[string]any{
		"from":        s.EvolveFrom,
		"to":          s.EvolveTo,
		"duration_ms": duration.Milliseconds(),
	})
	e.persist()
	return true
}

func (e *Engine) randomBattleDelay() time.Duration {
	minutes := 2 + e.rng.Float64()*3
	return time.Duration(minutes * float64(time.Minute))
}
