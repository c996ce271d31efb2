package pet

import "time"

// Shake tags for refused actions.
const (
	ShakeNoPlay  = "no-play"
	ShakeNoFeed  = "no-feed"
	ShakeNoSleep = "no-sleep"
	ShakeNoHeal  = "no-heal"
	ShakeFrozen  = "frozen"
)

const (
	shakeDuration = 800 * time.Millisecond

	// Repeating the same action this many times in a row frustrates the
	// pet on top of the action's normal effect.
	repetitionLimit   = 4
	repetitionPenalty = 5

	// Sleeping draws an extra soft penalty from the second repeat on.
	napRepetitionLimit   = 2
	napRepetitionPenalty = 3
)

// recordAction tracks interaction time for the neglect drain and counts
// consecutive repeats of the same action for the frustration penalty.
func (e *Engine) recordAction(actionState string) {
	s := e.state
	s.LastActionTime = e.now()
	if actionState == s.LastActionState {
		s.LastActionCount++
	} else {
		s.LastActionCount = 1
		s.LastActionState = actionState
	}
}

// Play boosts happiness at an energy cost. Refused when happiness is
// already full or the pet is too tired.
func (e *Engine) Play() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state

	if s.Form == FormDead {
		return refused(ReasonDead)
	}
	if s.InBattle {
		return refused(ReasonInBattle)
	}
	if s.Happiness >= 100 {
		e.triggerShake(ShakeNoPlay, shakeDuration)
		e.persist()
		return refused(ReasonSaturated)
	}
	if s.Energy <= 10 {
		e.triggerShake(ShakeNoPlay, shakeDuration)
		e.persist()
		return refused(ReasonExhausted)
	}

	e.recordAction("playing")
	if s.LastActionCount >= repetitionLimit {
		s.Happiness = clamp(s.Happiness - repetitionPenalty)
		e.log("Pet got bored (repeated playing)")
	}

	s.Happiness = clamp(s.Happiness + 12)
	s.Energy = clamp(s.Energy - 15)
	e.log("Played with pet (+12 happiness, -15 energy)")
	e.persist()
	return Result{OK: true}
}

// Feed reduces hunger and restores a little happiness and energy.
// Refused when the pet is already full.
func (e *Engine) Feed() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state

	if s.Form == FormDead {
		return refused(ReasonDead)
	}
	if s.InBattle {
		return refused(ReasonInBattle)
	}
	if s.Hunger <= 0 {
		e.triggerShake(ShakeNoFeed, shakeDuration)
		e.persist()
		return refused(ReasonSaturated)
	}

	e.recordAction("feeding")
	if s.LastActionCount >= repetitionLimit {
		s.Happiness = clamp(s.Happiness - repetitionPenalty)
		e.log("Pet got bored (repeated feeding)")
	}

	s.Hunger = clamp(s.Hunger - 20)
	s.Happiness = clamp(s.Happiness + 6)
	s.Energy = clamp(s.Energy + 8)
	e.log("Fed pet (-20 hunger, +6 happiness, +8 energy)")
	e.persist()
	return Result{OK: true}
}

// Sleep restores energy immediately. Refused at full energy; napping on
// repeat annoys the pet.
func (e *Engine) Sleep() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state

	if s.Form == FormDead {
		return refused(ReasonDead)
	}
	if s.InBattle {
		return refused(ReasonInBattle)
	}
	if s.Energy >= 100 {
		e.triggerShake(ShakeNoSleep, shakeDuration)
		e.persist()
		return refused(ReasonSaturated)
	}

	e.recordAction("sleeping")
	if s.LastActionCount >= repetitionLimit {
		s.Happiness = clamp(s.Happiness - repetitionPenalty)
		e.log("Pet got frustrated (repeated sleeping)")
	}
	if s.LastActionCount >= napRepetitionLimit {
		s.Happiness = clamp(s.Happiness - napRepetitionPenalty)
		e.log("Pet got annoyed by constant napping (-3 happiness)")
	}

	s.Energy = clamp(s.Energy + 20)
	e.log("Pet slept (+20 energy)")
	e.persist()
	return Result{OK: true}
}

// Heal restores health. Unlike the other actions it is allowed during a
// battle; only death and full health block it.
func (e *Engine) Heal() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state

	if s.Form == FormDead {
		return refused(ReasonDead)
	}
	if s.Health >= 100 {
		e.triggerShake(ShakeNoHeal, shakeDuration)
		e.persist()
		return refused(ReasonSaturated)
	}

	e.recordAction("healing")
	if s.LastActionCount >= repetitionLimit {
		s.Happiness = clamp(s.Happiness - repetitionPenalty)
		e.log("Pet got frustrated (repeated healing)")
	}

	s.Health = clamp(s.Health + 25)
	e.log("Healed a bit (+25 health)")
	e.persist()
	return Result{OK: true}
}
