package pet

import (
	"math"
	"time"
)

const (
	trainEnergyCost  = 15
	trainXPPerRep    = 20
	trainCooldown    = 1500 * time.Millisecond
	levelUpHappiness = 5
)

// levelUpThreshold is the XP needed to finish the given level. The
// requirement scales linearly so later levels take more sessions.
func levelUpThreshold(level int) float64 {
	return 100 + float64(level)*50
}

// TrainAbility spends energy to add XP to one ability. Level-ups carry
// surplus XP forward rather than discarding it.
func (e *Engine) TrainAbility(name Ability) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state

	if s.Form == FormDead {
		return refused(ReasonDead)
	}
	if s.InBattle {
		return refused(ReasonInBattle)
	}
	if s.Frozen {
		e.triggerShake(ShakeFrozen, shakeDuration)
		e.persist()
		return refused(ReasonFrozen)
	}
	if _, ok := s.Training[name]; !ok {
		return refused(ReasonUnknown)
	}

	if s.Energy < trainEnergyCost {
		e.triggerShake(ShakeNoPlay, shakeDuration)
		e.persist()
		return refused(ReasonExhausted)
	}
	now := e.now()
	if now.Sub(s.LastTrainTime) < trainCooldown {
		return refused(ReasonCooldown)
	}
	s.LastTrainTime = now

	s.Energy = clamp(s.Energy - trainEnergyCost)

	gain := trainXPPerRep * e.trainingMultiplier(now)
	leveled := e.grantXP(name, gain)
	if !leveled {
		e.log("Trained %s (+%d XP)", name, int(math.Round(gain)))
	}

	e.recordAction("training")
	e.persist()
	return Result{OK: true}
}

// grantXP adds XP to an ability and applies as many level-ups as the
// total covers, carrying the remainder. Reports whether any level was
// gained. XP keeps accruing at the level cap but no further levels are
// granted.
func (e *Engine) grantXP(name Ability, amount float64) bool {
	progress := e.state.Training[name]
	progress.XP += amount

	leveled := false
	for progress.Level < MaxAbilityLevel && progress.XP >= levelUpThreshold(progress.Level) {
		progress.XP -= levelUpThreshold(progress.Level)
		progress.Level++
		leveled = true
		e.state.Happiness = clamp(e.state.Happiness + levelUpHappiness)
		e.log("Training %s leveled up to %d!", name, progress.Level)
		e.emit(EventLevelUp, map[string]any{
			"ability": name,
			"level":   progress.Level,
		})
	}
	return leveled
}

// trainingMultiplier is the XP multiplier for training sessions:
// the all-XP booster stacks with the training powder.
func (e *Engine) trainingMultiplier(now time.Time) float64 {
	m := e.xpMultiplier(now)
	if e.lazyActive(&e.state.TrainingPowderUntil, now) {
		m *= 1.5
	}
	return m
}

// xpMultiplier is the multiplier applied to every XP gain (training and
// battle rewards) while the XP boost is active.
func (e *Engine) xpMultiplier(now time.Time) float64 {
	if e.lazyActive(&e.state.XPBoostUntil, now) {
		return 2
	}
	return 1
}

// XPMultiplier reports the currently effective all-XP multiplier.
func (e *Engine) XPMultiplier() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.xpMultiplier(e.now())
}

// lazyActive checks a booster expiry, clearing it once passed. Boosters
// are never proactively expired; the next read does it.
func (e *Engine) lazyActive(until *time.Time, now time.Time) bool {
	if until.IsZero() {
		return false
	}
	if now.After(*until) {
		*until = time.Time{}
		return false
	}
	return true
}
