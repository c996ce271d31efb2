package pet

import (
	"time"
)

// Form is the pet's evolution stage. Forms advance along a linear chain
// circle -> triangle -> square -> circle-plus. Dead is terminal and
// reachable from any stage.
type Form string

const (
	FormCircle     Form = "circle"
	FormTriangle   Form = "triangle"
	FormSquare     Form = "square"
	FormCirclePlus Form = "circle-plus"
	FormDead       Form = "dead"
)

// Activity is the pet's current animation/behavior state, owned by the
// driver. The engine only cares about which modifier bucket applies
// during a tick.
type Activity string

const (
	ActivityIdle     Activity = "idle"
	ActivityPlaying  Activity = "playing"
	ActivityFeeding  Activity = "feeding"
	ActivitySleeping Activity = "sleeping"
	ActivitySick     Activity = "sick"
)

// Ability names the four trainable stats.
type Ability string

const (
	AbilityStrength     Ability = "strength"
	AbilitySpeed        Ability = "speed"
	AbilityDefense      Ability = "defense"
	AbilityIntelligence Ability = "intelligence"
)

// Abilities returns the fixed ability set in canonical order.
func Abilities() []Ability {
	return []Ability{AbilityStrength, AbilitySpeed, AbilityDefense, AbilityIntelligence}
}

// MaxAbilityLevel caps training levels.
const MaxAbilityLevel = 10

// AbilityProgress tracks one ability's level and partial XP.
type AbilityProgress struct {
	Level int     `json:"level"`
	XP    float64 `json:"xp"`
}

// EnemyType buckets encounter difficulty.
type EnemyType string

const (
	EnemyWeak   EnemyType = "weak"
	EnemyNormal EnemyType = "normal"
	EnemyStrong EnemyType = "strong"
	EnemyBoss   EnemyType = "boss"
)

// Enemy is the opponent in the current battle. It exists only between
// BattleStart and BattleEnd and is never persisted.
type Enemy struct {
	Type     EnemyType `json:"type"`
	Level    int       `json:"level"`
	HP       int       `json:"hp"`
	MaxHP    int       `json:"max_hp"`
	Strength int       `json:"strength"`
	Speed    int       `json:"speed"`
	Defense  int       `json:"defense"`
	Name     string    `json:"name"`
}

// ActionLogLimit caps the human-readable action log.
const ActionLogLimit = 10

// State is the full mutable aggregate owned by the Engine. Vitals are
// always clamped to [0,100] after every mutation.
type State struct {
	// Vitals. Hunger is inverted: higher means hungrier.
	Hunger    float64 `json:"hunger"`
	Happiness float64 `json:"happiness"`
	Energy    float64 `json:"energy"`
	Health    float64 `json:"health"`

	// Age in simulated seconds. Frozen pets do not age.
	Age float64 `json:"age"`

	Form Form `json:"form"`

	// Evolution-in-progress bookkeeping. Form does not change until the
	// duration elapses.
	Evolving       bool          `json:"evolving"`
	EvolveFrom     Form          `json:"evolve_from,omitempty"`
	EvolveTo       Form          `json:"evolve_to,omitempty"`
	EvolveStart    time.Time     `json:"evolve_start,omitempty"`
	EvolveDuration time.Duration `json:"evolve_duration,omitempty"`

	// Evolution accumulators, one per transition edge, in seconds of
	// continuous wellness above the edge's threshold. Any tick below the
	// threshold resets the edge's accumulator to zero.
	CircleTimer   float64 `json:"circle_timer"`
	TriangleTimer float64 `json:"triangle_timer"`
	SquareTimer   float64 `json:"square_timer"`

	Frozen     bool      `json:"frozen"`
	FreezeTime time.Time `json:"freeze_time,omitempty"`

	Training map[Ability]*AbilityProgress `json:"training"`

	// Battle state. Ephemeral: cleared at battle end, never persisted.
	InBattle       bool      `json:"in_battle"`
	CurrentEnemy   *Enemy    `json:"current_enemy,omitempty"`
	BattleLog      []string  `json:"battle_log,omitempty"`
	LastBattleTime time.Time `json:"last_battle_time,omitempty"`
	NextBattleTime time.Time `json:"next_battle_time,omitempty"`

	// Neglect/repetition tracking.
	LastActionTime  time.Time `json:"last_action_time,omitempty"`
	LastActionState string    `json:"last_action_state,omitempty"`
	LastActionCount int       `json:"last_action_count"`

	// Rapid-training guardrail. Session-local, not persisted.
	LastTrainTime time.Time `json:"last_train_time,omitempty"`

	// Refusal shake, polled by renderers.
	ShakeType  string    `json:"shake_type,omitempty"`
	ShakeUntil time.Time `json:"shake_until,omitempty"`

	// Human-readable action log, newest first, capped at ActionLogLimit.
	Log []string `json:"log,omitempty"`

	// Economy. Inert unless the driver exercises the shop.
	Coins               int            `json:"coins"`
	Inventory           map[ItemID]int `json:"inventory"`
	TrainingPowderUntil time.Time      `json:"training_powder_until,omitempty"`
	XPBoostUntil        time.Time      `json:"xp_boost_until,omitempty"`
	CoinMultiplier      bool           `json:"coin_multiplier"`
	StatBoostKitUsed    bool           `json:"stat_boost_kit_used"`
	PassiveIncome       bool           `json:"passive_income"`
}

// newState returns the fixed session defaults. The caller overlays any
// persisted snapshot afterwards.
func newState(now time.Time) *State {
	s := &State{
		Hunger:         50,
		Happiness:      70,
		Energy:         80,
		Health:         100,
		Form:           FormCircle,
		Training:       make(map[Ability]*AbilityProgress, 4),
		Inventory:      make(map[ItemID]int),
		LastActionTime: now,
	}
	for _, a := range Abilities() {
		s.Training[a] = &AbilityProgress{}
	}
	return s
}

// Wellness is the composite care score in [0,100] that drives both death
// and evolution progression.
func (s *State) Wellness() float64 {
	return (100-s.Hunger)*0.5 + s.Energy*0.3 + s.Health*0.2
}

// AverageTrainingLevel is the mean of the four ability levels.
func (s *State) AverageTrainingLevel() float64 {
	var sum float64
	for _, a := range Abilities() {
		sum += float64(s.Training[a].Level)
	}
	return sum / 4
}

// IsShaking reports whether a refusal shake is still active at now.
func (s *State) IsShaking(now time.Time) bool {
	return now.Before(s.ShakeUntil)
}

// clampVitals bounds all four vitals to [0,100].
func (s *State) clampVitals() {
	s.Hunger = clamp(s.Hunger)
	s.Happiness = clamp(s.Happiness)
	s.Energy = clamp(s.Energy)
	s.Health = clamp(s.Health)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// clone returns a deep copy safe to hand to callers outside the engine
// lock.
func (s *State) clone() *State {
	out := *s
	out.Training = make(map[Ability]*AbilityProgress, len(s.Training))
	for a, p := range s.Training {
		cp := *p
		out.Training[a] = &cp
	}
	out.Inventory = make(map[ItemID]int, len(s.Inventory))
	for id, n := range s.Inventory {
		out.Inventory[id] = n
	}
	if s.CurrentEnemy != nil {
		enemy := *s.CurrentEnemy
		out.CurrentEnemy = &enemy
	}
	out.BattleLog = append([]string(nil), s.BattleLog...)
	out.Log = append([]string(nil), s.Log...)
	return &out
}
