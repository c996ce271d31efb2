package pet

import (
	"encoding/json"
	"time"
)

// Snapshot is the persisted subset of State. Battle state, the enemy,
// the battle log and the neglect-tracking triplet are deliberately
// excluded; a reloaded pet starts out of battle with fresh tracking.
//
// Fields are pointers so a merge can tell "absent" from a legitimate
// zero value.
type Snapshot struct {
	Hunger    *float64 `json:"hunger,omitempty"`
	Happiness *float64 `json:"happiness,omitempty"`
	Energy    *float64 `json:"energy,omitempty"`
	Health    *float64 `json:"health,omitempty"`
	Age       *float64 `json:"age,omitempty"`
	Form      *Form    `json:"form,omitempty"`

	Evolving       *bool          `json:"evolving,omitempty"`
	EvolveFrom     *Form          `json:"evolve_from,omitempty"`
	EvolveTo       *Form          `json:"evolve_to,omitempty"`
	EvolveStart    *time.Time     `json:"evolve_start,omitempty"`
	EvolveDuration *time.Duration `json:"evolve_duration,omitempty"`

	CircleTimer   *float64 `json:"circle_timer,omitempty"`
	TriangleTimer *float64 `json:"triangle_timer,omitempty"`
	SquareTimer   *float64 `json:"square_timer,omitempty"`

	Frozen     *bool      `json:"frozen,omitempty"`
	FreezeTime *time.Time `json:"freeze_time,omitempty"`

	Training map[Ability]*AbilityProgress `json:"training,omitempty"`

	NextBattleTime *time.Time `json:"next_battle_time,omitempty"`
	LastBattleTime *time.Time `json:"last_battle_time,omitempty"`

	Coins               *int           `json:"coins,omitempty"`
	Inventory           map[ItemID]int `json:"inventory,omitempty"`
	TrainingPowderUntil *time.Time     `json:"training_powder_until,omitempty"`
	XPBoostUntil        *time.Time     `json:"xp_boost_until,omitempty"`
	CoinMultiplier      *bool          `json:"coin_multiplier,omitempty"`
	StatBoostKitUsed    *bool          `json:"stat_boost_kit_used,omitempty"`
	PassiveIncome       *bool          `json:"passive_income,omitempty"`
}

// UnmarshalJSON merges field by field: keys that are missing or carry the
// wrong type are skipped rather than failing the whole snapshot. A blob
// that is not a JSON object yields an empty snapshot, not an error.
func (sn *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	tryField(raw, "hunger", &sn.Hunger)
	tryField(raw, "happiness", &sn.Happiness)
	tryField(raw, "energy", &sn.Energy)
	tryField(raw, "health", &sn.Health)
	tryField(raw, "age", &sn.Age)
	tryField(raw, "form", &sn.Form)
	tryField(raw, "evolving", &sn.Evolving)
	tryField(raw, "evolve_from", &sn.EvolveFrom)
	tryField(raw, "evolve_to", &sn.EvolveTo)
	tryField(raw, "evolve_start", &sn.EvolveStart)
	tryField(raw, "evolve_duration", &sn.EvolveDuration)
	tryField(raw, "circle_timer", &sn.CircleTimer)
	tryField(raw, "triangle_timer", &sn.TriangleTimer)
	tryField(raw, "square_timer", &sn.SquareTimer)
	tryField(raw, "frozen", &sn.Frozen)
	tryField(raw, "freeze_time", &sn.FreezeTime)
	tryField(raw, "next_battle_time", &sn.NextBattleTime)
	tryField(raw, "last_battle_time", &sn.LastBattleTime)
	tryField(raw, "coins", &sn.Coins)
	tryField(raw, "training_powder_until", &sn.TrainingPowderUntil)
	tryField(raw, "xp_boost_until", &sn.XPBoostUntil)
	tryField(raw, "coin_multiplier", &sn.CoinMultiplier)
	tryField(raw, "stat_boost_kit_used", &sn.StatBoostKitUsed)
	tryField(raw, "passive_income", &sn.PassiveIncome)

	if v, ok := raw["training"]; ok {
		var m map[Ability]*AbilityProgress
		if json.Unmarshal(v, &m) == nil {
			sn.Training = m
		}
	}
	if v, ok := raw["inventory"]; ok {
		var m map[ItemID]int
		if json.Unmarshal(v, &m) == nil {
			sn.Inventory = m
		}
	}
	return nil
}

// tryField decodes one key into a fresh value of the concrete type and
// installs the pointer only on success. Decoding straight into the
// pointer field would allocate it before a type mismatch is detected,
// leaving a zero value where the default should survive.
func tryField[T any](raw map[string]json.RawMessage, key string, dst **T) {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return
	}
	*dst = &out
}

// snapshot extracts the persisted subset of the state.
func (s *State) snapshot() *Snapshot {
	sn := &Snapshot{
		Hunger:    ptr(s.Hunger),
		Happiness: ptr(s.Happiness),
		Energy:    ptr(s.Energy),
		Health:    ptr(s.Health),
		Age:       ptr(s.Age),
		Form:      ptr(s.Form),

		Evolving:      ptr(s.Evolving),
		CircleTimer:   ptr(s.CircleTimer),
		TriangleTimer: ptr(s.TriangleTimer),
		SquareTimer:   ptr(s.SquareTimer),

		Frozen: ptr(s.Frozen),

		Coins:            ptr(s.Coins),
		CoinMultiplier:   ptr(s.CoinMultiplier),
		StatBoostKitUsed: ptr(s.StatBoostKitUsed),
		PassiveIncome:    ptr(s.PassiveIncome),
	}
	if s.Evolving {
		sn.EvolveFrom = ptr(s.EvolveFrom)
		sn.EvolveTo = ptr(s.EvolveTo)
		sn.EvolveStart = ptr(s.EvolveStart)
		sn.EvolveDuration = ptr(s.EvolveDuration)
	}
	if !s.FreezeTime.IsZero() {
		sn.FreezeTime = ptr(s.FreezeTime)
	}
	if !s.NextBattleTime.IsZero() {
		sn.NextBattleTime = ptr(s.NextBattleTime)
	}
	if !s.LastBattleTime.IsZero() {
		sn.LastBattleTime = ptr(s.LastBattleTime)
	}
	if !s.TrainingPowderUntil.IsZero() {
		sn.TrainingPowderUntil = ptr(s.TrainingPowderUntil)
	}
	if !s.XPBoostUntil.IsZero() {
		sn.XPBoostUntil = ptr(s.XPBoostUntil)
	}

	sn.Training = make(map[Ability]*AbilityProgress, len(s.Training))
	for a, p := range s.Training {
		cp := *p
		sn.Training[a] = &cp
	}
	sn.Inventory = make(map[ItemID]int, len(s.Inventory))
	for id, n := range s.Inventory {
		sn.Inventory[id] = n
	}
	return sn
}

// apply overlays a snapshot onto defaults. Nil fields keep the default;
// out-of-range vitals are clamped on the way in.
func (s *State) apply(sn *Snapshot) {
	if sn == nil {
		return
	}
	setFloat := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setFloat(&s.Hunger, sn.Hunger)
	setFloat(&s.Happiness, sn.Happiness)
	setFloat(&s.Energy, sn.Energy)
	setFloat(&s.Health, sn.Health)
	setFloat(&s.Age, sn.Age)
	setFloat(&s.CircleTimer, sn.CircleTimer)
	setFloat(&s.TriangleTimer, sn.TriangleTimer)
	setFloat(&s.SquareTimer, sn.SquareTimer)

	if sn.Form != nil && validForm(*sn.Form) {
		s.Form = *sn.Form
	}
	if sn.Evolving != nil {
		s.Evolving = *sn.Evolving
	}
	if sn.EvolveFrom != nil {
		s.EvolveFrom = *sn.EvolveFrom
	}
	if sn.EvolveTo != nil {
		s.EvolveTo = *sn.EvolveTo
	}
	if sn.EvolveStart != nil {
		s.EvolveStart = *sn.EvolveStart
	}
	if sn.EvolveDuration != nil {
		s.EvolveDuration = *sn.EvolveDuration
	}
	if s.Evolving && (s.EvolveTo == "" || !validForm(s.EvolveTo)) {
		// Half-recorded evolution: drop it rather than strand the pet.
		s.Evolving = false
		s.EvolveFrom = ""
		s.EvolveTo = ""
	}

	if sn.Frozen != nil {
		s.Frozen = *sn.Frozen
	}
	if sn.FreezeTime != nil {
		s.FreezeTime = *sn.FreezeTime
	}
	if sn.NextBattleTime != nil {
		s.NextBattleTime = *sn.NextBattleTime
	}
	if sn.LastBattleTime != nil {
		s.LastBattleTime = *sn.LastBattleTime
	}

	for _, a := range Abilities() {
		p, ok := sn.Training[a]
		if !ok || p == nil {
			continue
		}
		level := p.Level
		if level < 0 {
			level = 0
		}
		if level > MaxAbilityLevel {
			level = MaxAbilityLevel
		}
		xp := p.XP
		if xp < 0 {
			xp = 0
		}
		s.Training[a] = &AbilityProgress{Level: level, XP: xp}
	}

	if sn.Coins != nil && *sn.Coins >= 0 {
		s.Coins = *sn.Coins
	}
	for id, n := range sn.Inventory {
		if _, known := itemCatalog[id]; known && n > 0 {
			s.Inventory[id] = n
		}
	}
	if sn.TrainingPowderUntil != nil {
		s.TrainingPowderUntil = *sn.TrainingPowderUntil
	}
	if sn.XPBoostUntil != nil {
		s.XPBoostUntil = *sn.XPBoostUntil
	}
	if sn.CoinMultiplier != nil {
		s.CoinMultiplier = *sn.CoinMultiplier
	}
	if sn.StatBoostKitUsed != nil {
		s.StatBoostKitUsed = *sn.StatBoostKitUsed
	}
	if sn.PassiveIncome != nil {
		s.PassiveIncome = *sn.PassiveIncome
	}

	s.clampVitals()
}

func validForm(f Form) bool {
	switch f {
	case FormCircle, FormTriangle, FormSquare, FormCirclePlus, FormDead:
		return true
	}
	return false
}

func ptr[T any](v T) *T { return &v }
