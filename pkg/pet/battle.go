package pet

import (
	"fmt"
	"math"
)

// enemyNames is the fixed pool encounter names are drawn from.
var enemyNames = [...]string{"Slime", "Goblin", "Orc", "Drake", "Hydra"}

// AttackResult reports one attack exchange.
type AttackResult struct {
	Success bool   `json:"success"`
	Hit     bool   `json:"hit"`
	Damage  int    `json:"damage"`
	Log     string `json:"log,omitempty"`
}

// DefendResult reports a defensive turn.
type DefendResult struct {
	Success bool `json:"success"`
	Damage  int  `json:"damage"`
}

// generateEnemy rolls an encounter scaled to the pet's average training
// level. Difficulty buckets: weak 50%, normal 35%, strong 13%, boss 2%.
func (e *Engine) generateEnemy() *Enemy {
	avgLevel := e.state.AverageTrainingLevel()

	roll := e.rng.Float64()
	var enemyType EnemyType
	switch {
	case roll < 0.5:
		enemyType = EnemyWeak
	case roll < 0.85:
		enemyType = EnemyNormal
	case roll < 0.98:
		enemyType = EnemyStrong
	default:
		enemyType = EnemyBoss
	}

	mult := map[EnemyType]float64{
		EnemyWeak:   0.6,
		EnemyNormal: 1.0,
		EnemyStrong: 1.4,
		EnemyBoss:   2.0,
	}[enemyType]

	level := int(math.Round(avgLevel*mult + e.noise(2)))
	if level < 1 {
		level = 1
	}

	hp := int(math.Round(40 + float64(level)*8))
	enemy := &Enemy{
		Type:     enemyType,
		Level:    level,
		HP:       hp,
		MaxHP:    hp,
		Strength: int(math.Round(5 + float64(level)*2)),
		Speed:    int(math.Round(5 + float64(level)*1.5)),
		Defense:  int(math.Round(3 + float64(level))),
		Name:     enemyNames[e.rng.Intn(len(enemyNames))],
	}
	e.state.CurrentEnemy = enemy
	return enemy
}

// StartBattle generates an enemy and opens a battle. Returns false when
// already in battle, dead, or frozen.
func (e *Engine) StartBattle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startBattle()
}

func (e *Engine) startBattle() bool {
	s := e.state
	if s.InBattle || s.Form == FormDead || s.Frozen {
		return false
	}
	enemy := e.generateEnemy()
	s.InBattle = true
	s.BattleLog = nil
	e.log("Battle started with %s (Lvl %d)!", enemy.Name, enemy.Level)
	e.emit(EventBattleStart, map[string]any{"enemy": *enemy})
	return true
}

// Attack resolves one full exchange: the pet's strike and, if the enemy
// survives, its counterattack. Training levels, energy and hunger feed
// the damage and hit-chance formulas.
func (e *Engine) Attack() AttackResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state

	if !s.InBattle || s.CurrentEnemy == nil {
		return AttackResult{}
	}
	enemy := s.CurrentEnemy

	strength := float64(s.Training[AbilityStrength].Level)
	speed := float64(s.Training[AbilitySpeed].Level)
	defense := float64(s.Training[AbilityDefense].Level)

	var hungerPenalty float64
	if s.Hunger > 50 {
		hungerPenalty = s.Hunger - 50
	}
	var energyBonus float64
	if s.Energy > 50 {
		energyBonus = (s.Energy - 50) * 0.1
	}

	damage := int(math.Round(5 + strength*3 + energyBonus - hungerPenalty*0.2 + e.noise(3)))
	if damage < 1 {
		damage = 1
	}

	hitChance := math.Min(0.95, 0.5+speed*0.05)
	hit := e.rng.Float64() < hitChance

	result := AttackResult{Success: true, Hit: hit}
	if hit {
		enemy.HP = maxInt(0, enemy.HP-damage)
		result.Damage = damage
		result.Log = fmt.Sprintf("Hit! Dealt %d damage.", damage)
		s.Happiness = clamp(s.Happiness + 2)
	} else {
		result.Log = "Miss!"
	}
	s.BattleLog = append(s.BattleLog, result.Log)

	// The enemy counterattacks whether the strike landed or not.
	if enemy.HP > 0 {
		raw := math.Max(0, float64(enemy.Strength)-defense*0.5+e.noise(2))
		counter := maxInt(0, int(math.Round(raw-defense*0.3)))
		s.Health = clamp(s.Health - float64(counter))
		s.BattleLog = append(s.BattleLog, fmt.Sprintf("%s countered for %d damage!", enemy.Name, counter))
	}

	// The action event goes out before any battle-end resolution so
	// sinks see the strike that caused the end first.
	e.emit(EventBattleAction, map[string]any{
		"type":   "attack",
		"hit":    hit,
		"damage": result.Damage,
		"enemy":  *enemy,
	})
	if enemy.HP <= 0 {
		e.endBattle(ptr(true))
	} else if s.Health <= 0 {
		e.endBattle(ptr(false))
	}
	return result
}

// Defend skips the pet's strike in exchange for a stronger damage
// reduction against the enemy's attack.
func (e *Engine) Defend() DefendResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state

	if !s.InBattle || s.CurrentEnemy == nil {
		return DefendResult{}
	}
	enemy := s.CurrentEnemy
	defense := float64(s.Training[AbilityDefense].Level)

	s.BattleLog = append(s.BattleLog, "Defending!")

	raw := math.Max(0, float64(enemy.Strength)-defense+e.noise(2))
	damage := maxInt(0, int(math.Round(raw-defense*0.7)))
	s.Health = clamp(s.Health - float64(damage))
	s.BattleLog = append(s.BattleLog, fmt.Sprintf("%s attacked! Defense reduced damage to %d.", enemy.Name, damage))

	e.emit(EventBattleAction, map[string]any{
		"type":   "defend",
		"damage": damage,
		"enemy":  *enemy,
	})
	if s.Health <= 0 {
		e.endBattle(ptr(false))
	}
	return DefendResult{Success: true, Damage: damage}
}

// Flee attempts to escape; speed training improves the odds. A failed
// attempt gives the enemy a free hit.
func (e *Engine) Flee() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state

	if !s.InBattle || s.CurrentEnemy == nil {
		return false
	}
	enemy := s.CurrentEnemy
	speed := float64(s.Training[AbilitySpeed].Level)

	fleeChance := 0.6 + speed*0.03
	escaped := e.rng.Float64() < fleeChance
	enemyView := *enemy

	if escaped {
		s.Energy = clamp(s.Energy - 5)
		s.BattleLog = append(s.BattleLog, "Escaped!")
		e.log("Fled from battle")
		e.emit(EventBattleAction, map[string]any{
			"type":    "flee",
			"escaped": true,
			"enemy":   enemyView,
		})
		e.endBattle(nil)
		return true
	}

	s.BattleLog = append(s.BattleLog, "Failed to escape!")
	damage := int(math.Round(float64(enemy.Strength)*0.8 + e.noise(2)))
	s.Health = clamp(s.Health - float64(damage))
	s.BattleLog = append(s.BattleLog, fmt.Sprintf("%s hit for %d while fleeing!", enemy.Name, damage))
	e.emit(EventBattleAction, map[string]any{
		"type":   "flee-failed",
		"damage": damage,
		"enemy":  enemyView,
	})
	if s.Health <= 0 {
		e.endBattle(ptr(false))
	}
	return false
}

// EndBattle closes the battle: true is a victory, false a defeat, nil a
// neutral escape. No-op outside a battle.
func (e *Engine) EndBattle(won *bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endBattle(won)
}

func (e *Engine) endBattle(won *bool) {
	s := e.state
	if !s.InBattle {
		return
	}
	enemy := s.CurrentEnemy
	now := e.now()

	switch {
	case won != nil && *won:
		xpGain := math.Round(20+float64(enemy.Level)*5) * e.xpMultiplier(now)
		perAbility := math.Round(xpGain / 4)
		for _, a := range Abilities() {
			e.grantXP(a, perAbility)
		}

		s.Happiness = clamp(s.Happiness + 8)
		healthCost := math.Max(5, math.Round(float64(enemy.Level)*2))
		s.Health = clamp(s.Health - healthCost)

		coinGain := int(math.Round(10+float64(enemy.Level)*8+e.rng.Float64()*10)) * e.coinMultiplier()
		s.Coins += coinGain

		e.log("Defeated %s! +%d XP, +%d coins", enemy.Name, int(xpGain), coinGain)
		s.BattleLog = append(s.BattleLog, fmt.Sprintf("Victory! Gained %d XP", int(xpGain)))

	case won != nil:
		// Defeat keeps the flat penalty even when lethal damage already
		// zeroed health; the clamp absorbs the difference.
		s.Happiness = clamp(s.Happiness - 10)
		s.Health = clamp(s.Health - 5)
		e.log("Defeated by %s...", enemy.Name)
		s.BattleLog = append(s.BattleLog, "Defeat! Lost 10 happiness")

	default:
		e.log("Fled from battle")
	}

	s.InBattle = false
	s.CurrentEnemy = nil
	s.LastBattleTime = now

	if s.Health <= 0 {
		e.die()
	}
	e.emit(EventBattleEnd, map[string]any{"won": wonValue(won)})
	e.persist()
}

// coinMultiplier is the multiplier applied to coin rewards.
func (e *Engine) coinMultiplier() int {
	if e.state.CoinMultiplier {
		return 2
	}
	return 1
}

// CoinMultiplier reports the currently effective coin multiplier.
func (e *Engine) CoinMultiplier() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.coinMultiplier()
}

func wonValue(won *bool) any {
	if won == nil {
		return nil
	}
	return *won
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
