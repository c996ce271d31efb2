package pet

import "time"

// ItemID keys the static shop catalog.
type ItemID string

const (
	ItemApple        ItemID = "apple"
	ItemSteak        ItemID = "steak"
	ItemCandy        ItemID = "candy"
	ItemEnergyDrink  ItemID = "energy_drink"
	ItemMedicine     ItemID = "medicine"
	ItemGoldenElixir ItemID = "golden_elixir"

	ItemTrainingPowder ItemID = "training_powder"
	ItemXPBoost        ItemID = "xp_boost"

	ItemCoinMultiplier ItemID = "coin_multiplier"
	ItemStatBoostKit   ItemID = "stat_boost_kit"
	ItemPassiveIncome  ItemID = "passive_income"

	ItemPartyHat   ItemID = "party_hat"
	ItemSunglasses ItemID = "sunglasses"
	ItemBowTie     ItemID = "bow_tie"

	ItemBattleRation ItemID = "battle_ration"
	ItemGuardTonic   ItemID = "guard_tonic"
	ItemSmokeBomb    ItemID = "smoke_bomb"
)

// ItemCategory groups catalog entries for shop display.
type ItemCategory string

const (
	CategoryConsumable ItemCategory = "consumable"
	CategoryBooster    ItemCategory = "booster"
	CategoryUpgrade    ItemCategory = "upgrade"
	CategoryCosmetic   ItemCategory = "cosmetic"
	CategoryStrategic  ItemCategory = "strategic"
)

// EffectKind tags how an item's effect is applied. The catalog is pure
// data; applyEffect is the single interpreter.
type EffectKind string

const (
	// EffectVitals applies flat vital deltas immediately.
	EffectVitals EffectKind = "vitals"
	// EffectBooster starts (or refreshes) a timed multiplier.
	EffectBooster EffectKind = "booster"
	// EffectUpgrade flips a permanent flag, refusing re-activation.
	EffectUpgrade EffectKind = "upgrade"
	// EffectCosmetic acknowledges use with no stat change.
	EffectCosmetic EffectKind = "cosmetic"
	// EffectEndBattle ends the current battle neutrally.
	EffectEndBattle EffectKind = "end-battle"
)

// BoosterKind names the timed multipliers an EffectBooster can start.
type BoosterKind string

const (
	BoosterTrainingPowder BoosterKind = "training-powder"
	BoosterXPBoost        BoosterKind = "xp-boost"
)

// UpgradeKind names the permanent flags an EffectUpgrade can set.
type UpgradeKind string

const (
	UpgradeCoinMultiplier UpgradeKind = "coin-multiplier"
	UpgradeStatBoostKit   UpgradeKind = "stat-boost-kit"
	UpgradePassiveIncome  UpgradeKind = "passive-income"
)

// ItemEffect describes what using an item does.
type ItemEffect struct {
	Kind EffectKind `json:"kind"`

	// EffectVitals deltas. Hunger is a delta too: negative feeds.
	Hunger    float64 `json:"hunger,omitempty"`
	Happiness float64 `json:"happiness,omitempty"`
	Energy    float64 `json:"energy,omitempty"`
	Health    float64 `json:"health,omitempty"`

	Booster BoosterKind `json:"booster,omitempty"`
	Upgrade UpgradeKind `json:"upgrade,omitempty"`
}

// ItemDef is one read-only catalog entry.
type ItemDef struct {
	ID          ItemID        `json:"id"`
	Name        string        `json:"name"`
	Cost        int           `json:"cost"`
	Category    ItemCategory  `json:"category"`
	Duration    time.Duration `json:"duration,omitempty"`
	Description string        `json:"description"`
	Effect      ItemEffect    `json:"effect"`
}

var itemCatalog = map[ItemID]ItemDef{
	ItemApple: {
		ID: ItemApple, Name: "Apple", Cost: 10, Category: CategoryConsumable,
		Description: "A crisp snack. -15 hunger.",
		Effect:      ItemEffect{Kind: EffectVitals, Hunger: -15},
	},
	ItemSteak: {
		ID: ItemSteak, Name: "Steak", Cost: 25, Category: CategoryConsumable,
		Description: "A proper meal. -35 hunger, +4 happiness.",
		Effect:      ItemEffect{Kind: EffectVitals, Hunger: -35, Happiness: 4},
	},
	ItemCandy: {
		ID: ItemCandy, Name: "Candy", Cost: 8, Category: CategoryConsumable,
		Description: "Sugary and cheap. +8 happiness, +5 hunger.",
		Effect:      ItemEffect{Kind: EffectVitals, Happiness: 8, Hunger: 5},
	},
	ItemEnergyDrink: {
		ID: ItemEnergyDrink, Name: "Energy Drink", Cost: 20, Category: CategoryConsumable,
		Description: "Instant pep. +25 energy.",
		Effect:      ItemEffect{Kind: EffectVitals, Energy: 25},
	},
	ItemMedicine: {
		ID: ItemMedicine, Name: "Medicine", Cost: 30, Category: CategoryConsumable,
		Description: "Bitter but effective. +30 health.",
		Effect:      ItemEffect{Kind: EffectVitals, Health: 30},
	},
	ItemGoldenElixir: {
		ID: ItemGoldenElixir, Name: "Golden Elixir", Cost: 90, Category: CategoryConsumable,
		Description: "The works. -50 hunger, +50 energy, +50 health.",
		Effect:      ItemEffect{Kind: EffectVitals, Hunger: -50, Energy: 50, Health: 50},
	},

	ItemTrainingPowder: {
		ID: ItemTrainingPowder, Name: "Training Powder", Cost: 40, Category: CategoryBooster,
		Duration:    60 * time.Second,
		Description: "Training XP x1.5 for 60 seconds.",
		Effect:      ItemEffect{Kind: EffectBooster, Booster: BoosterTrainingPowder},
	},
	ItemXPBoost: {
		ID: ItemXPBoost, Name: "XP Boost", Cost: 60, Category: CategoryBooster,
		Duration:    120 * time.Second,
		Description: "All XP x2 for 2 minutes.",
		Effect:      ItemEffect{Kind: EffectBooster, Booster: BoosterXPBoost},
	},

	ItemCoinMultiplier: {
		ID: ItemCoinMultiplier, Name: "Coin Multiplier", Cost: 150, Category: CategoryUpgrade,
		Description: "Permanently doubles coin rewards.",
		Effect:      ItemEffect{Kind: EffectUpgrade, Upgrade: UpgradeCoinMultiplier},
	},
	ItemStatBoostKit: {
		ID: ItemStatBoostKit, Name: "Stat Boost Kit", Cost: 100, Category: CategoryUpgrade,
		Description: "+1 level to every ability. One use per pet.",
		Effect:      ItemEffect{Kind: EffectUpgrade, Upgrade: UpgradeStatBoostKit},
	},
	ItemPassiveIncome: {
		ID: ItemPassiveIncome, Name: "Passive Income Generator", Cost: 200, Category: CategoryUpgrade,
		Description: "Earns 1 coin every income tick.",
		Effect:      ItemEffect{Kind: EffectUpgrade, Upgrade: UpgradePassiveIncome},
	},

	ItemPartyHat: {
		ID: ItemPartyHat, Name: "Party Hat", Cost: 15, Category: CategoryCosmetic,
		Description: "Pure style.",
		Effect:      ItemEffect{Kind: EffectCosmetic},
	},
	ItemSunglasses: {
		ID: ItemSunglasses, Name: "Sunglasses", Cost: 15, Category: CategoryCosmetic,
		Description: "Deal with it.",
		Effect:      ItemEffect{Kind: EffectCosmetic},
	},
	ItemBowTie: {
		ID: ItemBowTie, Name: "Bow Tie", Cost: 10, Category: CategoryCosmetic,
		Description: "Dapper.",
		Effect:      ItemEffect{Kind: EffectCosmetic},
	},

	ItemBattleRation: {
		ID: ItemBattleRation, Name: "Battle Ration", Cost: 35, Category: CategoryStrategic,
		Description: "Pre-fight fuel. +20 energy, -10 hunger.",
		Effect:      ItemEffect{Kind: EffectVitals, Energy: 20, Hunger: -10},
	},
	ItemGuardTonic: {
		ID: ItemGuardTonic, Name: "Guard Tonic", Cost: 30, Category: CategoryStrategic,
		Description: "Hardens the hide. +15 health.",
		Effect:      ItemEffect{Kind: EffectVitals, Health: 15},
	},
	ItemSmokeBomb: {
		ID: ItemSmokeBomb, Name: "Smoke Bomb", Cost: 45, Category: CategoryStrategic,
		Description: "Guaranteed escape from the current battle.",
		Effect:      ItemEffect{Kind: EffectEndBattle},
	},
}

// Items returns the full read-only catalog.
func Items() map[ItemID]ItemDef {
	out := make(map[ItemID]ItemDef, len(itemCatalog))
	for id, def := range itemCatalog {
		out[id] = def
	}
	return out
}

// ItemByID looks up a catalog entry.
func ItemByID(id ItemID) (ItemDef, bool) {
	def, ok := itemCatalog[id]
	return def, ok
}

// BuyItem spends coins to add an item to the inventory.
func (e *Engine) BuyItem(id ItemID) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state

	def, ok := itemCatalog[id]
	if !ok {
		return refused(ReasonUnknown)
	}
	if s.Coins < def.Cost {
		return refused(ReasonNoCoins)
	}
	s.Coins -= def.Cost
	s.Inventory[id]++
	e.log("Purchased %s (-%d coins)", def.Name, def.Cost)
	e.persist()
	return Result{OK: true}
}

// UseItem consumes one inventory unit and applies the item's effect.
// Refused uses (dead pet, nothing owned, upgrade already active, smoke
// bomb out of battle) do not consume the item.
func (e *Engine) UseItem(id ItemID) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state

	if s.Form == FormDead {
		return refused(ReasonDead)
	}
	def, ok := itemCatalog[id]
	if !ok {
		return refused(ReasonUnknown)
	}
	if s.Inventory[id] <= 0 {
		return refused(ReasonNoItem)
	}

	if res := e.applyEffect(def); !res.OK {
		return res
	}

	s.Inventory[id]--
	if s.Inventory[id] == 0 {
		delete(s.Inventory, id)
	}
	e.persist()
	return Result{OK: true}
}

// applyEffect is the single interpreter for the catalog's effect kinds.
func (e *Engine) applyEffect(def ItemDef) Result {
	s := e.state
	now := e.now()

	switch def.Effect.Kind {
	case EffectVitals:
		s.Hunger = clamp(s.Hunger + def.Effect.Hunger)
		s.Happiness = clamp(s.Happiness + def.Effect.Happiness)
		s.Energy = clamp(s.Energy + def.Effect.Energy)
		s.Health = clamp(s.Health + def.Effect.Health)
		e.log("Used %s", def.Name)

	case EffectBooster:
		until := now.Add(def.Duration)
		switch def.Effect.Booster {
		case BoosterTrainingPowder:
			s.TrainingPowderUntil = until
		case BoosterXPBoost:
			s.XPBoostUntil = until
		default:
			return refused(ReasonUnknown)
		}
		e.log("Activated %s", def.Name)

	case EffectUpgrade:
		switch def.Effect.Upgrade {
		case UpgradeCoinMultiplier:
			if s.CoinMultiplier {
				return refused(ReasonAlreadyOwned)
			}
			s.CoinMultiplier = true
		case UpgradeStatBoostKit:
			if s.StatBoostKitUsed {
				return refused(ReasonAlreadyOwned)
			}
			s.StatBoostKitUsed = true
			for _, a := range Abilities() {
				if p := s.Training[a]; p.Level < MaxAbilityLevel {
					p.Level++
				}
			}
		case UpgradePassiveIncome:
			if s.PassiveIncome {
				return refused(ReasonAlreadyOwned)
			}
			s.PassiveIncome = true
		default:
			return refused(ReasonUnknown)
		}
		e.log("Activated %s", def.Name)

	case EffectCosmetic:
		e.log("Equipped %s", def.Name)

	case EffectEndBattle:
		if !s.InBattle {
			return refused(ReasonNotInBattle)
		}
		s.BattleLog = append(s.BattleLog, "A smoke bomb fills the arena!")
		e.endBattle(nil)
		e.log("Used %s to escape", def.Name)

	default:
		return refused(ReasonUnknown)
	}
	return Result{OK: true}
}

// TickPassiveIncome grants the passive-income trickle. The driver calls
// this on its own cadence (every few simulated seconds).
func (e *Engine) TickPassiveIncome() {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	if !s.PassiveIncome || s.Frozen {
		return
	}
	s.Coins++
	e.persist()
}
