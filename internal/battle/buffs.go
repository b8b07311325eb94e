package battle

import "math"

const (
	// minCooldownTicks floors the effective attack cooldown after buffs.
	minCooldownTicks = 4.0

	// Passive refill rates. At 60Hz these come to 1.2% of the pool per
	// second, below what a single like-for-like attacker deals.
	regenFractionPerTick  = 0.0002 // of maxHp, regeneration trait
	shieldFractionPerTick = 0.0002 // of maxShield, shielded trait

	rageThreshold  = 0.5
	rageMultiplier = 1.5
)

// baseStats is the overlay before any buff: archetype values scaled by terrain.
func baseStats(a Archetype, t Terrain) Stats {
	return Stats{
		Damage:   a.BaseDamage,
		Armor:    a.Armor,
		Speed:    a.Speed * t.Speed,
		Cooldown: a.AttackCooldown,
		Range:    a.Range * t.Range,
		Accuracy: clamp01(a.Accuracy * t.Accuracy),
	}
}

// effectiveStats folds the active buffs into the terrain-scaled base.
func effectiveStats(a Archetype, t Terrain, buffs []Buff) Stats {
	s := baseStats(a, t)
	for _, b := range buffs {
		switch b.Stat {
		case StatDamage:
			s.Damage += b.Amount
		case StatArmor:
			s.Armor += b.Amount
		case StatSpeed:
			s.Speed += b.Amount
		case StatCooldown:
			s.Cooldown += b.Amount
		}
	}
	s.Damage = math.Max(0, s.Damage)
	s.Armor = math.Max(0, s.Armor)
	if a.Speed <= 0 {
		s.Speed = 0 // stationary defences stay put whatever the buff
	}
	s.Speed = math.Max(0, s.Speed)
	if s.Cooldown < minCooldownTicks {
		s.Cooldown = minCooldownTicks
	}
	return s
}

// maintain runs the buff/passive phase for one unit. Expired buffs are
// dropped first; the survivors shape this tick's overlay and then count down,
// so a buff applied with n remaining ticks is live for exactly n ticks.
func (e *Engine) maintain(u *Unit) {
	kept := u.Buffs[:0]
	for _, b := range u.Buffs {
		if b.RemainingTicks <= 0 {
			e.log.Add(e.tick, u.label, string(u.Side), "buff", "expired", string(b.Stat), b.Amount)
			continue
		}
		kept = append(kept, b)
	}
	u.Buffs = kept

	u.eff = effectiveStats(u.arch, e.domain.Terrain, u.Buffs)
	for i := range u.Buffs {
		u.Buffs[i].RemainingTicks--
	}

	a := u.arch
	if a.HasTrait(TraitRegeneration) {
		u.heal(a.MaxHP * regenFractionPerTick)
	}
	if a.HasTrait(TraitShielded) && a.MaxShield > 0 && u.Shield < a.MaxShield {
		u.Shield = math.Min(a.MaxShield, u.Shield+a.MaxShield*shieldFractionPerTick)
	}
	if a.IsHero && a.MaxMana > 0 {
		u.Mana = math.Min(a.MaxMana, u.Mana+a.ManaRegenPerTick*e.domain.Terrain.ManaRegen)
	}
	for id, cd := range u.abilityCooldowns {
		if cd <= 1 {
			delete(u.abilityCooldowns, id)
			continue
		}
		u.abilityCooldowns[id] = cd - 1
	}
}

// addBuff stamps spec onto u.
func (e *Engine) addBuff(u *Unit, spec BuffSpec, source UnitID) {
	u.Buffs = append(u.Buffs, Buff{
		Stat:           spec.Stat,
		Amount:         spec.Amount,
		RemainingTicks: spec.Duration,
		SourceID:       source,
	})
	e.log.Add(e.tick, u.label, string(u.Side), "buff", "applied", string(spec.Stat), spec.Amount)
}

// rageFactor is the outgoing damage multiplier for the rage trait.
func (u *Unit) rageFactor() float64 {
	if u.arch.HasTrait(TraitRage) && u.arch.MaxHP > 0 && u.HP/u.arch.MaxHP < rageThreshold {
		return rageMultiplier
	}
	return 1
}

// heal restores up to amount hp, capped at maxHp. Squads spread it evenly
// across damaged members, topping up and redistributing any overflow.
func (u *Unit) heal(amount float64) float64 {
	if amount <= 0 || u.dead {
		return 0
	}
	if u.Kind != KindSquad {
		before := u.HP
		u.HP = math.Min(u.arch.MaxHP, u.HP+amount)
		return u.HP - before
	}
	healed := 0.0
	remaining := amount
	for remaining > 1e-9 {
		damaged := 0
		for _, s := range u.SubUnits {
			if s.HP < s.MaxHP {
				damaged++
			}
		}
		if damaged == 0 {
			break
		}
		share := remaining / float64(damaged)
		for i := range u.SubUnits {
			s := &u.SubUnits[i]
			if s.HP >= s.MaxHP {
				continue
			}
			gain := math.Min(share, s.MaxHP-s.HP)
			s.HP += gain
			remaining -= gain
			healed += gain
		}
	}
	u.syncSquadHP()
	return healed
}
