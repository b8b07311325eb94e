package battle

import (
	"fmt"
	"math"
	"sort"
)

const (
	maxArmorReduction = 0.9
	lifestealFraction = 0.2
)

// ArmorReduction is the fraction of incoming damage soaked by armor after
// penetration: min(0.9, max(0, armor-pen)/100).
func ArmorReduction(armor, pen float64) float64 {
	return math.Min(maxArmorReduction, math.Max(0, armor-pen)/100)
}

// FinalDamage applies the multiplier chain and armor to base damage.
// mult is the product of terrain, trait and rage multipliers.
func FinalDamage(base, mult, armor, pen float64) float64 {
	return base * mult * (1 - ArmorReduction(armor, pen))
}

// hitPayload is what a weapon strike or projectile carries to its target.
type hitPayload struct {
	Damage      float64 // already scaled by terrain and rage
	Penetration float64
	Multipliers map[Trait]float64
	Vampiric    bool
	SourceID    UnitID
}

// payloadFor snapshots u's current strike.
func (e *Engine) payloadFor(u *Unit) hitPayload {
	return hitPayload{
		Damage:      u.eff.Damage * e.domain.Terrain.Damage * u.rageFactor(),
		Penetration: u.arch.ArmorPenetration,
		Multipliers: u.arch.DamageMultipliers,
		Vampiric:    u.arch.HasTrait(TraitVampirism),
		SourceID:    u.ID,
	}
}

// resolveHit applies a weapon hit to sub-unit sub of target (-1 for
// single units) and handles lifesteal. It returns the final damage.
func (e *Engine) resolveHit(p hitPayload, target *Unit, sub int) float64 {
	dmg := FinalDamage(p.Damage, traitMultiplier(p.Multipliers, target.arch.Traits), target.eff.Armor, p.Penetration)
	if dmg <= 0 {
		return 0
	}
	source, _ := e.reg.Get(p.SourceID)
	e.damageUnit(source, target, dmg, sub)
	if p.Vampiric && source != nil {
		if healed := source.heal(dmg * lifestealFraction); healed > 0 {
			e.log.AddVerbose(e.tick, source.label, string(source.Side), "combat", "lifesteal",
				fmt.Sprintf("+%.1f", healed), healed)
		}
	}
	return dmg
}

// damageUnit takes amount from target's shield first and the remainder from
// its hp. For squads the hp share lands on member sub; overflow past that
// member's hp is lost with it.
func (e *Engine) damageUnit(source, target *Unit, amount float64, sub int) {
	if target.dead || amount <= 0 {
		return
	}
	amount = absorbShield(target, amount)
	if amount <= 0 {
		return
	}
	if target.Kind == KindSquad {
		if sub < 0 || sub >= len(target.SubUnits) {
			sub = 0
		}
		target.SubUnits[sub].HP -= amount
		e.cullSquad(source, target)
		return
	}
	target.HP = math.Max(0, target.HP-amount)
	if target.HP <= 0 {
		e.killUnit(source, target)
	}
}

// applyFlatDamage deals ability damage: no armor, no accuracy roll, shield
// first. Squads spread it across members nearest the source first.
func (e *Engine) applyFlatDamage(source, target *Unit, amount float64, cause string) {
	if target.dead || amount <= 0 {
		return
	}
	e.log.Add(e.tick, target.label, string(target.Side), "ability", cause, fmt.Sprintf("%.1f", amount), amount)
	if target.Kind != KindSquad {
		e.damageUnit(source, target, amount, -1)
		return
	}
	amount = absorbShield(target, amount)
	origin := target.Pos
	if source != nil {
		origin = source.Pos
	}
	order := make([]int, len(target.SubUnits))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return target.SubUnitWorld(order[a]).Dist(origin) < target.SubUnitWorld(order[b]).Dist(origin)
	})
	for _, i := range order {
		if amount <= 0 {
			break
		}
		s := &target.SubUnits[i]
		take := math.Min(amount, s.HP)
		s.HP -= take
		amount -= take
	}
	e.cullSquad(source, target)
}

func absorbShield(u *Unit, amount float64) float64 {
	if u.Shield <= 0 {
		return amount
	}
	absorbed := math.Min(u.Shield, amount)
	u.Shield -= absorbed
	return amount - absorbed
}

// cullSquad removes dead members, restores hp == sum(member hp) and kills
// the squad when nobody is left.
func (e *Engine) cullSquad(source, squad *Unit) {
	kept := squad.SubUnits[:0]
	lost := 0
	for _, s := range squad.SubUnits {
		if s.HP <= 1e-9 {
			lost++
			continue
		}
		kept = append(kept, s)
	}
	squad.SubUnits = kept
	squad.syncSquadHP()
	if lost > 0 {
		e.log.Add(e.tick, squad.label, string(squad.Side), "combat", "squad_loss",
			fmt.Sprintf("%d left", len(kept)), float64(len(kept)))
	}
	if len(kept) == 0 {
		e.killUnit(source, squad)
	}
}

// killUnit removes target from play at once.
func (e *Engine) killUnit(source, target *Unit) {
	by := "--"
	if source != nil {
		by = source.label
	}
	e.reg.kill(target)
	e.log.Add(e.tick, target.label, string(target.Side), "combat", "kill",
		fmt.Sprintf("%s by %s", target.ArchetypeID, by), 0)
}
