package battle

import (
	"fmt"
	"math"
)

const (
	// pickTolerance is added to a unit's hitbox when resolving a point to a unit.
	pickTolerance = 12.0
	summonScatter = 40.0
	summonTries   = 12
)

// castAbility validates a cast and, only when every check passes, deducts
// mana, starts the cooldown and resolves the effect. A rejected cast leaves
// the caster untouched.
func (e *Engine) castAbility(casterID UnitID, abilityID string, point *Vec2) error {
	u, ok := e.reg.Get(casterID)
	if !ok {
		return fmt.Errorf("%w: caster %d", ErrInvalidTarget, casterID)
	}
	if !u.arch.IsHero {
		return fmt.Errorf("%w: %s", ErrNotHero, u.ArchetypeID)
	}
	if u.Transit != nil {
		return ErrInTransit
	}
	if !hasAbility(u.arch, abilityID) {
		return fmt.Errorf("%w: %s cannot cast %q", ErrUnknownAbility, u.ArchetypeID, abilityID)
	}
	ab, ok := e.catalog.Ability(abilityID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAbility, abilityID)
	}
	if e.unlocked != nil && !e.unlocked[abilityID] {
		return fmt.Errorf("%w: %q", ErrAbilityLocked, abilityID)
	}
	if cd := u.abilityCooldowns[abilityID]; cd > 0 {
		return fmt.Errorf("%w: %q ready in %d ticks", ErrAbilityCooldown, abilityID, cd)
	}

	at := u.Pos
	if ab.TargetMode.NeedsPoint() {
		if point == nil {
			return fmt.Errorf("%w: %q needs a target point", ErrInvalidTarget, abilityID)
		}
		at = *point
	}

	var target *Unit
	switch ab.TargetMode {
	case TargetSingleEnemy:
		target = e.unitAt(at, func(o *Unit) bool { return u.Opposes(o) })
	case TargetSingleAlly:
		target = e.unitAt(at, func(o *Unit) bool { return !u.Opposes(o) })
	}
	if (ab.TargetMode == TargetSingleEnemy || ab.TargetMode == TargetSingleAlly) && target == nil {
		return fmt.Errorf("%w: no unit at %s", ErrInvalidTarget, formatPoint(at))
	}
	if target != nil {
		at = target.Pos
	}

	if ab.Effect == EffectDash {
		at = e.domain.inBounds(clampReach(u.Pos, at, ab.Range))
		if e.domain.Field.Blocked(at, u.arch.HitboxRadius) {
			return fmt.Errorf("%w: landing %s is blocked", ErrInvalidTarget, formatPoint(at))
		}
	} else if ab.TargetMode.NeedsPoint() && ab.Range > 0 && u.Pos.Dist(at) > ab.Range {
		return fmt.Errorf("%w: %q reaches %.0f", ErrOutOfRange, abilityID, ab.Range)
	}

	if u.Mana < ab.ManaCost {
		return fmt.Errorf("%w: %q costs %.0f, have %.0f", ErrInsufficientMana, abilityID, ab.ManaCost, u.Mana)
	}

	u.Mana -= ab.ManaCost
	if ab.Cooldown > 0 {
		u.abilityCooldowns[abilityID] = ab.Cooldown
	}
	e.log.Add(e.tick, u.label, string(u.Side), "ability", "cast",
		fmt.Sprintf("%s at %s", abilityID, formatPoint(at)), ab.ManaCost)
	e.resolveEffect(u, ab, at, target)
	return nil
}

func hasAbility(a Archetype, id string) bool {
	for _, x := range a.Abilities {
		if x == id {
			return true
		}
	}
	return false
}

// clampReach pulls to back toward from so it lies at most reach away.
func clampReach(from, to Vec2, reach float64) Vec2 {
	d := from.Dist(to)
	if reach <= 0 || d <= reach {
		return to
	}
	return Lerp(from, to, reach/d)
}

// unitAt returns the targetable unit nearest p whose hitbox, grown by the
// pick tolerance, contains p.
func (e *Engine) unitAt(p Vec2, accept func(*Unit) bool) *Unit {
	var best *Unit
	bestD := math.Inf(1)
	for _, o := range e.reg.units {
		if !targetable(o) || !accept(o) {
			continue
		}
		d := o.Pos.Dist(p)
		if d <= o.arch.HitboxRadius+pickTolerance && d < bestD {
			best, bestD = o, d
		}
	}
	return best
}

// unitsWithin collects targetable units within radius of p.
func (e *Engine) unitsWithin(p Vec2, radius float64, accept func(*Unit) bool) []*Unit {
	var out []*Unit
	for _, o := range e.reg.units {
		if targetable(o) && accept(o) && o.Pos.Dist(p) <= radius {
			out = append(out, o)
		}
	}
	return out
}

// resolveEffect applies ab against current state. It runs synchronously;
// only dash leaves anything for later ticks.
func (e *Engine) resolveEffect(u *Unit, ab AbilityDef, at Vec2, target *Unit) {
	enemy := func(o *Unit) bool { return u.Opposes(o) }
	ally := func(o *Unit) bool { return !u.Opposes(o) }

	switch ab.Effect {
	case EffectAreaDamage:
		for _, o := range e.unitsWithin(at, ab.Radius, enemy) {
			e.applyFlatDamage(u, o, ab.Amount, ab.ID)
		}

	case EffectAreaHeal:
		for _, o := range e.unitsWithin(at, ab.Radius, ally) {
			if healed := o.heal(ab.Amount); healed > 0 {
				e.log.Add(e.tick, o.label, string(o.Side), "ability", ab.ID, fmt.Sprintf("+%.1f", healed), healed)
			}
		}

	case EffectBuff:
		for _, o := range e.buffRecipients(u, ab, at, target) {
			e.addBuff(o, ab.Buff, u.ID)
		}

	case EffectSummon:
		e.summon(u, ab, at)

	case EffectDash:
		e.beginTransit(u, at, ab)

	case EffectDamageProjectile:
		if target == nil {
			return
		}
		speed := ab.ProjectileSpeed
		if speed <= 0 {
			speed = defaultProjectileSpeed
		}
		aim, _ := aimPoint(u.Pos, target)
		reach := math.Max(ab.Range, u.Pos.Dist(aim))
		payload := hitPayload{Damage: ab.Amount, SourceID: u.ID}
		e.spawnProjectile(u, u.Pos, HeadingTo(u.Pos, aim), speed, reach, payload, true)
	}
}

// buffRecipients decides who a buff lands on. Area buffs with a positive
// amount favour allies, negative ones hit enemies.
func (e *Engine) buffRecipients(u *Unit, ab AbilityDef, at Vec2, target *Unit) []*Unit {
	switch ab.TargetMode {
	case TargetSelf, TargetInstant:
		return []*Unit{u}
	case TargetSingleEnemy, TargetSingleAlly:
		if target == nil {
			return nil
		}
		return []*Unit{target}
	}
	if ab.Radius <= 0 {
		return []*Unit{u}
	}
	if ab.Buff.Amount < 0 {
		return e.unitsWithin(at, ab.Radius, func(o *Unit) bool { return u.Opposes(o) })
	}
	return e.unitsWithin(at, ab.Radius, func(o *Unit) bool { return !u.Opposes(o) })
}

// summon inserts new units around at on the caster's side.
func (e *Engine) summon(u *Unit, ab AbilityDef, at Vec2) {
	a, ok := e.catalog.Archetype(ab.SummonArchetype)
	if !ok {
		return
	}
	for i := 0; i < ab.SummonCount; i++ {
		pos, ok := e.freeSpotNear(at, a.HitboxRadius)
		if !ok {
			e.log.Add(e.tick, u.label, string(u.Side), "ability", "summon_blocked", a.ID, 0)
			continue
		}
		s := e.spawnUnit(a, u.Side, u.Attacking, pos, u.Facing)
		e.log.Add(e.tick, s.label, string(s.Side), "ability", "summon", a.ID, 0)
	}
}

// freeSpotNear scatters around p until it finds an unblocked position.
func (e *Engine) freeSpotNear(p Vec2, margin float64) (Vec2, bool) {
	for try := 0; try < summonTries; try++ {
		ang := e.rng.Float64() * 2 * math.Pi
		r := e.rng.Float64() * summonScatter
		cand := e.domain.inBounds(p.Add(Vec2{math.Cos(ang) * r, math.Sin(ang) * r}))
		if !e.domain.Field.Blocked(cand, margin) {
			return cand, true
		}
	}
	return p, false
}
