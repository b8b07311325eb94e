package battle

import (
	"fmt"
	"math"
)

const (
	defaultProjectileSpeed = 8.0 // units per tick
	projectileLifeSlack    = 1.25
)

// Projectile is a shot in flight. It carries everything needed to resolve
// its hit so the firer may die before it lands.
type Projectile struct {
	Pos       Vec2
	Vel       Vec2
	Side      SideID
	Attacking bool
	Life      int // ticks left
	Accuracy  float64
	// Flat projectiles come from abilities: no armor and no accuracy roll.
	Flat    bool
	payload hitPayload
}

// SourceID is the weak reference to whoever fired the projectile.
func (p *Projectile) SourceID() UnitID { return p.payload.SourceID }

// Damage is the pre-armor damage the projectile carries.
func (p *Projectile) Damage() float64 { return p.payload.Damage }

// projectileLife is how many ticks a shot fired over rng at speed survives.
func projectileLife(rng, speed float64) int {
	if speed <= 0 {
		return 1
	}
	return int(math.Ceil(rng*projectileLifeSlack/speed)) + 1
}

// spawnProjectile launches a shot from origin along angle.
func (e *Engine) spawnProjectile(u *Unit, origin Vec2, angle, speed, reach float64, payload hitPayload, flat bool) *Projectile {
	p := &Projectile{
		Pos:       origin,
		Vel:       Vec2{math.Cos(angle) * speed, math.Sin(angle) * speed},
		Side:      u.Side,
		Attacking: u.Attacking,
		Life:      projectileLife(reach, speed),
		Accuracy:  u.eff.Accuracy,
		Flat:      flat,
		payload:   payload,
	}
	e.combat.projectiles = append(e.combat.projectiles, p)
	e.log.AddVerbose(e.tick, u.label, string(u.Side), "projectile", "spawn",
		fmt.Sprintf("dmg=%.1f life=%d", payload.Damage, p.Life), payload.Damage)
	return p
}

// advanceProjectiles moves every shot one tick and resolves what it meets.
// Obstacles stop a shot only when struck before any unit on the same step.
func (e *Engine) advanceProjectiles() {
	kept := e.combat.projectiles[:0]
	for _, p := range e.combat.projectiles {
		if e.stepProjectile(p) {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(e.combat.projectiles); i++ {
		e.combat.projectiles[i] = nil
	}
	e.combat.projectiles = kept
}

// stepProjectile reports whether p is still in flight afterwards.
func (e *Engine) stepProjectile(p *Projectile) bool {
	from := p.Pos
	to := from.Add(p.Vel)
	p.Life--
	if p.Life <= 0 {
		p.Pos = to
		e.log.AddVerbose(e.tick, "--", string(p.Side), "projectile", "expire", formatPoint(to), 0)
		return false
	}

	obsT, obsHit := e.domain.Field.SegmentHit(from, to)
	target, sub, unitT, unitHit := e.firstUnitOnSegment(p, from, to)

	switch {
	case obsHit && (!unitHit || obsT < unitT):
		e.log.AddVerbose(e.tick, "--", string(p.Side), "projectile", "obstacle", formatPoint(Lerp(from, to, obsT)), 0)
		return false
	case unitHit:
		p.Pos = Lerp(from, to, unitT)
		e.projectileImpact(p, target, sub)
		return false
	}

	p.Pos = to
	return true
}

// firstUnitOnSegment finds the earliest opposing unit (or squad member) the
// segment enters. sub is -1 for single units.
func (e *Engine) firstUnitOnSegment(p *Projectile, from, to Vec2) (*Unit, int, float64, bool) {
	var best *Unit
	bestSub := -1
	bestT := math.Inf(1)
	for _, u := range e.reg.units {
		if !targetable(u) || u.Attacking == p.Attacking {
			continue
		}
		if u.Kind == KindSquad {
			r := u.subUnitRadius()
			for i := range u.SubUnits {
				if t, ok := segmentCircleHitT(from, to, u.SubUnitWorld(i), r); ok && t < bestT {
					best, bestSub, bestT = u, i, t
				}
			}
			continue
		}
		if t, ok := segmentCircleHitT(from, to, u.Pos, u.arch.HitboxRadius); ok && t < bestT {
			best, bestSub, bestT = u, -1, t
		}
	}
	if best == nil {
		return nil, -1, 0, false
	}
	return best, bestSub, bestT, true
}

func (e *Engine) projectileImpact(p *Projectile, target *Unit, sub int) {
	if p.Flat {
		source, _ := e.reg.Get(p.payload.SourceID)
		e.damageUnit(source, target, p.payload.Damage, sub)
		e.log.Add(e.tick, target.label, string(target.Side), "projectile", "ability_hit",
			fmt.Sprintf("%.1f", p.payload.Damage), p.payload.Damage)
		return
	}
	if e.rng.Float64() >= p.Accuracy {
		e.log.AddVerbose(e.tick, target.label, string(target.Side), "combat", "miss", "projectile", 0)
		return
	}
	dmg := e.resolveHit(p.payload, target, sub)
	e.log.AddVerbose(e.tick, target.label, string(target.Side), "combat", "hit",
		fmt.Sprintf("%.1f", dmg), dmg)
}

func formatPoint(p Vec2) string {
	return fmt.Sprintf("(%.0f,%.0f)", p.X, p.Y)
}
