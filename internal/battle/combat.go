package battle

import (
	"fmt"
	"math"
	"math/rand"
)

// --- Combat constants ---

const (
	aimSpread      = 0.03 // rad, half-width of the triangular muzzle spread
	cooldownJitter = 0.2  // squad members reset to cooldown × (1 ± jitter)
	flashLifetime  = 4    // ticks a muzzle flash stays in the projection
)

// MuzzleFlash marks a weapon discharge for the presentation layer.
type MuzzleFlash struct {
	Pos   Vec2
	Angle float64
	Side  SideID
	Melee bool
	age   int
}

// CombatManager holds the in-flight shots and recent discharges, and the
// battle's single random source.
type CombatManager struct {
	projectiles []*Projectile
	flashes     []*MuzzleFlash
	rng         *rand.Rand
}

// NewCombatManager creates a combat manager with its own RNG.
func NewCombatManager(seed int64) *CombatManager {
	return &CombatManager{
		rng: rand.New(rand.NewSource(seed)), // #nosec G404 -- game only
	}
}

// Projectiles returns the shots currently in flight.
func (cm *CombatManager) Projectiles() []*Projectile { return cm.projectiles }

// ageFlashes prunes expired muzzle flashes.
func (cm *CombatManager) ageFlashes() {
	kept := cm.flashes[:0]
	for _, f := range cm.flashes {
		f.age++
		if f.age < flashLifetime {
			kept = append(kept, f)
		}
	}
	cm.flashes = kept
}

// updateCombat runs the firing pass, then advances every projectile.
func (e *Engine) updateCombat() {
	e.combat.ageFlashes()
	for _, u := range e.reg.Live() {
		if u.dead || u.Transit != nil {
			continue
		}
		if u.Kind == KindSquad {
			e.fireSquad(u)
		} else {
			e.fireSingle(u)
		}
	}
	e.advanceProjectiles()
}

// inRange reports whether t is inside u's effective range.
func inRange(u, t *Unit) bool {
	return gapTo(u, t) <= u.eff.Range
}

func (e *Engine) fireSingle(u *Unit) {
	if u.Cooldown > 0 {
		u.Cooldown--
	}
	t, ok := e.resolveTarget(u)
	if !ok || u.Cooldown > 0 || !inRange(u, t) {
		return
	}
	u.Facing = HeadingTo(u.Pos, t.Pos)
	e.discharge(u, u.Pos, t)
	u.Cooldown = u.eff.Cooldown
}

// fireSquad lets every member fire on its own cooldown.
func (e *Engine) fireSquad(u *Unit) {
	for i := range u.SubUnits {
		if u.SubUnits[i].Cooldown > 0 {
			u.SubUnits[i].Cooldown--
		}
	}
	t, ok := e.resolveTarget(u)
	if !ok || !inRange(u, t) {
		return
	}
	u.Facing = HeadingTo(u.Pos, t.Pos)
	for i := 0; i < len(u.SubUnits); i++ {
		if u.SubUnits[i].Cooldown > 0 {
			continue
		}
		// The target may already have fallen to an earlier member.
		if t.dead || u.dead {
			return
		}
		e.discharge(u, u.SubUnitWorld(i), t)
		if u.dead || i >= len(u.SubUnits) {
			return
		}
		u.SubUnits[i].Cooldown = e.jitteredCooldown(u.eff.Cooldown)
	}
}

// jitteredCooldown spreads squad volleys so members do not fire in lockstep.
func (e *Engine) jitteredCooldown(cd float64) float64 {
	j := 1 + (e.rng.Float64()*2-1)*cooldownJitter
	return math.Max(minCooldownTicks, cd*j)
}

// discharge resolves one weapon use from origin at t: an instant strike for
// melee archetypes, a projectile otherwise.
func (e *Engine) discharge(u *Unit, origin Vec2, t *Unit) {
	aimAt, sub := aimPoint(origin, t)
	angle := HeadingTo(origin, aimAt)
	e.combat.flashes = append(e.combat.flashes, &MuzzleFlash{
		Pos: origin, Angle: angle, Side: u.Side, Melee: u.arch.IsMelee,
	})
	payload := e.payloadFor(u)
	u.revealedUntil = e.tick + stealthRevealTicks

	if u.arch.IsMelee {
		if e.rng.Float64() >= u.eff.Accuracy {
			e.log.AddVerbose(e.tick, u.label, string(u.Side), "combat", "miss",
				fmt.Sprintf("melee → %s", t.label), 0)
			return
		}
		dmg := e.resolveHit(payload, t, sub)
		e.log.AddVerbose(e.tick, u.label, string(u.Side), "combat", "hit",
			fmt.Sprintf("melee → %s %.1f", t.label, dmg), dmg)
		return
	}

	// Triangular spread, two uniform samples averaged.
	u1 := e.rng.Float64()*2 - 1
	u2 := e.rng.Float64()*2 - 1
	angle += (u1 + u2) / 2 * aimSpread
	e.spawnProjectile(u, origin, angle, defaultProjectileSpeed, u.eff.Range, payload, false)
	e.log.AddVerbose(e.tick, u.label, string(u.Side), "combat", "fire", t.label, 0)
}

// aimPoint picks where to aim at t from origin: its centre, or for a squad
// the nearest living member.
func aimPoint(origin Vec2, t *Unit) (Vec2, int) {
	if t.Kind != KindSquad || len(t.SubUnits) == 0 {
		return t.Pos, -1
	}
	best := 0
	bestD := math.Inf(1)
	for i := range t.SubUnits {
		if d := t.SubUnitWorld(i).Dist(origin); d < bestD {
			best, bestD = i, d
		}
	}
	return t.SubUnitWorld(best), best
}
