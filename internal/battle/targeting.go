package battle

import "math"

const (
	// stealthDetectRange is how close a stealthed unit must be before idle
	// auto-scan will pick it up.
	stealthDetectRange = 150.0
	// stealthRevealTicks is how long firing gives a stealthed unit away.
	stealthRevealTicks = 90
)

// targetable reports whether u can be referenced by targeting and fire.
func targetable(u *Unit) bool {
	return u != nil && !u.dead && u.Transit == nil
}

// resolveTarget dereferences u's weak target reference.
func (e *Engine) resolveTarget(u *Unit) (*Unit, bool) {
	t, ok := e.reg.Get(u.TargetID)
	if !ok || !targetable(t) {
		return nil, false
	}
	return t, true
}

// updateTargeting runs the targeting phase for every live unit.
func (e *Engine) updateTargeting() {
	for _, u := range e.reg.Live() {
		if u.Transit != nil {
			continue
		}
		e.updateTarget(u)
	}
}

func (e *Engine) updateTarget(u *Unit) {
	if u.TargetID != 0 {
		if _, ok := e.resolveTarget(u); ok {
			return
		}
		u.TargetID = 0
		u.manualTarget = false
	}
	// A pure move order is never interrupted by auto-scan.
	if u.Destination != nil {
		return
	}
	if t := e.nearestEnemy(u); t != nil {
		u.TargetID = t.ID
	}
}

// revealed reports whether o fired recently enough to be seen at any range.
func (e *Engine) revealed(o *Unit) bool {
	return o.revealedUntil > 0 && e.tick <= o.revealedUntil
}

// nearestEnemy scans the opposing side for the closest acquirable unit.
// Ties keep the earliest-spawned candidate.
func (e *Engine) nearestEnemy(u *Unit) *Unit {
	var best *Unit
	bestDist := math.Inf(1)
	for _, o := range e.reg.units {
		if !targetable(o) || !u.Opposes(o) {
			continue
		}
		d := u.Pos.Dist(o.Pos)
		if e.domain.AggroRadius > 0 && d > e.domain.AggroRadius {
			continue
		}
		if o.arch.HasTrait(TraitStealth) && d > stealthDetectRange && !e.revealed(o) {
			continue
		}
		if d < bestDist {
			best = o
			bestDist = d
		}
	}
	return best
}
