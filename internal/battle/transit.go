package battle

// beginTransit opens a dash window from u's position to landing.
func (e *Engine) beginTransit(u *Unit, landing Vec2, ab AbilityDef) {
	duration := ab.DashDuration
	if duration < 1 {
		duration = 1
	}
	u.Transit = &Transit{
		Start:        u.Pos,
		Landing:      landing,
		Duration:     duration,
		ImpactRadius: ab.ImpactRadius,
		ImpactDamage: ab.ImpactDamage,
	}
	// Orders do not survive a jump.
	u.TargetID = 0
	u.manualTarget = false
	u.Destination = nil
	u.FormationFacing = nil
	u.Facing = HeadingTo(u.Pos, landing)
	e.log.Add(e.tick, u.label, string(u.Side), "transit", "start",
		formatPoint(landing), float64(duration))
}

// advanceTransit moves a transiting unit one tick along its jump. On the
// final tick it snaps to the landing point and the impact resolves once.
func (e *Engine) advanceTransit(u *Unit) {
	tr := u.Transit
	tr.Progress++
	if tr.Progress < tr.Duration {
		u.Pos = Lerp(tr.Start, tr.Landing, float64(tr.Progress)/float64(tr.Duration))
		return
	}
	u.Pos = tr.Landing
	u.Transit = nil
	e.log.Add(e.tick, u.label, string(u.Side), "transit", "land", formatPoint(u.Pos), tr.ImpactDamage)
	if tr.ImpactDamage <= 0 || tr.ImpactRadius <= 0 {
		return
	}
	for _, o := range e.reg.Live() {
		if !targetable(o) || !u.Opposes(o) {
			continue
		}
		if o.Pos.Dist(u.Pos) > tr.ImpactRadius {
			continue
		}
		e.applyFlatDamage(u, o, tr.ImpactDamage, "impact")
	}
}
