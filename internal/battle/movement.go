package battle

import "math"

const (
	// arrivalEpsilon is how close a unit must get to a manual destination
	// before the order is considered complete.
	arrivalEpsilon = 2.0
	// pursuitBand is the fraction of effective range at which a pursuing unit
	// stops closing and holds to fire.
	pursuitBand = 0.95
	// negligibleStep is the fraction of the desired step below which an axis
	// slide counts as no progress.
	negligibleStep = 0.05
)

// updateMovement runs the movement phase. Transiting units only advance
// their jump; everyone else resolves one move intent.
func (e *Engine) updateMovement() {
	for _, u := range e.reg.Live() {
		if u.dead {
			continue
		}
		if u.Transit != nil {
			e.advanceTransit(u)
			continue
		}
		e.moveUnit(u)
	}
}

// gapTo is the distance from u's centre to the edge of t's hitbox.
func gapTo(u, t *Unit) float64 {
	return math.Max(0, u.Pos.Dist(t.Pos)-t.arch.HitboxRadius)
}

func (e *Engine) moveUnit(u *Unit) {
	if u.arch.Speed <= 0 {
		// Stationary defences still turn to face what they shoot.
		if t, ok := e.resolveTarget(u); ok {
			u.Facing = HeadingTo(u.Pos, t.Pos)
		}
		return
	}
	speed := u.eff.Speed

	if u.Destination != nil {
		dest := *u.Destination
		d := u.Pos.Dist(dest)
		if d > arrivalEpsilon && speed > 0 {
			delta := dest.Sub(u.Pos)
			if d > speed {
				delta = delta.Scale(speed / d)
			}
			u.Facing = HeadingTo(u.Pos, dest)
			e.step(u, delta)
			d = u.Pos.Dist(dest)
		}
		if d <= arrivalEpsilon {
			e.arrive(u)
		}
		return
	}

	t, ok := e.resolveTarget(u)
	if !ok {
		return
	}
	u.Facing = HeadingTo(u.Pos, t.Pos)
	if u.Hold || speed <= 0 {
		return
	}
	excess := gapTo(u, t) - u.eff.Range*pursuitBand
	if excess <= 0 {
		// In range but firing into cover: keep closing until the line clears.
		if _, blocked := e.domain.Field.SegmentHit(u.Pos, t.Pos); !blocked {
			return
		}
		excess = speed
	}
	delta := t.Pos.Sub(u.Pos)
	l := delta.Len()
	if l < 1e-9 {
		return
	}
	e.step(u, delta.Scale(math.Min(speed, excess)/l))
}

// arrive completes a manual move order.
func (e *Engine) arrive(u *Unit) {
	u.Destination = nil
	u.edgeDir = 0
	if u.FormationFacing != nil {
		u.Facing = *u.FormationFacing
		u.FormationFacing = nil
	}
}

// step moves u by delta, sliding along obstacles when the straight step is
// blocked. A free single-axis slide is taken first; once a unit is walking an
// edge, slides that would double back along it are ignored and the walk keeps
// its turn until the straight step clears. It reports whether the unit moved.
func (e *Engine) step(u *Unit, delta Vec2) bool {
	field := e.domain.Field
	margin := u.arch.HitboxRadius
	from := u.Pos

	full := e.domain.inBounds(from.Add(delta))
	obs, blocked := field.blocker(full, margin)
	if !blocked {
		u.Pos = full
		u.edgeDir = 0
		return full != from
	}

	var along Vec2
	if u.edgeDir != 0 {
		along = edgeTangent(obs, from).Scale(float64(u.edgeDir))
	}
	best := from
	bestDisp := 0.0
	for _, c := range []Vec2{
		e.domain.inBounds(from.Add(Vec2{X: delta.X})),
		e.domain.inBounds(from.Add(Vec2{Y: delta.Y})),
	} {
		if field.Blocked(c, margin) {
			continue
		}
		d := c.Sub(from)
		if u.edgeDir != 0 && d.X*along.X+d.Y*along.Y < 0 {
			continue
		}
		if l := d.Len(); l > bestDisp {
			best, bestDisp = c, l
		}
	}
	if bestDisp >= delta.Len()*negligibleStep {
		u.Pos = best
		return true
	}

	// Neither axis makes real progress (head-on into a face, or a curved
	// edge blocking both): walk the edge instead.
	if cand, dir, ok := e.tangentStep(obs, from, delta, margin, u.edgeDir); ok {
		u.Pos, u.edgeDir = cand, dir
		return true
	}
	u.Pos = best
	return best != from
}

// edgeTangent is the outward normal of obs at p turned a quarter positive.
func edgeTangent(obs Obstacle, p Vec2) Vec2 {
	n := obs.outwardNormal(p)
	return Vec2{X: -n.Y, Y: n.X}
}

// tangentStep proposes a step of |delta| along the surface of obs and the
// turn it took: +1 for the normal rotated a quarter turn positive, -1 for
// the other way. A non-zero dir is kept. Otherwise a rect face is walked
// toward its nearer end and a circle in the direction of delta, falling back
// to +1 on a dead-on approach.
func (e *Engine) tangentStep(obs Obstacle, from, delta Vec2, margin float64, dir int) (Vec2, int, bool) {
	tan := edgeTangent(obs, from)
	if dir == 0 {
		dir = 1
		rel := from.Sub(obs.Center)
		side := rel.X*tan.X + rel.Y*tan.Y
		dot := tan.X*delta.X + tan.Y*delta.Y
		switch {
		case obs.Kind == ShapeRect && math.Abs(side) > 1e-9:
			if side < 0 {
				dir = -1
			}
		case dot < -1e-9:
			dir = -1
		}
	}
	for _, d := range []int{dir, -dir} {
		cand := e.domain.inBounds(from.Add(tan.Scale(float64(d) * delta.Len())))
		if cand != from && !e.domain.Field.Blocked(cand, margin) {
			return cand, d, true
		}
	}
	return from, 0, false
}
