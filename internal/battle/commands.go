package battle

import (
	"fmt"
	"math"
)

// Command is one player input. Commands are queued with Engine.Submit and
// applied in order at the start of the next tick, never mid-tick.
type Command interface {
	// Name is the short event key used in the log.
	Name() string
	apply(e *Engine) error
}

// SelectCmd replaces the selection with the given ids.
type SelectCmd struct {
	IDs []UnitID
}

// SelectRegionCmd selects every controlled unit inside the rectangle
// spanned by two corners.
type SelectRegionCmd struct {
	A, B Vec2
}

// OrderCmd is a point order. A point on an enemy is an attack order,
// anywhere else a move order. Units nil means the current selection.
type OrderCmd struct {
	Units []UnitID
	Point Vec2
}

// FormationCmd spreads units into rows along a drag from Start to End.
type FormationCmd struct {
	Units      []UnitID
	Start, End Vec2
}

// HoldCmd flips hold position on each unit.
type HoldCmd struct {
	Units []UnitID
}

// FacingCmd turns units in place. Space battles only.
type FacingCmd struct {
	Units []UnitID
	Angle float64
}

// CastCmd casts a hero ability. Point is required for aimed abilities.
type CastCmd struct {
	Caster  UnitID
	Ability string
	Point   *Vec2
}

func (SelectCmd) Name() string       { return "select" }
func (SelectRegionCmd) Name() string { return "select_region" }
func (OrderCmd) Name() string        { return "order" }
func (FormationCmd) Name() string    { return "formation" }
func (HoldCmd) Name() string         { return "hold" }
func (FacingCmd) Name() string       { return "facing" }
func (CastCmd) Name() string         { return "cast" }

func (c SelectCmd) apply(e *Engine) error {
	e.selection = e.selection[:0]
	for _, id := range c.IDs {
		if u, ok := e.reg.Get(id); ok && u.Attacking == e.controlAttacker {
			e.selection = append(e.selection, id)
		}
	}
	return nil
}

func (c SelectRegionCmd) apply(e *Engine) error {
	minX, maxX := math.Min(c.A.X, c.B.X), math.Max(c.A.X, c.B.X)
	minY, maxY := math.Min(c.A.Y, c.B.Y), math.Max(c.A.Y, c.B.Y)
	e.selection = e.selection[:0]
	for _, u := range e.reg.Live() {
		if u.Attacking != e.controlAttacker {
			continue
		}
		if u.Pos.X >= minX && u.Pos.X <= maxX && u.Pos.Y >= minY && u.Pos.Y <= maxY {
			e.selection = append(e.selection, u.ID)
		}
	}
	return nil
}

func (c OrderCmd) apply(e *Engine) error {
	units, err := e.orderable(c.Units)
	if err != nil {
		return err
	}
	e.pointOrder(units, c.Point)
	return nil
}

func (c FormationCmd) apply(e *Engine) error {
	units, err := e.orderable(c.Units)
	if err != nil {
		return err
	}
	if c.Start.Dist(c.End) <= formationMinDrag {
		e.pointOrder(units, c.End)
		return nil
	}
	ordered, slots := assignFormation(units, c.Start, c.End)
	facing := formationFacing(c.Start, c.End)
	for i, u := range ordered {
		dest := e.domain.inBounds(slots[i])
		f := facing
		u.Destination = &dest
		u.FormationFacing = &f
		u.TargetID = 0
		u.manualTarget = false
		u.Hold = false
	}
	return nil
}

func (c HoldCmd) apply(e *Engine) error {
	units, err := e.orderable(c.Units)
	if err != nil {
		return err
	}
	for _, u := range units {
		u.Hold = !u.Hold
	}
	return nil
}

func (c FacingCmd) apply(e *Engine) error {
	if !e.domain.AllowFacing {
		return fmt.Errorf("%w: facing on %s", ErrNotAllowed, e.domain.Variant)
	}
	units, err := e.orderable(c.Units)
	if err != nil {
		return err
	}
	for _, u := range units {
		u.Facing = normalizeAngle(c.Angle)
		u.FormationFacing = nil
	}
	return nil
}

func (c CastCmd) apply(e *Engine) error {
	return e.castAbility(c.Caster, c.Ability, c.Point)
}

// orderable resolves ids (or the selection when ids is nil) to living units
// that can take orders. Units mid-jump are left out.
func (e *Engine) orderable(ids []UnitID) ([]*Unit, error) {
	if ids == nil {
		ids = e.selection
	}
	out := make([]*Unit, 0, len(ids))
	for _, id := range ids {
		u, ok := e.reg.Get(id)
		if !ok || u.Transit != nil {
			continue
		}
		out = append(out, u)
	}
	if len(out) == 0 {
		return nil, ErrEmptySelection
	}
	return out, nil
}

// pointOrder turns a click into an attack order when it lands on an enemy
// of the first unit, otherwise into a move order. Units on the target's own
// side are left alone by an attack order.
func (e *Engine) pointOrder(units []*Unit, p Vec2) {
	lead := units[0]
	target := e.unitAt(p, func(o *Unit) bool { return lead.Opposes(o) })
	for _, u := range units {
		if target != nil && !u.Opposes(target) {
			continue
		}
		u.Hold = false
		u.FormationFacing = nil
		if target != nil {
			u.TargetID = target.ID
			u.manualTarget = true
			u.Destination = nil
			continue
		}
		dest := e.domain.inBounds(p)
		u.Destination = &dest
		u.TargetID = 0
		u.manualTarget = false
	}
}

// flushCommands applies every queued command in submission order.
func (e *Engine) flushCommands() {
	e.mu.Lock()
	queue := e.queue
	e.queue = nil
	e.mu.Unlock()

	for _, c := range queue {
		if err := c.apply(e); err != nil {
			e.log.Add(e.tick, "--", "--", "command", "rejected", fmt.Sprintf("%s: %v", c.Name(), err), 0)
			continue
		}
		e.log.Add(e.tick, "--", "--", "command", c.Name(), "applied", 0)
	}
	e.pruneSelection()
}

// pruneSelection drops ids that no longer resolve.
func (e *Engine) pruneSelection() {
	kept := e.selection[:0]
	for _, id := range e.selection {
		if _, ok := e.reg.Get(id); ok {
			kept = append(kept, id)
		}
	}
	e.selection = kept
}
