package battle

import (
	"math"
	"sort"
)

const (
	// formationMinDrag is the drag length below which a formation order
	// degrades into a plain point order at the drag end.
	formationMinDrag = 40.0
	// formationSpacing is the gap between adjacent formation slots.
	formationSpacing = 36.0
)

// slotWorld converts a local (forward, right) offset into a world position
// given an anchor and heading. Right is 90° clockwise from forward in screen
// space (y grows downward).
func slotWorld(anchor Vec2, heading, fwd, right float64) Vec2 {
	fx := math.Cos(heading)
	fy := math.Sin(heading)
	rx := -fy
	ry := fx
	return Vec2{
		X: anchor.X + fx*fwd + rx*right,
		Y: anchor.Y + fy*fwd + ry*right,
	}
}

// formationFacing is the shared facing of a formation dragged from start to end:
// perpendicular to the drag vector.
func formationFacing(start, end Vec2) float64 {
	return normalizeAngle(HeadingTo(start, end) - math.Pi/2)
}

// formationSlots lays count slots along the drag line. The first row starts
// at start and runs toward end; further rows trail behind the line.
func formationSlots(count int, start, end Vec2) []Vec2 {
	if count <= 0 {
		return nil
	}
	length := start.Dist(end)
	perRow := int(math.Floor(length/formationSpacing)) + 1
	if perRow > count {
		perRow = count
	}
	facing := formationFacing(start, end)
	slots := make([]Vec2, count)
	for i := 0; i < count; i++ {
		row := i / perRow
		col := i % perRow
		slots[i] = slotWorld(start, facing, -float64(row)*formationSpacing, float64(col)*formationSpacing)
	}
	return slots
}

// assignFormation pairs units with slots. Units are ordered by their
// projection onto the drag vector so that paths rarely cross.
func assignFormation(units []*Unit, start, end Vec2) ([]*Unit, []Vec2) {
	dir := end.Sub(start)
	ordered := append([]*Unit(nil), units...)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi := ordered[i].Pos.Sub(start)
		pj := ordered[j].Pos.Sub(start)
		return pi.X*dir.X+pi.Y*dir.Y < pj.X*dir.X+pj.Y*dir.Y
	})
	return ordered, formationSlots(len(ordered), start, end)
}
