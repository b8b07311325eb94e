package battle

import "math"

// ShapeKind tags an obstacle's geometry.
type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapeRect
)

// Obstacle is a blocking shape. Circles use Radius; rects use Width and
// Height centred on Center.
type Obstacle struct {
	Kind   ShapeKind
	Center Vec2
	Radius float64
	Width  float64
	Height float64
}

// CircleObstacle builds a circular obstacle.
func CircleObstacle(cx, cy, r float64) Obstacle {
	return Obstacle{Kind: ShapeCircle, Center: Vec2{cx, cy}, Radius: r}
}

// RectObstacle builds an axis-aligned rectangular obstacle centred on (cx,cy).
func RectObstacle(cx, cy, w, h float64) Obstacle {
	return Obstacle{Kind: ShapeRect, Center: Vec2{cx, cy}, Width: w, Height: h}
}

// Contains reports whether p lies strictly inside the shape grown by margin.
func (o Obstacle) Contains(p Vec2, margin float64) bool {
	switch o.Kind {
	case ShapeCircle:
		return p.Dist(o.Center) < o.Radius+margin
	case ShapeRect:
		return math.Abs(p.X-o.Center.X) < o.Width/2+margin &&
			math.Abs(p.Y-o.Center.Y) < o.Height/2+margin
	}
	return false
}

// segmentHitT returns the first t in [0,1] where segment a->b touches the
// unexpanded shape.
func (o Obstacle) segmentHitT(a, b Vec2) (float64, bool) {
	switch o.Kind {
	case ShapeCircle:
		return segmentCircleHitT(a, b, o.Center, o.Radius)
	case ShapeRect:
		hw, hh := o.Width/2, o.Height/2
		return rayAABBHitT(a.X, a.Y, b.X, b.Y,
			o.Center.X-hw, o.Center.Y-hh, o.Center.X+hw, o.Center.Y+hh)
	}
	return 0, false
}

// outwardNormal returns the unit normal of the shape's surface nearest p.
// For rects it is the normal of the closest face.
func (o Obstacle) outwardNormal(p Vec2) Vec2 {
	switch o.Kind {
	case ShapeCircle:
		d := p.Sub(o.Center)
		l := d.Len()
		if l < 1e-9 {
			return Vec2{1, 0}
		}
		return d.Scale(1 / l)
	case ShapeRect:
		rx := (p.X - o.Center.X) / math.Max(o.Width/2, 1e-9)
		ry := (p.Y - o.Center.Y) / math.Max(o.Height/2, 1e-9)
		if math.Abs(rx) >= math.Abs(ry) {
			if rx >= 0 {
				return Vec2{1, 0}
			}
			return Vec2{-1, 0}
		}
		if ry >= 0 {
			return Vec2{0, 1}
		}
		return Vec2{0, -1}
	}
	return Vec2{1, 0}
}

// ObstacleField is the immutable set of blocking shapes on a battlefield.
// The space variant uses an empty field.
type ObstacleField struct {
	obstacles []Obstacle
}

// NewObstacleField copies obs into a new field.
func NewObstacleField(obs []Obstacle) *ObstacleField {
	return &ObstacleField{obstacles: append([]Obstacle(nil), obs...)}
}

// Obstacles returns a copy of the field's shapes.
func (f *ObstacleField) Obstacles() []Obstacle {
	if f == nil {
		return nil
	}
	return append([]Obstacle(nil), f.obstacles...)
}

// Empty reports whether the field holds no shapes.
func (f *ObstacleField) Empty() bool { return f == nil || len(f.obstacles) == 0 }

// Blocked reports whether a mover of radius margin may not occupy p.
func (f *ObstacleField) Blocked(p Vec2, margin float64) bool {
	_, hit := f.blocker(p, margin)
	return hit
}

func (f *ObstacleField) blocker(p Vec2, margin float64) (Obstacle, bool) {
	if f == nil {
		return Obstacle{}, false
	}
	for _, o := range f.obstacles {
		if o.Contains(p, margin) {
			return o, true
		}
	}
	return Obstacle{}, false
}

// SegmentHit returns the earliest t in [0,1] at which segment a->b meets any
// obstacle. Projectiles use it with no margin.
func (f *ObstacleField) SegmentHit(a, b Vec2) (float64, bool) {
	if f == nil {
		return 0, false
	}
	best := 2.0
	for _, o := range f.obstacles {
		if t, ok := o.segmentHitT(a, b); ok && t < best {
			best = t
		}
	}
	if best > 1 {
		return 0, false
	}
	return best, true
}
