package battle

import (
	"math"
	"testing"
)

// dummyArchetype is a harmless stationary target.
var dummyArchetype = Archetype{ID: "dummy", MaxHP: 1000, HitboxRadius: 10}

func moveTo(u *Unit, x, y float64) {
	dest := Vec2{x, y}
	u.Destination = &dest
}

func TestMovement_DetoursAroundCircle(t *testing.T) {
	t.Log("--- Setup: ranger ordered through a boulder at (300,300) r50 ---")
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithObstacle(CircleObstacle(300, 300, 50)),
		WithAttacker("ranger", 100, 300),
		WithDefender("turret", 1500, 850),
	)
	r := ts.Unit(0)
	moveTo(r, 500, 300)
	clearance := 50 + r.Archetype().HitboxRadius

	minDist := math.Inf(1)
	arrived := ts.RunUntil(func(ts *TestSim) bool {
		minDist = math.Min(minDist, r.Pos.Dist(Vec2{300, 300}))
		return r.Destination == nil
	}, 2000)

	if arrived < 0 {
		t.Fatalf("ranger stuck at %s after %d ticks", formatPoint(r.Pos), ts.CurrentTick())
	}
	if minDist < clearance-1e-6 {
		t.Fatalf("ranger entered the obstacle: closest approach %.3f < %.3f", minDist, clearance)
	}
	if r.Pos.Dist(Vec2{500, 300}) > arrivalEpsilon {
		t.Fatalf("arrived at %s, want (500,300)", formatPoint(r.Pos))
	}
	t.Logf("arrived at tick %d, closest approach %.2f", arrived, minDist)
}

func TestMovement_DetoursAroundWall(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithObstacle(RectObstacle(300, 300, 40, 200)),
		WithAttacker("ranger", 100, 300),
		WithDefender("turret", 1500, 850),
	)
	r := ts.Unit(0)
	moveTo(r, 500, 300)
	wall := ts.Engine.Domain().Field

	inside := false
	arrived := ts.RunUntil(func(ts *TestSim) bool {
		if wall.Blocked(r.Pos, r.Archetype().HitboxRadius) {
			inside = true
		}
		return r.Destination == nil
	}, 2000)

	if arrived < 0 {
		t.Fatalf("ranger stuck at %s after %d ticks", formatPoint(r.Pos), ts.CurrentTick())
	}
	if inside {
		t.Fatal("ranger overlapped the wall at some tick")
	}
}

func TestMovement_FacesFormationOnArrival(t *testing.T) {
	ts := NewTestSim(
		WithAttacker("fighter", 100, 100),
		WithDefender("fighter", 1500, 800),
	)
	f := ts.Unit(0)
	moveTo(f, 200, 100)
	facing := 1.0
	f.FormationFacing = &facing

	if ts.RunUntil(func(*TestSim) bool { return f.Destination == nil }, 100) < 0 {
		t.Fatal("fighter never arrived")
	}
	if f.Facing != 1.0 || f.FormationFacing != nil {
		t.Fatalf("facing = %v (formation %v), want 1.0", f.Facing, f.FormationFacing)
	}
}

func TestMovement_StationaryNeverMoves(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithAttacker("turret", 400, 400),
		WithDefender("infantry", 600, 400),
	)
	turret := ts.Unit(0)
	start := turret.Pos

	for i := 0; i < 120; i++ {
		ts.Engine.Tick()
		if turret.Pos != start {
			t.Fatalf("tick %d: turret moved to %s", ts.CurrentTick(), formatPoint(turret.Pos))
		}
	}
	if inf := ts.Unit(1); inf.Alive() {
		want := HeadingTo(turret.Pos, inf.Pos)
		if math.Abs(normalizeAngle(turret.Facing-want)) > 1e-6 {
			t.Fatalf("turret facing %v, want %v toward its target", turret.Facing, want)
		}
	}
}

func TestMovement_PursuitStopsInsideRange(t *testing.T) {
	ts := NewTestSim(
		WithCustomArchetype(dummyArchetype),
		WithAttacker("fighter", 100, 450),
		WithDefender("dummy", 1000, 450),
	)
	f, dummy := ts.Unit(0), ts.Unit(1)
	ts.RunTicks(400)

	gap := gapTo(f, dummy)
	want := f.Effective().Range * pursuitBand
	if math.Abs(gap-want) > 1e-6 {
		t.Fatalf("pursuit gap = %v, want %v", gap, want)
	}
	if dummy.HP >= dummy.MaxHP() {
		t.Fatal("fighter held range but never hit the dummy")
	}
}

func TestMovement_ClosesWhenCoverBlocksFire(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithCustomArchetype(dummyArchetype),
		WithObstacle(RectObstacle(300, 300, 20, 200)),
		WithAttacker("ranger", 200, 300),
		WithDefender("dummy", 400, 300),
	)
	r, dummy := ts.Unit(0), ts.Unit(1)
	hit := ts.RunUntil(func(ts *TestSim) bool { return dummy.HP < dummy.MaxHP() }, 1500)
	if hit < 0 {
		t.Fatalf("ranger at %s never got a clear shot", formatPoint(r.Pos))
	}
	if r.Pos == (Vec2{200, 300}) {
		t.Fatal("ranger never left cover")
	}
	if _, blocked := ts.Engine.Domain().Field.SegmentHit(r.Pos, dummy.Pos); blocked {
		t.Fatalf("ranger stopped at %s with the wall still in the way", formatPoint(r.Pos))
	}
}

func TestMovement_EdgeWalkSlidesOnlyForward(t *testing.T) {
	ts := NewTestSim(
		WithVariant(VariantGround),
		WithObstacle(RectObstacle(500, 400, 40, 200)),
		WithAttacker("ranger", 472, 400),
		WithDefender("turret", 1500, 850),
	)
	r := ts.Unit(0)
	r.edgeDir = -1 // walking down the west face

	ts.Engine.step(r, Vec2{3, 2})
	if r.Pos != (Vec2{472, 402}) {
		t.Fatalf("free slide along the walk not taken: at %s, want (472,402)", formatPoint(r.Pos))
	}
	if r.edgeDir != -1 {
		t.Fatalf("edgeDir = %d after a slide, want -1", r.edgeDir)
	}

	r.Pos = Vec2{472, 400}
	ts.Engine.step(r, Vec2{3, -2})
	if r.Pos.X != 472 || r.Pos.Y <= 400 {
		t.Fatalf("slide doubled back up the face: at %s", formatPoint(r.Pos))
	}
}

func TestMovement_HoldDoesNotPursue(t *testing.T) {
	ts := NewTestSim(
		WithCustomArchetype(dummyArchetype),
		WithAttacker("fighter", 100, 450),
		WithDefender("dummy", 1000, 450),
	)
	f := ts.Unit(0)
	f.Hold = true
	ts.RunTicks(60)
	if f.Pos != (Vec2{100, 450}) {
		t.Fatalf("held fighter moved to %s", formatPoint(f.Pos))
	}
	if f.TargetID != ts.Unit(1).ID {
		t.Fatalf("held fighter should still acquire a target, got %d", f.TargetID)
	}
}

func TestMovement_StaysInBounds(t *testing.T) {
	ts := NewTestSim(
		WithAttacker("fighter", 10, 10),
		WithDefender("fighter", 1500, 800),
	)
	f := ts.Unit(0)
	moveTo(f, -500, -500)
	ts.RunTicks(30)
	if f.Pos.X < 0 || f.Pos.Y < 0 {
		t.Fatalf("fighter left the field: %s", formatPoint(f.Pos))
	}
}

func TestGeometry_SegmentCircle(t *testing.T) {
	if _, ok := segmentCircleHitT(Vec2{0, 0}, Vec2{10, 0}, Vec2{5, 3}, 2); ok {
		t.Fatal("segment passing 3 away hit a radius-2 circle")
	}
	tHit, ok := segmentCircleHitT(Vec2{0, 0}, Vec2{10, 0}, Vec2{5, 0}, 2)
	if !ok || math.Abs(tHit-0.3) > eps {
		t.Fatalf("hit t = %v ok=%v, want 0.3", tHit, ok)
	}
	if tHit, ok := segmentCircleHitT(Vec2{5, 0}, Vec2{10, 0}, Vec2{5, 0}, 2); !ok || tHit != 0 {
		t.Fatalf("segment starting inside: t=%v ok=%v, want 0", tHit, ok)
	}
}

func TestGeometry_NormalizeAngle(t *testing.T) {
	for _, c := range []struct{ in, want float64 }{
		{0, 0},
		{3 * math.Pi, math.Pi},
		{-3 * math.Pi / 2, math.Pi / 2},
	} {
		if got := normalizeAngle(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("normalizeAngle(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
