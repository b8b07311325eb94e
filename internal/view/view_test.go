package view

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/battle-resolver/internal/battle"
)

// harness drives a Viewer with synthetic input frames.
type harness struct {
	t      *testing.T
	e      *battle.Engine
	v      *Viewer
	copied string
}

func newHarness(t *testing.T, setup battle.Setup) *harness {
	t.Helper()
	h := &harness{t: t}
	h.e = battle.New(setup, battle.WithSeed(1), battle.WithProjectionInterval(1), battle.WithBattleID("view"))
	h.v = New(h.e, "test", WithWindowSize(1600, 900), WithSeed(1))
	h.v.copy = func(s string) error { h.copied = s; return nil }
	return h
}

func frame(x, y float64, left, right bool, keys ...ebiten.Key) inputState {
	in := inputState{cursorX: x, cursorY: y, left: left, right: right, keys: map[ebiten.Key]bool{}}
	for _, k := range keys {
		in.keys[k] = true
	}
	return in
}

func (h *harness) key(k ebiten.Key) {
	h.v.handleInput(frame(0, 0, false, false, k))
	h.v.handleInput(frame(0, 0, false, false))
}

func (h *harness) leftDrag(a, b battle.Vec2) {
	h.v.handleInput(frame(a.X, a.Y, true, false))
	h.v.handleInput(frame(b.X, b.Y, true, false))
	h.v.handleInput(frame(b.X, b.Y, false, false))
}

func (h *harness) rightDrag(a, b battle.Vec2) {
	h.v.handleInput(frame(a.X, a.Y, false, true))
	h.v.handleInput(frame(b.X, b.Y, false, true))
	h.v.handleInput(frame(b.X, b.Y, false, false))
}

// tick flushes queued commands and republishes the projection.
func (h *harness) tick() {
	h.t.Helper()
	h.e.Tick()
}

func (h *harness) unit(archetype string) *battle.Unit {
	h.t.Helper()
	for _, u := range h.e.Units() {
		if u.ArchetypeID == archetype {
			return u
		}
	}
	h.t.Fatalf("no %s in battle", archetype)
	return nil
}

func skirmish() battle.Setup {
	return battle.Setup{
		Attacker:  battle.Force{SideID: "empire", Composition: battle.Composition{"frigate": 1, "fighter": 2}},
		Defenders: []battle.Force{{SideID: "rebels", Composition: battle.Composition{"cruiser": 1}}},
	}
}

func TestCamera_RoundTripAndZoom(t *testing.T) {
	c := newCamera(800, 450, 1600, 900)
	if c.zoom != 0.5 {
		t.Fatalf("fit zoom = %v, want 0.5", c.zoom)
	}
	p := battle.Vec2{X: 300, Y: 700}
	sx, sy := c.toScreen(p)
	if back := c.toWorld(float64(sx), float64(sy)); back.Dist(p) > 1e-3 {
		t.Fatalf("round trip %v → %v", p, back)
	}

	anchor := c.toWorld(100, 100)
	c.zoomAt(2, 100, 100)
	if c.zoom != 1 {
		t.Fatalf("zoom = %v, want 1", c.zoom)
	}
	if got := c.toWorld(100, 100); got.Dist(anchor) > 1e-9 {
		t.Fatalf("zoom moved the anchor from %v to %v", anchor, got)
	}
	c.zoomAt(100, 0, 0)
	if c.zoom != zoomMax {
		t.Fatalf("zoom not clamped: %v", c.zoom)
	}
	c.pan(-1e6, 1e6)
	if c.x != 0 || c.y != 900 {
		t.Fatalf("camera left the field: %v,%v", c.x, c.y)
	}
}

func TestInput_ClickSelectsOwnUnit(t *testing.T) {
	h := newHarness(t, skirmish())
	frigate := h.unit("frigate")
	cruiser := h.unit("cruiser")

	h.leftDrag(frigate.Pos, frigate.Pos)
	h.tick()
	if sel := h.e.Selection(); len(sel) != 1 || sel[0] != frigate.ID {
		t.Fatalf("selection = %v, want the frigate", sel)
	}

	// Clicking an enemy clears the selection.
	h.leftDrag(cruiser.Pos, cruiser.Pos)
	h.tick()
	if sel := h.e.Selection(); len(sel) != 0 {
		t.Fatalf("selection = %v, want empty", sel)
	}
}

func TestInput_DragSelectsRegion(t *testing.T) {
	h := newHarness(t, skirmish())
	h.leftDrag(battle.Vec2{X: 0, Y: 0}, battle.Vec2{X: 1600, Y: 900})
	h.tick()
	if sel := h.e.Selection(); len(sel) != 3 {
		t.Fatalf("selection = %v, want all three attackers", sel)
	}
}

func TestInput_RightClickOrdersAndDragFormation(t *testing.T) {
	h := newHarness(t, skirmish())
	_ = h.e.Select(h.unit("fighter").ID)
	h.tick()

	dest := battle.Vec2{X: 700, Y: 100}
	h.rightDrag(dest, dest)
	h.tick()
	f := h.unit("fighter")
	if f.Destination == nil || *f.Destination != dest {
		t.Fatalf("destination = %v, want %v", f.Destination, dest)
	}

	h.leftDrag(battle.Vec2{X: 0, Y: 0}, battle.Vec2{X: 1600, Y: 900})
	h.tick()
	h.rightDrag(battle.Vec2{X: 600, Y: 600}, battle.Vec2{X: 700, Y: 600})
	h.tick()
	for _, u := range h.e.Units() {
		if !u.Attacking {
			continue
		}
		if u.FormationFacing == nil || math.Abs(*u.FormationFacing-(-math.Pi/2)) > 1e-9 {
			t.Fatalf("%s formation facing = %v", u.Label(), u.FormationFacing)
		}
	}
}

func TestInput_HoldAndFacing(t *testing.T) {
	h := newHarness(t, skirmish())
	frigate := h.unit("frigate")
	_ = h.e.Select(frigate.ID)
	h.tick()

	h.key(ebiten.KeyH)
	h.tick()
	if !frigate.Hold {
		t.Fatal("H did not toggle hold")
	}

	// Space units turn to their targets each tick, so check the command
	// itself rather than the heading afterwards.
	h.key(ebiten.KeyE)
	h.tick()
	if h.e.Log().CountCategory("command", "facing") != 1 {
		t.Fatalf("facing command not applied:\n%s", h.e.Log().Format())
	}
}

func TestInput_AbilityTargeting(t *testing.T) {
	h := newHarness(t, battle.Setup{
		Variant:   battle.VariantGround,
		Attacker:  battle.Force{SideID: "empire", Composition: battle.Composition{"commander": 1}},
		Defenders: []battle.Force{{SideID: "colony", Composition: battle.Composition{"turret": 1}}},
	})
	cmdr := h.unit("commander")
	_ = h.e.Select(cmdr.ID)
	h.tick()

	// Slot 1 needs a point: it arms, then the next left click casts.
	h.key(ebiten.Key1)
	if h.v.pending == nil || h.v.pending.ability != "nanite_cloud" {
		t.Fatalf("pending = %+v, want nanite_cloud", h.v.pending)
	}
	at := cmdr.Pos.Add(battle.Vec2{X: 40})
	h.leftDrag(at, at)
	if h.v.pending != nil {
		t.Fatal("cast stayed armed after the click")
	}
	h.tick()
	if !h.e.Log().HasEntry("ability", "cast", "nanite_cloud") {
		t.Fatalf("nanite_cloud not cast:\n%s", h.e.Log().Format())
	}
	if sel := h.e.Selection(); len(sel) != 1 {
		t.Fatalf("the targeting click changed the selection: %v", sel)
	}

	// Slot 4 is instant.
	h.key(ebiten.Key4)
	if h.v.pending != nil {
		t.Fatal("instant ability armed a target")
	}
	h.tick()
	if !h.e.Log().HasEntry("ability", "cast", "battle_focus") {
		t.Fatal("battle_focus not cast")
	}

	// Escape disarms.
	h.key(ebiten.Key2)
	h.key(ebiten.KeyEscape)
	if h.v.pending != nil {
		t.Fatal("Esc did not cancel targeting")
	}
}

func TestInput_SpeedControls(t *testing.T) {
	h := newHarness(t, skirmish())
	h.key(ebiten.KeyPeriod)
	if h.v.simSpeed != 2 {
		t.Fatalf("speed = %v, want 2", h.v.simSpeed)
	}
	h.key(ebiten.KeyP)
	if h.v.simSpeed != 0 {
		t.Fatal("P did not pause")
	}
	h.v.advance()
	if h.e.CurrentTick() != 0 {
		t.Fatal("paused viewer ticked the battle")
	}
	h.key(ebiten.KeyP)
	if h.v.simSpeed != 2 {
		t.Fatalf("resume speed = %v, want 2", h.v.simSpeed)
	}
	h.key(ebiten.KeyComma)
	h.key(ebiten.KeyComma)
	if h.v.simSpeed != 0.5 {
		t.Fatalf("speed = %v, want 0.5", h.v.simSpeed)
	}
	h.v.advance()
	h.v.advance()
	if h.e.CurrentTick() != 1 {
		t.Fatalf("two half-speed frames ran %d ticks", h.e.CurrentTick())
	}
}

func TestViewer_FinalReportAndCopy(t *testing.T) {
	h := newHarness(t, battle.Setup{
		Attacker: battle.Force{SideID: "empire", Composition: battle.Composition{"fighter": 1}},
	})
	h.key(ebiten.KeyC)
	if !strings.Contains(h.copied, "Summary at T=000") {
		t.Fatalf("live copy = %q", h.copied)
	}

	h.v.advance()
	if !strings.Contains(h.v.finalReport, "outcome=victory") {
		t.Fatalf("final report = %q", h.v.finalReport)
	}
	h.key(ebiten.KeyC)
	if !strings.HasPrefix(h.copied, "test\n") || !strings.Contains(h.copied, "winner=empire") {
		t.Fatalf("copied = %q", h.copied)
	}

	// Orders after resolution surface the engine's error.
	h.key(ebiten.KeyH)
	if h.v.status != battle.ErrResolved.Error() {
		t.Fatalf("status = %q", h.v.status)
	}

	h.v.copy = func(string) error { return errors.New("no display") }
	h.key(ebiten.KeyC)
	if !strings.Contains(h.v.status, "no display") {
		t.Fatalf("status = %q", h.v.status)
	}
}
