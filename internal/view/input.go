package view

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/battle-resolver/internal/battle"
)

// inputState is one frame of raw input.
type inputState struct {
	cursorX, cursorY float64
	left, right      bool
	wheel            float64
	keys             map[ebiten.Key]bool
}

var watchedKeys = []ebiten.Key{
	ebiten.KeyW, ebiten.KeyA, ebiten.KeyS, ebiten.KeyD,
	ebiten.KeyArrowUp, ebiten.KeyArrowDown, ebiten.KeyArrowLeft, ebiten.KeyArrowRight,
	ebiten.KeyEqual, ebiten.KeyMinus,
	ebiten.KeyP, ebiten.KeyComma, ebiten.KeyPeriod,
	ebiten.KeyH, ebiten.KeyQ, ebiten.KeyE, ebiten.KeyC, ebiten.KeyF1, ebiten.KeyEscape,
}

func pollInput() inputState {
	in := inputState{keys: make(map[ebiten.Key]bool, len(watchedKeys))}
	mx, my := ebiten.CursorPosition()
	in.cursorX, in.cursorY = float64(mx), float64(my)
	in.left = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	in.right = ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	_, in.wheel = ebiten.Wheel()
	for _, k := range append(watchedKeys, abilityKeys...) {
		in.keys[k] = ebiten.IsKeyPressed(k)
	}
	return in
}

const (
	// clickSlop is the screen distance under which a drag counts as a click.
	clickSlop   = 4.0
	facingStep  = math.Pi / 8
	panPerFrame = 8.0
)

var abilityKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

var simSpeeds = []float64{0, 0.5, 1, 2, 4, 8}

// pendingCast is a hero ability waiting for its target point.
type pendingCast struct {
	caster  battle.UnitID
	ability string
	radius  float64
}

func (v *Viewer) pressed(in inputState, k ebiten.Key) bool {
	return in.keys[k] && !v.prev.keys[k]
}

// handleInput applies one frame of input. Commands go through the engine's
// queue and take effect on the next tick.
func (v *Viewer) handleInput(in inputState) {
	defer func() { v.prev = in }()

	v.handleCamera(in)
	v.handleSpeed(in)

	if v.pressed(in, ebiten.KeyF1) {
		v.showHelp = !v.showHelp
	}
	if v.pressed(in, ebiten.KeyC) {
		v.copyReport()
	}
	if v.pressed(in, ebiten.KeyEscape) {
		v.pending = nil
	}
	if v.pressed(in, ebiten.KeyH) {
		v.submit(v.engine.ToggleHoldPosition())
	}
	if v.pressed(in, ebiten.KeyQ) {
		v.turnSelection(-facingStep)
	}
	if v.pressed(in, ebiten.KeyE) {
		v.turnSelection(facingStep)
	}
	for i, k := range abilityKeys {
		if v.pressed(in, k) {
			v.beginCast(i)
		}
	}

	v.handleMouse(in)
}

func (v *Viewer) handleCamera(in inputState) {
	if in.keys[ebiten.KeyW] || in.keys[ebiten.KeyArrowUp] {
		v.cam.pan(0, -panPerFrame)
	}
	if in.keys[ebiten.KeyS] || in.keys[ebiten.KeyArrowDown] {
		v.cam.pan(0, panPerFrame)
	}
	if in.keys[ebiten.KeyA] || in.keys[ebiten.KeyArrowLeft] {
		v.cam.pan(-panPerFrame, 0)
	}
	if in.keys[ebiten.KeyD] || in.keys[ebiten.KeyArrowRight] {
		v.cam.pan(panPerFrame, 0)
	}
	if in.wheel != 0 {
		v.cam.zoomAt(math.Pow(1.12, in.wheel), in.cursorX, in.cursorY)
	}
	if v.pressed(in, ebiten.KeyEqual) {
		v.cam.zoomAt(1.25, v.cam.vpW/2, v.cam.vpH/2)
	}
	if v.pressed(in, ebiten.KeyMinus) {
		v.cam.zoomAt(1/1.25, v.cam.vpW/2, v.cam.vpH/2)
	}
}

// handleSpeed steps through simSpeeds: P pauses, comma and period step.
func (v *Viewer) handleSpeed(in inputState) {
	if v.pressed(in, ebiten.KeyP) {
		if v.simSpeed > 0 {
			v.resumeSpeed, v.simSpeed = v.simSpeed, 0
		} else {
			v.simSpeed = max(v.resumeSpeed, 1)
		}
	}
	if v.pressed(in, ebiten.KeyComma) {
		for i := len(simSpeeds) - 1; i >= 0; i-- {
			if simSpeeds[i] < v.simSpeed {
				v.simSpeed = simSpeeds[i]
				break
			}
		}
	}
	if v.pressed(in, ebiten.KeyPeriod) {
		for _, s := range simSpeeds {
			if s > v.simSpeed {
				v.simSpeed = s
				break
			}
		}
	}
}

// handleMouse turns button releases into commands. Left drags select, right
// drags order a formation; a right click is a plain order.
func (v *Viewer) handleMouse(in inputState) {
	at := v.cam.toWorld(in.cursorX, in.cursorY)

	if in.left && !v.prev.left {
		if v.pending != nil {
			pc := v.pending
			v.pending = nil
			v.submit(v.engine.CastAbility(pc.caster, pc.ability, &at))
			v.swallowLeft = true
			return
		}
		v.dragStart = &dragAnchor{sx: in.cursorX, sy: in.cursorY, world: at}
	}
	if !in.left && v.prev.left {
		if v.swallowLeft {
			v.swallowLeft = false
		} else if d := v.dragStart; d != nil {
			if math.Hypot(in.cursorX-d.sx, in.cursorY-d.sy) < clickSlop {
				v.clickSelect(at)
			} else {
				v.submit(v.engine.SelectRegion(d.world, at))
			}
		}
		v.dragStart = nil
	}

	if in.right && !v.prev.right {
		v.pending = nil
		v.orderStart = &dragAnchor{sx: in.cursorX, sy: in.cursorY, world: at}
	}
	if !in.right && v.prev.right {
		if o := v.orderStart; o != nil {
			if math.Hypot(in.cursorX-o.sx, in.cursorY-o.sy) < clickSlop {
				v.submit(v.engine.IssueOrder(at))
			} else {
				v.submit(v.engine.IssueFormationOrder(o.world, at))
			}
		}
		v.orderStart = nil
	}
}

type dragAnchor struct {
	sx, sy float64
	world  battle.Vec2
}

// clickSelect selects the topmost own unit under p, or clears the selection.
func (v *Viewer) clickSelect(p battle.Vec2) {
	proj := v.engine.Projection()
	best, bestD := battle.UnitID(0), math.Inf(1)
	for _, u := range proj.Units {
		if u.Attacking != v.controlAttacker {
			continue
		}
		d := u.Pos.Dist(p)
		if d <= u.Hitbox+pickSlop && d < bestD {
			best, bestD = u.ID, d
		}
	}
	if best == 0 {
		v.submit(v.engine.Select())
		return
	}
	v.submit(v.engine.Select(best))
}

// pickSlop widens the click target around small units.
const pickSlop = 6.0

// turnSelection rotates the selection relative to the first selected unit.
func (v *Viewer) turnSelection(delta float64) {
	proj := v.engine.Projection()
	for _, u := range proj.Units {
		if u.Selected {
			v.submit(v.engine.SetFacing(u.Facing + delta))
			return
		}
	}
}

// selectedHero returns the first selected hero in the latest projection.
func (v *Viewer) selectedHero() (battle.UnitView, bool) {
	for _, u := range v.engine.Projection().Units {
		if u.Selected && u.IsHero {
			return u, true
		}
	}
	return battle.UnitView{}, false
}

// beginCast casts the hero's i-th ability, or arms it when it needs a point.
func (v *Viewer) beginCast(i int) {
	hero, ok := v.selectedHero()
	if !ok || i >= len(hero.Abilities) {
		return
	}
	id := hero.Abilities[i].ID
	ab, ok := v.engine.Catalog().Ability(id)
	if !ok {
		return
	}
	if !ab.TargetMode.NeedsPoint() {
		v.submit(v.engine.CastAbility(hero.ID, id, nil))
		return
	}
	v.pending = &pendingCast{caster: hero.ID, ability: id, radius: max(ab.Radius, ab.ImpactRadius)}
	v.setStatus("target " + id + " (Esc cancels)")
}

func (v *Viewer) submit(err error) {
	if err != nil {
		v.setStatus(err.Error())
	}
}
