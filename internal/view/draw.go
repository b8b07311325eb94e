package view

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/battle-resolver/internal/battle"
)

const lineHeight = 15

var (
	spaceBG    = color.RGBA{R: 6, G: 8, B: 18, A: 255}
	gridSpace  = color.RGBA{R: 30, G: 36, B: 70, A: 70}
	gridGround = color.RGBA{R: 0, G: 0, B: 0, A: 28}
	obstacleC  = color.RGBA{R: 70, G: 66, B: 60, A: 255}
	obstacleE  = color.RGBA{R: 120, G: 112, B: 100, A: 255}
	attackerC  = color.RGBA{R: 220, G: 70, B: 60, A: 255}
	defenderC  = color.RGBA{R: 70, G: 120, B: 230, A: 255}
	selectC    = color.RGBA{R: 120, G: 255, B: 120, A: 255}
	heroC      = color.RGBA{R: 255, G: 210, B: 60, A: 255}
	hpC        = color.RGBA{R: 80, G: 210, B: 80, A: 255}
	shieldC    = color.RGBA{R: 90, G: 200, B: 255, A: 255}
	manaC      = color.RGBA{R: 170, G: 110, B: 255, A: 255}
	barBG      = color.RGBA{R: 20, G: 20, B: 20, A: 200}
	flatShotC  = color.RGBA{R: 255, G: 240, B: 120, A: 255}
	panelBG    = color.RGBA{R: 6, G: 10, B: 6, A: 210}
	panelEdge  = color.RGBA{R: 60, G: 100, B: 60, A: 180}
	textC      = color.RGBA{R: 220, G: 230, B: 220, A: 255}
)

// terrainColors tints the ground per terrain id; unknown ids use plains.
var terrainColors = map[string]color.RGBA{
	"plains":   {R: 62, G: 88, B: 50, A: 255},
	"forest":   {R: 34, G: 64, B: 36, A: 255},
	"desert":   {R: 150, G: 128, B: 84, A: 255},
	"urban":    {R: 70, G: 72, B: 76, A: 255},
	"ice":      {R: 170, G: 190, B: 205, A: 255},
	"volcanic": {R: 70, G: 40, B: 34, A: 255},
}

// Draw renders the latest projection and the HUD.
func (v *Viewer) Draw(screen *ebiten.Image) {
	p := v.engine.Projection()
	v.drawField(screen, p)
	for _, o := range p.Obstacles {
		v.drawObstacle(screen, o)
	}
	for _, u := range p.Units {
		v.drawOrders(screen, u)
	}
	for _, u := range p.Units {
		v.drawUnit(screen, u)
	}
	for _, pr := range p.Projectiles {
		v.drawProjectile(screen, pr)
	}
	for _, f := range p.Flashes {
		v.drawFlash(screen, f)
	}
	v.drawDrags(screen)
	v.drawHUD(screen, p)
}

func (v *Viewer) drawField(screen *ebiten.Image, p battle.Projection) {
	screen.Fill(color.RGBA{R: 12, G: 14, B: 12, A: 255})
	x0, y0 := v.cam.toScreen(battle.Vec2{})
	x1, y1 := v.cam.toScreen(battle.Vec2{X: p.Width, Y: p.Height})
	bg, grid := spaceBG, gridSpace
	if p.Variant == battle.VariantGround {
		c, ok := terrainColors[p.Terrain]
		if !ok {
			c = terrainColors["plains"]
		}
		bg, grid = c, gridGround
	}
	vector.FillRect(screen, x0, y0, x1-x0, y1-y0, bg, false)
	const spacing = 100.0
	for x := 0.0; x <= p.Width; x += spacing {
		sx, _ := v.cam.toScreen(battle.Vec2{X: x})
		vector.StrokeLine(screen, sx, y0, sx, y1, 1, grid, false)
	}
	for y := 0.0; y <= p.Height; y += spacing {
		_, sy := v.cam.toScreen(battle.Vec2{Y: y})
		vector.StrokeLine(screen, x0, sy, x1, sy, 1, grid, false)
	}
	vector.StrokeRect(screen, x0-1, y0-1, x1-x0+2, y1-y0+2, 2, panelEdge, false)
}

func (v *Viewer) drawObstacle(screen *ebiten.Image, o battle.Obstacle) {
	z := float32(v.cam.zoom)
	cx, cy := v.cam.toScreen(o.Center)
	switch o.Kind {
	case battle.ShapeCircle:
		vector.FillCircle(screen, cx, cy, float32(o.Radius)*z, obstacleC, true)
		vector.StrokeCircle(screen, cx, cy, float32(o.Radius)*z, 1.5, obstacleE, true)
	case battle.ShapeRect:
		w, h := float32(o.Width)*z, float32(o.Height)*z
		vector.FillRect(screen, cx-w/2, cy-h/2, w, h, obstacleC, false)
		vector.StrokeRect(screen, cx-w/2, cy-h/2, w, h, 1.5, obstacleE, false)
	}
}

func sideColor(attacking bool) color.RGBA {
	if attacking {
		return attackerC
	}
	return defenderC
}

func fade(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// drawOrders draws move lines for selected units.
func (v *Viewer) drawOrders(screen *ebiten.Image, u battle.UnitView) {
	if !u.Selected || u.Destination == nil {
		return
	}
	x0, y0 := v.cam.toScreen(u.Pos)
	x1, y1 := v.cam.toScreen(*u.Destination)
	vector.StrokeLine(screen, x0, y0, x1, y1, 1, fade(selectC, 90), true)
	vector.StrokeCircle(screen, x1, y1, 4, 1, fade(selectC, 160), true)
}

func (v *Viewer) drawUnit(screen *ebiten.Image, u battle.UnitView) {
	z := float32(v.cam.zoom)
	cx, cy := v.cam.toScreen(u.Pos)
	r := max(float32(u.Hitbox)*z, 3)
	c := sideColor(u.Attacking)
	if u.InTransit {
		c = fade(c, 90)
	}

	if len(u.Members) > 0 {
		mr := max(float32(u.MemberRadius)*z, 2)
		for _, m := range u.Members {
			mx, my := v.cam.toScreen(m)
			vector.FillCircle(screen, mx, my, mr, c, true)
		}
		vector.StrokeCircle(screen, cx, cy, r, 1, fade(c, 120), true)
	} else {
		vector.FillCircle(screen, cx, cy, r, c, true)
	}

	// Facing tick.
	fx := cx + float32(math.Cos(u.Facing))*(r+4)
	fy := cy + float32(math.Sin(u.Facing))*(r+4)
	vector.StrokeLine(screen, cx, cy, fx, fy, 1.5, textC, true)

	if u.IsHero {
		vector.StrokeCircle(screen, cx, cy, r+3, 1.5, heroC, true)
	}
	if u.Selected {
		vector.StrokeCircle(screen, cx, cy, r+6, 1.5, selectC, true)
	}
	if u.Hold {
		v.drawText(screen, "H", float64(cx+r+2), float64(cy-r-12), heroC)
	}

	// Bars: hp, shield, mana.
	w := max(r*2, 16)
	y := cy - r - 8
	bar := func(frac float64, col color.RGBA) {
		vector.FillRect(screen, cx-w/2, y, w, 3, barBG, false)
		vector.FillRect(screen, cx-w/2, y, w*float32(math.Max(0, math.Min(1, frac))), 3, col, false)
		y -= 4
	}
	bar(u.HP/u.MaxHP, hpC)
	if u.MaxShield > 0 {
		bar(u.Shield/u.MaxShield, shieldC)
	}
	if u.MaxMana > 0 {
		bar(u.Mana/u.MaxMana, manaC)
	}
}

func (v *Viewer) drawProjectile(screen *ebiten.Image, pr battle.ProjectileView) {
	x1, y1 := v.cam.toScreen(pr.Pos)
	x0, y0 := v.cam.toScreen(pr.Pos.Sub(pr.Vel))
	c := sideColor(pr.Attacking)
	if pr.Flat {
		c = flatShotC
	}
	vector.StrokeLine(screen, x0, y0, x1, y1, 2, c, true)
}

func (v *Viewer) drawFlash(screen *ebiten.Image, f battle.MuzzleFlash) {
	x, y := v.cam.toScreen(f.Pos)
	length := float32(8)
	if f.Melee {
		length = 4
	}
	ex := x + float32(math.Cos(f.Angle))*length
	ey := y + float32(math.Sin(f.Angle))*length
	vector.StrokeLine(screen, x, y, ex, ey, 2, color.RGBA{R: 255, G: 230, B: 150, A: 220}, true)
}

// drawDrags previews an in-progress selection box, formation line or cast.
func (v *Viewer) drawDrags(screen *ebiten.Image) {
	cx, cy := float32(v.prev.cursorX), float32(v.prev.cursorY)
	if d := v.dragStart; d != nil {
		x, y := float32(d.sx), float32(d.sy)
		vector.StrokeRect(screen, min(x, cx), min(y, cy), abs32(cx-x), abs32(cy-y), 1, selectC, false)
	}
	if o := v.orderStart; o != nil {
		vector.StrokeLine(screen, float32(o.sx), float32(o.sy), cx, cy, 2, fade(selectC, 160), true)
	}
	if pc := v.pending; pc != nil {
		r := float32(math.Max(pc.radius, 10) * v.cam.zoom)
		vector.StrokeCircle(screen, cx, cy, r, 1.5, heroC, true)
		v.drawText(screen, pc.ability, float64(cx+r+4), float64(cy-6), heroC)
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func (v *Viewer) drawText(dst *ebiten.Image, s string, x, y float64, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	op.LineSpacing = lineHeight
	text.Draw(dst, s, v.face, op)
}

// drawPanel draws lines of text in a boxed panel at (x, y).
func (v *Viewer) drawPanel(dst *ebiten.Image, lines []string, x, y float32) {
	maxW := 0.0
	for _, l := range lines {
		w, _ := text.Measure(l, v.face, lineHeight)
		maxW = math.Max(maxW, w)
	}
	const pad = 6
	w := float32(maxW) + pad*2
	h := float32(len(lines)*lineHeight) + pad*2
	vector.FillRect(dst, x, y, w, h, panelBG, false)
	vector.StrokeRect(dst, x, y, w, h, 1, panelEdge, false)
	v.drawText(dst, strings.Join(lines, "\n"), float64(x+pad), float64(y+pad), textC)
}

func (v *Viewer) drawHUD(screen *ebiten.Image, p battle.Projection) {
	speed := fmt.Sprintf("%gx", v.simSpeed)
	if v.simSpeed == 0 {
		speed = "PAUSED"
	}
	selected := 0
	for _, u := range p.Units {
		if u.Selected {
			selected++
		}
	}
	lines := []string{
		fmt.Sprintf("%s  [%s %s]", v.name, p.Variant, p.Terrain),
		fmt.Sprintf("tick %d  speed %s  state %s", p.Tick, speed, v.engine.State()),
		fmt.Sprintf("units %d  selected %d  zoom %.2fx", len(p.Units), selected, v.cam.zoom),
	}
	if hero, ok := v.selectedHero(); ok {
		lines = append(lines, fmt.Sprintf("%s  mana %.0f/%.0f", hero.ArchetypeID, hero.Mana, hero.MaxMana))
		for i, ab := range hero.Abilities {
			state := "ready"
			switch {
			case ab.Cooldown > 0:
				state = fmt.Sprintf("cd %d", ab.Cooldown)
			case hero.Mana < ab.ManaCost:
				state = "no mana"
			}
			lines = append(lines, fmt.Sprintf(" [%d] %-16s %3.0f  %s", i+1, ab.ID, ab.ManaCost, state))
		}
	}
	if v.showHelp {
		lines = append(lines,
			"",
			"LMB drag=select  RMB=order  RMB drag=formation",
			"H=hold  Q/E=turn (space)  1-9=ability  Esc=cancel",
			"P=pause  ,/.=speed  WASD=pan  wheel=zoom",
			"C=copy report  F1=help",
		)
	} else {
		lines = append(lines, "F1=help")
	}
	v.drawPanel(screen, lines, 8, 8)

	if v.statusTicks > 0 && v.status != "" {
		v.drawPanel(screen, []string{v.status}, 8, float32(v.height-lineHeight-24))
	}
	if v.finalReport != "" {
		lines := strings.Split(strings.TrimRight(v.finalReport, "\n"), "\n")
		lines = append(lines, "", "C=copy report")
		v.drawPanel(screen, lines, float32(v.width)/2-260, float32(v.height)/2-80)
	}
}
