// Package view is an interactive ebiten front end for a battle engine. It
// reads only the engine's published projection and talks back through the
// command queue.
package view

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/battle-resolver/internal/battle"
	"github.com/Garsondee/battle-resolver/internal/report"
)

// statusFrames is how long a status line stays up.
const statusFrames = 180

// Viewer implements ebiten.Game.
type Viewer struct {
	engine          *battle.Engine
	name            string
	seed            int64
	controlAttacker bool

	width, height int
	cam           camera
	face          *text.GoXFace

	prev        inputState
	dragStart   *dragAnchor
	orderStart  *dragAnchor
	swallowLeft bool
	pending     *pendingCast

	simSpeed    float64
	resumeSpeed float64
	tickAccum   float64

	showHelp    bool
	status      string
	statusTicks int

	finalReport string
	copy        func(string) error
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithControlledSide matches the engine's WithControlledSide so clicks pick
// the right units.
func WithControlledSide(attacking bool) Option {
	return func(v *Viewer) { v.controlAttacker = attacking }
}

// WithWindowSize sets the logical screen size.
func WithWindowSize(w, h int) Option {
	return func(v *Viewer) { v.width, v.height = w, h }
}

// WithSeed records the seed shown in the report.
func WithSeed(seed int64) Option {
	return func(v *Viewer) { v.seed = seed }
}

// New wraps engine. name labels the HUD and the copied report.
func New(engine *battle.Engine, name string, opts ...Option) *Viewer {
	v := &Viewer{
		engine:          engine,
		name:            name,
		controlAttacker: true,
		width:           1600,
		height:          900,
		face:            text.NewGoXFace(basicfont.Face7x13),
		prev:            inputState{keys: map[ebiten.Key]bool{}},
		simSpeed:        1,
		resumeSpeed:     1,
		copy:            clipboard.WriteAll,
	}
	for _, o := range opts {
		o(v)
	}
	p := engine.Projection()
	v.cam = newCamera(float64(v.width), float64(v.height), p.Width, p.Height)
	return v
}

// Update handles input every frame and advances the battle at simSpeed.
func (v *Viewer) Update() error {
	v.handleInput(pollInput())
	v.advance()
	return nil
}

// advance runs whole ticks for the accumulated speed.
func (v *Viewer) advance() {
	if v.statusTicks > 0 {
		v.statusTicks--
	}
	if v.finalReport != "" || v.simSpeed <= 0 {
		return
	}
	v.tickAccum += v.simSpeed
	for v.tickAccum >= 1 {
		v.tickAccum--
		if !v.engine.Tick() {
			v.tickAccum = 0
			break
		}
	}
	if res, ok := v.engine.Result(); ok && v.finalReport == "" {
		v.finalReport = report.Format(report.Record{
			Scenario: v.name,
			Run:      1,
			Seed:     v.seed,
			Result:   res,
			Stats:    report.Collect(v.engine.Log()),
		})
	}
}

// copyReport puts the final report, or a live summary while the battle is
// running, on the system clipboard.
func (v *Viewer) copyReport() {
	body := v.finalReport
	if body == "" {
		body = v.engine.Log().Summary(v.engine.CurrentTick(), v.engine.Units())
	}
	if err := v.copy(fmt.Sprintf("%s\n%s", v.name, body)); err != nil {
		v.setStatus("clipboard: " + err.Error())
		return
	}
	v.setStatus("report copied to clipboard")
}

func (v *Viewer) setStatus(s string) {
	v.status = s
	v.statusTicks = statusFrames
}

// Layout keeps a fixed logical screen.
func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}
