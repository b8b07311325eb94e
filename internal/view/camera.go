package view

import "github.com/Garsondee/battle-resolver/internal/battle"

const (
	zoomMin = 0.25
	zoomMax = 4.0
)

// camera maps battlefield coordinates to the viewport. x, y is the world
// point drawn at the viewport centre.
type camera struct {
	x, y   float64
	zoom   float64
	vpW    float64
	vpH    float64
	worldW float64
	worldH float64
}

func newCamera(vpW, vpH, worldW, worldH float64) camera {
	c := camera{x: worldW / 2, y: worldH / 2, zoom: 1, vpW: vpW, vpH: vpH, worldW: worldW, worldH: worldH}
	// Fit the whole field on screen.
	if fit := min(vpW/worldW, vpH/worldH); fit < 1 {
		c.zoom = fit
	}
	return c
}

func (c camera) toWorld(sx, sy float64) battle.Vec2 {
	return battle.Vec2{
		X: (sx-c.vpW/2)/c.zoom + c.x,
		Y: (sy-c.vpH/2)/c.zoom + c.y,
	}
}

func (c camera) toScreen(p battle.Vec2) (float32, float32) {
	return float32((p.X-c.x)*c.zoom + c.vpW/2), float32((p.Y-c.y)*c.zoom + c.vpH/2)
}

func (c *camera) pan(dx, dy float64) {
	c.x += dx / c.zoom
	c.y += dy / c.zoom
	c.clamp()
}

// zoomAt scales by f while keeping the world point under (sx, sy) fixed.
func (c *camera) zoomAt(f, sx, sy float64) {
	before := c.toWorld(sx, sy)
	c.zoom = max(zoomMin, min(zoomMax, c.zoom*f))
	after := c.toWorld(sx, sy)
	c.x += before.X - after.X
	c.y += before.Y - after.Y
	c.clamp()
}

// clamp keeps the camera centre on the battlefield.
func (c *camera) clamp() {
	c.x = max(0, min(c.worldW, c.x))
	c.y = max(0, min(c.worldH, c.y))
}
