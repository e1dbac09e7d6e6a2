// Package camera maps tank coordinates to screen pixels.
package camera

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/geom"
)

// Camera controls the viewport onto the tank.
// Tank space has +Y up; screen space has +Y down.
type Camera struct {
	// Center is the viewed point in tank coordinates
	Center r2.Vec

	// Zoom is screen pixels per tank unit
	Zoom float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// Tank rectangle the camera is constrained to
	Bounds geom.Bounds

	// Zoom constraints
	MinZoom, MaxZoom float64
}

// New creates a camera that fits bounds into the viewport.
func New(viewportW, viewportH float64, bounds geom.Bounds) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		Bounds:    bounds,
	}
	c.fit()
	c.Reset()
	return c
}

// fitZoom returns the zoom at which the whole tank is visible, with a small margin.
func (c *Camera) fitZoom() float64 {
	w, h := c.Bounds.Width(), c.Bounds.Height()
	if w <= 0 || h <= 0 {
		return 1
	}
	return 0.95 * min(c.ViewportW/w, c.ViewportH/h)
}

func (c *Camera) fit() {
	c.MinZoom = c.fitZoom()
	c.MaxZoom = 4 * c.MinZoom
}

// WorldToScreen converts tank coordinates to screen coordinates.
func (c *Camera) WorldToScreen(p r2.Vec) (sx, sy float32) {
	d := r2.Sub(p, c.Center)
	return float32(c.ViewportW/2 + d.X*c.Zoom), float32(c.ViewportH/2 - d.Y*c.Zoom)
}

// ScreenToWorld converts screen coordinates to tank coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) r2.Vec {
	return r2.Vec{
		X: c.Center.X + (float64(sx)-c.ViewportW/2)/c.Zoom,
		Y: c.Center.Y - (float64(sy)-c.ViewportH/2)/c.Zoom,
	}
}

// Scale converts a tank length to pixels.
func (c *Camera) Scale(length float64) float32 {
	return float32(length * c.Zoom)
}

// IsVisible returns true if a circle at p with the given radius could be
// visible on screen (conservative check for culling).
func (c *Camera) IsVisible(p r2.Vec, radius float64) bool {
	d := r2.Sub(p, c.Center)
	halfW := c.ViewportW/(2*c.Zoom) + radius
	halfH := c.ViewportH/(2*c.Zoom) + radius
	return abs(d.X) <= halfW && abs(d.Y) <= halfH
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float64) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.fit()
	c.SetZoom(c.Zoom)
}

// SetBounds replaces the tank rectangle, refits and recentres the camera.
func (c *Camera) SetBounds(b geom.Bounds) {
	c.Bounds = b
	c.fit()
	c.Reset()
}

// Pan moves the camera by the given delta in screen pixels. The centre stays
// inside the tank.
func (c *Camera) Pan(dx, dy float64) {
	c.Center = c.Bounds.Clamp(r2.Vec{
		X: c.Center.X + dx/c.Zoom,
		Y: c.Center.Y - dy/c.Zoom,
	})
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.Zoom * factor)
}

// Reset centres the camera on the tank at the fitting zoom.
func (c *Camera) Reset() {
	c.Center = c.Bounds.Center()
	c.Zoom = c.MinZoom
}

// VisibleWorldBounds returns the tank-coordinate rectangle on screen.
func (c *Camera) VisibleWorldBounds() geom.Bounds {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return geom.Bounds{
		Min: r2.Vec{X: c.Center.X - halfW, Y: c.Center.Y - halfH},
		Max: r2.Vec{X: c.Center.X + halfW, Y: c.Center.Y + halfH},
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
