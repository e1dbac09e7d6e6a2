// Package renderer draws the tank and its actors with raylib.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/camera"
)

// WaterBackground renders the tank water: a depth gradient, slow light rays
// from the surface, and a sand floor.
type WaterBackground struct {
	Surface rl.Color
	Deep    rl.Color
	Sand    rl.Color
	Glass   rl.Color
	Rays    int
}

// NewWaterBackground creates a water background with the default palette.
func NewWaterBackground() *WaterBackground {
	return &WaterBackground{
		Surface: rl.Color{R: 40, G: 140, B: 190, A: 255},
		Deep:    rl.Color{R: 8, G: 40, B: 80, A: 255},
		Sand:    rl.Color{R: 194, G: 170, B: 120, A: 255},
		Glass:   rl.Color{R: 180, G: 220, B: 240, A: 200},
		Rays:    6,
	}
}

// tankRect returns the tank rectangle in screen space.
func tankRect(cam *camera.Camera) rl.Rectangle {
	b := cam.Bounds
	x0, y0 := cam.WorldToScreen(r2.Vec{X: b.Min.X, Y: b.Max.Y})
	x1, y1 := cam.WorldToScreen(r2.Vec{X: b.Max.X, Y: b.Min.Y})
	return rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Draw renders the background for the tank seen by cam. time is in seconds.
func (w *WaterBackground) Draw(cam *camera.Camera, time float32) {
	rect := tankRect(cam)
	x, y := int32(rect.X), int32(rect.Y)
	width, height := int32(rect.Width), int32(rect.Height)

	rl.DrawRectangleGradientV(x, y, width, height, w.Surface, w.Deep)

	// Light rays sway slowly from the surface
	ray := rl.Color{R: 255, G: 255, B: 255, A: 14}
	for i := 0; i < w.Rays; i++ {
		phase := float64(time)*0.3 + float64(i)*1.7
		top := rect.X + rect.Width*(float32(i)+0.5)/float32(w.Rays)
		sway := float32(math.Sin(phase)) * rect.Width * 0.04
		rl.DrawLineEx(
			rl.Vector2{X: top, Y: rect.Y},
			rl.Vector2{X: top + sway + rect.Width*0.08, Y: rect.Y + rect.Height},
			rect.Width*0.03, ray,
		)
	}

	sand := int32(rect.Height * 0.04)
	rl.DrawRectangle(x, y+height-sand, width, sand, w.Sand)
	rl.DrawRectangleLinesEx(rect, 2, w.Glass)
}
