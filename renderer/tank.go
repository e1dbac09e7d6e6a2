package renderer

import (
	"hash/fnv"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/camera"
	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/tank"
)

// Actor sizes in world units.
const (
	swimmerLength  = 14.0
	swimmerWidth   = 7.0
	consumableSize = 3.0
	avatarRadius   = 9.0
)

// Overlays selects the debug layers drawn on top of the actors.
type Overlays struct {
	Targets       bool
	Velocities    bool
	TrackingRange bool
	EatRadius     bool
}

// TankRenderer draws the live actors of a tank.
type TankRenderer struct {
	interaction config.InteractionConfig
	palette     map[string]rl.Color
	Selected    *tank.Actor
}

// NewTankRenderer creates a renderer using the interaction distances for
// its range overlays.
func NewTankRenderer(cfg config.InteractionConfig) *TankRenderer {
	return &TankRenderer{
		interaction: cfg,
		palette:     make(map[string]rl.Color),
	}
}

// speciesColor derives a stable hue from the species id.
func (r *TankRenderer) speciesColor(species string) rl.Color {
	if c, ok := r.palette[species]; ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(species))
	c := rl.ColorFromHSV(float32(h.Sum32()%360), 0.65, 0.95)
	r.palette[species] = c
	return c
}

func screenVec(cam *camera.Camera, p r2.Vec) rl.Vector2 {
	x, y := cam.WorldToScreen(p)
	return rl.Vector2{X: x, Y: y}
}

// Draw renders consumables, swimmers and avatars in that order.
func (r *TankRenderer) Draw(t *tank.Tank, cam *camera.Camera, ov Overlays) {
	for _, a := range t.ActiveConsumables() {
		p := t.Position(a).Vec()
		if !cam.IsVisible(p, consumableSize) {
			continue
		}
		sx, sy := cam.WorldToScreen(p)
		rl.DrawCircle(int32(sx), int32(sy), max(cam.Scale(consumableSize), 2), rl.Color{R: 230, G: 160, B: 60, A: 255})
	}

	for _, a := range t.ActiveSwimmers() {
		r.drawSwimmer(t, cam, a, ov)
	}

	for _, a := range t.ActivePlayers() {
		p := t.Position(a).Vec()
		sx, sy := cam.WorldToScreen(p)
		color := rl.Color{R: 200, G: 200, B: 220, A: 200}
		if a == t.LocalPlayer() {
			color = rl.Gold
		}
		rl.DrawCircleLines(int32(sx), int32(sy), cam.Scale(avatarRadius), color)
		rl.DrawCircle(int32(sx), int32(sy), cam.Scale(avatarRadius*0.4), color)
		if ov.Velocities {
			r.drawVelocity(cam, p, t.Velocity(a).Vec())
		}
	}

	if r.Selected.Alive() {
		p := t.Position(r.Selected).Vec()
		sx, sy := cam.WorldToScreen(p)
		rl.DrawCircleLines(int32(sx), int32(sy), cam.Scale(swimmerLength), rl.White)
	}
}

func (r *TankRenderer) drawSwimmer(t *tank.Tank, cam *camera.Camera, a *tank.Actor, ov Overlays) {
	p := t.Position(a).Vec()
	v := t.Velocity(a).Vec()
	sw := t.Swimmer(a)

	if ov.TrackingRange {
		sx, sy := cam.WorldToScreen(p)
		rl.DrawCircleLines(int32(sx), int32(sy), cam.Scale(r.interaction.TrackingRange), rl.Color{R: 120, G: 200, B: 255, A: 60})
	} else if ov.EatRadius {
		sx, sy := cam.WorldToScreen(p)
		rl.DrawCircleLines(int32(sx), int32(sy), cam.Scale(r.interaction.EatDistance), rl.Color{R: 255, G: 120, B: 120, A: 120})
	}

	if ov.Targets {
		if target := t.TargetOf(a); target != nil {
			rl.DrawLineV(screenVec(cam, p), screenVec(cam, t.Position(target).Vec()), rl.Color{R: 255, G: 220, B: 120, A: 120})
		}
	}

	if !cam.IsVisible(p, swimmerLength) {
		return
	}

	heading := r2.Vec{X: 1}
	if r2.Norm(v) > 1e-6 {
		heading = r2.Unit(v)
	}
	side := r2.Vec{X: -heading.Y, Y: heading.X}

	nose := r2.Add(p, r2.Scale(swimmerLength*0.5, heading))
	tail := r2.Sub(p, r2.Scale(swimmerLength*0.5, heading))
	left := r2.Add(tail, r2.Scale(swimmerWidth*0.5, side))
	right := r2.Sub(tail, r2.Scale(swimmerWidth*0.5, side))

	// Y is flipped on screen, so world CCW becomes screen CW; raylib wants
	// screen CCW.
	rl.DrawTriangle(screenVec(cam, nose), screenVec(cam, right), screenVec(cam, left), r.speciesColor(sw.Type))

	if ov.Velocities {
		r.drawVelocity(cam, p, v)
	}
}

func (r *TankRenderer) drawVelocity(cam *camera.Camera, p, v r2.Vec) {
	end := r2.Add(p, r2.Scale(0.5, v))
	rl.DrawLineV(screenVec(cam, p), screenVec(cam, end), rl.Color{R: 120, G: 255, B: 160, A: 160})
}
