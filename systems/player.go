package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/components"
	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/tank"
)

// PlayerController integrates the local avatar: input impulse, gravity and
// buoyancy, damping, wall clamping, and periodic position sync.
type PlayerController struct {
	cfg config.PlayerConfig
}

// NewPlayerController creates a player controller.
func NewPlayerController(cfg config.PlayerConfig) *PlayerController {
	return &PlayerController{cfg: cfg}
}

// SetInput replaces the local avatar's direction flags. No-op without a local avatar.
func (c *PlayerController) SetInput(t *tank.Tank, d components.Direction) {
	if av := t.Avatar(t.LocalPlayer()); av != nil {
		av.Input = d
	}
}

// inputVector maps the flags to a unit direction, +Y up.
func inputVector(d components.Direction) r2.Vec {
	var v r2.Vec
	if d.Left {
		v.X--
	}
	if d.Right {
		v.X++
	}
	if d.Up {
		v.Y++
	}
	if d.Down {
		v.Y--
	}
	if v == (r2.Vec{}) {
		return v
	}
	return r2.Unit(v)
}

// Update steps the local avatar by dt. Reports whether its position was pushed
// to the remote store this tick.
func (c *PlayerController) Update(t *tank.Tank, dt float64) bool {
	a := t.LocalPlayer()
	if a == nil {
		return false
	}
	pos := t.Position(a)
	vel := t.Velocity(a)
	av := t.Avatar(a)

	v := vel.Vec()
	if in := inputVector(av.Input); in != (r2.Vec{}) {
		v = r2.Add(v, r2.Scale(c.cfg.MoveSpeed*dt, in))
		av.Dirty = true
	}

	v.Y -= c.cfg.Gravity * dt
	v.Y += c.cfg.FloatForce * dt
	v = r2.Scale(c.cfg.Damping, v)

	p := r2.Add(pos.Vec(), r2.Scale(dt, v))
	if r2.Norm(v) > c.cfg.DirtySpeed {
		av.Dirty = true
	}

	// Inelastic walls: each clamped axis loses its velocity
	b := t.Bounds()
	if p.X < b.Min.X {
		p.X, v.X, av.Dirty = b.Min.X, 0, true
	} else if p.X > b.Max.X {
		p.X, v.X, av.Dirty = b.Max.X, 0, true
	}
	if p.Y < b.Min.Y {
		p.Y, v.Y, av.Dirty = b.Min.Y, 0, true
	} else if p.Y > b.Max.Y {
		p.Y, v.Y, av.Dirty = b.Max.Y, 0, true
	}
	pos.Set(p)
	vel.Set(v)

	av.SinceSync += dt
	if av.SinceSync < c.cfg.SyncInterval || !av.Dirty {
		return false
	}
	t.PushPlayerPosition(p.X, p.Y)
	av.SinceSync = 0
	av.Dirty = false
	return true
}
