// Package components defines ECS components for tank actors.
package components

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"
)

// Position represents an actor's position in tank space.
type Position struct {
	X, Y float64
}

// Vec returns the position as a vector.
func (p Position) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// Set copies v into the position.
func (p *Position) Set(v r2.Vec) { p.X, p.Y = v.X, v.Y }

// Velocity represents an actor's velocity in units per second.
type Velocity struct {
	X, Y float64
}

// Vec returns the velocity as a vector.
func (v Velocity) Vec() r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }

// Set copies v into the velocity.
func (v *Velocity) Set(vec r2.Vec) { v.X, v.Y = vec.X, vec.Y }

// Swimmer holds the persisted data of a mobile tank agent plus its pursuit state.
type Swimmer struct {
	ID          string `inspect:"label"`
	OwnerID     string `inspect:"label"`
	Type        string `inspect:"label"`
	Health      int    `inspect:"bar,max:200"`
	LastFedTime int64  `inspect:"skip"` // unix millis

	// Pursuit target chosen by the interaction pass, recomputed every tick.
	Target    ecs.Entity `inspect:"skip"`
	HasTarget bool       `inspect:"bool"`

	// Seconds until the wander heading changes.
	DirTimer float64 `inspect:"label,fmt:%.1fs"`
}

// ClearTarget drops the pursuit target.
func (s *Swimmer) ClearTarget() {
	s.Target = ecs.Entity{}
	s.HasTarget = false
}

// SetTarget sets the pursuit target.
func (s *Swimmer) SetTarget(e ecs.Entity) {
	s.Target = e
	s.HasTarget = true
}

// Consumable holds a food item's effect and fall parameters.
type Consumable struct {
	FoodID    string  `inspect:"label"`
	Name      string  `inspect:"label"`
	Health    int     `inspect:"label,fmt:%+d"` // health granted when eaten
	FallSpeed float64 `inspect:"label,fmt:%.0f"`
}

// Direction holds the four movement input flags of an avatar.
type Direction struct {
	Up, Down, Left, Right bool
}

// Any reports whether any flag is set.
func (d Direction) Any() bool {
	return d.Up || d.Down || d.Left || d.Right
}

// Avatar holds a player avatar's identity and sync state.
type Avatar struct {
	ID      string `inspect:"label"`
	OwnerID string `inspect:"label"`
	IsLocal bool   `inspect:"bool"`

	Input     Direction `inspect:"skip"`
	SinceSync float64   `inspect:"label,fmt:%.2fs"` // seconds since the last position push
	Dirty     bool      `inspect:"bool"`
}
