package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/geom"
	"github.com/pthm-cable/reeftank/tank"
)

// SwimSystem moves swimmers: wandering between random waypoints, or heading
// straight for the consumable the interaction pass assigned.
type SwimSystem struct {
	cfg config.SwimmerConfig
}

// NewSwimSystem creates a swim system.
func NewSwimSystem(cfg config.SwimmerConfig) *SwimSystem {
	return &SwimSystem{cfg: cfg}
}

// Update advances every swimmer by dt seconds.
func (s *SwimSystem) Update(t *tank.Tank, dt float64) {
	bounds := t.Bounds()
	inner := bounds.Inset(s.cfg.BoundsMargin)

	for _, a := range t.ActiveSwimmers() {
		if target := t.TargetOf(a); target != nil {
			s.pursue(t, a, t.Position(target).Vec(), bounds, dt)
			continue
		}

		sw := t.Swimmer(a)
		m := t.Motion(a)
		sw.DirTimer -= dt
		if !m.Running() || sw.DirTimer <= 0 || !inner.Contains(m.To) {
			s.newHeading(t, a, inner)
		}

		p, done := m.Advance(dt)
		t.Position(a).Set(p)
		if done {
			t.Velocity(a).Set(r2.Vec{})
			continue
		}
		t.Velocity(a).Set(m.Velocity())
	}
}

// pursue steps a swimmer toward goal at pursuit speed without overshooting.
func (s *SwimSystem) pursue(t *tank.Tank, a *tank.Actor, goal r2.Vec, bounds geom.Bounds, dt float64) {
	t.Motion(a).Cancel()
	pos := t.Position(a)
	vel := t.Velocity(a)

	delta := r2.Sub(goal, pos.Vec())
	dist := r2.Norm(delta)
	step := s.cfg.PursuitSpeed * dt
	if dist == 0 || dist <= step {
		pos.Set(bounds.Clamp(goal))
		vel.Set(r2.Vec{})
		return
	}

	dir := r2.Scale(1/dist, delta)
	vel.Set(r2.Scale(s.cfg.PursuitSpeed, dir))
	pos.Set(bounds.Clamp(r2.Add(pos.Vec(), r2.Scale(step, dir))))
}

// newHeading picks a waypoint WanderDistance away in a random direction.
// A waypoint outside the inset bounds is re-aimed toward the centre with up
// to 45 degrees of jitter, then clamped.
func (s *SwimSystem) newHeading(t *tank.Tank, a *tank.Actor, inner geom.Bounds) {
	rng := t.Rand()
	from := t.Position(a).Vec()

	angle := rng.Float64() * 2 * math.Pi
	dir := r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}
	wp := r2.Add(from, r2.Scale(s.cfg.WanderDistance, dir))

	if !inner.Contains(wp) {
		toCenter := r2.Sub(inner.Center(), from)
		if n := r2.Norm(toCenter); n > 0 {
			jitter := (rng.Float64()*2 - 1) * math.Pi / 4
			dir = geom.Rotate(r2.Scale(1/n, toCenter), jitter)
			wp = r2.Add(from, r2.Scale(s.cfg.WanderDistance, dir))
		}
	}
	wp = inner.Clamp(wp)

	duration := 0.0
	if s.cfg.MoveSpeed > 0 {
		duration = geom.Distance(from, wp) / s.cfg.MoveSpeed
	} else {
		wp = from
	}

	t.Motion(a).Start(from, wp, duration)
	t.Swimmer(a).DirTimer = s.cfg.ChangeDirectionInterval * (0.5 + rng.Float64())
}
