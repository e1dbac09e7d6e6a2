package components

import "gonum.org/v1/gonum/spatial/r2"

// MotionState is the state of a timed straight-line move.
type MotionState uint8

const (
	MotionIdle MotionState = iota
	MotionRunning
	MotionComplete
	MotionCancelled
)

// String returns the display name for a MotionState.
func (s MotionState) String() string {
	switch s {
	case MotionIdle:
		return "Idle"
	case MotionRunning:
		return "Running"
	case MotionComplete:
		return "Complete"
	case MotionCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Motion interpolates an actor linearly from one point to another over a fixed duration.
// It is advanced explicitly every tick by the owning system.
type Motion struct {
	From, To r2.Vec      `inspect:"skip"`
	Duration float64     `inspect:"label,fmt:%.2fs"`
	Elapsed  float64     `inspect:"label,fmt:%.2fs"`
	State    MotionState `inspect:"label"`
}

// Start begins a move from -> to taking duration seconds.
func (m *Motion) Start(from, to r2.Vec, duration float64) {
	if duration < 0 {
		duration = 0
	}
	m.From = from
	m.To = to
	m.Duration = duration
	m.Elapsed = 0
	m.State = MotionRunning
}

// Running reports whether the move is in progress.
func (m *Motion) Running() bool {
	return m.State == MotionRunning
}

// Advance moves the clock forward by dt and returns the interpolated point.
// done is true on the tick the move reaches its destination.
func (m *Motion) Advance(dt float64) (p r2.Vec, done bool) {
	if m.State != MotionRunning {
		return m.current(), false
	}
	m.Elapsed += dt
	if m.Duration <= 0 || m.Elapsed >= m.Duration {
		m.Elapsed = m.Duration
		m.State = MotionComplete
		return m.To, true
	}
	return m.current(), false
}

// Cancel stops the move where it is.
func (m *Motion) Cancel() {
	if m.State == MotionRunning {
		m.State = MotionCancelled
	}
}

// Complete jumps to the end of the move.
func (m *Motion) Complete() r2.Vec {
	if m.State == MotionRunning {
		m.Elapsed = m.Duration
		m.State = MotionComplete
	}
	return m.To
}

// Velocity returns the constant velocity of the move, zero when not running.
func (m *Motion) Velocity() r2.Vec {
	if m.State != MotionRunning || m.Duration <= 0 {
		return r2.Vec{}
	}
	return r2.Scale(1/m.Duration, r2.Sub(m.To, m.From))
}

func (m *Motion) current() r2.Vec {
	if m.Duration <= 0 {
		return m.To
	}
	t := m.Elapsed / m.Duration
	return r2.Add(m.From, r2.Scale(t, r2.Sub(m.To, m.From)))
}
