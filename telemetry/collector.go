package telemetry

import "github.com/pthm-cable/reeftank/events"

// Collector accumulates bus events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float64

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	swimmersSpawned    int
	consumablesSpawned int
	avatarsSpawned     int
	swimmersRemoved    int
	avatarsRemoved     int
	spawnRejected      int
	eaten              int
	landed             int
	healthFed          int
	reconciles         int
	removedStale       int
	removedDead        int
	removalsIssued     int
	remoteFailures     int
	playerSyncs        int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in tank seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int64(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// Subscribe registers the collector for every event on bus.
func (c *Collector) Subscribe(bus *events.Bus) {
	bus.OnAll(c.Record)
}

// Record counts one event.
func (c *Collector) Record(e events.Event) {
	switch e.Type {
	case events.SwimmerSpawned:
		c.swimmersSpawned++
	case events.ConsumableSpawned:
		c.consumablesSpawned++
	case events.AvatarSpawned:
		c.avatarsSpawned++
	case events.SwimmerRemoved:
		c.swimmersRemoved++
	case events.AvatarRemoved:
		c.avatarsRemoved++
	case events.SpawnRejected:
		c.spawnRejected++
	case events.ConsumableEaten:
		c.eaten++
		if p, ok := e.Payload.(events.EatenPayload); ok {
			c.healthFed += p.Health
		}
	case events.ConsumableLanded:
		c.landed++
	case events.Reconciled:
		c.reconciles++
		if p, ok := e.Payload.(events.ReconciledPayload); ok {
			c.removedStale += p.RemovedStale
			c.removedDead += p.RemovedDead
		}
	case events.RemovalRequested:
		c.removalsIssued++
	case events.RemoteFailed:
		c.remoteFailures++
	case events.PlayerSynced:
		c.playerSyncs++
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the window's counters and the census taken
// at its end, then resets counters for the next window.
func (c *Collector) Flush(currentTick int64, census Census) WindowStats {
	var eatRate float64
	if fed := c.eaten + c.landed; fed > 0 {
		eatRate = float64(c.eaten) / float64(fed)
	}

	mean, std, p10, p50, p90 := ComputeHealthStats(census.Health)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Swimmers:    census.Swimmers,
		Consumables: census.Consumables,
		Avatars:     census.Avatars,
		Targeting:   census.Targeting,

		SwimmersSpawned:    c.swimmersSpawned,
		ConsumablesSpawned: c.consumablesSpawned,
		AvatarsSpawned:     c.avatarsSpawned,
		SwimmersRemoved:    c.swimmersRemoved,
		AvatarsRemoved:     c.avatarsRemoved,
		SpawnRejected:      c.spawnRejected,

		Eaten:     c.eaten,
		Landed:    c.landed,
		HealthFed: c.healthFed,
		EatRate:   eatRate,

		Reconciles:     c.reconciles,
		RemovedStale:   c.removedStale,
		RemovedDead:    c.removedDead,
		RemovalsIssued: c.removalsIssued,
		RemoteFailures: c.remoteFailures,
		PlayerSyncs:    c.playerSyncs,

		HealthMean: mean,
		HealthStd:  std,
		HealthP10:  p10,
		HealthP50:  p50,
		HealthP90:  p90,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.swimmersSpawned = 0
	c.consumablesSpawned = 0
	c.avatarsSpawned = 0
	c.swimmersRemoved = 0
	c.avatarsRemoved = 0
	c.spawnRejected = 0
	c.eaten = 0
	c.landed = 0
	c.healthFed = 0
	c.reconciles = 0
	c.removedStale = 0
	c.removedDead = 0
	c.removalsIssued = 0
	c.remoteFailures = 0
	c.playerSyncs = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
