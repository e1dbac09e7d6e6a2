package telemetry

import "github.com/pthm-cable/reeftank/events"

// LifetimeStats tracks per-swimmer statistics since it appeared in the tank.
type LifetimeStats struct {
	SpawnTick    int64 `json:"spawn_tick"`
	Meals        int   `json:"meals"`
	HealthGained int   `json:"health_gained"`
	LastMealTick int64 `json:"last_meal_tick"`
}

// LifetimeTracker manages per-swimmer lifetime statistics keyed by swimmer id.
// Local-only swimmers (no id) are not tracked.
type LifetimeTracker struct {
	stats map[string]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[string]*LifetimeStats),
	}
}

// Subscribe keeps the tracker in step with spawns, meals, and removals on bus.
func (lt *LifetimeTracker) Subscribe(bus *events.Bus) {
	bus.On(events.SwimmerSpawned, func(e events.Event) {
		if p, ok := e.Payload.(events.ActorPayload); ok {
			lt.Register(p.ID, e.Tick)
		}
	})
	bus.On(events.ConsumableEaten, func(e events.Event) {
		if p, ok := e.Payload.(events.EatenPayload); ok {
			lt.RecordMeal(p.SwimmerID, e.Tick, p.Health)
		}
	})
	bus.On(events.SwimmerRemoved, func(e events.Event) {
		if p, ok := e.Payload.(events.ActorPayload); ok {
			lt.Remove(p.ID)
		}
	})
}

// Register creates lifetime stats for a swimmer first seen at tick.
func (lt *LifetimeTracker) Register(id string, tick int64) {
	if id == "" {
		return
	}
	lt.stats[id] = &LifetimeStats{SpawnTick: tick}
}

// Get returns the lifetime stats for a swimmer, or nil if not found.
func (lt *LifetimeTracker) Get(id string) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes a swimmer's stats and returns them.
func (lt *LifetimeTracker) Remove(id string) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// RecordMeal counts a consumable eaten at tick.
func (lt *LifetimeTracker) RecordMeal(id string, tick int64, health int) {
	if s := lt.stats[id]; s != nil {
		s.Meals++
		s.HealthGained += health
		s.LastMealTick = tick
	}
}

// All returns all tracked stats (for snapshots).
func (lt *LifetimeTracker) All() map[string]*LifetimeStats {
	return lt.stats
}

// Count returns the number of tracked swimmers.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// TopFeeder returns the id with the most meals, ties broken by the smaller id.
func (lt *LifetimeTracker) TopFeeder() (string, *LifetimeStats) {
	var bestID string
	var best *LifetimeStats
	for id, s := range lt.stats {
		if best == nil || s.Meals > best.Meals || (s.Meals == best.Meals && id < bestID) {
			bestID, best = id, s
		}
	}
	return bestID, best
}
