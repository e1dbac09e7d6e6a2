package systems

import (
	"github.com/pthm-cable/reeftank/events"
	"github.com/pthm-cable/reeftank/tank"
)

// FallSystem advances falling consumables and removes them on the floor.
type FallSystem struct{}

// NewFallSystem creates a fall system.
func NewFallSystem() *FallSystem {
	return &FallSystem{}
}

// Update advances every fall by dt and returns how many consumables landed.
func (s *FallSystem) Update(t *tank.Tank, dt float64) int {
	landed := 0
	for _, a := range t.ActiveConsumables() {
		p, done := t.Motion(a).Advance(dt)
		t.Position(a).Set(p)
		if !done {
			continue
		}

		foodID := t.Consumable(a).FoodID
		t.RemoveActor(a)
		t.Bus().Emit(events.ConsumableLanded, events.ActorPayload{
			Kind: a.Kind().String(),
			ID:   foodID,
			X:    p.X,
			Y:    p.Y,
		})
		landed++
	}
	return landed
}
