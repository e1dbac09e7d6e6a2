package telemetry

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/reeftank/components"
)

// Census is a point-in-time count of the actors in a world.
type Census struct {
	Swimmers    int
	Consumables int
	Avatars     int
	Targeting   int
	Health      []float64 // one entry per swimmer
}

// Censor queries a world for population counts.
type Censor struct {
	swimmers    *ecs.Filter1[components.Swimmer]
	consumables *ecs.Filter1[components.Consumable]
	avatars     *ecs.Filter1[components.Avatar]
}

// NewCensor creates the filters for w.
func NewCensor(w *ecs.World) *Censor {
	return &Censor{
		swimmers:    ecs.NewFilter1[components.Swimmer](w),
		consumables: ecs.NewFilter1[components.Consumable](w),
		avatars:     ecs.NewFilter1[components.Avatar](w),
	}
}

// Take counts every actor kind and samples swimmer health.
func (c *Censor) Take() Census {
	var out Census

	q := c.swimmers.Query()
	for q.Next() {
		sw := q.Get()
		out.Swimmers++
		out.Health = append(out.Health, float64(sw.Health))
		if sw.HasTarget {
			out.Targeting++
		}
	}

	cq := c.consumables.Query()
	for cq.Next() {
		out.Consumables++
	}

	aq := c.avatars.Query()
	for aq.Next() {
		out.Avatars++
	}

	return out
}
