package systems

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/events"
	"github.com/pthm-cable/reeftank/geom"
	"github.com/pthm-cable/reeftank/tank"
)

// InteractionResult counts what one interaction pass did.
type InteractionResult struct {
	Eaten     int // consumables consumed this tick
	Targeting int // swimmers holding a target after the pass
}

// InteractionSystem detects consumption and assigns pursuit targets.
// Both steps are brute-force scans over the actor collections; actor counts
// are small enough that no spatial index is kept.
type InteractionSystem struct {
	eatDistance   float64
	trackingRange float64
	logger        *slog.Logger
}

// NewInteractionSystem creates an interaction system.
func NewInteractionSystem(cfg config.InteractionConfig, logger *slog.Logger) *InteractionSystem {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionSystem{
		eatDistance:   cfg.EatDistance,
		trackingRange: cfg.TrackingRange,
		logger:        logger.With("component", "interaction"),
	}
}

// SetRanges overrides the eat distance and tracking range.
func (s *InteractionSystem) SetRanges(eatDistance, trackingRange float64) {
	s.eatDistance = eatDistance
	s.trackingRange = trackingRange
}

// Update runs consumption then targeting for one tick.
func (s *InteractionSystem) Update(t *tank.Tank) InteractionResult {
	swimmers := t.ActiveSwimmers()
	if len(swimmers) == 0 {
		return InteractionResult{}
	}

	// Swimmers never move or die during the pass, so their positions hold.
	swimPos := make([]r2.Vec, len(swimmers))
	for i, a := range swimmers {
		swimPos[i] = t.Position(a).Vec()
	}

	var res InteractionResult
	res.Eaten = s.consume(t, swimmers, swimPos)
	res.Targeting = s.target(t, swimmers, swimPos)
	return res
}

// consume feeds each consumable to the first swimmer in collection order that
// is within eat distance. A consumable feeds at most one swimmer.
func (s *InteractionSystem) consume(t *tank.Tank, swimmers []*tank.Actor, swimPos []r2.Vec) int {
	nowMillis := t.Now().UnixMilli()
	eaten := 0

	for _, food := range t.ActiveConsumables() {
		fp := t.Position(food).Vec()
		for i, sa := range swimmers {
			if geom.Distance(swimPos[i], fp) >= s.eatDistance {
				continue
			}

			data := *t.Consumable(food)
			sw := t.Swimmer(sa)
			sw.Health += data.Health
			sw.LastFedTime = nowMillis
			swimmerID := sw.ID

			t.RemoveActor(food)
			t.Bus().Emit(events.ConsumableEaten, events.EatenPayload{
				SwimmerID: swimmerID,
				FoodID:    data.FoodID,
				Health:    data.Health,
			})
			s.logger.Debug("consumable_eaten", "swimmer_id", swimmerID, "food_id", data.FoodID, "health", data.Health)
			eaten++
			break
		}
	}
	return eaten
}

// target points every swimmer at the nearest consumable strictly within the
// tracking range, or clears its target. First minimum wins.
func (s *InteractionSystem) target(t *tank.Tank, swimmers []*tank.Actor, swimPos []r2.Vec) int {
	foods := t.ActiveConsumables()
	foodPos := make([]r2.Vec, len(foods))
	for j, f := range foods {
		foodPos[j] = t.Position(f).Vec()
	}

	targeting := 0
	for i, sa := range swimmers {
		best := -1
		bestDist := math.Inf(1)
		for j := range foods {
			d := geom.Distance(swimPos[i], foodPos[j])
			if d < s.trackingRange && d < bestDist {
				best, bestDist = j, d
			}
		}

		sw := t.Swimmer(sa)
		if best < 0 {
			sw.ClearTarget()
			continue
		}
		sw.SetTarget(foods[best].Entity())
		targeting++
	}
	return targeting
}
