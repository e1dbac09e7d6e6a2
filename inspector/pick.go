package inspector

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/tank"
)

// Section groups the fields of one component under a title.
type Section struct {
	Title  string
	Fields []Field
}

// Pick returns the actor nearest to p within radius, or nil.
func Pick(t *tank.Tank, p r2.Vec, radius float64) *tank.Actor {
	var best *tank.Actor
	bestDist := math.Inf(1)

	consider := func(actors []*tank.Actor) {
		for _, a := range actors {
			d := r2.Norm(r2.Sub(t.Position(a).Vec(), p))
			if d <= radius && d < bestDist {
				best, bestDist = a, d
			}
		}
	}
	consider(t.ActivePlayers())
	consider(t.ActiveSwimmers())
	consider(t.ActiveConsumables())
	return best
}

// Inspect returns the displayable sections of a. Destroyed actors have none.
func Inspect(t *tank.Tank, a *tank.Actor) []Section {
	if !a.Alive() {
		return nil
	}

	var sections []Section
	switch a.Kind() {
	case tank.KindSwimmer:
		sections = append(sections, Section{Title: "Swimmer", Fields: ExtractFields(t.Swimmer(a))})
		if target := t.TargetOf(a); target != nil {
			sections = append(sections, Section{Title: "Target", Fields: ExtractFields(t.Consumable(target))})
		}
	case tank.KindConsumable:
		sections = append(sections, Section{Title: "Consumable", Fields: ExtractFields(t.Consumable(a))})
	case tank.KindAvatar:
		sections = append(sections, Section{Title: "Avatar", Fields: ExtractFields(t.Avatar(a))})
	}

	sections = append(sections,
		Section{Title: "Position", Fields: ExtractFields(t.Position(a))},
		Section{Title: "Velocity", Fields: ExtractFields(t.Velocity(a))},
	)
	return sections
}
