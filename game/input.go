package game

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/components"
	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/tank"
)

// Key is a movement key understood by HandleKey.
type Key uint8

const (
	KeyW Key = iota
	KeyA
	KeyS
	KeyD
	KeyArrowUp
	KeyArrowLeft
	KeyArrowDown
	KeyArrowRight
	numKeys
)

// inputState tracks which movement keys are held.
type inputState struct {
	held [numKeys]bool
}

func (s *inputState) direction() components.Direction {
	return components.Direction{
		Up:    s.held[KeyW] || s.held[KeyArrowUp],
		Down:  s.held[KeyS] || s.held[KeyArrowDown],
		Left:  s.held[KeyA] || s.held[KeyArrowLeft],
		Right: s.held[KeyD] || s.held[KeyArrowRight],
	}
}

// HandleKey records a movement key press or release and updates the local
// avatar's direction flags. Unknown keys are ignored.
func (g *Game) HandleKey(k Key, down bool) {
	if k >= numKeys {
		return
	}
	g.input.held[k] = down
	g.player.SetInput(g.tank, g.input.direction())
}

// Direction returns the current movement flags.
func (g *Game) Direction() components.Direction {
	return g.input.direction()
}

// HandleTap drops the selected food at p, in tank coordinates. Taps outside
// the tank, or with the consumable collection full, are rejected and return nil.
func (g *Game) HandleTap(p r2.Vec) *tank.Actor {
	food, ok := g.SelectedFood()
	if !ok {
		g.logger.Warn("no_food_selected")
		return nil
	}
	return g.tank.SpawnConsumable(food, p)
}

// Foods returns the food catalog.
func (g *Game) Foods() []config.FoodType {
	return g.cfg.Foods
}

// SelectFood selects the i-th catalog entry for taps. Out-of-range indices are ignored.
func (g *Game) SelectFood(i int) bool {
	if i < 0 || i >= len(g.cfg.Foods) {
		return false
	}
	g.selectedFood = i
	return true
}

// SelectedFood returns the food dropped by taps.
func (g *Game) SelectedFood() (config.FoodType, bool) {
	if g.selectedFood < 0 || g.selectedFood >= len(g.cfg.Foods) {
		return config.FoodType{}, false
	}
	return g.cfg.Foods[g.selectedFood], true
}

// SelectedFoodIndex returns the catalog index of the selected food.
func (g *Game) SelectedFoodIndex() int {
	return g.selectedFood
}
