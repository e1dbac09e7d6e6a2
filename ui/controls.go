package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/reeftank/config"
)

// ControlsPanel renders the left-side controls panel with overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  false,
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	// Calculate panel height based on content
	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	panelHeight := int32(totalItems)*lineHeight + padding*3 + lineHeight // Extra for title

	// Draw panel background
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding

	// Title
	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	// Draw overlays by category
	for _, category := range categories {
		// Category header
		catLabel := categoryLabel(category)
		rl.DrawText(catLabel, c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		// Overlays in this category
		for _, desc := range overlays.ByCategory(category) {
			enabled := overlays.IsEnabled(desc.ID)
			c.drawToggle(c.x+padding, y, desc, enabled, c.width-padding*2)
			y += lineHeight
		}

		y += 4 // Gap between categories
	}

	return y
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	// Status indicator
	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	// Name
	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	// Key binding (right aligned)
	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "actors":
		return "Actors"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}

// FoodPicker renders one raygui button per catalog food along the bottom of
// the screen. The selected food is outlined.
type FoodPicker struct {
	renderer      *Renderer
	buttonW       float32
	buttonH       float32
	gap           float32
	screenW       float32
	screenH       float32
	width, height float32
}

// NewFoodPicker creates a picker for a screen of the given size.
func NewFoodPicker(screenW, screenH int32) *FoodPicker {
	return &FoodPicker{
		renderer: NewRenderer(),
		buttonW:  130,
		buttonH:  28,
		gap:      8,
		screenW:  float32(screenW),
		screenH:  float32(screenH),
	}
}

// Resize updates the screen dimensions.
func (p *FoodPicker) Resize(screenW, screenH int32) {
	p.screenW, p.screenH = float32(screenW), float32(screenH)
}

// origin returns the top-left corner of the picker for n buttons.
func (p *FoodPicker) origin(n int) (float32, float32) {
	p.width = float32(n)*(p.buttonW+p.gap) - p.gap
	p.height = p.buttonH
	return (p.screenW - p.width) / 2, p.screenH - p.buttonH - 36
}

// Draw renders the buttons and returns the index of the clicked food, or -1.
func (p *FoodPicker) Draw(foods []config.FoodType, selected int) int {
	x, y := p.origin(len(foods))
	pad := float32(p.renderer.Theme.Padding) / 2
	p.renderer.DrawPanel(int32(x-pad), int32(y-pad), int32(p.width+2*pad), int32(p.height+2*pad))

	clicked := -1
	for i, f := range foods {
		bounds := rl.Rectangle{X: x + float32(i)*(p.buttonW+p.gap), Y: y, Width: p.buttonW, Height: p.buttonH}
		if gui.Button(bounds, fmt.Sprintf("%s (%+d)", f.Name, f.Health)) {
			clicked = i
		}
		if i == selected {
			rl.DrawRectangleLinesEx(bounds, 2, p.renderer.Theme.SectionHeader)
		}
	}
	return clicked
}

// Contains reports whether the screen point lies over the picker, so taps
// there are not treated as feeding.
func (p *FoodPicker) Contains(sx, sy float32, n int) bool {
	x, y := p.origin(n)
	return sx >= x && sx <= x+p.width && sy >= y && sy <= y+p.height
}
