package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/reeftank/inspector"
)

// Inspector renders the selected actor's components.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// height returns the panel height needed for sections.
func (ins *Inspector) height(sections []inspector.Section) int32 {
	th := ins.renderer.Theme
	h := th.Padding*2 + th.LineHeight + 4
	for _, s := range sections {
		h += th.LineHeight + 4
		for _, f := range s.Fields {
			h += th.LineHeight
			if f.Widget == inspector.WidgetBar {
				h += 2
			}
		}
	}
	return h
}

// Draw renders the panel for the given sections. Returns the bottom Y.
func (ins *Inspector) Draw(title string, sections []inspector.Section) int32 {
	if len(sections) == 0 {
		return ins.y
	}
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	r.DrawPanel(ins.x, ins.y, ins.width, ins.height(sections))

	x := ins.x + padding
	y := ins.y + padding
	rl.DrawText(title, x, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	for _, s := range sections {
		y = r.DrawSectionHeader(x, y, s.Title)
		for _, f := range s.Fields {
			y = r.DrawField(x, y, f, contentWidth)
		}
		y += 4
	}
	return y
}
