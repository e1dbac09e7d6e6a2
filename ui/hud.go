package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/reeftank/store"
	"github.com/pthm-cable/reeftank/systems"
	"github.com/pthm-cable/reeftank/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title       string
	Swimmers    int
	Consumables int
	Avatars     int
	Targeting   int
	Tick        int64
	FPS         int32
	Paused      bool
	Queued      int
	User        store.UserAggregate
	UserLoaded  bool
	Food        string
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Swimmers: %d (%d hunting) | Food: %d | Players: %d",
			data.Swimmers, data.Targeting, data.Consumables, data.Avatars),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | FPS: %d | Queued: %d", data.Tick, data.FPS, data.Queued),
		10, 55, 16, rl.LightGray,
	)

	user := "loading..."
	if data.UserLoaded {
		user = fmt.Sprintf("%s | $%d | Level %d", data.User.Username, data.User.Money, data.User.TankLevel)
	}
	rl.DrawText(user, 10, 75, 16, rl.SkyBlue)

	status := "Feeding: " + data.Food
	statusColor := rl.LightGray
	if data.Paused {
		status, statusColor = "PAUSED", rl.Yellow
	}
	rl.DrawText(status, 10, 95, 16, statusColor)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase tick timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the panel, one line per registered system in tick order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, registry *systems.SystemRegistry) {
	r := p.renderer
	lines := int32(len(registry.All()) + 2)
	r.DrawPanel(p.x, p.y, 260, lines*14+r.Theme.Padding*2+6)

	x := p.x + r.Theme.Padding
	y := p.y + r.Theme.Padding

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %dus  Max: %dus  %.0f tps",
		stats.AvgTickDuration.Microseconds(), stats.MaxTickDuration.Microseconds(), stats.TicksPerSecond),
		x, y, 12, rl.Yellow)
	y += 16

	for _, sys := range registry.All() {
		pct := stats.PhasePct[sys.ID]
		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-12s %6dus %5.1f%%", sys.Name, stats.PhaseAvg[sys.ID].Microseconds(), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
