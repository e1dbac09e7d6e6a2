package main

import (
	"fmt"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/reeftank/camera"
	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/game"
	"github.com/pthm-cable/reeftank/inspector"
	"github.com/pthm-cable/reeftank/renderer"
	"github.com/pthm-cable/reeftank/tank"
	"github.com/pthm-cable/reeftank/ui"
)

// Screen space reserved around the tank for the HUD and food picker.
const (
	marginX      = 20
	marginTop    = 120
	marginBottom = 90
	pickRadius   = 12.0
)

// windowContainer measures the tank from the current window size.
type windowContainer struct{}

func (windowContainer) Size() (float64, float64) {
	w := float64(rl.GetScreenWidth() - 2*marginX)
	h := float64(rl.GetScreenHeight() - marginTop - marginBottom)
	return max(w, 0), max(h, 0)
}

func (windowContainer) Scale() (float64, float64) { return 1, 1 }

var movementKeys = map[int32]game.Key{
	rl.KeyW:     game.KeyW,
	rl.KeyA:     game.KeyA,
	rl.KeyS:     game.KeyS,
	rl.KeyD:     game.KeyD,
	rl.KeyUp:    game.KeyArrowUp,
	rl.KeyLeft:  game.KeyArrowLeft,
	rl.KeyDown:  game.KeyArrowDown,
	rl.KeyRight: game.KeyArrowRight,
}

const controlsText = "WASD/Arrows: Swim | Click: Feed | Shift+Click: Inspect | 1-9: Food | Space: Pause | F5: Snapshot | H: Controls"

// view holds the windowed front end of a game.
type view struct {
	g        *game.Game
	cam      *camera.Camera
	water    *renderer.WaterBackground
	actors   *renderer.TankRenderer
	overlays *ui.OverlayRegistry
	hud      *ui.HUD
	perf     *ui.PerfPanel
	controls *ui.ControlsPanel
	picker   *ui.FoodPicker
	insp     *ui.Inspector

	selected *tank.Actor
	screenW  int32
	screenH  int32
}

func runWindowed(cfg *config.Config, opts game.Options, maxTicks int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Reef Tank")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	opts.Container = windowContainer{}
	g, err := game.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Unload()
	g.Start()

	v := newView(g)
	for !rl.WindowShouldClose() {
		v.handleResize()
		v.handleInput()

		g.Update(float64(rl.GetFrameTime()))
		g.RecordFrame()

		v.draw()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
}

func newView(g *game.Game) *view {
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	return &view{
		g:        g,
		cam:      newCamera(g.Tank(), w, h),
		water:    renderer.NewWaterBackground(),
		actors:   renderer.NewTankRenderer(g.Config().Interaction),
		overlays: ui.NewOverlayRegistry(),
		hud:      ui.NewHUD(),
		perf:     ui.NewPerfPanel(w-270, 10),
		controls: ui.NewControlsPanel(w-230, 220, 220),
		picker:   ui.NewFoodPicker(w, h),
		insp:     ui.NewInspector(10, marginTop, 240),
		screenW:  w,
		screenH:  h,
	}
}

// newCamera frames the tank in the window area left between the margins.
func newCamera(t *tank.Tank, w, h int32) *camera.Camera {
	cam := camera.New(float64(w), float64(h), t.Bounds())
	// The container already measures the tank in pixels
	cam.Zoom = 1
	cam.Center.Y += float64(marginTop-marginBottom) / 2 / cam.Zoom
	return cam
}

func (v *view) handleResize() {
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW, v.screenH = w, h

	t := v.g.Tank()
	t.UpdateBounds()
	v.cam = newCamera(t, w, h)
	v.picker.Resize(w, h)
	v.perf.SetPosition(w-270, 10)
}

func (v *view) handleInput() {
	for rk, k := range movementKeys {
		if rl.IsKeyPressed(rk) {
			v.g.HandleKey(k, true)
		}
		if rl.IsKeyReleased(rk) {
			v.g.HandleKey(k, false)
		}
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		v.g.SetPaused(!v.g.Paused())
	}
	if rl.IsKeyPressed(rl.KeyF5) {
		if path := v.g.SaveSnapshot(); path != "" {
			slog.Info("snapshot_saved", "path", path)
		}
	}
	for i := 0; i < 9; i++ {
		if rl.IsKeyPressed(rl.KeyOne + int32(i)) {
			v.g.SelectFood(i)
		}
	}
	if key := rl.GetKeyPressed(); key != 0 {
		v.overlays.HandleKeyPress(key)
	}

	if !rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		return
	}
	mouse := rl.GetMousePosition()
	if v.picker.Contains(mouse.X, mouse.Y, len(v.g.Foods())) {
		return
	}
	p := v.cam.ScreenToWorld(mouse.X, mouse.Y)
	if rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift) {
		v.selected = inspector.Pick(v.g.Tank(), p, pickRadius)
		v.actors.Selected = v.selected
		return
	}
	v.g.HandleTap(p)
}

func (v *view) draw() {
	t := v.g.Tank()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 18, B: 28, A: 255})

	v.water.Draw(v.cam, float32(rl.GetTime()))
	v.actors.Draw(t, v.cam, renderer.Overlays{
		Targets:       v.overlays.IsEnabled(ui.OverlayTargets),
		Velocities:    v.overlays.IsEnabled(ui.OverlayVelocities),
		TrackingRange: v.overlays.IsEnabled(ui.OverlayTrackingRange),
		EatRadius:     v.overlays.IsEnabled(ui.OverlayEatRadius),
	})

	swimmers, consumables, avatars := t.Counts()
	user, loaded := v.g.User()
	food := "-"
	if f, ok := v.g.SelectedFood(); ok {
		food = f.Name
	}
	v.hud.Draw(ui.HUDData{
		Title:       "Reef Tank",
		Swimmers:    swimmers,
		Consumables: consumables,
		Avatars:     avatars,
		Targeting:   v.g.LastInteraction().Targeting,
		Tick:        v.g.Tick(),
		FPS:         rl.GetFPS(),
		Paused:      v.g.Paused(),
		Queued:      v.g.Queue().Pending(),
		User:        user,
		UserLoaded:  loaded,
		Food:        food,
	})
	v.hud.DrawControls(v.screenH, controlsText)

	if i := v.picker.Draw(v.g.Foods(), v.g.SelectedFoodIndex()); i >= 0 {
		v.g.SelectFood(i)
	}

	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perf.Draw(v.g.PerfStats(), v.g.Registry())
	}
	if v.overlays.IsEnabled(ui.OverlayControls) {
		v.controls.SetVisible(true)
		v.controls.Draw(v.overlays)
	}

	if v.selected.Alive() {
		v.insp.Draw(fmt.Sprintf("%s %s", v.selected.Kind(), v.selected.ID()), inspector.Inspect(t, v.selected))
	} else {
		v.selected = nil
		v.actors.Selected = nil
	}

	rl.EndDrawing()
}
