package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/geom"
)

func newCam() *Camera {
	// 400x300 tank in an 800x600 viewport: fitting zoom is 0.95 * 2
	return New(800, 600, geom.Centered(400, 300))
}

func near(a, b float64) bool { return math.Abs(a-b) < 0.01 }

func TestNew(t *testing.T) {
	cam := newCam()

	if cam.Center != (r2.Vec{}) {
		t.Errorf("expected camera at origin, got %v", cam.Center)
	}
	if !near(cam.Zoom, 1.9) || !near(cam.MinZoom, 1.9) || !near(cam.MaxZoom, 7.6) {
		t.Errorf("zoom = %f in [%f, %f], want 1.9 in [1.9, 7.6]", cam.Zoom, cam.MinZoom, cam.MaxZoom)
	}
}

func TestWorldToScreen(t *testing.T) {
	cam := newCam()

	tests := []struct {
		name   string
		p      r2.Vec
		sx, sy float64
	}{
		{"center", r2.Vec{}, 400, 300},
		{"up is screen up", r2.Vec{Y: 100}, 400, 110},
		{"floor", r2.Vec{Y: -150}, 400, 585},
		{"right wall", r2.Vec{X: 200}, 780, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sx, sy := cam.WorldToScreen(tt.p)
			if !near(float64(sx), tt.sx) || !near(float64(sy), tt.sy) {
				t.Errorf("WorldToScreen(%v) = (%f, %f), want (%f, %f)", tt.p, sx, sy, tt.sx, tt.sy)
			}
		})
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := newCam()
	cam.Pan(30, -20)
	cam.ZoomBy(1.5)

	testCases := []struct{ sx, sy float32 }{
		{400, 300}, // center
		{100, 100}, // top-left
		{750, 550}, // near bottom-right
	}

	for _, tc := range testCases {
		p := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(p)
		if !near(float64(sx), float64(tc.sx)) || !near(float64(sy), float64(tc.sy)) {
			t.Errorf("roundtrip failed: (%f,%f) -> %v -> (%f,%f)", tc.sx, tc.sy, p, sx, sy)
		}
	}
}

func TestPanStaysInTank(t *testing.T) {
	cam := newCam()

	cam.Pan(-10000, 10000)
	if cam.Center != (r2.Vec{X: -200, Y: -150}) {
		t.Errorf("Center = %v, want bottom-left corner", cam.Center)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := newCam()

	cam.SetZoom(0.1)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestResizeRefits(t *testing.T) {
	cam := newCam()
	cam.Resize(400, 600)

	// Width limits now: 0.95 * 400/400
	if !near(cam.MinZoom, 0.95) {
		t.Errorf("MinZoom = %f, want 0.95", cam.MinZoom)
	}
	if cam.Zoom < cam.MinZoom || cam.Zoom > cam.MaxZoom {
		t.Errorf("Zoom %f outside [%f, %f]", cam.Zoom, cam.MinZoom, cam.MaxZoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := newCam()
	cam.SetZoom(4)
	// Visible half-extents: 100 x 75

	if !cam.IsVisible(r2.Vec{}, 1) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(r2.Vec{X: 180, Y: 140}, 5) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(r2.Vec{X: 120}, 30) {
		t.Error("edge point with large radius should be visible")
	}

	vis := cam.VisibleWorldBounds()
	if !near(vis.Width(), 200) || !near(vis.Height(), 150) {
		t.Errorf("visible = %v, want 200x150", vis)
	}
}

func TestResetAndSetBounds(t *testing.T) {
	cam := newCam()
	cam.Pan(50, 50)
	cam.SetZoom(5)

	cam.Reset()
	if cam.Center != (r2.Vec{}) || !near(cam.Zoom, 1.9) {
		t.Errorf("after Reset: center %v zoom %f", cam.Center, cam.Zoom)
	}

	cam.SetBounds(geom.Bounds{Min: r2.Vec{X: 0, Y: 0}, Max: r2.Vec{X: 800, Y: 600}})
	if cam.Center != (r2.Vec{X: 400, Y: 300}) || !near(cam.Zoom, 0.95) {
		t.Errorf("after SetBounds: center %v zoom %f", cam.Center, cam.Zoom)
	}
}
