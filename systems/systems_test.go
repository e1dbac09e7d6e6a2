package systems

import (
	"context"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/components"
	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/events"
	"github.com/pthm-cable/reeftank/store"
	"github.com/pthm-cable/reeftank/tank"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// positionRecorder is a remote that only records position writes.
type positionRecorder struct {
	writes []r2.Vec
}

func (r *positionRecorder) Subscribe(func([]store.SwimmerRecord)) func() { return func() {} }

func (r *positionRecorder) ReadAll(context.Context) ([]store.SwimmerRecord, error) { return nil, nil }

func (r *positionRecorder) RemoveByID(context.Context, string) error { return nil }

func (r *positionRecorder) WritePlayerPosition(_ context.Context, x, y float64) error {
	r.writes = append(r.writes, r2.Vec{X: x, Y: y})
	return nil
}

func (r *positionRecorder) ReadUserAggregate(context.Context) (store.UserAggregate, error) {
	return store.UserAggregate{}, nil
}

func newTank(t *testing.T, mutate func(*config.Config), remote store.Remote) (*tank.Tank, *events.Bus) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	bus := events.NewBus()
	tk := tank.New(cfg, tank.Options{
		Remote:   remote,
		Executor: tank.Inline,
		Bus:      bus,
		Logger:   discard,
		Rand:     rand.New(rand.NewSource(7)),
		Now:      func() time.Time { return testNow },
	})
	return tk, bus
}

func placeSwimmer(t *testing.T, tk *tank.Tank, id string, p r2.Vec) *tank.Actor {
	t.Helper()
	a := tk.SpawnSwimmer(store.SwimmerRecord{ID: id, Health: 50})
	if a == nil {
		t.Fatalf("spawning swimmer %s", id)
	}
	tk.Position(a).Set(p)
	return a
}

func placeFood(t *testing.T, tk *tank.Tank, p r2.Vec) *tank.Actor {
	t.Helper()
	a := tk.SpawnConsumable(config.FoodType{ID: "food_001", Health: 10, FallSpeed: 30}, p)
	if a == nil {
		t.Fatalf("spawning food at %v", p)
	}
	return a
}

func TestConsumptionExclusivity(t *testing.T) {
	tk, bus := newTank(t, nil, nil)
	first := placeSwimmer(t, tk, "a", r2.Vec{X: 0, Y: 0})
	second := placeSwimmer(t, tk, "b", r2.Vec{X: 4, Y: 0})
	food := placeFood(t, tk, r2.Vec{X: 2, Y: 0})

	eaten := 0
	bus.On(events.ConsumableEaten, func(events.Event) { eaten++ })

	sys := NewInteractionSystem(tk.Config().Interaction, discard)
	res := sys.Update(tk)
	bus.Dispatch()

	if res.Eaten != 1 || eaten != 1 {
		t.Fatalf("eaten = %d (events %d), want 1", res.Eaten, eaten)
	}
	if food.Alive() {
		t.Error("consumable still alive")
	}
	if n := len(tk.ActiveConsumables()); n != 0 {
		t.Errorf("consumables = %d, want 0", n)
	}

	a, b := tk.Swimmer(first), tk.Swimmer(second)
	if a.Health != 60 {
		t.Errorf("first swimmer health = %v, want 60", a.Health)
	}
	if a.LastFedTime != testNow.UnixMilli() {
		t.Errorf("LastFedTime = %d, want %d", a.LastFedTime, testNow.UnixMilli())
	}
	if b.Health != 50 || b.LastFedTime != 0 {
		t.Errorf("second swimmer fed: %+v", b)
	}
}

func TestConsumptionFirstInOrderNotNearest(t *testing.T) {
	tk, _ := newTank(t, nil, nil)
	far := placeSwimmer(t, tk, "far", r2.Vec{X: -15, Y: 0})
	near := placeSwimmer(t, tk, "near", r2.Vec{X: 1, Y: 0})
	placeFood(t, tk, r2.Vec{X: 0, Y: 0})

	NewInteractionSystem(tk.Config().Interaction, discard).Update(tk)

	if got := tk.Swimmer(far).Health; got != 60 {
		t.Errorf("first swimmer health = %v, want 60", got)
	}
	if got := tk.Swimmer(near).Health; got != 50 {
		t.Errorf("nearer swimmer health = %v, want 50", got)
	}
}

func TestConsumptionOutOfReach(t *testing.T) {
	tk, _ := newTank(t, func(c *config.Config) { c.Interaction.EatDistance = 10 }, nil)
	sw := placeSwimmer(t, tk, "a", r2.Vec{})
	placeFood(t, tk, r2.Vec{X: 10, Y: 0}) // exactly at the threshold

	res := NewInteractionSystem(tk.Config().Interaction, discard).Update(tk)

	if res.Eaten != 0 {
		t.Errorf("eaten = %d, want 0", res.Eaten)
	}
	if tk.Swimmer(sw).Health != 50 {
		t.Error("swimmer fed from beyond eat distance")
	}
}

func TestTargeting(t *testing.T) {
	tests := []struct {
		name      string
		trackDist float64
		want      string // "near", "far" or "" for none
	}{
		{"both in range", 100, "near"},
		{"only near in range", 40, "near"},
		{"near at the threshold", 30, ""},
		{"none in range", 25, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk, _ := newTank(t, func(c *config.Config) {
				c.Interaction.EatDistance = 5
				c.Interaction.TrackingRange = tt.trackDist
			}, nil)
			sw := placeSwimmer(t, tk, "a", r2.Vec{})
			far := placeFood(t, tk, r2.Vec{X: 50, Y: 0})
			near := placeFood(t, tk, r2.Vec{X: 0, Y: 30})

			NewInteractionSystem(tk.Config().Interaction, discard).Update(tk)

			got := tk.TargetOf(sw)
			var want *tank.Actor
			switch tt.want {
			case "near":
				want = near
			case "far":
				want = far
			}
			if got != want {
				t.Errorf("target = %v, want %s", got, tt.want)
			}
			if want == nil && tk.Swimmer(sw).HasTarget {
				t.Error("HasTarget set with no target in range")
			}
		})
	}
}

func TestTargetingTieFirstWins(t *testing.T) {
	tk, _ := newTank(t, nil, nil)
	sw := placeSwimmer(t, tk, "a", r2.Vec{})
	first := placeFood(t, tk, r2.Vec{X: 30, Y: 0})
	placeFood(t, tk, r2.Vec{X: -30, Y: 0})

	NewInteractionSystem(tk.Config().Interaction, discard).Update(tk)

	if got := tk.TargetOf(sw); got != first {
		t.Errorf("target = %v, want first spawned consumable", got)
	}
}

func TestTargetClearedWhenFoodGone(t *testing.T) {
	tk, _ := newTank(t, nil, nil)
	sw := placeSwimmer(t, tk, "a", r2.Vec{})
	food := placeFood(t, tk, r2.Vec{X: 50, Y: 0})
	sys := NewInteractionSystem(tk.Config().Interaction, discard)

	sys.Update(tk)
	if tk.TargetOf(sw) != food {
		t.Fatal("target not assigned")
	}

	tk.RemoveActor(food)
	if tk.TargetOf(sw) != nil {
		t.Error("TargetOf returned a removed consumable")
	}
	sys.Update(tk)
	if tk.Swimmer(sw).HasTarget {
		t.Error("target not cleared after the consumable was removed")
	}
}

func TestFallLandsAndRemoves(t *testing.T) {
	tk, bus := newTank(t, nil, nil)
	floor := tk.Bounds().Min.Y
	food := tk.SpawnConsumable(config.FoodType{ID: "food_003", FallSpeed: 10}, r2.Vec{X: 5, Y: floor + 10})

	var landed []events.ActorPayload
	bus.On(events.ConsumableLanded, func(e events.Event) {
		landed = append(landed, e.Payload.(events.ActorPayload))
	})

	sys := NewFallSystem()
	if n := sys.Update(tk, 0.5); n != 0 {
		t.Fatalf("landed after half the fall: %d", n)
	}
	if p := tk.Position(food).Vec(); math.Abs(p.Y-(floor+5)) > 1e-9 || p.X != 5 {
		t.Errorf("position = %v, want (5, %v)", p, floor+5)
	}

	if n := sys.Update(tk, 0.6); n != 1 {
		t.Fatalf("landed = %d, want 1", n)
	}
	bus.Dispatch()
	if food.Alive() {
		t.Error("landed consumable still alive")
	}
	if len(landed) != 1 || landed[0].ID != "food_003" || landed[0].Y != floor {
		t.Errorf("landed events = %+v", landed)
	}
}

func TestSwimStaysInBounds(t *testing.T) {
	tk, _ := newTank(t, nil, nil)
	for i := 0; i < 6; i++ {
		tk.SpawnSwimmer(store.SwimmerRecord{Health: 10})
	}
	sys := NewSwimSystem(tk.Config().Swimmer)
	b := tk.Bounds()

	for tick := 0; tick < 2000; tick++ {
		sys.Update(tk, 1.0/60)
		for _, a := range tk.ActiveSwimmers() {
			if p := tk.Position(a).Vec(); !b.Contains(p) {
				t.Fatalf("tick %d: swimmer at %v outside %v", tick, p, b)
			}
		}
	}
}

func TestSwimWanders(t *testing.T) {
	tk, _ := newTank(t, nil, nil)
	a := placeSwimmer(t, tk, "a", r2.Vec{})
	sys := NewSwimSystem(tk.Config().Swimmer)

	sys.Update(tk, 0.1)

	if !tk.Motion(a).Running() {
		t.Fatal("no wander motion started")
	}
	if tk.Swimmer(a).DirTimer <= 0 {
		t.Error("direction timer not reset")
	}
	speed := r2.Norm(tk.Velocity(a).Vec())
	if want := tk.Config().Swimmer.MoveSpeed; math.Abs(speed-want) > 1e-6 {
		t.Errorf("speed = %v, want %v", speed, want)
	}
}

func TestSwimPursuit(t *testing.T) {
	tk, _ := newTank(t, nil, nil)
	a := placeSwimmer(t, tk, "a", r2.Vec{})
	placeFood(t, tk, r2.Vec{X: 100, Y: 0})

	NewInteractionSystem(tk.Config().Interaction, discard).Update(tk)
	NewSwimSystem(tk.Config().Swimmer).Update(tk, 0.1)

	speed := tk.Config().Swimmer.PursuitSpeed
	if p := tk.Position(a).Vec(); math.Abs(p.X-speed*0.1) > 1e-9 || p.Y != 0 {
		t.Errorf("position = %v, want (%v, 0)", p, speed*0.1)
	}
	if v := tk.Velocity(a).Vec(); v != (r2.Vec{X: speed}) {
		t.Errorf("velocity = %v, want (%v, 0)", v, speed)
	}
	if tk.Motion(a).Running() {
		t.Error("wander motion still running during pursuit")
	}
}

func TestPlayerClampZeroesVelocity(t *testing.T) {
	tk, _ := newTank(t, nil, nil)
	b := tk.Bounds()
	a := tk.SpawnPlayerAvatar(store.PlayerRecord{ID: "me", X: b.Min.X + 1, Y: 0, IsCurrentUser: true})
	tk.Velocity(a).Set(r2.Vec{X: -500, Y: 0})

	NewPlayerController(tk.Config().Player).Update(tk, 0.1)

	if p := tk.Position(a).Vec(); p.X != b.Min.X {
		t.Errorf("x = %v, want exactly %v", p.X, b.Min.X)
	}
	if v := tk.Velocity(a).Vec(); v.X != 0 {
		t.Errorf("vx = %v, want 0", v.X)
	}
	if !tk.Avatar(a).Dirty {
		t.Error("clamped avatar not marked dirty")
	}
}

func TestPlayerImpulse(t *testing.T) {
	tk, _ := newTank(t, func(c *config.Config) {
		c.Player.Gravity = 0
		c.Player.FloatForce = 0
	}, nil)
	a := tk.SpawnPlayerAvatar(store.PlayerRecord{ID: "me", IsCurrentUser: true})
	ctrl := NewPlayerController(tk.Config().Player)

	ctrl.SetInput(tk, components.Direction{Right: true, Up: true})
	ctrl.Update(tk, 0.1)

	cfg := tk.Config().Player
	want := cfg.MoveSpeed * 0.1 * cfg.Damping / math.Sqrt2
	v := tk.Velocity(a).Vec()
	if math.Abs(v.X-want) > 1e-9 || math.Abs(v.Y-want) > 1e-9 {
		t.Errorf("velocity = %v, want (%v, %v)", v, want, want)
	}
	if p := tk.Position(a).Vec(); p.X <= 0 || p.Y <= 0 {
		t.Errorf("position = %v, want moved up and right", p)
	}
}

func TestPlayerBuoyancy(t *testing.T) {
	tk, _ := newTank(t, nil, nil)
	a := tk.SpawnPlayerAvatar(store.PlayerRecord{ID: "me", IsCurrentUser: true})
	cfg := tk.Config().Player

	NewPlayerController(cfg).Update(tk, 0.5)

	want := (cfg.FloatForce - cfg.Gravity) * 0.5 * cfg.Damping
	if v := tk.Velocity(a).Vec(); math.Abs(v.Y-want) > 1e-9 || v.X != 0 {
		t.Errorf("velocity = %v, want (0, %v)", v, want)
	}
}

func TestPlayerSyncInterval(t *testing.T) {
	remote := &positionRecorder{}
	tk, bus := newTank(t, func(c *config.Config) {
		c.Player.Gravity = 0
		c.Player.FloatForce = 0
		c.Player.Damping = 0
		c.Player.SyncInterval = 1.0
	}, remote)
	a := tk.SpawnPlayerAvatar(store.PlayerRecord{ID: "me", IsCurrentUser: true})
	ctrl := NewPlayerController(tk.Config().Player)

	synced := 0
	bus.On(events.PlayerSynced, func(events.Event) { synced++ })

	// Idle for two intervals: never dirty, never pushed
	for i := 0; i < 8; i++ {
		if ctrl.Update(tk, 0.25) {
			t.Fatalf("tick %d: pushed a clean avatar", i)
		}
	}
	if len(remote.writes) != 0 {
		t.Fatalf("writes = %d, want 0", len(remote.writes))
	}

	tk.Avatar(a).SinceSync = 0
	ctrl.SetInput(tk, components.Direction{Left: true})
	ctrl.Update(tk, 0.25)
	ctrl.SetInput(tk, components.Direction{})

	pushes := 0
	for i := 0; i < 3; i++ {
		if ctrl.Update(tk, 0.25) {
			pushes++
		}
	}
	for i := 0; i < 8; i++ {
		if ctrl.Update(tk, 0.25) {
			pushes++
		}
	}
	bus.Dispatch()

	if pushes != 1 || len(remote.writes) != 1 || synced != 1 {
		t.Fatalf("pushes = %d, writes = %d, events = %d, want 1 each", pushes, len(remote.writes), synced)
	}
	if av := tk.Avatar(a); av.Dirty || av.SinceSync == 0 {
		t.Errorf("avatar after sync = %+v, want clean with timer running", av)
	}
}

func TestPlayerWithoutLocalAvatar(t *testing.T) {
	tk, _ := newTank(t, nil, nil)
	tk.SpawnPlayerAvatar(store.PlayerRecord{ID: "bob", X: 10, Y: 10})

	ctrl := NewPlayerController(tk.Config().Player)
	ctrl.SetInput(tk, components.Direction{Up: true})
	if ctrl.Update(tk, 1) {
		t.Error("Update reported a sync without a local avatar")
	}
	if p := tk.Position(tk.PlayerByID("bob")).Vec(); p != (r2.Vec{X: 10, Y: 10}) {
		t.Errorf("remote avatar moved to %v", p)
	}
}

func TestSystemRegistry(t *testing.T) {
	reg := NewSystemRegistry()

	want := []string{"queue", "interaction", "swim", "fall", "player", "telemetry"}
	ids := reg.IDs()
	if len(ids) != len(want) {
		t.Fatalf("IDs = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("IDs[%d] = %s, want %s", i, ids[i], want[i])
		}
	}
	if got := reg.GetName("swim"); got != "Swim" {
		t.Errorf("GetName(swim) = %q, want Swim", got)
	}
	if got := reg.GetName("nope"); got != "nope" {
		t.Errorf("GetName(nope) = %q, want fallback", got)
	}
	if got := len(reg.ByCategory("actors")); got != 3 {
		t.Errorf("actors category = %d systems, want 3", got)
	}
}
