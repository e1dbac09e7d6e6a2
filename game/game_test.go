package game

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/components"
	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/events"
	"github.com/pthm-cable/reeftank/store"
	"github.com/pthm-cable/reeftank/tank"
	"github.com/pthm-cable/reeftank/telemetry"
)

var errOffline = errors.New("offline")

// offlineRemote fails every call and never delivers updates.
type offlineRemote struct{}

func (offlineRemote) Subscribe(func([]store.SwimmerRecord)) func() { return func() {} }
func (offlineRemote) ReadAll(context.Context) ([]store.SwimmerRecord, error) {
	return nil, errOffline
}
func (offlineRemote) RemoveByID(context.Context, string) error { return errOffline }
func (offlineRemote) WritePlayerPosition(context.Context, float64, float64) error {
	return errOffline
}
func (offlineRemote) ReadUserAggregate(context.Context) (store.UserAggregate, error) {
	return store.UserAggregate{}, errOffline
}

func newGame(t *testing.T, remote store.Remote, mutate func(*Options)) *Game {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	opts := Options{
		Remote:   remote,
		OwnerID:  "alice",
		Executor: tank.Inline,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		AutoLoad: true,
		Seed:     1,
	}
	if mutate != nil {
		mutate(&opts)
	}
	g, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(g.Unload)
	return g
}

func seededStore(t *testing.T, n int) *store.Memory {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	mem := store.NewMemory()
	SeedStore(mem, cfg, "alice", n, rand.New(rand.NewSource(3)))
	return mem
}

func TestTaskQueue(t *testing.T) {
	q := NewTaskQueue(4)
	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		if !q.Post(func() { order = append(order, i) }) {
			t.Fatalf("Post %d rejected", i)
		}
	}
	q.Post(func() {
		// Posted while draining; runs on the next Drain
		q.Post(func() { order = append(order, 99) })
	})

	if n := q.Drain(); n != 4 {
		t.Errorf("Drain = %d, want 4", n)
	}
	if len(order) != 3 || order[0] != 1 || order[2] != 3 {
		t.Errorf("order = %v, want [1 2 3]", order)
	}
	if q.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", q.Pending())
	}

	q.Close()
	if q.Post(func() {}) {
		t.Error("Post accepted after Close")
	}
	if !q.Closed() {
		t.Error("Closed = false after Close")
	}
}

func TestStartAutoLoadMergesStore(t *testing.T) {
	mem := seededStore(t, 5)
	g := newGame(t, store.NewLocal(mem, "alice"), nil)
	g.Start()

	// Nothing touches the tank until the queue is drained
	if n, _, _ := g.Tank().Counts(); n != 0 {
		t.Fatalf("swimmers before Update = %d, want 0", n)
	}
	g.Update(DT)

	swimmers, _, avatars := g.Tank().Counts()
	if swimmers != 5 {
		t.Errorf("swimmers = %d, want 5", swimmers)
	}
	if avatars != 1 {
		t.Errorf("avatars = %d, want 1", avatars)
	}
	local := g.Tank().LocalPlayer()
	if local == nil || local.ID() != "player-alice" {
		t.Fatalf("local player = %v, want player-alice", local)
	}
	if u, ok := g.User(); !ok || u.Username != "alice" {
		t.Errorf("User = %+v, %v; want alice", u, ok)
	}

	// Later store changes arrive through the subscription
	id := mem.PutSwimmer(store.SwimmerRecord{OwnerID: "bob", Type: "fish_002", Health: 30})
	g.Update(DT)
	if g.Tank().SwimmerByID(id) == nil {
		t.Errorf("swimmer %s not merged", id)
	}
}

func TestStartOneShotLoad(t *testing.T) {
	mem := seededStore(t, 3)
	g := newGame(t, store.NewLocal(mem, "alice"), func(o *Options) { o.AutoLoad = false })
	g.Start()
	g.Update(DT)

	if n, _, _ := g.Tank().Counts(); n != 3 {
		t.Fatalf("swimmers = %d, want 3", n)
	}

	// Without a subscription, store changes wait for Refresh
	id := mem.PutSwimmer(store.SwimmerRecord{Type: "fish_001", Health: 30})
	g.Update(DT)
	if g.Tank().SwimmerByID(id) != nil {
		t.Fatal("swimmer merged without a subscription")
	}
	g.Refresh()
	g.Update(DT)
	if g.Tank().SwimmerByID(id) == nil {
		t.Error("Refresh did not load the new swimmer")
	}
}

func TestDeadSwimmerRemovedFromStore(t *testing.T) {
	mem := store.NewMemory()
	mem.PutSwimmer(store.SwimmerRecord{ID: "alive", Type: "fish_001", Health: 30})
	mem.PutSwimmer(store.SwimmerRecord{ID: "dead", Type: "fish_001", Health: 0})

	g := newGame(t, store.NewLocal(mem, "alice"), nil)
	var removals int
	g.Bus().On(events.RemovalRequested, func(events.Event) { removals++ })
	g.Start()

	g.Update(DT) // merge: dead excluded, removal issued, store notifies
	if g.Tank().SwimmerByID("dead") != nil {
		t.Fatal("dead swimmer spawned")
	}
	if !g.Tank().RemovalOutstanding("dead") {
		t.Fatal("no removal outstanding for dead swimmer")
	}

	g.Update(DT) // the store's follow-up snapshot no longer lists the id
	if g.Tank().RemovalOutstanding("dead") {
		t.Error("removal still outstanding after the id disappeared")
	}
	if removals != 1 {
		t.Errorf("removals = %d, want 1", removals)
	}
	if recs := mem.Swimmers(); len(recs) != 1 || recs[0].ID != "alive" {
		t.Errorf("store = %+v, want only alive", recs)
	}
}

func TestOfflineRemoteDegrades(t *testing.T) {
	g := newGame(t, offlineRemote{}, func(o *Options) { o.AutoLoad = false })
	var failures []string
	g.Bus().On(events.RemoteFailed, func(e events.Event) {
		failures = append(failures, e.Payload.(events.FailurePayload).Op)
	})
	g.Start()
	g.Update(DT)

	if len(failures) != 2 {
		t.Errorf("failures = %v, want read_all and read_user", failures)
	}
	if _, ok := g.User(); ok {
		t.Error("user loaded from an offline remote")
	}
	// The local avatar still exists without an avatar feed
	if g.Tank().LocalPlayer() == nil {
		t.Error("no local avatar")
	}
}

func TestNoRemote(t *testing.T) {
	g := newGame(t, nil, nil)
	g.Start()
	g.Refresh()
	g.Update(DT)

	if g.Tank().LocalPlayer() == nil {
		t.Fatal("no local avatar without a remote")
	}
	if _, ok := g.User(); ok {
		t.Error("user loaded without a remote")
	}
}

func TestLocalAvatarWithoutPlayerRecord(t *testing.T) {
	tests := []struct {
		name        string
		owner       string
		seedOwner   string // "" = no player records
		wantAvatars int
	}{
		{"empty player feed", "alice", "", 1},
		{"second owner joins", "bob", "alice", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			mem.PutSwimmer(store.SwimmerRecord{Type: "fish_001", Health: 30})
			if tt.seedOwner != "" {
				mem.SetPlayerPosition(tt.seedOwner, 10, 10)
			}

			g := newGame(t, store.NewLocal(mem, tt.owner), func(o *Options) { o.OwnerID = tt.owner })
			g.Start()
			for i := 0; i < 5; i++ {
				g.Update(DT)
			}

			local := g.Tank().LocalPlayer()
			if local == nil {
				t.Fatal("no local avatar")
			}
			if local.ID() != "player-"+tt.owner {
				t.Errorf("local avatar = %s, want player-%s", local.ID(), tt.owner)
			}
			// Buoyancy moves it vertically; nothing pushes it sideways
			if got, want := g.Tank().Position(local).X, g.Tank().Bounds().Center().X; got != want {
				t.Errorf("local avatar x = %v, want bounds centre %v", got, want)
			}
			if _, _, avatars := g.Tank().Counts(); avatars != tt.wantAvatars {
				t.Errorf("avatars = %d, want %d", avatars, tt.wantAvatars)
			}

			// The store learns about the new avatar
			found := false
			for _, p := range mem.Players() {
				found = found || p.OwnerID == tt.owner
			}
			if !found {
				t.Errorf("store players = %+v, missing %s", mem.Players(), tt.owner)
			}
		})
	}
}

func TestHeldKeysReachLateAvatar(t *testing.T) {
	mem := store.NewMemory()
	g := newGame(t, store.NewLocal(mem, "alice"), nil)
	g.Start()

	// Pressed before the avatar feed has been applied
	g.HandleKey(KeyD, true)
	if g.Tank().LocalPlayer() != nil {
		t.Fatal("local avatar exists before the first Update")
	}

	g.Update(DT)
	local := g.Tank().LocalPlayer()
	if local == nil {
		t.Fatal("no local avatar after Update")
	}
	want := components.Direction{Right: true}
	if av := g.Tank().Avatar(local); av.Input != want {
		t.Errorf("avatar input = %+v, want %+v", av.Input, want)
	}
	if v := g.Tank().Velocity(local); v.X <= 0 {
		t.Errorf("velocity x = %v, want > 0 from the held key", v.X)
	}
}

func TestHandleKey(t *testing.T) {
	g := newGame(t, nil, nil)
	g.Start()

	g.HandleKey(KeyW, true)
	g.HandleKey(KeyArrowUp, true)
	g.HandleKey(KeyD, true)
	g.HandleKey(KeyW, false)

	want := components.Direction{Up: true, Right: true}
	if got := g.Direction(); got != want {
		t.Errorf("Direction = %+v, want %+v", got, want)
	}
	if av := g.Tank().Avatar(g.Tank().LocalPlayer()); av.Input != want {
		t.Errorf("avatar input = %+v, want %+v", av.Input, want)
	}

	g.HandleKey(Key(200), true)
	if got := g.Direction(); got != want {
		t.Errorf("unknown key changed direction to %+v", got)
	}
}

func TestHandleTap(t *testing.T) {
	g := newGame(t, nil, nil)

	tests := []struct {
		name  string
		food  int
		p     r2.Vec
		spawn bool
	}{
		{"inside", 0, r2.Vec{X: 10, Y: 20}, true},
		{"on the edge", 1, r2.Vec{X: 200, Y: 150}, true},
		{"outside", 2, r2.Vec{X: 201, Y: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !g.SelectFood(tt.food) {
				t.Fatalf("SelectFood(%d) = false", tt.food)
			}
			a := g.HandleTap(tt.p)
			if (a != nil) != tt.spawn {
				t.Fatalf("HandleTap(%v) = %v, want spawn %v", tt.p, a, tt.spawn)
			}
			if a != nil && g.Tank().Consumable(a).FoodID != g.Foods()[tt.food].ID {
				t.Errorf("food = %s, want %s", g.Tank().Consumable(a).FoodID, g.Foods()[tt.food].ID)
			}
		})
	}

	if g.SelectFood(len(g.Foods())) {
		t.Error("SelectFood accepted an out-of-range index")
	}
	if g.SelectedFoodIndex() != 2 {
		t.Errorf("selection = %d, want 2", g.SelectedFoodIndex())
	}
}

func TestPausedAppliesRemoteUpdates(t *testing.T) {
	mem := seededStore(t, 2)
	g := newGame(t, store.NewLocal(mem, "alice"), nil)
	g.Start()
	g.SetPaused(true)
	g.Update(DT)

	if g.Tick() != 0 {
		t.Errorf("Tick = %d while paused, want 0", g.Tick())
	}
	if n, _, _ := g.Tank().Counts(); n != 2 {
		t.Errorf("swimmers = %d, want 2", n)
	}
}

func TestUnload(t *testing.T) {
	mem := seededStore(t, 2)
	g := newGame(t, store.NewLocal(mem, "alice"), nil)
	g.Start()
	g.Update(DT)
	g.Unload()

	if s, c, a := g.Tank().Counts(); s+c+a != 0 {
		t.Errorf("actors after Unload = %d/%d/%d, want none", s, c, a)
	}
	if !g.Queue().Closed() {
		t.Error("queue still open")
	}

	mem.PutSwimmer(store.SwimmerRecord{Type: "fish_001", Health: 30})
	g.Update(DT)
	if n, _, _ := g.Tank().Counts(); n != 0 {
		t.Errorf("swimmers after Unload = %d, want 0", n)
	}
	g.Unload() // second call is a no-op
}

func TestTelemetryOutput(t *testing.T) {
	dir := t.TempDir()
	mem := seededStore(t, 4)
	var windows []telemetry.WindowStats
	g := newGame(t, store.NewLocal(mem, "alice"), func(o *Options) {
		o.OutputDir = dir
		o.StatsWindowSec = 5 * DT
		o.StatsCallback = func(s telemetry.WindowStats) { windows = append(windows, s) }
	})
	g.Start()
	for i := 0; i < 10; i++ {
		g.Update(DT)
	}
	g.Unload()

	if len(windows) != 2 {
		t.Fatalf("windows = %d, want 2", len(windows))
	}
	if windows[0].Swimmers != 4 || windows[0].SwimmersSpawned != 4 || windows[0].Reconciles != 1 {
		t.Errorf("first window = %+v", windows[0])
	}
	if g.LastStats().WindowEndTick != 10 {
		t.Errorf("LastStats end = %d, want 10", g.LastStats().WindowEndTick)
	}

	for _, name := range []string{"telemetry.csv", "perf.csv", "events.csv", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(data)), "\n"); len(lines) != 3 {
		t.Errorf("telemetry.csv has %d lines, want header + 2", len(lines))
	}
}

func TestSaveSnapshot(t *testing.T) {
	dir := t.TempDir()
	mem := seededStore(t, 2)
	g := newGame(t, store.NewLocal(mem, "alice"), func(o *Options) { o.SnapshotDir = dir })
	g.Start()
	g.Update(DT)

	path := g.SaveSnapshot()
	if path == "" {
		t.Fatal("SaveSnapshot wrote nothing")
	}
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(snap.Swimmers) != 2 || len(snap.Avatars) != 1 || snap.Tick != 1 {
		t.Errorf("snapshot = %d swimmers, %d avatars, tick %d", len(snap.Swimmers), len(snap.Avatars), snap.Tick)
	}
}

func TestSeedStore(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	mem := store.NewMemory()
	SeedStore(mem, cfg, "bob", 6, rand.New(rand.NewSource(9)))

	recs := mem.Swimmers()
	if len(recs) != 6 {
		t.Fatalf("swimmers = %d, want 6", len(recs))
	}
	for _, r := range recs {
		sp, ok := cfg.SpeciesByID(r.Type)
		if !ok {
			t.Errorf("unknown species %q", r.Type)
			continue
		}
		if r.Health != sp.Health || r.ID == "" || r.OwnerID != "bob" {
			t.Errorf("record = %+v", r)
		}
	}
	if players := mem.Players(); len(players) != 1 || players[0].ID != "player-bob" {
		t.Errorf("players = %+v", players)
	}
	if u, ok := mem.User("bob"); !ok || u.Username != "bob" {
		t.Errorf("user = %+v, %v", u, ok)
	}
}
