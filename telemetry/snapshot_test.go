package telemetry

import (
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/events"
	"github.com/pthm-cable/reeftank/store"
	"github.com/pthm-cable/reeftank/tank"
)

func newSnapshotTank(t *testing.T, bus *events.Bus) *tank.Tank {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	return tank.New(cfg, tank.Options{
		Executor: tank.Inline,
		Bus:      bus,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Rand:     rand.New(rand.NewSource(11)),
	})
}

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		RNGSeed: 42,
		Tick:    1000,
		MinX:    -200,
		MinY:    -150,
		MaxX:    200,
		MaxY:    150,
		Swimmers: []SwimmerState{{
			ID:     "swimmer-1",
			Type:   "fish_003",
			Health: 40,
			X:      12,
			Y:      -8,
			VelX:   50,
			Lifetime: &LifetimeStats{
				SpawnTick: 100,
				Meals:     2,
			},
		}},
		Consumables: []ConsumableState{{FoodID: "food_002", FallSpeed: 20, X: 1, Y: 2}},
		Avatars:     []AvatarState{{ID: "player-alice", OwnerID: "alice", IsLocal: true}},
		Bookmark: &Bookmark{
			Type:        BookmarkFeedingFrenzy,
			Tick:        1000,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.RNGSeed != snapshot.RNGSeed || loaded.Tick != snapshot.Tick {
		t.Errorf("header = seed %d tick %d, want seed %d tick %d", loaded.RNGSeed, loaded.Tick, snapshot.RNGSeed, snapshot.Tick)
	}
	if len(loaded.Swimmers) != 1 || loaded.Swimmers[0].ID != "swimmer-1" || loaded.Swimmers[0].VelX != 50 {
		t.Errorf("Swimmers = %+v", loaded.Swimmers)
	}
	if lt := loaded.Swimmers[0].Lifetime; lt == nil || lt.Meals != 2 {
		t.Errorf("Lifetime = %+v, want 2 meals", lt)
	}
	if len(loaded.Consumables) != 1 || len(loaded.Avatars) != 1 || !loaded.Avatars[0].IsLocal {
		t.Errorf("consumables/avatars = %+v / %+v", loaded.Consumables, loaded.Avatars)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != snapshot.Bookmark.Type {
		t.Errorf("Bookmark = %+v, want %s", loaded.Bookmark, snapshot.Bookmark.Type)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := SaveSnapshot(&Snapshot{
		Version:  SnapshotVersion,
		Tick:     5000,
		Bookmark: &Bookmark{Type: BookmarkPopulationCrash, Tick: 5000},
	}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if want := filepath.Join(tmpDir, "snapshot_5000_population_crash.json"); path != want {
		t.Errorf("Path mismatch: got %s, want %s", path, want)
	}

	path, err = SaveSnapshot(&Snapshot{Version: SnapshotVersion, Tick: 3000}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if want := filepath.Join(tmpDir, "snapshot_3000.json"); path != want {
		t.Errorf("Path mismatch: got %s, want %s", path, want)
	}
}

func TestLoadSnapshotRejectsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("LoadSnapshot accepted an unknown version")
	}
}

func TestSnapshotTakeRestore(t *testing.T) {
	bus := events.NewBus()
	lifetimes := NewLifetimeTracker()
	lifetimes.Subscribe(bus)

	src := newSnapshotTank(t, bus)
	a := src.SpawnSwimmer(store.SwimmerRecord{ID: "a", Type: "fish_001", Health: 30})
	src.Position(a).Set(r2.Vec{X: 25, Y: -40})
	src.SpawnConsumable(config.FoodType{ID: "food_001", Health: 10, FallSpeed: 30}, r2.Vec{X: 5, Y: 60})
	me := src.SpawnPlayerAvatar(store.PlayerRecord{ID: "me", OwnerID: "alice", X: 3, Y: 4, IsCurrentUser: true})
	src.Velocity(me).Set(r2.Vec{X: 1, Y: 2})
	bus.Dispatch()
	lifetimes.RecordMeal("a", 7, 10)

	snap := TakeSnapshot(src, 120, 42, lifetimes)
	if len(snap.Swimmers) != 1 || snap.Swimmers[0].Lifetime == nil || snap.Swimmers[0].Lifetime.Meals != 1 {
		t.Fatalf("swimmers = %+v", snap.Swimmers)
	}

	dst := newSnapshotTank(t, nil)
	dst.SpawnSwimmer(store.SwimmerRecord{ID: "stale", Health: 5})
	if failed := snap.Restore(dst); failed != 0 {
		t.Fatalf("Restore failed for %d actors", failed)
	}

	if dst.SwimmerByID("stale") != nil {
		t.Error("pre-existing swimmer survived Restore")
	}
	ra := dst.SwimmerByID("a")
	if ra == nil {
		t.Fatal("swimmer a not restored")
	}
	if p := dst.Position(ra).Vec(); p != (r2.Vec{X: 25, Y: -40}) {
		t.Errorf("swimmer position = %v, want (25,-40)", p)
	}
	if sw := dst.Swimmer(ra); sw.Health != 30 || sw.Type != "fish_001" {
		t.Errorf("swimmer data = %+v", sw)
	}
	if n := len(dst.ActiveConsumables()); n != 1 {
		t.Errorf("consumables = %d, want 1", n)
	}
	local := dst.LocalPlayer()
	if local == nil || local.ID() != "me" {
		t.Fatalf("local player = %v, want me", local)
	}
	if v := dst.Velocity(local).Vec(); v != (r2.Vec{X: 1, Y: 2}) {
		t.Errorf("avatar velocity = %v, want (1,2)", v)
	}
}

func TestLifetimeTracker(t *testing.T) {
	bus := events.NewBus()
	lt := NewLifetimeTracker()
	lt.Subscribe(bus)

	bus.SetTick(5)
	bus.Emit(events.SwimmerSpawned, events.ActorPayload{Kind: "swimmer", ID: "a"})
	bus.Emit(events.SwimmerSpawned, events.ActorPayload{Kind: "swimmer", ID: "b"})
	bus.Emit(events.SwimmerSpawned, events.ActorPayload{Kind: "swimmer"}) // local-only
	bus.SetTick(9)
	bus.Emit(events.ConsumableEaten, events.EatenPayload{SwimmerID: "b", Health: 10})
	bus.Emit(events.ConsumableEaten, events.EatenPayload{SwimmerID: "b", Health: 20})
	bus.Emit(events.ConsumableEaten, events.EatenPayload{SwimmerID: "a", Health: 10})
	bus.Dispatch()

	if lt.Count() != 2 {
		t.Errorf("Count = %d, want 2", lt.Count())
	}
	id, top := lt.TopFeeder()
	if id != "b" || top.Meals != 2 || top.HealthGained != 30 || top.LastMealTick != 9 {
		t.Errorf("TopFeeder = %s %+v, want b with 2 meals", id, top)
	}
	if s := lt.Get("a"); s == nil || s.SpawnTick != 5 {
		t.Errorf("a = %+v, want spawn tick 5", s)
	}

	bus.Emit(events.SwimmerRemoved, events.ActorPayload{Kind: "swimmer", ID: "b"})
	bus.Dispatch()
	if lt.Get("b") != nil {
		t.Error("removed swimmer still tracked")
	}
}
