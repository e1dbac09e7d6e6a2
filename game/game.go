// Package game drives a tank: it owns the tick, marshals remote updates onto
// the tick goroutine, maps input to the local avatar, and feeds telemetry.
package game

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/events"
	"github.com/pthm-cable/reeftank/store"
	"github.com/pthm-cable/reeftank/systems"
	"github.com/pthm-cable/reeftank/tank"
	"github.com/pthm-cable/reeftank/telemetry"
)

// DT is the nominal tick length in seconds. Telemetry windows are measured in
// ticks of this length even when the frame time varies.
const DT = 1.0 / 60.0

// Options configures a Game. Zero values select defaults.
type Options struct {
	Remote    store.Remote   // nil = no remote; the tank runs local-only
	OwnerID   string         // owner of the local avatar
	Container tank.Container // nil = sized from config
	Executor  tank.Executor  // nil = tank.Async
	Logger    *slog.Logger
	Now       func() time.Time

	AutoLoad bool  // subscribe and merge every update; false = one ReadAll + ReplaceAll
	Seed     int64 // 0 = time-based

	LogStats       bool
	StatsWindowSec float64 // 0 = config telemetry.stats_window
	OutputDir      string  // CSV logs and config copy; empty = disabled
	SnapshotDir    string  // snapshots on bookmarks; empty = OutputDir/snapshots when output is enabled

	// Called with each flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the tank and everything that acts on it per tick.
type Game struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger
	seed   int64

	tank   *tank.Tank
	bus    *events.Bus
	queue  *TaskQueue
	remote store.Remote
	exec   tank.Executor

	interaction *systems.InteractionSystem
	swim        *systems.SwimSystem
	fall        *systems.FallSystem
	player      *systems.PlayerController
	registry    *systems.SystemRegistry

	// Telemetry
	collector     *telemetry.Collector
	censor        *telemetry.Censor
	lifetimes     *telemetry.LifetimeTracker
	perf          *telemetry.PerfCollector
	bookmarks     *telemetry.BookmarkDetector
	output        *telemetry.OutputManager
	lastStats     telemetry.WindowStats
	lastBookmarks []telemetry.Bookmark

	unsubscribe        func()
	unsubscribePlayers func()

	user       store.UserAggregate
	userLoaded bool

	lastInteraction systems.InteractionResult

	input        inputState
	selectedFood int

	tick   int64
	paused bool
	closed bool
}

// New builds a game around a fresh tank. Call Start to connect it to the remote.
func New(cfg *config.Config, opts Options) (*Game, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	exec := opts.Executor
	if exec == nil {
		exec = tank.Async
	}
	windowSec := opts.StatsWindowSec
	if windowSec <= 0 {
		windowSec = cfg.Telemetry.StatsWindow
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, err
	}

	g := &Game{
		cfg:    cfg,
		opts:   opts,
		logger: logger.With("component", "game"),
		seed:   seed,
		bus:    events.NewBus(),
		queue:  NewTaskQueue(cfg.Remote.QueueSize),
		remote: opts.Remote,
		exec:   exec,

		interaction: systems.NewInteractionSystem(cfg.Interaction, logger),
		swim:        systems.NewSwimSystem(cfg.Swimmer),
		fall:        systems.NewFallSystem(),
		player:      systems.NewPlayerController(cfg.Player),
		registry:    systems.NewSystemRegistry(),

		collector: telemetry.NewCollector(windowSec, DT),
		lifetimes: telemetry.NewLifetimeTracker(),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks: telemetry.NewBookmarkDetector(10),
		output:    output,
	}

	g.tank = tank.New(cfg, tank.Options{
		Container: opts.Container,
		Remote:    opts.Remote,
		Executor:  exec,
		Post:      func(fn func()) { g.queue.Post(fn) },
		Bus:       g.bus,
		Logger:    logger,
		Rand:      rand.New(rand.NewSource(seed)),
		Now:       opts.Now,
	})
	g.censor = telemetry.NewCensor(g.tank.World())

	g.collector.Subscribe(g.bus)
	g.lifetimes.Subscribe(g.bus)
	if g.output != nil {
		g.bus.OnAll(func(e events.Event) {
			if err := g.output.WriteEvent(e); err != nil {
				g.logger.Error("write_event_failed", "error", err)
			}
		})
	}

	return g, nil
}

// Start connects the tank to the remote store: swimmer updates (streamed or a
// single read), avatar updates when the remote provides them, and the user
// aggregate. Without a remote only the local avatar is created.
func (g *Game) Start() {
	if g.remote == nil {
		g.logger.Warn("remote_unavailable", "op", "start")
		g.spawnLocalAvatar()
		return
	}

	if g.opts.AutoLoad {
		g.unsubscribe = g.remote.Subscribe(func(recs []store.SwimmerRecord) {
			g.queue.Post(func() { g.tank.Merge(recs) })
		})
	} else {
		g.Refresh()
	}

	if feed, ok := g.remote.(store.PlayerFeed); ok {
		g.unsubscribePlayers = feed.SubscribePlayers(func(recs []store.PlayerRecord) {
			g.queue.Post(func() { g.applyPlayers(recs) })
		})
	} else {
		g.spawnLocalAvatar()
	}

	g.loadUser()
	g.logger.Info("game_started", "auto_load", g.opts.AutoLoad, "owner", g.opts.OwnerID, "seed", g.seed)
}

// spawnLocalAvatar creates the local avatar at the tank centre unless one
// exists. Returns nil when nothing was spawned.
func (g *Game) spawnLocalAvatar() *tank.Actor {
	if g.tank.LocalPlayer() != nil {
		return nil
	}
	c := g.tank.Bounds().Center()
	return g.tank.SpawnPlayerAvatar(store.PlayerRecord{
		ID:            "player-" + g.opts.OwnerID,
		OwnerID:       g.opts.OwnerID,
		X:             c.X,
		Y:             c.Y,
		IsCurrentUser: true,
	})
}

// applyPlayers merges an avatar snapshot. An owner the store has no record
// for gets a fresh avatar, announced to the store so other tanks see it.
func (g *Game) applyPlayers(recs []store.PlayerRecord) {
	g.tank.MergePlayers(recs)
	if a := g.spawnLocalAvatar(); a != nil {
		p := g.tank.Position(a)
		g.tank.PushPlayerPosition(p.X, p.Y)
	}
}

// Refresh reads every swimmer record once and applies the result on a later
// tick: merged when streaming, replacing the collection otherwise.
func (g *Game) Refresh() {
	if g.remote == nil {
		return
	}
	remote, timeout := g.remote, g.callTimeout()
	g.exec.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		recs, err := remote.ReadAll(ctx)
		if err != nil {
			g.logger.Error("read_all_failed", "error", err)
			g.queue.Post(func() {
				g.bus.Emit(events.RemoteFailed, events.FailurePayload{Op: "read_all", Err: err})
			})
			return
		}
		g.queue.Post(func() {
			if g.opts.AutoLoad {
				g.tank.Merge(recs)
			} else {
				g.tank.ReplaceAll(recs)
			}
		})
	})
}

// loadUser fetches the user aggregate for the HUD.
func (g *Game) loadUser() {
	remote, timeout := g.remote, g.callTimeout()
	g.exec.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		u, err := remote.ReadUserAggregate(ctx)
		if err != nil {
			g.logger.Error("user_load_failed", "error", err)
			g.queue.Post(func() {
				g.bus.Emit(events.RemoteFailed, events.FailurePayload{Op: "read_user", Err: err})
			})
			return
		}
		g.queue.Post(func() {
			g.user, g.userLoaded = u, true
		})
	})
}

func (g *Game) callTimeout() time.Duration {
	d := time.Duration(g.cfg.Remote.CallTimeout * float64(time.Second))
	if d <= 0 {
		d = 5 * time.Second
	}
	return d
}

// Update advances the game by dt seconds. Remote work queued since the last
// call is applied before any system runs.
func (g *Game) Update(dt float64) {
	if g.closed {
		return
	}

	g.perf.StartTick()

	g.perf.StartPhase(telemetry.PhaseQueue)
	g.bus.SetTick(g.tick)
	g.queue.Drain()

	if !g.paused {
		g.tick++
		g.bus.SetTick(g.tick)

		g.perf.StartPhase(telemetry.PhaseInteraction)
		g.lastInteraction = g.interaction.Update(g.tank)

		g.perf.StartPhase(telemetry.PhaseSwim)
		g.swim.Update(g.tank, dt)

		g.perf.StartPhase(telemetry.PhaseFall)
		g.fall.Update(g.tank, dt)

		g.perf.StartPhase(telemetry.PhasePlayer)
		// The local avatar may have been spawned since the keys went down
		g.player.SetInput(g.tank, g.input.direction())
		g.player.Update(g.tank, dt)
	}

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.bus.Dispatch()
	if !g.paused {
		g.flushTelemetry()
	}

	g.perf.EndTick()
}

// Unload disconnects from the remote and destroys every actor. Remote calls
// still in flight complete but their results are dropped.
func (g *Game) Unload() {
	if g.closed {
		return
	}
	g.closed = true

	if g.unsubscribe != nil {
		g.unsubscribe()
	}
	if g.unsubscribePlayers != nil {
		g.unsubscribePlayers()
	}
	g.queue.Close()

	g.tank.Teardown()
	g.bus.Dispatch()

	if err := g.output.Close(); err != nil {
		g.logger.Error("output_close_failed", "error", err)
	}
	g.logger.Info("game_unloaded", "tick", g.tick)
}

// Tank returns the tank driven by the game.
func (g *Game) Tank() *tank.Tank { return g.tank }

// Bus returns the game's event bus.
func (g *Game) Bus() *events.Bus { return g.bus }

// Queue returns the task queue remote work is posted to.
func (g *Game) Queue() *TaskQueue { return g.queue }

// Config returns the game configuration.
func (g *Game) Config() *config.Config { return g.cfg }

// Registry returns the system registry.
func (g *Game) Registry() *systems.SystemRegistry { return g.registry }

// Interaction returns the interaction system.
func (g *Game) Interaction() *systems.InteractionSystem { return g.interaction }

// Tick returns the number of ticks simulated.
func (g *Game) Tick() int64 { return g.tick }

// Seed returns the RNG seed.
func (g *Game) Seed() int64 { return g.seed }

// Paused reports whether the systems are paused.
func (g *Game) Paused() bool { return g.paused }

// SetPaused pauses or resumes the systems. Remote updates are still applied while paused.
func (g *Game) SetPaused(p bool) { g.paused = p }

// User returns the user aggregate and whether it has been loaded.
func (g *Game) User() (store.UserAggregate, bool) { return g.user, g.userLoaded }

// LastStats returns the most recently flushed stats window.
func (g *Game) LastStats() telemetry.WindowStats { return g.lastStats }

// LastBookmarks returns the bookmarks triggered by the most recent flush.
func (g *Game) LastBookmarks() []telemetry.Bookmark { return g.lastBookmarks }

// PerfStats returns timing stats over the perf window.
func (g *Game) PerfStats() telemetry.PerfStats { return g.perf.Stats() }

// Lifetimes returns the per-swimmer lifetime tracker.
func (g *Game) Lifetimes() *telemetry.LifetimeTracker { return g.lifetimes }

// LastInteraction returns what the most recent interaction pass did.
func (g *Game) LastInteraction() systems.InteractionResult { return g.lastInteraction }

// RecordFrame records frame timing in graphical mode.
func (g *Game) RecordFrame() { g.perf.RecordFrame() }
