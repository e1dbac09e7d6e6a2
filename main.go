package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/game"
	"github.com/pthm-cable/reeftank/store"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	owner := flag.String("owner", "", "Owner id of the local avatar (empty = use config)")
	remoteURL := flag.String("remote", "", "Websocket URL of a tank store (empty = use config)")
	swimmers := flag.Int("swimmers", 8, "Swimmers seeded into the in-memory store")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *owner != "" {
		cfg.Remote.OwnerID = *owner
	}
	if *remoteURL != "" {
		cfg.Remote.URL = *remoteURL
	}

	logger := game.NewLogger(os.Stdout, cfg.Derived.LogLevel)
	slog.SetDefault(logger)

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	statsWindowSec := cfg.Telemetry.StatsWindow
	if *statsWindow > 0 {
		statsWindowSec = *statsWindow
	}

	remote, closeRemote, err := openRemote(cfg, *swimmers, rngSeed, logger)
	if err != nil {
		// A dead store is not fatal: the tank runs local-only
		logger.Error("remote_dial_failed", "url", cfg.Remote.URL, "error", err)
	}
	defer closeRemote()

	opts := game.Options{
		Remote:         remote,
		OwnerID:        cfg.Remote.OwnerID,
		Logger:         logger,
		AutoLoad:       cfg.Remote.AutoLoad,
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: statsWindowSec,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
	}

	if *headless {
		runHeadless(cfg, opts, *maxTicks)
		return
	}
	runWindowed(cfg, opts, *maxTicks)
}

// openRemote dials the configured store, or seeds an in-process one when no
// URL is set. The returned close func is always non-nil.
func openRemote(cfg *config.Config, swimmers int, seed int64, logger *slog.Logger) (store.Remote, func(), error) {
	if cfg.Remote.URL == "" {
		mem := store.NewMemory()
		game.SeedStore(mem, cfg, cfg.Remote.OwnerID, swimmers, rand.New(rand.NewSource(seed)))
		return store.NewLocal(mem, cfg.Remote.OwnerID), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := store.Dial(ctx, cfg.Remote.URL, cfg.Remote.OwnerID, logger)
	if err != nil {
		return nil, func() {}, err
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warn("remote_close_failed", "error", err)
		}
	}, nil
}

func runHeadless(cfg *config.Config, opts game.Options, maxTicks int) {
	g, err := game.New(cfg, opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	defer g.Unload()
	g.Start()

	slog.Info("starting headless simulation",
		"seed", g.Seed(),
		"stats_window", opts.StatsWindowSec,
		"max_ticks", maxTicks,
	)

	for {
		g.Update(game.DT)

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
}
