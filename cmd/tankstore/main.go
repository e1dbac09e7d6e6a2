// Command tankstore serves an in-memory tank store over websocket so several
// tank clients can share swimmers, avatars and user aggregates.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/game"
	"github.com/pthm-cable/reeftank/store"
)

func main() {
	addr := flag.String("addr", ":8787", "Listen address")
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	owner := flag.String("owner", "", "Owner to seed (empty = no seed data)")
	swimmers := flag.Int("swimmers", 8, "Swimmers seeded for the owner")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := game.NewLogger(os.Stdout, cfg.Derived.LogLevel)
	slog.SetDefault(logger)

	mem := store.NewMemory()
	if *owner != "" {
		rngSeed := *seed
		if rngSeed == 0 {
			rngSeed = time.Now().UnixNano()
		}
		game.SeedStore(mem, cfg, *owner, *swimmers, rand.New(rand.NewSource(rngSeed)))
		logger.Info("store_seeded", "owner", *owner, "swimmers", *swimmers, "seed", rngSeed)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", store.NewServer(mem, logger))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("store_listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	logger.Info("store_stopped")
}
