package game

import (
	"github.com/pthm-cable/reeftank/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.censor.Take())
	perfStats := g.perf.Stats()
	g.lastStats = stats
	g.logTankState()

	if g.opts.StatsCallback != nil {
		g.opts.StatsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.output.WriteTelemetry(stats); err != nil {
		g.logger.Error("write_telemetry_failed", "error", err)
	}
	if err := g.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
		g.logger.Error("write_perf_failed", "error", err)
	}

	g.lastBookmarks = g.bookmarks.Check(stats)
	for _, bm := range g.lastBookmarks {
		if g.opts.LogStats {
			bm.LogBookmark()
		}
		if err := g.output.WriteBookmark(bm); err != nil {
			g.logger.Error("write_bookmark_failed", "error", err)
		}
		g.saveSnapshot(&bm)
	}
}

// Snapshot captures the current tank state.
func (g *Game) Snapshot() *telemetry.Snapshot {
	return telemetry.TakeSnapshot(g.tank, g.tick, g.seed, g.lifetimes)
}

// saveSnapshot writes a snapshot tagged with bm, if snapshots are enabled.
// Returns the path written, or "" when disabled or on error.
func (g *Game) saveSnapshot(bm *telemetry.Bookmark) string {
	snap := g.Snapshot()
	snap.Bookmark = bm

	var (
		path string
		err  error
	)
	switch {
	case g.opts.SnapshotDir != "":
		path, err = telemetry.SaveSnapshot(snap, g.opts.SnapshotDir)
	case g.output != nil:
		path, err = g.output.WriteSnapshot(snap)
	default:
		return ""
	}
	if err != nil {
		g.logger.Error("snapshot_failed", "tick", g.tick, "error", err)
		return ""
	}
	g.logger.Info("snapshot_saved", "path", path, "tick", g.tick)
	return path
}

// SaveSnapshot writes an untagged snapshot on demand.
func (g *Game) SaveSnapshot() string {
	return g.saveSnapshot(nil)
}
