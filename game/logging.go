package game

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// NewLogger returns a JSON slog logger writing to w at level. A nil w writes to stdout.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// logTankState logs the collection sizes and the local avatar at debug level.
func (g *Game) logTankState() {
	if !g.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	swimmers, consumables, avatars := g.tank.Counts()
	attrs := []any{
		"tick", g.tick,
		"swimmers", swimmers,
		"consumables", consumables,
		"avatars", avatars,
		"queued", g.queue.Pending(),
	}
	if local := g.tank.LocalPlayer(); local != nil {
		p := g.tank.Position(local)
		attrs = append(attrs, "player_x", p.X, "player_y", p.Y)
	}
	g.logger.Debug("tank_state", attrs...)
}
