package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Swimmers    int `csv:"swimmers"`
	Consumables int `csv:"consumables"`
	Avatars     int `csv:"avatars"`
	Targeting   int `csv:"targeting"` // swimmers pursuing a consumable

	// Lifecycle events during window
	SwimmersSpawned    int `csv:"swimmers_spawned"`
	ConsumablesSpawned int `csv:"consumables_spawned"`
	AvatarsSpawned     int `csv:"avatars_spawned"`
	SwimmersRemoved    int `csv:"swimmers_removed"`
	AvatarsRemoved     int `csv:"avatars_removed"`
	SpawnRejected      int `csv:"spawn_rejected"`

	// Feeding
	Eaten     int     `csv:"eaten"`
	Landed    int     `csv:"landed"`
	HealthFed int     `csv:"health_fed"`
	EatRate   float64 `csv:"eat_rate"` // eaten / (eaten + landed)

	// Reconciliation and remote traffic
	Reconciles     int `csv:"reconciles"`
	RemovedStale   int `csv:"removed_stale"`
	RemovedDead    int `csv:"removed_dead"`
	RemovalsIssued int `csv:"removals_issued"`
	RemoteFailures int `csv:"remote_failures"`
	PlayerSyncs    int `csv:"player_syncs"`

	// Swimmer health distribution (sampled at window end)
	HealthMean float64 `csv:"health_mean"`
	HealthStd  float64 `csv:"health_std"`
	HealthP10  float64 `csv:"health_p10"`
	HealthP50  float64 `csv:"health_p50"`
	HealthP90  float64 `csv:"health_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeHealthStats calculates mean, population std-dev, and percentiles.
func ComputeHealthStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)
	std = stat.PopStdDev(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("swimmers", s.Swimmers),
		slog.Int("consumables", s.Consumables),
		slog.Int("avatars", s.Avatars),
		slog.Int("targeting", s.Targeting),
		slog.Int("swimmers_spawned", s.SwimmersSpawned),
		slog.Int("consumables_spawned", s.ConsumablesSpawned),
		slog.Int("avatars_spawned", s.AvatarsSpawned),
		slog.Int("swimmers_removed", s.SwimmersRemoved),
		slog.Int("avatars_removed", s.AvatarsRemoved),
		slog.Int("spawn_rejected", s.SpawnRejected),
		slog.Int("eaten", s.Eaten),
		slog.Int("landed", s.Landed),
		slog.Int("health_fed", s.HealthFed),
		slog.Float64("eat_rate", s.EatRate),
		slog.Int("reconciles", s.Reconciles),
		slog.Int("removed_stale", s.RemovedStale),
		slog.Int("removed_dead", s.RemovedDead),
		slog.Int("removals_issued", s.RemovalsIssued),
		slog.Int("remote_failures", s.RemoteFailures),
		slog.Int("player_syncs", s.PlayerSyncs),
		slog.Float64("health_mean", s.HealthMean),
		slog.Float64("health_std", s.HealthStd),
		slog.Float64("health_p10", s.HealthP10),
		slog.Float64("health_p50", s.HealthP50),
		slog.Float64("health_p90", s.HealthP90),
	)
}

// LogStats logs the headline window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"swimmers", s.Swimmers,
		"consumables", s.Consumables,
		"avatars", s.Avatars,
		"eaten", s.Eaten,
		"landed", s.Landed,
		"spawn_rejected", s.SpawnRejected,
		"removed_dead", s.RemovedDead,
		"removals_issued", s.RemovalsIssued,
		"remote_failures", s.RemoteFailures,
		"player_syncs", s.PlayerSyncs,
		"health_mean", s.HealthMean,
		"health_p50", s.HealthP50,
	)
}
