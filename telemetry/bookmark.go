package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFeedingFrenzy    BookmarkType = "feeding_frenzy"
	BookmarkRemoteOutage     BookmarkType = "remote_outage"
	BookmarkPopulationCrash  BookmarkType = "population_crash"
	BookmarkCapacityPressure BookmarkType = "capacity_pressure"
	BookmarkStableTank       BookmarkType = "stable_tank"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int64        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable windows in the tank's history.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentSwimmerPeak  int
	stableWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable tank detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		checks := []func(WindowStats) *Bookmark{
			bd.checkFeedingFrenzy,
			bd.checkRemoteOutage,
			bd.checkPopulationCrash,
			bd.checkStableTank,
		}
		for _, check := range checks {
			if b := check(stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}
	if b := checkCapacityPressure(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	if stats.Swimmers > bd.recentSwimmerPeak {
		bd.recentSwimmerPeak = stats.Swimmers
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// latest returns the most recently added window.
func (bd *BookmarkDetector) latest() WindowStats {
	idx := bd.historyIdx - 1
	if idx < 0 {
		idx = bd.historySize - 1
	}
	return bd.history[idx]
}

func (bd *BookmarkDetector) checkFeedingFrenzy(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.Eaten < 5 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Eaten
	}
	avg := float64(total) / float64(len(history))

	if float64(stats.Eaten) > avg*2 {
		return &Bookmark{
			Type:        BookmarkFeedingFrenzy,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d consumables eaten, %.1fx the average (%.1f)", stats.Eaten, float64(stats.Eaten)/max(avg, 1), avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkRemoteOutage(stats WindowStats) *Bookmark {
	if stats.RemoteFailures < 3 || bd.latest().RemoteFailures > 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkRemoteOutage,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d remote calls failed after a clean window", stats.RemoteFailures),
	}
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentSwimmerPeak == 0 {
		return nil
	}

	drop := 1.0 - float64(stats.Swimmers)/float64(bd.recentSwimmerPeak)
	if drop > 0.30 && stats.Swimmers <= bd.recentSwimmerPeak-3 {
		// Reset peak after crash
		oldPeak := bd.recentSwimmerPeak
		bd.recentSwimmerPeak = stats.Swimmers

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Swimmers fell %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Swimmers),
		}
	}
	return nil
}

func checkCapacityPressure(stats WindowStats) *Bookmark {
	if stats.SpawnRejected < 5 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkCapacityPressure,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d spawns rejected in one window", stats.SpawnRejected),
	}
}

func (bd *BookmarkDetector) checkStableTank(stats WindowStats) *Bookmark {
	if stats.Swimmers < 3 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	counts := make([]float64, 4)
	for i, h := range history[len(history)-4:] {
		counts[i] = float64(h.Swimmers)
	}
	mean, std := stat.PopMeanStdDev(counts, nil)

	// Coefficient of variation under 20%
	if mean > 0 && std/mean < 0.2 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableTank,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable tank with %d swimmers over 5+ windows", stats.Swimmers),
		}
	}
	return nil
}
