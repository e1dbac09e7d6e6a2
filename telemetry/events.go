// Package telemetry provides tank health tracking, event journaling, bookmarks, and snapshots.
package telemetry

import (
	"fmt"

	"github.com/pthm-cable/reeftank/events"
)

// JournalEntry is one row of events.csv.
type JournalEntry struct {
	Tick   int64  `csv:"tick"`
	Event  string `csv:"event"`
	Kind   string `csv:"kind"`
	ID     string `csv:"id"`
	Detail string `csv:"detail"`
}

// NewJournalEntry flattens a bus event into a journal row.
// Reports false for events that are not journaled.
func NewJournalEntry(e events.Event) (JournalEntry, bool) {
	entry := JournalEntry{Tick: e.Tick, Event: e.Type.String()}

	switch p := e.Payload.(type) {
	case events.ActorPayload:
		entry.Kind = p.Kind
		entry.ID = p.ID
		entry.Detail = fmt.Sprintf("x=%.1f y=%.1f", p.X, p.Y)
	case events.RejectedPayload:
		entry.Kind = p.Kind
		entry.ID = p.ID
		entry.Detail = p.Reason
	case events.EatenPayload:
		entry.Kind = "swimmer"
		entry.ID = p.SwimmerID
		entry.Detail = fmt.Sprintf("food=%s health=%+d", p.FoodID, p.Health)
	case events.ReconciledPayload:
		entry.Kind = p.Mode
		entry.Detail = fmt.Sprintf("records=%d spawned=%d updated=%d stale=%d dead=%d skipped=%d",
			p.Records, p.Spawned, p.Updated, p.RemovedStale, p.RemovedDead, p.Skipped)
	case events.RemovalPayload:
		entry.Kind = "swimmer"
		entry.ID = p.ID
	case events.FailurePayload:
		entry.Kind = p.Op
		entry.ID = p.ID
		if p.Err != nil {
			entry.Detail = p.Err.Error()
		}
	case events.SyncPayload:
		// Syncs fire every interval while moving; the window stats count them
		return JournalEntry{}, false
	default:
		return JournalEntry{}, false
	}
	return entry, true
}
