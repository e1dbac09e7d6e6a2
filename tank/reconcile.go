package tank

import (
	"log/slog"

	"github.com/pthm-cable/reeftank/events"
	"github.com/pthm-cable/reeftank/store"
)

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Records        int
	Spawned        int
	Updated        int
	RemovedStale   int // local swimmers absent from the snapshot
	RemovedDead    int // local swimmers whose record has no health left
	RemovalsIssued int // remote removals issued
	Skipped        int // records ignored (missing id, duplicate, rejected)
}

// LogValue implements slog.LogValuer for structured logging.
func (r ReconcileReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("records", r.Records),
		slog.Int("spawned", r.Spawned),
		slog.Int("updated", r.Updated),
		slog.Int("removed_stale", r.RemovedStale),
		slog.Int("removed_dead", r.RemovedDead),
		slog.Int("removals_issued", r.RemovalsIssued),
		slog.Int("skipped", r.Skipped),
	)
}

func (r ReconcileReport) payload(mode string) events.ReconciledPayload {
	return events.ReconciledPayload{
		Mode:           mode,
		Records:        r.Records,
		Spawned:        r.Spawned,
		Updated:        r.Updated,
		RemovedStale:   r.RemovedStale,
		RemovedDead:    r.RemovedDead,
		RemovalsIssued: r.RemovalsIssued,
		Skipped:        r.Skipped,
	}
}

// Merge diffs a remote snapshot into the swimmer collection by id without
// resetting live state. In order:
//
//  1. local swimmers whose id is absent from the snapshot are removed locally;
//  2. records with no health remove the matching local swimmer and issue one
//     remote removal per id;
//  3. live records update the matching swimmer's data in place, keeping its
//     position, velocity, target and motion, or spawn a new swimmer.
//
// Records without an id cannot be matched and are skipped. Merging the same
// snapshot twice changes nothing the second time.
func (t *Tank) Merge(records []store.SwimmerRecord) ReconcileReport {
	rep := ReconcileReport{Records: len(records)}

	incoming := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			t.logger.Warn("record_missing_id", "type", rec.Type, "owner_id", rec.OwnerID)
			rep.Skipped++
			continue
		}
		incoming[rec.ID] = struct{}{}
	}

	for _, a := range t.ActiveSwimmers() {
		if _, ok := incoming[a.id]; ok {
			continue
		}
		t.RemoveActor(a)
		rep.RemovedStale++
	}
	t.forgetRemovals(incoming)

	for _, rec := range records {
		if rec.ID == "" || !rec.Dead() {
			continue
		}
		if a := t.SwimmerByID(rec.ID); a != nil {
			t.RemoveActor(a)
			rep.RemovedDead++
		}
		if t.requestRemoval(rec.ID) {
			rep.RemovalsIssued++
		}
	}

	for _, rec := range records {
		if rec.ID == "" || rec.Dead() {
			continue
		}
		delete(t.removalIssued, rec.ID)
		if a := t.SwimmerByID(rec.ID); a != nil {
			t.applyRecord(a, rec)
			rep.Updated++
			continue
		}
		if t.SpawnSwimmer(rec) != nil {
			rep.Spawned++
		} else {
			rep.Skipped++
		}
	}

	t.logger.Debug("merged", "report", rep)
	t.bus.Emit(events.Reconciled, rep.payload("merge"))
	return rep
}

// ReplaceAll discards every local swimmer and rebuilds the collection from the
// snapshot. Dead records are never spawned and get one remote removal each;
// duplicate ids after the first are skipped. Records without an id are spawned
// as local-only swimmers.
func (t *Tank) ReplaceAll(records []store.SwimmerRecord) ReconcileReport {
	rep := ReconcileReport{Records: len(records)}
	rep.RemovedStale = t.ClearAll(KindSwimmer)

	incoming := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.ID != "" {
			incoming[rec.ID] = struct{}{}
		}
	}
	t.forgetRemovals(incoming)

	for _, rec := range records {
		if rec.Dead() {
			if t.requestRemoval(rec.ID) {
				rep.RemovalsIssued++
			}
			continue
		}
		if rec.ID != "" {
			if t.SwimmerByID(rec.ID) != nil {
				t.logger.Warn("duplicate_record", "id", rec.ID)
				rep.Skipped++
				continue
			}
			delete(t.removalIssued, rec.ID)
		}
		if t.SpawnSwimmer(rec) != nil {
			rep.Spawned++
		} else {
			rep.Skipped++
		}
	}

	t.logger.Debug("replaced", "report", rep)
	t.bus.Emit(events.Reconciled, rep.payload("replace"))
	return rep
}

// applyRecord copies persisted fields onto a live swimmer.
func (t *Tank) applyRecord(a *Actor, rec store.SwimmerRecord) {
	sw := t.Swimmer(a)
	sw.OwnerID = rec.OwnerID
	sw.Type = rec.Type
	sw.Health = rec.Health
	sw.LastFedTime = rec.LastFedTime
}

// forgetRemovals drops ledger entries for ids no longer in the snapshot.
func (t *Tank) forgetRemovals(incoming map[string]struct{}) {
	for id := range t.removalIssued {
		if _, ok := incoming[id]; !ok {
			delete(t.removalIssued, id)
		}
	}
}
