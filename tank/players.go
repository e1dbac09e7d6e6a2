package tank

import "github.com/pthm-cable/reeftank/store"

// ApplyRemotePosition moves a remote avatar directly to (x, y), bypassing physics
// and clamping. The local avatar and unknown ids are ignored.
func (t *Tank) ApplyRemotePosition(id string, x, y float64) bool {
	a := t.PlayerByID(id)
	if a == nil || a == t.local {
		return false
	}
	pos := t.posMap.Get(a.entity)
	pos.X, pos.Y = x, y
	return true
}

// MergePlayers diffs an avatar snapshot into the avatar collection: unknown
// records spawn, remote avatars take the recorded position, and remote avatars
// missing from the snapshot are removed. The local avatar's position is never
// overwritten.
func (t *Tank) MergePlayers(records []store.PlayerRecord) {
	incoming := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = "player-" + rec.OwnerID
		}
		incoming[rec.ID] = struct{}{}
		if t.PlayerByID(rec.ID) != nil {
			t.ApplyRemotePosition(rec.ID, rec.X, rec.Y)
			continue
		}
		t.SpawnPlayerAvatar(rec)
	}

	for _, a := range t.ActivePlayers() {
		if a == t.local {
			continue
		}
		if _, ok := incoming[a.id]; !ok {
			t.RemoveActor(a)
		}
	}
}
