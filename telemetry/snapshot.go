package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/store"
	"github.com/pthm-cable/reeftank/tank"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete live tank state for debugging and replay.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`
	Tick    int64 `json:"tick"`

	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`

	Swimmers    []SwimmerState    `json:"swimmers"`
	Consumables []ConsumableState `json:"consumables"`
	Avatars     []AvatarState     `json:"avatars"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// SwimmerState holds one swimmer's persisted data plus its live motion.
type SwimmerState struct {
	ID          string `json:"id,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
	Type        string `json:"type"`
	Health      int    `json:"health"`
	LastFedTime int64  `json:"last_fed_time"`

	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	VelX float64 `json:"vel_x"`
	VelY float64 `json:"vel_y"`

	Lifetime *LifetimeStats `json:"lifetime,omitempty"`
}

// ConsumableState holds one falling consumable.
type ConsumableState struct {
	FoodID    string  `json:"food_id"`
	Name      string  `json:"name"`
	Health    int     `json:"health"`
	FallSpeed float64 `json:"fall_speed"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// AvatarState holds one player avatar.
type AvatarState struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"owner_id"`
	IsLocal bool    `json:"is_local"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VelX    float64 `json:"vel_x"`
	VelY    float64 `json:"vel_y"`
}

// TakeSnapshot captures every actor in t. lifetimes may be nil.
func TakeSnapshot(t *tank.Tank, tick, seed int64, lifetimes *LifetimeTracker) *Snapshot {
	b := t.Bounds()
	snap := &Snapshot{
		Version: SnapshotVersion,
		RNGSeed: seed,
		Tick:    tick,
		MinX:    b.Min.X,
		MinY:    b.Min.Y,
		MaxX:    b.Max.X,
		MaxY:    b.Max.Y,
	}

	for _, a := range t.ActiveSwimmers() {
		sw := t.Swimmer(a)
		pos, vel := t.Position(a), t.Velocity(a)
		st := SwimmerState{
			ID:          sw.ID,
			OwnerID:     sw.OwnerID,
			Type:        sw.Type,
			Health:      sw.Health,
			LastFedTime: sw.LastFedTime,
			X:           pos.X,
			Y:           pos.Y,
			VelX:        vel.X,
			VelY:        vel.Y,
		}
		if lifetimes != nil {
			st.Lifetime = lifetimes.Get(sw.ID)
		}
		snap.Swimmers = append(snap.Swimmers, st)
	}

	for _, a := range t.ActiveConsumables() {
		c := t.Consumable(a)
		pos := t.Position(a)
		snap.Consumables = append(snap.Consumables, ConsumableState{
			FoodID:    c.FoodID,
			Name:      c.Name,
			Health:    c.Health,
			FallSpeed: c.FallSpeed,
			X:         pos.X,
			Y:         pos.Y,
		})
	}

	for _, a := range t.ActivePlayers() {
		av := t.Avatar(a)
		pos, vel := t.Position(a), t.Velocity(a)
		snap.Avatars = append(snap.Avatars, AvatarState{
			ID:      av.ID,
			OwnerID: av.OwnerID,
			IsLocal: av.IsLocal,
			X:       pos.X,
			Y:       pos.Y,
			VelX:    vel.X,
			VelY:    vel.Y,
		})
	}

	return snap
}

// Restore replaces every actor in t with the snapshot's actors. No remote
// calls are made. Returns how many actors could not be spawned.
func (s *Snapshot) Restore(t *tank.Tank) int {
	t.ClearAll(tank.KindSwimmer)
	t.ClearAll(tank.KindConsumable)
	t.ClearAll(tank.KindAvatar)

	failed := 0
	for _, st := range s.Swimmers {
		a := t.SpawnSwimmer(store.SwimmerRecord{
			ID:          st.ID,
			OwnerID:     st.OwnerID,
			Type:        st.Type,
			Health:      st.Health,
			LastFedTime: st.LastFedTime,
		})
		if a == nil {
			failed++
			continue
		}
		t.Position(a).Set(t.Bounds().Clamp(r2.Vec{X: st.X, Y: st.Y}))
		t.Velocity(a).Set(r2.Vec{X: st.VelX, Y: st.VelY})
	}

	for _, cs := range s.Consumables {
		food := config.FoodType{ID: cs.FoodID, Name: cs.Name, Health: cs.Health, FallSpeed: cs.FallSpeed}
		if t.SpawnConsumable(food, r2.Vec{X: cs.X, Y: cs.Y}) == nil {
			failed++
		}
	}

	for _, as := range s.Avatars {
		a := t.SpawnPlayerAvatar(store.PlayerRecord{
			ID:            as.ID,
			OwnerID:       as.OwnerID,
			X:             as.X,
			Y:             as.Y,
			IsCurrentUser: as.IsLocal,
		})
		if a == nil {
			failed++
			continue
		}
		t.Velocity(a).Set(r2.Vec{X: as.VelX, Y: as.VelY})
	}

	return failed
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
