package game

import (
	"math/rand"
	"time"

	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/store"
)

// SeedStore fills an in-memory store with a starting population for owner:
// n swimmers of random catalog species, the owner's avatar at the origin, and
// a user aggregate. Used when no remote store is configured.
func SeedStore(mem *store.Memory, cfg *config.Config, owner string, n int, rng *rand.Rand) {
	now := time.Now().UnixMilli()
	for i := 0; i < n && len(cfg.Species) > 0; i++ {
		sp := cfg.Species[rng.Intn(len(cfg.Species))]
		mem.PutSwimmer(store.SwimmerRecord{
			OwnerID:     owner,
			Type:        sp.ID,
			Health:      sp.Health,
			LastFedTime: now,
		})
	}

	mem.SetPlayerPosition(owner, 0, 0)
	mem.SetUser(owner, store.UserAggregate{
		Username:  owner,
		Money:     100,
		TankLevel: 1,
	})
}
