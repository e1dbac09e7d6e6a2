package tank

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/components"
	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/events"
	"github.com/pthm-cable/reeftank/geom"
	"github.com/pthm-cable/reeftank/store"
)

// Rejection reasons reported with SpawnRejected.
const (
	reasonCapacity    = "capacity"
	reasonDuplicateID = "duplicate_id"
	reasonOutOfBounds = "out_of_bounds"
)

func (t *Tank) reject(kind Kind, id, reason string) {
	t.logger.Warn("spawn_rejected", "kind", kind.String(), "id", id, "reason", reason)
	t.bus.Emit(events.SpawnRejected, events.RejectedPayload{Kind: kind.String(), ID: id, Reason: reason})
}

// full reports whether a collection of size n is at capacity. limit <= 0 means unbounded
// for swimmers only; other kinds treat it literally.
func full(n, limit int, unboundedAtZero bool) bool {
	if limit <= 0 && unboundedAtZero {
		return false
	}
	return n >= limit
}

// SpawnSwimmer creates a swimmer from rec at a random position inside the tank.
// Returns nil when the swimmer collection is at capacity or rec.ID is already present.
func (t *Tank) SpawnSwimmer(rec store.SwimmerRecord) *Actor {
	if full(len(t.swimmers), t.capacity.Swimmers, true) {
		t.reject(KindSwimmer, rec.ID, reasonCapacity)
		return nil
	}
	if t.SwimmerByID(rec.ID) != nil {
		t.reject(KindSwimmer, rec.ID, reasonDuplicateID)
		return nil
	}

	p := t.randomPoint(t.cfg.Swimmer.SpawnPadding)
	pos := components.Position{X: p.X, Y: p.Y}
	vel := components.Velocity{}
	sw := components.Swimmer{
		ID:          rec.ID,
		OwnerID:     rec.OwnerID,
		Type:        rec.Type,
		Health:      rec.Health,
		LastFedTime: rec.LastFedTime,
	}
	motion := components.Motion{}
	e := t.swimmerMap.NewEntity(&pos, &vel, &sw, &motion)

	a := newActor(KindSwimmer, rec.ID, e)
	t.attach(a, &t.swimmers)
	t.bus.Emit(events.SwimmerSpawned, events.ActorPayload{Kind: a.kind.String(), ID: a.id, X: p.X, Y: p.Y})
	return a
}

// SpawnConsumable drops food at p. It falls straight down to the floor and is
// removed on arrival. Returns nil when p is outside the tank or the consumable
// collection is at capacity.
func (t *Tank) SpawnConsumable(food config.FoodType, p r2.Vec) *Actor {
	if !t.bounds.Contains(p) {
		t.reject(KindConsumable, food.ID, reasonOutOfBounds)
		return nil
	}
	if full(len(t.consumables), t.capacity.Consumables, false) {
		t.reject(KindConsumable, food.ID, reasonCapacity)
		return nil
	}

	fallSpeed := food.FallSpeed
	if fallSpeed <= 0 {
		fallSpeed = t.cfg.Food.DefaultFallSpeed
	}

	pos := components.Position{X: p.X, Y: p.Y}
	vel := components.Velocity{}
	data := components.Consumable{
		FoodID:    food.ID,
		Name:      food.Name,
		Health:    food.Health,
		FallSpeed: fallSpeed,
	}
	motion := components.Motion{}
	e := t.foodMap.NewEntity(&pos, &vel, &data, &motion)

	a := newActor(KindConsumable, "", e)
	t.attach(a, &t.consumables)
	t.startFall(a)
	t.bus.Emit(events.ConsumableSpawned, events.ActorPayload{Kind: a.kind.String(), ID: food.ID, X: p.X, Y: p.Y})
	return a
}

// startFall (re)starts a consumable's descent from its current position to the floor.
func (t *Tank) startFall(a *Actor) {
	pos := t.posMap.Get(a.entity).Vec()
	data := t.foodData.Get(a.entity)
	target := t.bounds.Clamp(r2.Vec{X: pos.X, Y: t.bounds.Min.Y})
	duration := 0.0
	if data.FallSpeed > 0 {
		duration = geom.Distance(pos, target) / data.FallSpeed
	}
	t.motionMap.Get(a.entity).Start(pos, target, duration)
	t.velMap.Get(a.entity).Set(r2.Vec{X: 0, Y: -data.FallSpeed})
}

// SpawnPlayerAvatar creates an avatar at the recorded position. Only an avatar
// flagged as the current user takes local input, and only the first such avatar
// becomes the local player. Returns nil at capacity or when rec.ID is present.
func (t *Tank) SpawnPlayerAvatar(rec store.PlayerRecord) *Actor {
	if full(len(t.avatars), t.capacity.Avatars, false) {
		t.reject(KindAvatar, rec.ID, reasonCapacity)
		return nil
	}
	if t.PlayerByID(rec.ID) != nil {
		t.reject(KindAvatar, rec.ID, reasonDuplicateID)
		return nil
	}

	isLocal := rec.IsCurrentUser
	if isLocal && t.local != nil {
		t.logger.Warn("second_local_avatar", "id", rec.ID, "local_id", t.local.id)
		isLocal = false
	}

	pos := components.Position{X: rec.X, Y: rec.Y}
	vel := components.Velocity{}
	av := components.Avatar{ID: rec.ID, OwnerID: rec.OwnerID, IsLocal: isLocal}
	e := t.avatarMap.NewEntity(&pos, &vel, &av)

	a := newActor(KindAvatar, rec.ID, e)
	t.attach(a, &t.avatars)
	if isLocal {
		t.local = a
	}
	t.bus.Emit(events.AvatarSpawned, events.ActorPayload{Kind: a.kind.String(), ID: a.id, X: rec.X, Y: rec.Y})
	return a
}

// attach registers the collection cleanup hook, appends a, and activates it.
func (t *Tank) attach(a *Actor, coll *[]*Actor) {
	a.OnDestroy(func(a *Actor) {
		*coll = without(*coll, a)
		delete(t.byEntity, a.entity)
		if t.local == a {
			t.local = nil
		}
	})
	*coll = append(*coll, a)
	t.byEntity[a.entity] = a
	a.activate()
}

func without(actors []*Actor, a *Actor) []*Actor {
	for i, x := range actors {
		if x == a {
			return append(actors[:i], actors[i+1:]...)
		}
	}
	return actors
}

// RemoveActor destroys a and drops it from its collection.
// Removing an actor that is not active in this tank is a no-op.
func (t *Tank) RemoveActor(a *Actor) bool {
	if !a.Alive() || t.byEntity[a.entity] != a {
		return false
	}
	t.destroy(a)
	return true
}

func (t *Tank) destroy(a *Actor) {
	var payload events.ActorPayload
	if t.world.Alive(a.entity) {
		p := t.posMap.Get(a.entity)
		payload = events.ActorPayload{Kind: a.kind.String(), ID: a.id, X: p.X, Y: p.Y}
	}
	if !a.destroy() {
		return
	}
	if t.world.Alive(a.entity) {
		t.world.RemoveEntity(a.entity)
	}
	switch a.kind {
	case KindSwimmer:
		t.bus.Emit(events.SwimmerRemoved, payload)
	case KindAvatar:
		t.bus.Emit(events.AvatarRemoved, payload)
	}
}

// ClearAll destroys every actor of kind.
func (t *Tank) ClearAll(kind Kind) int {
	var actors []*Actor
	switch kind {
	case KindSwimmer:
		actors = t.ActiveSwimmers()
	case KindConsumable:
		actors = t.ActiveConsumables()
	case KindAvatar:
		actors = t.ActivePlayers()
	}
	for _, a := range actors {
		t.destroy(a)
	}
	return len(actors)
}

// Teardown cancels every running motion and destroys all actors.
func (t *Tank) Teardown() {
	for _, a := range t.swimmers {
		t.motionMap.Get(a.entity).Cancel()
	}
	for _, a := range t.consumables {
		t.motionMap.Get(a.entity).Cancel()
	}
	n := t.ClearAll(KindSwimmer) + t.ClearAll(KindConsumable) + t.ClearAll(KindAvatar)
	t.logger.Info("tank_teardown", "actors", n)
}

// randomPoint returns a uniformly random point inside the bounds inset by padding.
func (t *Tank) randomPoint(padding float64) r2.Vec {
	inner := t.bounds.Inset(math.Max(padding, 0))
	return r2.Vec{
		X: inner.Min.X + t.rng.Float64()*inner.Width(),
		Y: inner.Min.Y + t.rng.Float64()*inner.Height(),
	}
}
