// Package tank holds the live tank state: bounds, the three actor collections,
// actor lifecycle, and reconciliation against the remote store.
//
// A Tank is not safe for concurrent use. Every mutation happens on the goroutine
// that drives the tick; remote callbacks must be marshalled onto it first.
package tank

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/reeftank/components"
	"github.com/pthm-cable/reeftank/config"
	"github.com/pthm-cable/reeftank/events"
	"github.com/pthm-cable/reeftank/geom"
	"github.com/pthm-cable/reeftank/store"
)

// Container supplies the measured size and scale the tank is laid out in.
type Container interface {
	Size() (width, height float64)
	Scale() (x, y float64)
}

// FixedContainer is a Container with constant dimensions.
type FixedContainer struct {
	Width, Height  float64
	ScaleX, ScaleY float64
}

// Size implements Container.
func (c FixedContainer) Size() (float64, float64) { return c.Width, c.Height }

// Scale implements Container.
func (c FixedContainer) Scale() (float64, float64) { return c.ScaleX, c.ScaleY }

// Capacity limits the number of actors per kind. Swimmers == 0 means unbounded.
type Capacity struct {
	Swimmers    int
	Consumables int
	Avatars     int
}

// Options holds the collaborators of a Tank. Every field is optional.
type Options struct {
	Container Container    // nil = sized from config
	Remote    store.Remote // nil = remote effects are skipped
	Executor  Executor     // nil = Async
	Post      func(func()) // delivers remote completions to the tick goroutine; nil = run inline
	Bus       *events.Bus  // nil = events dropped
	Logger    *slog.Logger // nil = slog.Default()
	Rand      *rand.Rand   // nil = time-seeded
	Now       func() time.Time
}

// Tank is the bounded play area and its actors.
type Tank struct {
	cfg *config.Config

	world      *ecs.World
	swimmerMap *ecs.Map4[components.Position, components.Velocity, components.Swimmer, components.Motion]
	foodMap    *ecs.Map4[components.Position, components.Velocity, components.Consumable, components.Motion]
	avatarMap  *ecs.Map3[components.Position, components.Velocity, components.Avatar]
	posMap     *ecs.Map[components.Position]
	velMap     *ecs.Map[components.Velocity]
	swimData   *ecs.Map[components.Swimmer]
	foodData   *ecs.Map[components.Consumable]
	avatarData *ecs.Map[components.Avatar]
	motionMap  *ecs.Map[components.Motion]

	container Container
	bounds    geom.Bounds
	capacity  Capacity

	swimmers    []*Actor
	consumables []*Actor
	avatars     []*Actor
	byEntity    map[ecs.Entity]*Actor
	local       *Actor

	// Ids whose remote removal has been issued and not yet observed gone.
	removalIssued map[string]struct{}

	remote      store.Remote
	exec        Executor
	post        func(func())
	callTimeout time.Duration
	bus         *events.Bus
	logger      *slog.Logger
	rng         *rand.Rand
	now         func() time.Time
}

// New creates a tank configured by cfg and computes its bounds.
func New(cfg *config.Config, opts Options) *Tank {
	world := ecs.NewWorld()

	t := &Tank{
		cfg:        cfg,
		world:      world,
		swimmerMap: ecs.NewMap4[components.Position, components.Velocity, components.Swimmer, components.Motion](world),
		foodMap:    ecs.NewMap4[components.Position, components.Velocity, components.Consumable, components.Motion](world),
		avatarMap:  ecs.NewMap3[components.Position, components.Velocity, components.Avatar](world),
		posMap:     ecs.NewMap[components.Position](world),
		velMap:     ecs.NewMap[components.Velocity](world),
		swimData:   ecs.NewMap[components.Swimmer](world),
		foodData:   ecs.NewMap[components.Consumable](world),
		avatarData: ecs.NewMap[components.Avatar](world),
		motionMap:  ecs.NewMap[components.Motion](world),

		container: opts.Container,
		capacity: Capacity{
			Swimmers:    cfg.Tank.MaxSwimmers,
			Consumables: cfg.Tank.MaxConsumables,
			Avatars:     cfg.Tank.MaxAvatars,
		},
		byEntity:      make(map[ecs.Entity]*Actor),
		removalIssued: make(map[string]struct{}),

		remote:      opts.Remote,
		exec:        opts.Executor,
		post:        opts.Post,
		callTimeout: time.Duration(cfg.Remote.CallTimeout * float64(time.Second)),
		bus:         opts.Bus,
		logger:      opts.Logger,
		rng:         opts.Rand,
		now:         opts.Now,
	}

	if t.container == nil {
		t.container = FixedContainer{
			Width:  cfg.Tank.Width,
			Height: cfg.Tank.Height,
			ScaleX: cfg.Tank.ScaleX,
			ScaleY: cfg.Tank.ScaleY,
		}
	}
	if t.exec == nil {
		t.exec = Async
	}
	if t.post == nil {
		t.post = func(fn func()) { fn() }
	}
	if t.callTimeout <= 0 {
		t.callTimeout = 5 * time.Second
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.logger = t.logger.With("component", "tank")
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if t.now == nil {
		t.now = time.Now
	}

	t.bounds = t.computeBounds()
	return t
}

// World returns the ECS world backing the actors.
func (t *Tank) World() *ecs.World { return t.world }

// Config returns the configuration the tank was built with.
func (t *Tank) Config() *config.Config { return t.cfg }

// Rand returns the tank's random source.
func (t *Tank) Rand() *rand.Rand { return t.rng }

// Now returns the tank clock's current time.
func (t *Tank) Now() time.Time { return t.now() }

// Bus returns the event bus, possibly nil.
func (t *Tank) Bus() *events.Bus { return t.bus }

// Capacity returns the configured capacities.
func (t *Tank) Capacity() Capacity { return t.capacity }

// SetCapacity replaces the capacities. Existing actors are kept even when over the new limit.
func (t *Tank) SetCapacity(c Capacity) { t.capacity = c }

// SetContainer replaces the container. Call UpdateBounds to apply it.
func (t *Tank) SetContainer(c Container) { t.container = c }

// computeBounds derives the rectangle from the container, falling back to the
// configured default size when either measured extent is zero.
func (t *Tank) computeBounds() geom.Bounds {
	w, h := t.container.Size()
	sx, sy := t.container.Scale()
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	if w == 0 || h == 0 {
		w, h = t.cfg.Tank.FallbackWidth, t.cfg.Tank.FallbackHeight
	}
	return geom.Centered(w*sx, h*sy)
}

// Bounds returns the cached tank rectangle.
func (t *Tank) Bounds() geom.Bounds { return t.bounds }

// Contains reports whether p is inside the tank, edges inclusive.
func (t *Tank) Contains(p r2.Vec) bool { return t.bounds.Contains(p) }

// UpdateBounds recomputes the rectangle from the container and pulls every actor
// back inside it. Positions already inside are preserved.
func (t *Tank) UpdateBounds() geom.Bounds {
	t.bounds = t.computeBounds()

	for _, a := range t.swimmers {
		pos := t.posMap.Get(a.entity)
		clamped := t.bounds.Clamp(pos.Vec())
		if clamped != pos.Vec() {
			pos.Set(clamped)
		}
		// Waypoints were chosen against the old rectangle
		t.motionMap.Get(a.entity).Cancel()
	}
	for _, a := range t.consumables {
		pos := t.posMap.Get(a.entity)
		pos.Set(t.bounds.Clamp(pos.Vec()))
		t.startFall(a)
	}
	for _, a := range t.avatars {
		pos := t.posMap.Get(a.entity)
		pos.Set(t.bounds.Clamp(pos.Vec()))
	}

	t.logger.Debug("bounds_updated",
		"min_x", t.bounds.Min.X, "min_y", t.bounds.Min.Y,
		"max_x", t.bounds.Max.X, "max_y", t.bounds.Max.Y,
	)
	return t.bounds
}

// ActiveSwimmers returns the swimmers in insertion order.
// The slice is a copy; removing actors while iterating it is safe.
func (t *Tank) ActiveSwimmers() []*Actor { return append([]*Actor(nil), t.swimmers...) }

// ActiveConsumables returns the consumables in insertion order.
func (t *Tank) ActiveConsumables() []*Actor { return append([]*Actor(nil), t.consumables...) }

// ActivePlayers returns the player avatars in insertion order.
func (t *Tank) ActivePlayers() []*Actor { return append([]*Actor(nil), t.avatars...) }

// Counts returns the collection sizes.
func (t *Tank) Counts() (swimmers, consumables, avatars int) {
	return len(t.swimmers), len(t.consumables), len(t.avatars)
}

// SwimmerByID returns the active swimmer with id, or nil.
func (t *Tank) SwimmerByID(id string) *Actor { return findByID(t.swimmers, id) }

// PlayerByID returns the active avatar with id, or nil.
func (t *Tank) PlayerByID(id string) *Actor { return findByID(t.avatars, id) }

// LocalPlayer returns the locally controlled avatar, or nil.
func (t *Tank) LocalPlayer() *Actor { return t.local }

// ActorFor returns the active actor backed by e, or nil.
func (t *Tank) ActorFor(e ecs.Entity) *Actor { return t.byEntity[e] }

// TargetOf returns the consumable a swimmer is pursuing, or nil.
func (t *Tank) TargetOf(a *Actor) *Actor {
	sw := t.Swimmer(a)
	if sw == nil || !sw.HasTarget {
		return nil
	}
	return t.ActorFor(sw.Target)
}

func findByID(actors []*Actor, id string) *Actor {
	if id == "" {
		return nil
	}
	for _, a := range actors {
		if a.id == id {
			return a
		}
	}
	return nil
}

// Component accessors. They return nil for destroyed actors or the wrong kind.
// Returned pointers are invalidated by any spawn or removal.

// Position returns the actor's position.
func (t *Tank) Position(a *Actor) *components.Position {
	if !a.Alive() {
		return nil
	}
	return t.posMap.Get(a.entity)
}

// Velocity returns the actor's velocity.
func (t *Tank) Velocity(a *Actor) *components.Velocity {
	if !a.Alive() {
		return nil
	}
	return t.velMap.Get(a.entity)
}

// Swimmer returns the swimmer data of a.
func (t *Tank) Swimmer(a *Actor) *components.Swimmer {
	if !a.Alive() || a.kind != KindSwimmer {
		return nil
	}
	return t.swimData.Get(a.entity)
}

// Consumable returns the food data of a.
func (t *Tank) Consumable(a *Actor) *components.Consumable {
	if !a.Alive() || a.kind != KindConsumable {
		return nil
	}
	return t.foodData.Get(a.entity)
}

// Avatar returns the avatar data of a.
func (t *Tank) Avatar(a *Actor) *components.Avatar {
	if !a.Alive() || a.kind != KindAvatar {
		return nil
	}
	return t.avatarData.Get(a.entity)
}

// Motion returns the timed move of a swimmer or consumable.
func (t *Tank) Motion(a *Actor) *components.Motion {
	if !a.Alive() || a.kind == KindAvatar {
		return nil
	}
	return t.motionMap.Get(a.entity)
}
