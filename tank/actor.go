package tank

import "github.com/mlange-42/ark/ecs"

// Kind identifies the kind of a tank actor.
type Kind uint8

const (
	KindSwimmer Kind = iota
	KindConsumable
	KindAvatar
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSwimmer:
		return "swimmer"
	case KindConsumable:
		return "consumable"
	case KindAvatar:
		return "avatar"
	default:
		return "unknown"
	}
}

// State is an actor's lifecycle state.
type State uint8

const (
	StateCreated State = iota
	StateActive
	StateDestroyed
)

// String returns the display name for a State.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateActive:
		return "Active"
	case StateDestroyed:
		return "Destroyed"
	default:
		return "Unknown"
	}
}

// Actor is a handle to a tank entity. Component data lives in the tank's ECS world;
// the handle carries identity, lifecycle state, and destruction hooks.
//
// Transitions are Created -> Active (appended to its collection) and
// Active -> Destroyed. Hooks run exactly once, in registration order.
type Actor struct {
	kind   Kind
	id     string
	entity ecs.Entity
	state  State
	hooks  []func(*Actor)
}

func newActor(kind Kind, id string, e ecs.Entity) *Actor {
	return &Actor{kind: kind, id: id, entity: e}
}

// Kind returns the actor kind.
func (a *Actor) Kind() Kind { return a.kind }

// ID returns the persisted id, empty for local-only actors.
func (a *Actor) ID() string { return a.id }

// Entity returns the backing ECS entity.
func (a *Actor) Entity() ecs.Entity { return a.entity }

// State returns the lifecycle state.
func (a *Actor) State() State { return a.state }

// Alive reports whether the actor is active.
func (a *Actor) Alive() bool { return a != nil && a.state == StateActive }

// OnDestroy registers fn to run when the actor is destroyed.
// Registering on a destroyed actor is a no-op.
func (a *Actor) OnDestroy(fn func(*Actor)) {
	if a.state == StateDestroyed || fn == nil {
		return
	}
	a.hooks = append(a.hooks, fn)
}

func (a *Actor) activate() {
	if a.state == StateCreated {
		a.state = StateActive
	}
}

// destroy transitions to Destroyed and runs hooks. Returns false if already destroyed.
func (a *Actor) destroy() bool {
	if a.state == StateDestroyed {
		return false
	}
	a.state = StateDestroyed
	hooks := a.hooks
	a.hooks = nil
	for _, fn := range hooks {
		fn(a)
	}
	return true
}
