// Package events provides the tank's event registry. A Bus is constructed by the
// owner of a tank and passed to every component that publishes or listens.
package events

import "sync"

// Type identifies an event.
type Type uint8

const (
	SwimmerSpawned Type = iota
	SwimmerRemoved
	ConsumableSpawned
	ConsumableEaten
	ConsumableLanded
	AvatarSpawned
	AvatarRemoved
	SpawnRejected
	Reconciled
	RemovalRequested
	PlayerSynced
	RemoteFailed
	numTypes
)

var typeNames = [numTypes]string{
	SwimmerSpawned:    "swimmer_spawned",
	SwimmerRemoved:    "swimmer_removed",
	ConsumableSpawned: "consumable_spawned",
	ConsumableEaten:   "consumable_eaten",
	ConsumableLanded:  "consumable_landed",
	AvatarSpawned:     "avatar_spawned",
	AvatarRemoved:     "avatar_removed",
	SpawnRejected:     "spawn_rejected",
	Reconciled:        "reconciled",
	RemovalRequested:  "removal_requested",
	PlayerSynced:      "player_synced",
	RemoteFailed:      "remote_failed",
}

// String returns the snake_case name of the event type.
func (t Type) String() string {
	if t < numTypes {
		return typeNames[t]
	}
	return "unknown"
}

// Event is a single tank event. Payload holds one of the payload structs below.
type Event struct {
	Type    Type
	Tick    int64
	Payload any
}

// Handler receives dispatched events.
type Handler func(e Event)

// Bus queues events during a tick and dispatches them to listeners on Dispatch.
// Emit is safe to call from any goroutine; listeners always run on the
// goroutine calling Dispatch.
type Bus struct {
	mu        sync.Mutex
	listeners map[Type][]Handler
	queue     []Event
	tick      int64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[Type][]Handler),
	}
}

// On registers a handler for an event type.
func (b *Bus) On(t Type, h Handler) {
	if b == nil || h == nil {
		return
	}
	b.mu.Lock()
	b.listeners[t] = append(b.listeners[t], h)
	b.mu.Unlock()
}

// OnAll registers a handler for every event type.
func (b *Bus) OnAll(h Handler) {
	for t := Type(0); t < numTypes; t++ {
		b.On(t, h)
	}
}

// SetTick stamps subsequently emitted events with tick.
func (b *Bus) SetTick(tick int64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.tick = tick
	b.mu.Unlock()
}

// Emit queues an event for the next Dispatch. A nil bus drops the event.
func (b *Bus) Emit(t Type, payload any) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.queue = append(b.queue, Event{Type: t, Tick: b.tick, Payload: payload})
	b.mu.Unlock()
}

// Dispatch delivers all queued events in emission order and returns how many were delivered.
// Events emitted by handlers are delivered in the same call.
func (b *Bus) Dispatch() int {
	if b == nil {
		return 0
	}
	n := 0
	for {
		b.mu.Lock()
		queue := b.queue
		b.queue = nil
		b.mu.Unlock()
		if len(queue) == 0 {
			return n
		}
		for _, e := range queue {
			b.mu.Lock()
			handlers := b.listeners[e.Type]
			b.mu.Unlock()
			for _, h := range handlers {
				h(e)
			}
			n++
		}
	}
}

// Pending returns the number of queued events.
func (b *Bus) Pending() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}
