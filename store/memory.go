package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process store shared by any number of owners.
// Watchers are called synchronously after every change, outside the lock.
type Memory struct {
	mu       sync.Mutex
	swimmers []SwimmerRecord
	players  map[string]PlayerRecord // by owner
	users    map[string]UserAggregate
	nextID   int

	nextWatch      int
	watchers       map[int]func([]SwimmerRecord)
	playerWatchers map[int]func([]PlayerRecord)
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		players:        make(map[string]PlayerRecord),
		users:          make(map[string]UserAggregate),
		watchers:       make(map[int]func([]SwimmerRecord)),
		playerWatchers: make(map[int]func([]PlayerRecord)),
	}
}

// Swimmers returns a copy of all swimmer records in insertion order.
func (m *Memory) Swimmers() []SwimmerRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SwimmerRecord(nil), m.swimmers...)
}

// PutSwimmer inserts or replaces a record and returns its id.
// Records without an id are assigned one.
func (m *Memory) PutSwimmer(rec SwimmerRecord) string {
	m.mu.Lock()
	if rec.ID == "" {
		m.nextID++
		rec.ID = fmt.Sprintf("swimmer-%d", m.nextID)
	}
	replaced := false
	for i := range m.swimmers {
		if m.swimmers[i].ID == rec.ID {
			m.swimmers[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		m.swimmers = append(m.swimmers, rec)
	}
	m.mu.Unlock()

	m.notifySwimmers()
	return rec.ID
}

// DeleteSwimmer removes the record with id.
func (m *Memory) DeleteSwimmer(id string) error {
	m.mu.Lock()
	idx := -1
	for i := range m.swimmers {
		if m.swimmers[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	m.swimmers = append(m.swimmers[:idx], m.swimmers[idx+1:]...)
	m.mu.Unlock()

	m.notifySwimmers()
	return nil
}

// SetPlayerPosition stores the avatar position of owner.
func (m *Memory) SetPlayerPosition(owner string, x, y float64) {
	m.mu.Lock()
	p, ok := m.players[owner]
	if !ok {
		p = PlayerRecord{ID: "player-" + owner, OwnerID: owner}
	}
	p.X, p.Y = x, y
	m.players[owner] = p
	m.mu.Unlock()

	m.notifyPlayers()
}

// Players returns all avatar records sorted by owner.
func (m *Memory) Players() []PlayerRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playersLocked()
}

// User returns the aggregate stored for owner.
func (m *Memory) User(owner string) (UserAggregate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[owner]
	return u, ok
}

// SetUser stores the aggregate for owner.
func (m *Memory) SetUser(owner string, u UserAggregate) {
	m.mu.Lock()
	m.users[owner] = u
	m.mu.Unlock()
}

// Watch calls fn with the current swimmer records and again after every change.
func (m *Memory) Watch(fn func([]SwimmerRecord)) (cancel func()) {
	m.mu.Lock()
	id := m.nextWatch
	m.nextWatch++
	m.watchers[id] = fn
	snapshot := append([]SwimmerRecord(nil), m.swimmers...)
	m.mu.Unlock()

	fn(snapshot)
	return func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}
}

// WatchPlayers calls fn with the current avatar records and again after every change.
func (m *Memory) WatchPlayers(fn func([]PlayerRecord)) (cancel func()) {
	m.mu.Lock()
	id := m.nextWatch
	m.nextWatch++
	m.playerWatchers[id] = fn
	snapshot := m.playersLocked()
	m.mu.Unlock()

	fn(snapshot)
	return func() {
		m.mu.Lock()
		delete(m.playerWatchers, id)
		m.mu.Unlock()
	}
}

func (m *Memory) playersLocked() []PlayerRecord {
	out := make([]PlayerRecord, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })
	return out
}

func (m *Memory) notifySwimmers() {
	m.mu.Lock()
	snapshot := append([]SwimmerRecord(nil), m.swimmers...)
	fns := make([]func([]SwimmerRecord), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (m *Memory) notifyPlayers() {
	m.mu.Lock()
	snapshot := m.playersLocked()
	fns := make([]func([]PlayerRecord), 0, len(m.playerWatchers))
	for _, fn := range m.playerWatchers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

// Local is a Remote bound to one owner of a Memory store.
type Local struct {
	mem   *Memory
	owner string
}

// NewLocal returns a Remote view of mem for owner.
func NewLocal(mem *Memory, owner string) *Local {
	return &Local{mem: mem, owner: owner}
}

// Subscribe implements Remote.
func (l *Local) Subscribe(onChange func([]SwimmerRecord)) func() {
	return l.mem.Watch(onChange)
}

// SubscribePlayers implements PlayerFeed.
func (l *Local) SubscribePlayers(onChange func([]PlayerRecord)) func() {
	return l.mem.WatchPlayers(func(recs []PlayerRecord) {
		onChange(markCurrentUser(recs, l.owner))
	})
}

// ReadAll implements Remote.
func (l *Local) ReadAll(ctx context.Context) ([]SwimmerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.mem.Swimmers(), nil
}

// RemoveByID implements Remote.
func (l *Local) RemoveByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return removeSwimmer(l.mem, id)
}

// removeSwimmer deletes id from mem. Removing an id that is already gone
// succeeds, so several tanks may remove the same dead swimmer.
func removeSwimmer(mem *Memory, id string) error {
	if err := mem.DeleteSwimmer(id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// WritePlayerPosition implements Remote.
func (l *Local) WritePlayerPosition(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mem.SetPlayerPosition(l.owner, x, y)
	return nil
}

// ReadUserAggregate implements Remote.
func (l *Local) ReadUserAggregate(ctx context.Context) (UserAggregate, error) {
	if err := ctx.Err(); err != nil {
		return UserAggregate{}, err
	}
	u, ok := l.mem.User(l.owner)
	if !ok {
		return UserAggregate{}, fmt.Errorf("user %q: %w", l.owner, ErrNotFound)
	}
	return u, nil
}

func markCurrentUser(recs []PlayerRecord, owner string) []PlayerRecord {
	out := make([]PlayerRecord, len(recs))
	for i, p := range recs {
		p.IsCurrentUser = p.OwnerID == owner
		out[i] = p
	}
	return out
}
