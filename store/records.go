// Package store defines the remote persistence contract the tank consumes and
// provides in-memory and websocket implementations of it.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("store: record not found")
	// ErrClosed is returned by calls on a closed client.
	ErrClosed = errors.New("store: closed")
)

// SwimmerRecord is the persisted form of a swimmer.
type SwimmerRecord struct {
	ID          string `msgpack:"id,omitempty" yaml:"id,omitempty"`
	OwnerID     string `msgpack:"owner_id" yaml:"owner_id"`
	Type        string `msgpack:"type" yaml:"type"`
	Health      int    `msgpack:"health" yaml:"health"`
	LastFedTime int64  `msgpack:"last_fed_time" yaml:"last_fed_time"` // unix millis
}

// Dead reports whether the record describes a swimmer with no health left.
func (r SwimmerRecord) Dead() bool {
	return r.Health <= 0
}

// PlayerRecord is the persisted form of a player avatar.
type PlayerRecord struct {
	ID            string  `msgpack:"id,omitempty"`
	OwnerID       string  `msgpack:"owner_id"`
	X             float64 `msgpack:"x"`
	Y             float64 `msgpack:"y"`
	IsCurrentUser bool    `msgpack:"-"`
}

// UserAggregate holds per-user totals shown alongside the tank.
type UserAggregate struct {
	Username  string `msgpack:"username"`
	Money     int64  `msgpack:"money"`
	TankLevel int    `msgpack:"tank_level"`
}

// Remote is the persistence service the tank reconciles against.
// Subscribe callbacks may be invoked from any goroutine.
type Remote interface {
	Subscribe(onChange func([]SwimmerRecord)) (unsubscribe func())
	ReadAll(ctx context.Context) ([]SwimmerRecord, error)
	RemoveByID(ctx context.Context, id string) error
	WritePlayerPosition(ctx context.Context, x, y float64) error
	ReadUserAggregate(ctx context.Context) (UserAggregate, error)
}

// PlayerFeed is implemented by remotes that also stream player positions.
type PlayerFeed interface {
	SubscribePlayers(onChange func([]PlayerRecord)) (unsubscribe func())
}
