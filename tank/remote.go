package tank

import (
	"context"

	"github.com/pthm-cable/reeftank/events"
)

// Executor runs fire-and-forget remote calls.
type Executor interface {
	Go(fn func())
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(fn func())

// Go implements Executor.
func (f ExecutorFunc) Go(fn func()) { f(fn) }

var (
	// Async runs each call on its own goroutine.
	Async Executor = ExecutorFunc(func(fn func()) { go fn() })
	// Inline runs each call synchronously on the caller.
	Inline Executor = ExecutorFunc(func(fn func()) { fn() })
)

// fireAndForget runs call on the executor with a bounded context. Failures are
// logged and reported as RemoteFailed; there is no retry and no local rollback.
func (t *Tank) fireAndForget(op, id string, call func(ctx context.Context) error) {
	timeout := t.callTimeout
	t.exec.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		err := call(ctx)
		if err == nil {
			return
		}
		t.logger.Error("remote_call_failed", "op", op, "id", id, "error", err)
		t.post(func() {
			t.bus.Emit(events.RemoteFailed, events.FailurePayload{Op: op, ID: id, Err: err})
		})
	})
}

// requestRemoval issues the remote removal of a dead swimmer id unless one is
// already outstanding. Reports whether a call was issued.
func (t *Tank) requestRemoval(id string) bool {
	if id == "" {
		return false
	}
	if t.remote == nil {
		t.logger.Debug("remote_unavailable", "op", "remove", "id", id)
		return false
	}
	if _, ok := t.removalIssued[id]; ok {
		return false
	}
	t.removalIssued[id] = struct{}{}
	t.bus.Emit(events.RemovalRequested, events.RemovalPayload{ID: id})

	remote := t.remote
	t.fireAndForget("remove", id, func(ctx context.Context) error {
		return remote.RemoveByID(ctx, id)
	})
	return true
}

// RemovalOutstanding reports whether a removal for id has been issued and the id
// has not yet disappeared from, or come back alive in, a later snapshot.
func (t *Tank) RemovalOutstanding(id string) bool {
	_, ok := t.removalIssued[id]
	return ok
}

// PushPlayerPosition writes the local avatar position to the remote store.
func (t *Tank) PushPlayerPosition(x, y float64) bool {
	if t.remote == nil {
		return false
	}
	remote := t.remote
	t.fireAndForget("write_position", "", func(ctx context.Context) error {
		return remote.WritePlayerPosition(ctx, x, y)
	})
	t.bus.Emit(events.PlayerSynced, events.SyncPayload{X: x, Y: y})
	return true
}
