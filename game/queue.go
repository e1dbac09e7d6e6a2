package game

import "sync"

// TaskQueue marshals work from remote callbacks onto the tick goroutine.
// Post may be called from any goroutine; Drain runs on the tick goroutine only.
type TaskQueue struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewTaskQueue creates a queue holding up to size pending tasks.
func NewTaskQueue(size int) *TaskQueue {
	if size < 1 {
		size = 64
	}
	return &TaskQueue{
		tasks: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Post enqueues fn, blocking while the queue is full. Returns false once the
// queue is closed; fn is then dropped.
func (q *TaskQueue) Post(fn func()) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.tasks <- fn:
		return true
	case <-q.done:
		return false
	}
}

// Drain runs the tasks pending when it is called and returns how many ran.
// Tasks posted while draining wait for the next call.
func (q *TaskQueue) Drain() int {
	n := len(q.tasks)
	for i := 0; i < n; i++ {
		fn := <-q.tasks
		fn()
	}
	return n
}

// Pending returns the number of queued tasks.
func (q *TaskQueue) Pending() int {
	return len(q.tasks)
}

// Close stops accepting tasks and unblocks pending Posts. Queued tasks are discarded.
func (q *TaskQueue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}

// Closed reports whether Close has been called.
func (q *TaskQueue) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
