// Package eventloop provides the single-threaded task loops bindings run on.
package eventloop

import (
	"errors"
	"sync"
)

// ErrClosed is returned when work is submitted to a closed loop.
var ErrClosed = errors.New("event loop closed")

// DefaultSettleTicks bounds how many ticks Settle waits for the queue to drain.
const DefaultSettleTicks = 64

// Loop runs tasks one at a time, in submission order, on its own goroutine.
// Tasks deferred while a task runs execute on a later tick.
type Loop struct {
	mu     sync.Mutex
	tasks  []func()
	wake   chan struct{}
	done   chan struct{}
	closed bool
	once   sync.Once
}

// New starts a loop.
func New() *Loop {
	l := &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}
		for {
			l.mu.Lock()
			if len(l.tasks) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.tasks[0]
			l.tasks[0] = nil
			l.tasks = l.tasks[1:]
			l.mu.Unlock()
			fn()
		}
	}
}

// Defer queues fn for a later tick. Work deferred after Close is dropped.
func (l *Loop) Defer(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for it. It must not be called from a task.
func (l *Loop) Do(fn func()) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ErrClosed
	}
	ran := make(chan struct{})
	l.Defer(func() {
		defer close(ran)
		fn()
	})
	select {
	case <-ran:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Settle waits until no task is pending, giving up after maxTicks rounds.
// It reports whether the queue drained.
func (l *Loop) Settle(maxTicks int) bool {
	if maxTicks <= 0 {
		maxTicks = DefaultSettleTicks
	}
	for i := 0; i < maxTicks; i++ {
		idle := false
		if err := l.Do(func() {
			l.mu.Lock()
			idle = len(l.tasks) == 0
			l.mu.Unlock()
		}); err != nil {
			return false
		}
		if idle {
			return true
		}
	}
	return false
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Close stops the loop. Queued tasks are discarded.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.tasks = nil
		l.mu.Unlock()
		close(l.done)
	})
}
