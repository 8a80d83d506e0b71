package dispatch

import (
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"
)

// Queue runs posted funcs sequentially on one goroutine, in post order.
type Queue struct {
	name    string
	mu      sync.Mutex
	tasks   []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	pending *tracker
	panics  io.Writer
}

// NewQueue starts a queue. Panics in tasks are recovered and reported to panics
// (may be nil) so one bad callback cannot take the loop down.
func NewQueue(name string, panics io.Writer) *Queue {
	q := &Queue{
		name:    name,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		pending: newTracker(),
		panics:  panics,
	}
	go q.loop()
	return q
}

func (q *Queue) Post(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.pending.add()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

func (q *Queue) PostDelayed(d time.Duration, fn func()) *Timer {
	return postDelayed(q, q.pending, d, fn)
}

// Wait blocks until every posted task, delayed ones included, has run.
func (q *Queue) Wait() { q.pending.wait() }

// Idle reports whether no task is queued, running or scheduled.
func (q *Queue) Idle() bool { return q.pending.idle() }

// Close stops accepting work. Already queued tasks still run.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Done is closed once the queue is closed and drained.
func (q *Queue) Done() <-chan struct{} { return q.done }

func (q *Queue) loop() {
	for {
		q.mu.Lock()
		for len(q.tasks) == 0 && !q.closed {
			q.mu.Unlock()
			<-q.wake
			q.mu.Lock()
		}
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			close(q.done)
			return
		}
		fn := q.tasks[0]
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		q.run(fn)
		q.pending.done()
	}
}

func (q *Queue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil && q.panics != nil {
			fmt.Fprintf(q.panics, "%s: recovered panic: %v\n%s", q.name, r, debug.Stack())
		}
	}()
	fn()
}
