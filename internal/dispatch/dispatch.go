// Package dispatch provides the executors appcat schedules work on.
//
// A [Queue] runs posted funcs one at a time on a single goroutine. It plays
// the role of the UI goroutine (all publishes) and of the dedicated search
// worker. A [Pool] runs funcs concurrently with a bounded number of workers
// and is shared by cache I/O and provider queries.
//
// Both reject work once closed: Post returns false and the caller drops the
// task. There is no cancellation beyond that; a delayed post can be stopped
// before it fires through its [Timer].
//
// # Waiting
//
// Tests and one-shot CLI commands need to know when a pipeline has gone
// quiet. [Settle] waits on several executors until all of them are idle at
// the same time, which covers work that hops between them.
package dispatch

import (
	"sync"
	"sync/atomic"
	"time"
)

// Executor runs funcs posted to it.
type Executor interface {
	// Post schedules fn. It returns false if the executor no longer accepts work.
	Post(fn func()) bool
}

// DelayedExecutor can also schedule funcs after a delay.
type DelayedExecutor interface {
	Executor
	PostDelayed(d time.Duration, fn func()) *Timer
}

// Waiter is implemented by executors that can report when they are idle.
type Waiter interface {
	Wait()
	Idle() bool
}

// Settle blocks until every waiter is idle at once.
func Settle(waiters ...Waiter) {
	for {
		for _, w := range waiters {
			w.Wait()
		}
		idle := true
		for _, w := range waiters {
			if !w.Idle() {
				idle = false
				break
			}
		}
		if idle {
			return
		}
	}
}

// tracker counts in-flight tasks, including delayed ones not yet fired.
type tracker struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    int
}

func newTracker() *tracker {
	t := &tracker{}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *tracker) add() {
	t.mu.Lock()
	t.n++
	t.mu.Unlock()
}

func (t *tracker) done() {
	t.mu.Lock()
	t.n--
	if t.n == 0 {
		t.cond.Broadcast()
	}
	t.mu.Unlock()
}

func (t *tracker) wait() {
	t.mu.Lock()
	for t.n > 0 {
		t.cond.Wait()
	}
	t.mu.Unlock()
}

func (t *tracker) idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.n == 0
}

// Timer is a cancellable delayed post.
type Timer struct {
	t       *time.Timer
	settled atomic.Bool
	pending *tracker
}

// Stop prevents the post if it has not fired yet.
// Returns false if the func already ran or was already stopped.
func (t *Timer) Stop() bool {
	if t == nil || !t.settled.CompareAndSwap(false, true) {
		return false
	}
	t.t.Stop()
	t.pending.done()
	return true
}

func postDelayed(e Executor, pending *tracker, d time.Duration, fn func()) *Timer {
	timer := &Timer{pending: pending}
	pending.add()
	timer.t = time.AfterFunc(d, func() {
		if !timer.settled.CompareAndSwap(false, true) {
			return
		}
		// Post registers its own pending task before the delayed one is released
		e.Post(fn)
		pending.done()
	})
	return timer
}
