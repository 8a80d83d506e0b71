package dispatch

import (
	"context"
	"fmt"
	"io"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers is the pool size used when none is configured.
const DefaultWorkers = 4

// Pool runs posted funcs concurrently, at most n at a time.
type Pool struct {
	sem     *semaphore.Weighted
	mu      sync.RWMutex
	closed  bool
	pending *tracker
	panics  io.Writer
}

// NewPool creates a pool with n workers (DefaultWorkers if n < 1).
func NewPool(n int, panics io.Writer) *Pool {
	if n < 1 {
		n = DefaultWorkers
	}
	return &Pool{
		sem:     semaphore.NewWeighted(int64(n)),
		pending: newTracker(),
		panics:  panics,
	}
}

func (p *Pool) Post(fn func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.pending.add()
	go func() {
		defer p.pending.done()
		// Background never cancels, so Acquire only fails on misuse
		if err := p.sem.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer p.sem.Release(1)
		p.run(fn)
	}()
	return true
}

func (p *Pool) PostDelayed(d time.Duration, fn func()) *Timer {
	return postDelayed(p, p.pending, d, fn)
}

// Wait blocks until every posted task, delayed ones included, has finished.
func (p *Pool) Wait() { p.pending.wait() }

// Idle reports whether no task is queued, running or scheduled.
func (p *Pool) Idle() bool { return p.pending.idle() }

// Close stops accepting work. Running tasks are not interrupted.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *Pool) run(fn func()) {
	defer func() {
		if r := recover(); r != nil && p.panics != nil {
			fmt.Fprintf(p.panics, "pool: recovered panic: %v\n%s", r, debug.Stack())
		}
	}()
	fn()
}
