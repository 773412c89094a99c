// internal/worker/pool.go
//
// Fixed-size worker pool for fire-and-forget request dispatch.
//
// Context
// -------
// The engine's async entry point offloads whole-request lifecycles
// here.  The pool is deliberately explicit — a bounded queue drained by
// N goroutines — rather than an unbounded `go func()` per request, so
// saturation is a visible, testable failure instead of silent memory
// growth.  No two workers ever share a lifecycle context; the task is
// the whole request.
package worker

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// Submit errors.
var (
	ErrStopped   = errors.New("worker: pool stopped")
	ErrSaturated = errors.New("worker: queue full")
)

// Pool runs submitted tasks on a fixed set of goroutines.
type Pool struct {
	mu      sync.Mutex
	tasks   chan func()
	stopped bool
	wg      sync.WaitGroup
}

// New starts a pool with the given worker count and queue depth.
// Values below one are clamped to one.
func New(workers, queue int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queue < 1 {
		queue = 1
	}
	p := &Pool{tasks: make(chan func(), queue)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run()
	}
	return p
}

func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit enqueues task.  Fails fast with ErrSaturated when the queue is
// full and ErrStopped after Stop; it never blocks the caller.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrSaturated
	}
}

// Stop closes the queue and waits for queued and in-flight tasks to
// finish.  Safe to call once; later Submits fail with ErrStopped.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
