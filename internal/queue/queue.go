// Package queue provides the FIFO work queue that backs host devices.
//
// A Queue owns exactly one worker goroutine. Work items run one at a time
// in submission order. Join is a full barrier: it returns once the queue
// is empty and the worker is idle.
package queue

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kmc7468/ShitAIMaker-sub000/internal/compute"
)

// Queue serializes work onto a dedicated worker goroutine.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []func()
	running bool // worker is executing an item
	closing bool
	err     error // first failure since the last Join

	done   chan struct{}
	logger zerolog.Logger
}

// New starts a queue and its worker goroutine.
func New(logger zerolog.Logger) *Queue {
	q := &Queue{
		done:   make(chan struct{}),
		logger: logger,
	}
	q.cond = sync.NewCond(&q.mu)
	go q.worker()
	return q
}

// AddWork appends f to the tail of the queue. It never blocks on running work.
// Adding work after Close panics with a *compute.ContractViolation.
func (q *Queue) AddWork(f func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	compute.Require(!q.closing, "AddWork", "queue is closed")
	q.items = append(q.items, f)
	// Broadcast: Join waiters share the condition with the worker.
	q.cond.Broadcast()
}

// Join blocks until every item submitted before the call has run.
// It returns the first work failure recorded since the previous Join.
func (q *Queue) Join() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) > 0 || q.running {
		q.cond.Wait()
	}
	err := q.err
	q.err = nil
	return err
}

// Pending returns the number of queued items, excluding a running one.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting work, lets the worker drain what is queued and
// waits for it to exit. No item runs after Close returns.
func (q *Queue) Close() error {
	q.mu.Lock()
	if !q.closing {
		q.closing = true
		q.cond.Broadcast()
	}
	q.mu.Unlock()

	<-q.done

	q.mu.Lock()
	defer q.mu.Unlock()
	err := q.err
	q.err = nil
	return err
}

func (q *Queue) worker() {
	defer close(q.done)

	q.mu.Lock()
	for {
		for len(q.items) == 0 && !q.closing {
			// Observed empty: wake Join waiters before blocking.
			q.cond.Broadcast()
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.logger.Debug().Msg("queue worker exiting")
			q.cond.Broadcast()
			q.mu.Unlock()
			return
		}

		f := q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
		q.running = true
		q.mu.Unlock()

		err := q.run(f)

		q.mu.Lock()
		q.running = false
		if err != nil && q.err == nil {
			q.err = err
		}
	}
}

// run executes one item, converting a panic into an error.
func (q *Queue) run(f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: work item panicked: %v", r)
			q.logger.Error().Interface("panic", r).Msg("work item panicked")
		}
	}()
	f()
	return nil
}
