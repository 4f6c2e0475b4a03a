// Package renderqueue provides the serial queue that runs frame ticks and the
// control calls marshalled onto them.
//
// One goroutine owns both the periodic ticker and the job channel, so a tick
// and a job never run at the same time and ticks never overlap. A tick that
// takes longer than the interval delays the next one; missed ticks are
// coalesced by the ticker instead of queueing up.
package renderqueue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	// ErrNotStarted is returned when work is submitted before Start.
	ErrNotStarted = errors.New("renderqueue: not started")
	// ErrStopped is returned when work is submitted after Stop.
	ErrStopped = errors.New("renderqueue: stopped")
	// ErrInvalidInterval is returned when arming with a non-positive interval.
	ErrInvalidInterval = errors.New("renderqueue: interval must be positive")
)

// Queue is a serial executor with one optional periodic ticker.
type Queue struct {
	clock clockwork.Clock
	jobs  chan func()

	// Owned by the loop goroutine.
	ticker   clockwork.Ticker
	interval time.Duration
	onTick   func()

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// New creates a Queue driven by clock. A nil clock uses the real clock.
func New(clock clockwork.Clock) *Queue {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Queue{
		clock: clock,
		jobs:  make(chan func()),
	}
}

// Start spawns the loop goroutine. The loop ends when ctx is cancelled or Stop is called.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return ErrStopped
	}
	if q.started {
		return nil
	}

	q.ctx, q.cancel = context.WithCancel(ctx)
	q.started = true

	q.wg.Add(1)
	go q.loop()

	return nil
}

// Stop ends the loop and waits for it. An in-flight job or tick runs to
// completion first. Stop must not be called from the queue itself.
// Idempotent.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.stopped = true
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
}

// Do runs fn on the queue and waits for it to return.
// Do must not be called from the queue itself.
func (q *Queue) Do(fn func()) error {
	ctx, err := q.context()
	if err != nil {
		return err
	}

	done := make(chan struct{})
	job := func() {
		defer close(done)
		fn()
	}

	select {
	case q.jobs <- job:
	case <-ctx.Done():
		return ErrStopped
	}

	// The loop received the job and runs it synchronously.
	<-done
	return nil
}

// Arm starts the periodic ticker calling fn every interval, replacing any
// previous ticker. The first call happens one interval after arming.
// Must be called on the queue.
func (q *Queue) Arm(interval time.Duration, fn func()) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	q.Disarm()
	q.ticker = q.clock.NewTicker(interval)
	q.interval = interval
	q.onTick = fn
	return nil
}

// Disarm cancels the ticker. Pending ticks are dropped. Must be called on the queue.
func (q *Queue) Disarm() {
	if q.ticker != nil {
		q.ticker.Stop()
		q.ticker = nil
	}
	q.interval = 0
	q.onTick = nil
}

// Armed reports whether a ticker is active. Must be called on the queue.
func (q *Queue) Armed() bool {
	return q.ticker != nil
}

// Interval returns the armed interval, or zero. Must be called on the queue.
func (q *Queue) Interval() time.Duration {
	return q.interval
}

func (q *Queue) context() (context.Context, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.stopped:
		return nil, ErrStopped
	case !q.started:
		return nil, ErrNotStarted
	}
	if q.ctx.Err() != nil {
		return nil, ErrStopped
	}
	return q.ctx, nil
}

func (q *Queue) loop() {
	defer q.wg.Done()
	defer q.Disarm()

	for {
		// Re-read every iteration so a tick left in a cancelled ticker is ignored.
		var tick <-chan time.Time
		if q.ticker != nil {
			tick = q.ticker.Chan()
		}

		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			job()
		case <-tick:
			if q.onTick != nil {
				q.onTick()
			}
		}
	}
}
