package eventloop

import (
	"context"
	"sync"
	"time"

	"msaf/pkg/logging"
)

const subsystem = "EventLoop"

// Loop is the single-threaded cooperative dispatcher described in
// spec.md §4.9 and §5. Every state transition on a ProvisioningSession,
// ASNode or PCFSession must run as a closure posted to the Loop so it
// executes on the one worker goroutine.
type Loop struct {
	events chan func()
	done   chan struct{}
	wg     sync.WaitGroup
}

// New returns a Loop with the given event queue depth.
func New(queueDepth int) *Loop {
	return &Loop{
		events: make(chan func(), queueDepth),
		done:   make(chan struct{}),
	}
}

// Post enqueues fn to run on the worker goroutine. Safe to call from any
// goroutine, including from within a running event itself and from
// completion callbacks of suspended I/O (§5's suspension points).
func (l *Loop) Post(fn func()) {
	select {
	case l.events <- fn:
	case <-l.done:
		logging.Warn(subsystem, "dropped event posted after shutdown")
	}
}

// Run drains the event queue until ctx is cancelled or Stop is called.
// Each event runs to completion before the next is dequeued, matching
// spec.md §4.9 exactly.
func (l *Loop) Run(ctx context.Context) {
	l.wg.Add(1)
	defer l.wg.Done()

	for {
		select {
		case fn := <-l.events:
			fn()
		case <-ctx.Done():
			return
		case <-l.done:
			return
		}
	}
}

// Stop signals Run to return after the current event finishes and waits
// for it to do so.
func (l *Loop) Stop() {
	close(l.done)
	l.wg.Wait()
}

// AfterFunc schedules fn to be posted to the loop after d elapses — the
// single mechanism behind M3 backoff retries and delivery-boost expiry.
// The timer itself fires on its own goroutine; fn still only ever runs on
// the worker goroutine.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

// Go runs fn on a new goroutine and posts continuation(result-closure)
// back onto the loop once fn returns, implementing the suspend/resume
// pattern for outbound HTTP calls (M3, PCF, BSF) and certmgr invocations.
// fn must not touch any state the loop protects; continuation may.
func (l *Loop) Go(fn func() func()) {
	go func() {
		continuation := fn()
		if continuation != nil {
			l.Post(continuation)
		}
	}()
}
