package sched

import (
	"context"
	"sync"
	"time"
)

// Loop is a cooperative task queue. Tasks run one at a time on whichever
// goroutine drives the loop (Run, Settle or RunPending); only one driver
// may be active at a time.
type Loop struct {
	clock Clock

	mu       sync.Mutex
	queue    []func()
	inflight int
	wake     chan struct{}
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock used by AfterFunc. Defaults to RealClock.
func WithClock(c Clock) Option {
	return func(l *Loop) {
		if c != nil {
			l.clock = c
		}
	}
}

// NewLoop creates an idle loop.
func NewLoop(opts ...Option) *Loop {
	l := &Loop{
		clock: RealClock{},
		wake:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Clock returns the loop's clock.
func (l *Loop) Clock() Clock { return l.clock }

// Post enqueues fn. It is safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
}

// AfterFunc posts fn to the loop once d has elapsed on the loop's clock.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return l.clock.AfterFunc(d, func() { l.Post(fn) })
}

// RunPending runs queued tasks, including tasks they post, until the queue
// is empty. It does not wait for in-flight work and returns the number of
// tasks run.
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		n++
	}
}

// Settle runs queued tasks and waits until no task is queued and no work
// started with Go is outstanding. Armed timers are not waited for.
func (l *Loop) Settle(ctx context.Context) error {
	for {
		l.RunPending()
		if l.idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Run drives the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Inflight returns the number of outstanding Go calls.
func (l *Loop) Inflight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight
}

func (l *Loop) idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) == 0 && l.inflight == 0
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Go runs work on its own goroutine and posts then(result, err) back to the
// loop. Settle waits for the continuation to run.
func Go[T any](l *Loop, work func() (T, error), then func(T, error)) {
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	go func() {
		v, err := work()
		l.mu.Lock()
		l.inflight--
		l.queue = append(l.queue, func() { then(v, err) })
		l.mu.Unlock()
		l.signal()
	}()
}
