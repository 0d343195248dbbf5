// Package loop runs callbacks one at a time on a single goroutine. Every piece
// of session state is mutated from inside the loop, so none of it needs locks.
package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrStopped is returned when posting to a loop that has shut down.
var ErrStopped = errors.New("event loop stopped")

// Loop is a serialized event queue with periodic tasks.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	logger zerolog.Logger

	mu      sync.Mutex
	tickers map[*ticker]struct{}
	stopped bool
}

type ticker struct {
	period time.Duration
	fn     func()
	stop   chan struct{}
	dead   atomic.Bool
}

// New creates a loop with a queue of the given depth.
func New(depth int, logger zerolog.Logger) *Loop {
	if depth <= 0 {
		depth = 64
	}
	return &Loop{
		queue:   make(chan func(), depth),
		done:    make(chan struct{}),
		logger:  logger,
		tickers: make(map[*ticker]struct{}),
	}
}

// Run executes posted callbacks until ctx is cancelled, then stops every
// periodic task. Blocks until shutdown completes.
func (l *Loop) Run(ctx context.Context) {
	defer l.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.queue:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("event loop callback panicked")
		}
	}()
	fn()
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	l.stopped = true
	for t := range l.tickers {
		t.cancel()
	}
	l.tickers = map[*ticker]struct{}{}
	l.mu.Unlock()
	close(l.done)
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Post enqueues fn. It blocks while the queue is full and returns ErrStopped
// once the loop has shut down.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// fn may still have run if it was dequeued before shutdown.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	}
}

// Every schedules fn on the loop once per period until the returned cancel
// function is called. When cancel is called from inside the loop, fn is
// guaranteed not to run again; a tick already queued is discarded.
func (l *Loop) Every(period time.Duration, fn func()) (cancel func()) {
	t := &ticker{period: period, fn: fn, stop: make(chan struct{})}

	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return func() {}
	}
	l.tickers[t] = struct{}{}
	l.mu.Unlock()

	go l.drive(t)

	return func() {
		l.mu.Lock()
		delete(l.tickers, t)
		l.mu.Unlock()
		t.cancel()
	}
}

func (t *ticker) cancel() {
	if t.dead.CompareAndSwap(false, true) {
		close(t.stop)
	}
}

func (l *Loop) drive(t *ticker) {
	tk := time.NewTicker(t.period)
	defer tk.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-tk.C:
		}

		select {
		case l.queue <- func() {
			if !t.dead.Load() {
				t.fn()
			}
		}:
		case <-t.stop:
			return
		case <-l.done:
			return
		}
	}
}

// Active returns the number of live periodic tasks.
func (l *Loop) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tickers)
}
