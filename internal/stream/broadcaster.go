// Package stream fans session snapshots out to remote displays over
// Server-Sent Events and WebRTC data channels.
package stream

import (
	"sync"

	"github.com/satindergrewal/calmwave/internal/session"
)

// listenerBuffer is how many snapshots a listener may lag behind.
const listenerBuffer = 16

// Broadcaster fans out snapshots from one controller to N listeners.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}
	last      session.Snapshot
	hasLast   bool
}

// Listener receives snapshots from the broadcaster.
type Listener struct {
	C    chan session.Snapshot
	done chan struct{}
	once sync.Once
}

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// NewBroadcaster creates a new broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener. The most recent snapshot, if any, is
// queued immediately so late joiners start from current state.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan session.Snapshot, listenerBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	if b.hasLast {
		l.C <- b.last
	}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes a listener and signals it to stop. Safe to call twice.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	l.once.Do(func() { close(l.done) })
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Last returns the most recently published snapshot.
func (b *Broadcaster) Last() (session.Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.hasLast
}

// Publish delivers s to every listener without blocking. A listener whose
// buffer is full loses its oldest queued snapshot so it always ends on the
// latest state.
func (b *Broadcaster) Publish(s session.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last, b.hasLast = s, true
	for l := range b.listeners {
		select {
		case l.C <- s:
			continue
		default:
		}
		select {
		case <-l.C:
		default:
		}
		select {
		case l.C <- s:
		default:
		}
	}
}
