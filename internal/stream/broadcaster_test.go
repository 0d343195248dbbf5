package stream

import (
	"testing"

	"github.com/satindergrewal/calmwave/internal/mode"
	"github.com/satindergrewal/calmwave/internal/session"
)

func snap(seed int64) session.Snapshot {
	return session.Snapshot{Mode: mode.Focus, Seed: seed, HasSeed: true}
}

func TestNewBroadcaster(t *testing.T) {
	b := NewBroadcaster()
	if b == nil {
		t.Fatal("NewBroadcaster returned nil")
	}
	if b.ListenerCount() != 0 {
		t.Errorf("Initial ListenerCount = %d, want 0", b.ListenerCount())
	}
	if _, ok := b.Last(); ok {
		t.Error("Last reported a snapshot before any publish")
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	l1 := b.Subscribe()
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 subscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}

	l2 := b.Subscribe()
	if b.ListenerCount() != 2 {
		t.Errorf("After 2 subscribes: ListenerCount = %d, want 2", b.ListenerCount())
	}

	b.Unsubscribe(l1)
	if b.ListenerCount() != 1 {
		t.Errorf("After 1 unsubscribe: ListenerCount = %d, want 1", b.ListenerCount())
	}

	b.Unsubscribe(l2)
	b.Unsubscribe(l2)
	if b.ListenerCount() != 0 {
		t.Errorf("After all unsubscribed: ListenerCount = %d, want 0", b.ListenerCount())
	}
}

func TestPublishDeliversToAll(t *testing.T) {
	b := NewBroadcaster()
	listeners := make([]*Listener, 5)
	for i := range listeners {
		listeners[i] = b.Subscribe()
	}

	b.Publish(snap(42))

	for i, l := range listeners {
		select {
		case got := <-l.C:
			if got.Seed != 42 {
				t.Errorf("Listener %d got seed %d, want 42", i, got.Seed)
			}
		default:
			t.Errorf("Listener %d received nothing", i)
		}
	}
}

func TestLateSubscriberGetsLast(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(snap(1))
	b.Publish(snap(2))

	l := b.Subscribe()
	defer b.Unsubscribe(l)
	select {
	case got := <-l.C:
		if got.Seed != 2 {
			t.Errorf("late subscriber got seed %d, want 2", got.Seed)
		}
	default:
		t.Fatal("late subscriber received nothing")
	}
}

func TestSlowListenerEndsOnLatest(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe()
	defer b.Unsubscribe(slow)

	for i := 1; i <= 3*listenerBuffer; i++ {
		b.Publish(snap(int64(i)))
	}

	if got := len(slow.C); got != listenerBuffer {
		t.Fatalf("slow listener holds %d snapshots, want %d", got, listenerBuffer)
	}
	var last session.Snapshot
	for len(slow.C) > 0 {
		last = <-slow.C
	}
	if last.Seed != 3*listenerBuffer {
		t.Errorf("last queued seed = %d, want %d", last.Seed, 3*listenerBuffer)
	}
}

func TestListenerDoneChannel(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()

	b.Unsubscribe(l)

	select {
	case <-l.Done():
	default:
		t.Error("Listener done channel not closed after unsubscribe")
	}
}
