package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBroadcastReachesAllSubscribers(t *testing.T) {
	n := New()

	a := n.Subscribe()
	b := n.Subscribe()
	defer n.Unsubscribe(a)
	defer n.Unsubscribe(b)

	n.Broadcast()

	select {
	case <-a:
	default:
		t.Fatal("subscriber a did not receive ping")
	}
	select {
	case <-b:
	default:
		t.Fatal("subscriber b did not receive ping")
	}
}

func TestBroadcastDoesNotBlockOnFullBuffer(t *testing.T) {
	n := New()

	ch := n.Subscribe()
	defer n.Unsubscribe(ch)

	// Two broadcasts against a buffer of one must not block.
	n.Broadcast()
	n.Broadcast()

	<-ch
	select {
	case <-ch:
		t.Fatal("expected coalesced ping, got a second one")
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	n := New()

	ch := n.Subscribe()
	n.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Broadcast after unsubscribe must not panic.
	n.Broadcast()
}
