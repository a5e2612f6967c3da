// Package notifier broadcasts database-change pings to SSE subscribers.
package notifier

import "sync"

// Notifier fans out change signals to all subscribers. Subscribers receive
// an empty struct when the connection state or the underlying database file
// changed and should re-render from current state.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[chan struct{}]struct{}
}

// New creates an empty Notifier.
func New() *Notifier {
	return &Notifier{
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// Subscribe registers a new listener. Callers must Unsubscribe when done.
func (n *Notifier) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.subscribers[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a listener channel.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.subscribers, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast pings every subscriber without blocking; a subscriber whose
// buffer is full already has a pending ping and will catch up.
func (n *Notifier) Broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
