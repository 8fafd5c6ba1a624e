// ABOUTME: Unbounded multi-producer single-consumer mailbox with a ready signal
// ABOUTME: Moves inbound messages from the poller to the UI goroutine without blocking

package dispatch

import (
	"errors"
	"sync"

	"github.com/2389/quickreply/internal/remote"
)

// ErrClosed is returned by Deliver after Close.
var ErrClosed = errors.New("mailbox closed")

// Inbound is a message on its way to the conversation store.
type Inbound struct {
	Conversation remote.ConversationID
	DisplayName  string
	Text         string
}

// Mailbox queues values for a single consumer. The zero value is not usable;
// create one with New.
type Mailbox[T any] struct {
	mu      sync.Mutex
	pending []T
	closed  bool
	ready   chan struct{}
}

// New creates an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Deliver appends v and wakes the consumer. It never blocks on the consumer.
func (m *Mailbox[T]) Deliver(v T) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.pending = append(m.pending, v)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
		// a wake-up is already pending
	}
	return nil
}

// Ready is signalled when items may be pending.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.ready
}

// Drain removes and returns all pending items in delivery order.
func (m *Mailbox[T]) Drain() []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := m.pending
	m.pending = nil
	return out
}

// Len returns the number of pending items.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Close rejects further deliveries. Items already queued stay drainable.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
