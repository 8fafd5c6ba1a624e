// ABOUTME: Tests for the dispatch mailbox
// ABOUTME: Covers FIFO order, coalesced wake-ups, per-producer order under concurrency, close

package dispatch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/quickreply/internal/remote"
)

func TestMailbox_DrainReturnsDeliveryOrder(t *testing.T) {
	box := New[Inbound]()

	require.NoError(t, box.Deliver(Inbound{Conversation: 1, DisplayName: "a", Text: "one"}))
	require.NoError(t, box.Deliver(Inbound{Conversation: 2, DisplayName: "b", Text: "two"}))
	require.NoError(t, box.Deliver(Inbound{Conversation: 1, DisplayName: "a", Text: "three"}))

	got := box.Drain()
	require.Len(t, got, 3)
	assert.Equal(t, "one", got[0].Text)
	assert.Equal(t, "two", got[1].Text)
	assert.Equal(t, "three", got[2].Text)

	assert.Empty(t, box.Drain())
	assert.Equal(t, 0, box.Len())
}

func TestMailbox_ReadyCoalesces(t *testing.T) {
	box := New[int]()

	for i := range 10 {
		require.NoError(t, box.Deliver(i))
	}

	select {
	case <-box.Ready():
	case <-time.After(time.Second):
		t.Fatal("expected ready signal")
	}

	// One wake-up for ten deliveries.
	select {
	case <-box.Ready():
		t.Fatal("ready should have coalesced")
	default:
	}

	assert.Len(t, box.Drain(), 10)
}

func TestMailbox_DeliverNeverBlocksWithoutConsumer(t *testing.T) {
	box := New[int]()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 10_000 {
			_ = box.Deliver(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Deliver blocked with no consumer")
	}
	assert.Equal(t, 10_000, box.Len())
}

func TestMailbox_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	box := New[Inbound]()

	const producers = 8
	const perProducer = 500

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := range producers {
		go func(id remote.ConversationID) {
			defer wg.Done()
			for i := range perProducer {
				_ = box.Deliver(Inbound{Conversation: id, Text: string(rune('a' + i%26)), DisplayName: "n"})
			}
		}(remote.ConversationID(p))
	}

	// Consume concurrently with production.
	var got []Inbound
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for len(got) < producers*perProducer {
			select {
			case <-box.Ready():
				got = append(got, box.Drain()...)
			case <-time.After(2 * time.Second):
				return
			}
		}
	}()

	wg.Wait()
	<-consumed

	require.Len(t, got, producers*perProducer)

	next := make(map[remote.ConversationID]int)
	for _, in := range got {
		i := next[in.Conversation]
		assert.Equal(t, string(rune('a'+i%26)), in.Text, "conversation %d out of order at %d", in.Conversation, i)
		next[in.Conversation] = i + 1
	}
}

func TestMailbox_Close(t *testing.T) {
	box := New[int]()

	require.NoError(t, box.Deliver(1))
	box.Close()

	assert.ErrorIs(t, box.Deliver(2), ErrClosed)
	assert.Equal(t, []int{1}, box.Drain(), "queued items survive Close")
}

func TestMailbox_DuplicatesAreNotCollapsed(t *testing.T) {
	box := New[Inbound]()
	in := Inbound{Conversation: 5, DisplayName: "x", Text: "same"}

	require.NoError(t, box.Deliver(in))
	require.NoError(t, box.Deliver(in))

	assert.Equal(t, []Inbound{in, in}, box.Drain())
}
