// ABOUTME: End-to-end tests for the relay session over a fake remote source
// ABOUTME: Covers inbound flow into the store, selection, replies and shutdown

package relay

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/quickreply/internal/conversation"
	"github.com/2389/quickreply/internal/poller"
	"github.com/2389/quickreply/internal/remote"
	"github.com/2389/quickreply/internal/sender"
)

const (
	convA remote.ConversationID = 555
	convB remote.ConversationID = 777
)

func newRelay(t *testing.T, src *remote.FakeSource) *Relay {
	t.Helper()
	r := New(src, Options{
		Poller: poller.Options{
			WaitTimeout: 5 * time.Millisecond,
			Interval:    time.Millisecond,
		},
	})
	return r
}

func start(t *testing.T, r *Relay) {
	t.Helper()
	require.NoError(t, r.Start(t.Context()))
	t.Cleanup(func() {
		r.Stop()
		waitDone(t, r)
	})
}

func waitDone(t *testing.T, r *Relay) {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- r.Wait() }()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

// pumpUntil pumps from the UI side until n messages have been moved.
func pumpUntil(t *testing.T, r *Relay, n int) {
	t.Helper()
	moved := 0
	deadline := time.After(2 * time.Second)
	for moved < n {
		select {
		case <-r.Ready():
			moved += r.Pump()
		case <-deadline:
			t.Fatalf("pumped %d messages, want %d", moved, n)
		}
	}
}

func TestRelay_InboundReachesStore(t *testing.T) {
	src := remote.NewFakeSource(remote.FetchResult{Updates: []remote.Update{
		remote.TextMessage(5, convA, "alice", "hi"),
	}})
	r := newRelay(t, src)
	start(t, r)

	pumpUntil(t, r, 1)

	assert.Equal(t, []conversation.Entry{{Author: "alice", Text: "hi"}}, r.HistoryOf(convA))
	assert.Equal(t, "alice", r.DisplayNameOf(convA))
	assert.Eventually(t, func() bool { return r.Cursor() == 6 }, time.Second, time.Millisecond)
}

func TestRelay_ReplayedSequenceStillDelivered(t *testing.T) {
	src := remote.NewFakeSource(
		remote.FetchResult{Updates: []remote.Update{remote.TextMessage(1, convA, "alice", "one")}},
		remote.FetchResult{Updates: []remote.Update{remote.TextMessage(0, convA, "alice", "zero")}},
	)
	r := newRelay(t, src)
	start(t, r)

	pumpUntil(t, r, 2)

	assert.Equal(t, int64(2), r.Cursor())
	assert.Equal(t, []conversation.Entry{
		{Author: "alice", Text: "one"},
		{Author: "alice", Text: "zero"},
	}, r.HistoryOf(convA))
}

func TestRelay_ListenersAndConversationOrder(t *testing.T) {
	src := remote.NewFakeSource(remote.FetchResult{Updates: []remote.Update{
		remote.TextMessage(1, convB, "bob", "b1"),
		remote.TextMessage(2, convA, "alice", "a1"),
		{Seq: 3},
		remote.TextMessage(4, convB, "bob", "b2"),
	}})
	r := newRelay(t, src)

	var seen []string
	r.OnInbound(func(id remote.ConversationID, e conversation.Entry) {
		seen = append(seen, id.String()+" "+e.String())
	})
	start(t, r)

	pumpUntil(t, r, 3)

	assert.Equal(t, []string{"777 bob: b1", "555 alice: a1", "777 bob: b2"}, seen)
	assert.Equal(t, []conversation.Summary{
		{ID: convB, DisplayName: "bob", Entries: 2},
		{ID: convA, DisplayName: "alice", Entries: 1},
	}, r.Conversations())
	assert.Eventually(t, func() bool { return r.Cursor() == 5 }, time.Second, time.Millisecond)
}

func TestRelay_SendReplyRequiresSelection(t *testing.T) {
	src := remote.NewFakeSource()
	r := newRelay(t, src)

	err := r.SendReply("hello")
	require.ErrorIs(t, err, ErrNoSelection)
	assert.ErrorIs(t, err, remote.ErrValidation)

	require.NoError(t, r.Wait())
	assert.Zero(t, src.SendCalls())
}

func TestRelay_SelectUnknownConversation(t *testing.T) {
	r := newRelay(t, remote.NewFakeSource())

	err := r.SelectConversation(convA)
	require.ErrorIs(t, err, conversation.ErrUnknownConversation)
	assert.ErrorIs(t, err, remote.ErrValidation)
	_, ok := r.Selection()
	assert.False(t, ok)
}

func TestRelay_ReplyToSelectedConversation(t *testing.T) {
	src := remote.NewFakeSource(remote.FetchResult{Updates: []remote.Update{
		remote.TextMessage(1, convA, "alice", "hi"),
	}})
	r := newRelay(t, src)
	start(t, r)
	pumpUntil(t, r, 1)

	require.NoError(t, r.SelectConversation(convA))
	require.NoError(t, r.SendReply("ok"))

	assert.Equal(t, []conversation.Entry{
		{Author: "alice", Text: "hi"},
		{Author: conversation.DefaultLocalAuthor, Text: "ok"},
	}, r.HistoryOf(convA))

	assert.Eventually(t, func() bool { return len(src.Sent()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, remote.SentMessage{Conversation: convA, Text: "ok"}, src.Sent()[0])
}

func TestRelay_EmptyReplyRejectedWithoutMutation(t *testing.T) {
	src := remote.NewFakeSource()
	r := newRelay(t, src)

	err := r.SendTo(convB, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, remote.ErrValidation)

	require.NoError(t, r.Wait())
	assert.Nil(t, r.HistoryOf(convB))
	assert.Zero(t, src.SendCalls())
}

func TestRelay_FailedSendStillEchoes(t *testing.T) {
	src := remote.NewFakeSource()
	src.FailSends(remote.TransportError("send", errors.New("network down")))
	r := newRelay(t, src)

	require.NoError(t, r.SendTo(convA, "ok"))
	require.NoError(t, r.Wait())

	assert.Equal(t, []conversation.Entry{
		{Author: conversation.DefaultLocalAuthor, Text: "ok"},
	}, r.HistoryOf(convA))
	assert.Equal(t, 1, src.SendCalls())
}

func TestRelay_PollingContinuesThroughFailures(t *testing.T) {
	src := remote.NewFakeSource(
		remote.FetchResult{Err: remote.TransportError("fetch", errors.New("timeout"))},
		remote.FetchResult{Err: remote.ServiceError("fetch", 502, errors.New("bad gateway"))},
		remote.FetchResult{Updates: []remote.Update{remote.TextMessage(9, convA, "alice", "back")}},
	)
	r := newRelay(t, src)
	start(t, r)

	pumpUntil(t, r, 1)
	assert.Equal(t, "back", r.HistoryOf(convA)[0].Text)
	assert.Equal(t, uint64(2), r.Stats().Failures)
}

func TestRelay_StartTwice(t *testing.T) {
	r := newRelay(t, remote.NewFakeSource())
	start(t, r)

	assert.ErrorIs(t, r.Start(t.Context()), ErrAlreadyStarted)
}

func TestRelay_StopEndsPoller(t *testing.T) {
	r := newRelay(t, remote.NewFakeSource())
	require.NoError(t, r.Start(t.Context()))

	r.Stop()
	waitDone(t, r)

	select {
	case <-r.Done():
	default:
		t.Fatal("Done not closed after Wait")
	}
	assert.Equal(t, poller.StateStopped, r.State())
}

func TestRelay_ClearSelection(t *testing.T) {
	src := remote.NewFakeSource(remote.FetchResult{Updates: []remote.Update{
		remote.TextMessage(1, convA, "alice", "hi"),
	}})
	r := newRelay(t, src)
	start(t, r)
	pumpUntil(t, r, 1)

	require.NoError(t, r.SelectConversation(convA))
	r.ClearSelection()

	_, ok := r.Selection()
	assert.False(t, ok)
	require.ErrorIs(t, r.SendReply("ok"), ErrNoSelection)
	assert.Len(t, r.HistoryOf(convA), 1)
}

func TestRelay_RepliesRejectedAfterWait(t *testing.T) {
	src := remote.NewFakeSource(remote.FetchResult{Updates: []remote.Update{
		remote.TextMessage(1, convA, "alice", "hi"),
	}})
	r := newRelay(t, src)
	require.NoError(t, r.Start(t.Context()))
	pumpUntil(t, r, 1)
	require.NoError(t, r.SelectConversation(convA))

	r.Stop()
	waitDone(t, r)

	require.ErrorIs(t, r.SendReply("too late"), sender.ErrClosed)
	assert.Equal(t, []conversation.Entry{{Author: "alice", Text: "hi"}}, r.HistoryOf(convA))
	assert.Zero(t, src.SendCalls())
}
