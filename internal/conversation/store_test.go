// ABOUTME: Tests for the conversation store
// ABOUTME: Covers creation, display name invariance, append order, echoes, selection, rendering

package conversation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/quickreply/internal/remote"
)

const (
	convA remote.ConversationID = 101
	convB remote.ConversationID = 202
)

// recordingRenderer captures renderer callbacks as strings.
type recordingRenderer struct {
	calls []string
}

func (r *recordingRenderer) ConversationAdded(id remote.ConversationID, displayName string) {
	r.calls = append(r.calls, fmt.Sprintf("added %d %s", id, displayName))
}

func (r *recordingRenderer) EntryAppended(id remote.ConversationID, e Entry, outbound bool) {
	dir := "in"
	if outbound {
		dir = "out"
	}
	r.calls = append(r.calls, fmt.Sprintf("append %s %d %s", dir, id, e))
}

func (r *recordingRenderer) Selected(id remote.ConversationID, displayName string, history []Entry) {
	r.calls = append(r.calls, fmt.Sprintf("selected %d %s %d", id, displayName, len(history)))
}

func TestStore_InboundCreatesConversation(t *testing.T) {
	s := New(Options{})

	e := s.OnInbound(convA, "alice", "hi")

	assert.Equal(t, Entry{Author: "alice", Text: "hi"}, e)
	assert.Equal(t, []Entry{{Author: "alice", Text: "hi"}}, s.HistoryOf(convA))
	assert.Equal(t, "alice", s.DisplayNameOf(convA))
	assert.Len(t, s.Conversations(), 1)
}

func TestStore_DisplayNameIsFixedAtCreation(t *testing.T) {
	s := New(Options{})

	s.OnInbound(convA, "alice", "one")
	e := s.OnInbound(convA, "alice_renamed", "two")

	assert.Equal(t, "alice", s.DisplayNameOf(convA))
	assert.Equal(t, "alice", e.Author, "entries use the original display name")
	assert.Equal(t, []Entry{
		{Author: "alice", Text: "one"},
		{Author: "alice", Text: "two"},
	}, s.HistoryOf(convA))
}

func TestStore_EmptyDisplayNameFallsBackToID(t *testing.T) {
	s := New(Options{})

	s.OnInbound(convB, "", "hello")
	assert.Equal(t, "202", s.DisplayNameOf(convB))
}

func TestStore_HistoryKeepsCallOrderAcrossKinds(t *testing.T) {
	s := New(Options{})

	s.OnInbound(convA, "alice", "1")
	s.OnOutboundEcho(convA, "2")
	s.OnInbound(convB, "bob", "x")
	s.OnInbound(convA, "alice", "3")
	s.OnOutboundEcho(convA, "4")

	assert.Equal(t, []Entry{
		{Author: "alice", Text: "1"},
		{Author: DefaultLocalAuthor, Text: "2"},
		{Author: "alice", Text: "3"},
		{Author: DefaultLocalAuthor, Text: "4"},
	}, s.HistoryOf(convA))
	assert.Equal(t, []Entry{{Author: "bob", Text: "x"}}, s.HistoryOf(convB))
}

func TestStore_DuplicateInboundAppendsTwice(t *testing.T) {
	s := New(Options{})

	s.OnInbound(convA, "alice", "same")
	s.OnInbound(convA, "alice", "same")

	assert.Len(t, s.HistoryOf(convA), 2)
}

func TestStore_EchoToUnknownCreatesConversation(t *testing.T) {
	s := New(Options{LocalAuthor: "me"})

	s.OnOutboundEcho(convB, "ok")

	assert.Equal(t, "202", s.DisplayNameOf(convB))
	assert.Equal(t, []Entry{{Author: "me", Text: "ok"}}, s.HistoryOf(convB))
	assert.Equal(t, "me", s.LocalAuthor())
}

func TestStore_UnknownReadsAreEmpty(t *testing.T) {
	s := New(Options{})

	assert.Nil(t, s.HistoryOf(999))
	assert.Equal(t, "", s.DisplayNameOf(999))
	assert.Empty(t, s.Conversations())
}

func TestStore_HistoryOfReturnsCopy(t *testing.T) {
	s := New(Options{})
	s.OnInbound(convA, "alice", "original")

	h := s.HistoryOf(convA)
	h[0].Text = "mutated"

	assert.Equal(t, "original", s.HistoryOf(convA)[0].Text)
}

func TestStore_ConversationsInCreationOrder(t *testing.T) {
	s := New(Options{})

	s.OnInbound(convB, "bob", "1")
	s.OnInbound(convA, "alice", "2")
	s.OnInbound(convB, "bob", "3")

	assert.Equal(t, []Summary{
		{ID: convB, DisplayName: "bob", Entries: 2},
		{ID: convA, DisplayName: "alice", Entries: 1},
	}, s.Conversations())
}

func TestStore_Selection(t *testing.T) {
	s := New(Options{})

	_, ok := s.Selection()
	assert.False(t, ok)

	err := s.Select(convA)
	require.ErrorIs(t, err, ErrUnknownConversation)
	assert.ErrorIs(t, err, remote.ErrValidation)
	assert.Equal(t, "validation", remote.KindOf(err))

	s.OnInbound(convA, "alice", "hi")
	require.NoError(t, s.Select(convA))

	id, ok := s.Selection()
	assert.True(t, ok)
	assert.Equal(t, convA, id)

	s.ClearSelection()
	_, ok = s.Selection()
	assert.False(t, ok)
}

func TestStore_RendererSurfacesSelectedEntriesOnly(t *testing.T) {
	r := &recordingRenderer{}
	s := New(Options{Renderer: r})

	s.OnInbound(convA, "alice", "a1")
	s.OnInbound(convB, "bob", "b1")
	require.NoError(t, s.Select(convA))
	s.OnInbound(convA, "alice", "a2")
	s.OnInbound(convB, "bob", "b2")
	s.OnOutboundEcho(convA, "reply")

	assert.Equal(t, []string{
		"added 101 alice",
		"added 202 bob",
		"selected 101 alice 1",
		"append in 101 alice: a2",
		"append out 101 Вы: reply",
	}, r.calls)
}

func TestStore_InboundFromLocalAuthorNameIsNotOutbound(t *testing.T) {
	r := &recordingRenderer{}
	s := New(Options{Renderer: r})

	s.OnInbound(convA, DefaultLocalAuthor, "hello")
	require.NoError(t, s.Select(convA))
	s.OnInbound(convA, DefaultLocalAuthor, "again")
	s.OnOutboundEcho(convA, "mine")

	assert.Equal(t, []string{
		"added 101 Вы",
		"selected 101 Вы 1",
		"append in 101 Вы: again",
		"append out 101 Вы: mine",
	}, r.calls)
}

func TestStore_SetRenderer(t *testing.T) {
	s := New(Options{})
	s.OnInbound(convA, "alice", "before")

	r := &recordingRenderer{}
	s.SetRenderer(r)
	require.NoError(t, s.Select(convA))
	s.SetRenderer(nil)
	s.OnInbound(convA, "alice", "after")

	assert.Equal(t, []string{"selected 101 alice 1"}, r.calls)
}

func TestEntry_String(t *testing.T) {
	assert.Equal(t, "Вы: ok", Entry{Author: "Вы", Text: "ok"}.String())
}
