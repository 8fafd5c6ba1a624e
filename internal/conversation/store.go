// ABOUTME: Single-owner in-memory store of conversations and their history
// ABOUTME: Creates conversations on first contact, appends entries, tracks the selection

package conversation

import (
	"fmt"
	"log/slog"

	"github.com/2389/quickreply/internal/remote"
)

// DefaultLocalAuthor marks entries composed by the local operator.
const DefaultLocalAuthor = "Вы"

// ErrUnknownConversation is returned when selecting an id never seen.
var ErrUnknownConversation = fmt.Errorf("%w: unknown conversation", remote.ErrValidation)

// Entry is one line of history.
type Entry struct {
	Author string
	Text   string
}

// String formats the entry the way it is rendered: "author: text".
func (e Entry) String() string {
	return e.Author + ": " + e.Text
}

// Conversation is the state kept for one remote correspondent.
type Conversation struct {
	ID          remote.ConversationID
	DisplayName string
	History     []Entry
}

// Summary describes a conversation for list views.
type Summary struct {
	ID          remote.ConversationID
	DisplayName string
	Entries     int
}

// Renderer is the presentation layer's view of the store. All methods are
// called on the store's goroutine.
type Renderer interface {
	// ConversationAdded is called once per conversation, in creation order.
	ConversationAdded(id remote.ConversationID, displayName string)

	// EntryAppended is called for entries appended to the selected conversation.
	// outbound is true for echoes of the operator's own messages.
	EntryAppended(id remote.ConversationID, e Entry, outbound bool)

	// Selected is called when the selection changes, with the history to show.
	Selected(id remote.ConversationID, displayName string, history []Entry)
}

// Options configures a Store.
type Options struct {
	LocalAuthor string // defaults to DefaultLocalAuthor
	Renderer    Renderer
	Logger      *slog.Logger
}

// Store owns all conversation state. Not safe for concurrent use.
type Store struct {
	convs       map[remote.ConversationID]*Conversation
	order       []remote.ConversationID
	selected    remote.ConversationID
	hasSelected bool

	localAuthor string
	renderer    Renderer
	logger      *slog.Logger
}

// New creates an empty store.
func New(opts Options) *Store {
	if opts.LocalAuthor == "" {
		opts.LocalAuthor = DefaultLocalAuthor
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		convs:       make(map[remote.ConversationID]*Conversation),
		localAuthor: opts.LocalAuthor,
		renderer:    opts.Renderer,
		logger:      opts.Logger.With("component", "conversation"),
	}
}

// SetRenderer replaces the renderer. Nil disables rendering.
func (s *Store) SetRenderer(r Renderer) {
	s.renderer = r
}

// LocalAuthor returns the author marker used for outbound echoes.
func (s *Store) LocalAuthor() string {
	return s.localAuthor
}

// OnInbound records a message received from id. The conversation is
// created with displayName if id is new; otherwise displayName is ignored.
func (s *Store) OnInbound(id remote.ConversationID, displayName, text string) Entry {
	c := s.ensure(id, displayName)
	e := Entry{Author: c.DisplayName, Text: text}
	s.append(c, e, false)
	return e
}

// OnOutboundEcho records a message the operator is sending to id, before
// the send is known to have succeeded.
func (s *Store) OnOutboundEcho(id remote.ConversationID, text string) Entry {
	c := s.ensure(id, id.String())
	e := Entry{Author: s.localAuthor, Text: text}
	s.append(c, e, true)
	return e
}

// HistoryOf returns a copy of id's history, or nil if id is unknown.
func (s *Store) HistoryOf(id remote.ConversationID) []Entry {
	c, ok := s.convs[id]
	if !ok || len(c.History) == 0 {
		return nil
	}
	return append([]Entry(nil), c.History...)
}

// DisplayNameOf returns id's display name, or "" if id is unknown.
func (s *Store) DisplayNameOf(id remote.ConversationID) string {
	if c, ok := s.convs[id]; ok {
		return c.DisplayName
	}
	return ""
}

// Conversations lists conversations in creation order.
func (s *Store) Conversations() []Summary {
	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		c := s.convs[id]
		out = append(out, Summary{ID: c.ID, DisplayName: c.DisplayName, Entries: len(c.History)})
	}
	return out
}

// Select makes id the active conversation and replays its history to the
// renderer. Selecting an id never seen fails with ErrUnknownConversation.
func (s *Store) Select(id remote.ConversationID) error {
	c, ok := s.convs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConversation, id)
	}
	s.selected = id
	s.hasSelected = true

	s.logger.Debug("conversation selected", "conversation_id", id, "display_name", c.DisplayName)
	if s.renderer != nil {
		s.renderer.Selected(id, c.DisplayName, append([]Entry(nil), c.History...))
	}
	return nil
}

// Selection returns the active conversation, if any.
func (s *Store) Selection() (remote.ConversationID, bool) {
	return s.selected, s.hasSelected
}

// ClearSelection deselects the active conversation.
func (s *Store) ClearSelection() {
	s.selected = 0
	s.hasSelected = false
}

// ensure returns id's conversation, creating it with displayName if needed.
func (s *Store) ensure(id remote.ConversationID, displayName string) *Conversation {
	if c, ok := s.convs[id]; ok {
		return c
	}
	if displayName == "" {
		displayName = id.String()
	}
	c := &Conversation{ID: id, DisplayName: displayName}
	s.convs[id] = c
	s.order = append(s.order, id)

	s.logger.Info("conversation created", "conversation_id", id, "display_name", displayName)
	if s.renderer != nil {
		s.renderer.ConversationAdded(id, displayName)
	}
	return c
}

func (s *Store) append(c *Conversation, e Entry, outbound bool) {
	c.History = append(c.History, e)
	if s.renderer != nil && s.hasSelected && s.selected == c.ID {
		s.renderer.EntryAppended(c.ID, e, outbound)
	}
}
