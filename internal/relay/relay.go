// ABOUTME: Session wiring: source, cursor, poller, mailbox, store and sender behind one API
// ABOUTME: The UI goroutine pumps inbound messages into the store and issues operator commands

package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/2389/quickreply/internal/conversation"
	"github.com/2389/quickreply/internal/dispatch"
	"github.com/2389/quickreply/internal/poller"
	"github.com/2389/quickreply/internal/remote"
	"github.com/2389/quickreply/internal/sender"
)

var (
	// ErrNoSelection is returned by SendReply when no conversation is selected.
	ErrNoSelection = fmt.Errorf("%w: no conversation selected", remote.ErrValidation)

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("relay already started")
)

// InboundFunc is called for each inbound message after it is stored.
type InboundFunc func(id remote.ConversationID, e conversation.Entry)

// Options configures a Relay.
type Options struct {
	// StartCursor is the first sequence number to ask for. Zero asks the
	// service for everything it still holds.
	StartCursor int64

	Poller      poller.Options
	Sender      sender.Options
	LocalAuthor string
	Renderer    conversation.Renderer
	Logger      *slog.Logger
}

// Relay is one session with the messaging service.
type Relay struct {
	source  remote.Source
	cursor  *poller.Cursor
	poller  *poller.Poller
	mailbox *dispatch.Mailbox[dispatch.Inbound]
	store   *conversation.Store
	sender  *sender.Sender
	logger  *slog.Logger

	listeners []InboundFunc

	startOnce sync.Once
	started   atomic.Bool
	done      chan struct{}
	runErr    error
}

// New builds a relay around source. Nothing runs until Start.
func New(source remote.Source, opts Options) *Relay {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Poller.Logger = opts.Logger
	opts.Sender.Logger = opts.Logger

	mailbox := dispatch.New[dispatch.Inbound]()
	cursor := poller.NewCursor(opts.StartCursor)
	store := conversation.New(conversation.Options{
		LocalAuthor: opts.LocalAuthor,
		Renderer:    opts.Renderer,
		Logger:      opts.Logger,
	})

	return &Relay{
		source:  source,
		cursor:  cursor,
		poller:  poller.New(source, cursor, mailbox, opts.Poller),
		mailbox: mailbox,
		store:   store,
		sender:  sender.New(source, store, opts.Sender),
		logger:  opts.Logger.With("component", "relay"),
		done:    make(chan struct{}),
	}
}

// Start runs the poller on its own goroutine until Stop or ctx cancellation.
func (r *Relay) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	r.startOnce.Do(func() {
		err = nil
		r.started.Store(true)
		go func() {
			defer close(r.done)
			r.runErr = r.poller.Run(ctx)
			r.mailbox.Close()
		}()
	})
	return err
}

// Stop asks the poller to end. It does not wait; see Wait.
func (r *Relay) Stop() {
	r.poller.Stop()
}

// Wait blocks until the poller has exited and in-flight sends are done.
// Replies sent after that fail with sender.ErrClosed. It returns the
// poller's exit error. Wait on a relay that was never started returns
// once in-flight sends are done.
func (r *Relay) Wait() error {
	if r.started.Load() {
		<-r.done
	}
	r.sender.Close()
	r.sender.Wait()
	return r.runErr
}

// Done is closed when the poller goroutine exits.
func (r *Relay) Done() <-chan struct{} {
	return r.done
}

// OnInbound registers fn to be called by Pump for every stored message.
func (r *Relay) OnInbound(fn InboundFunc) {
	r.listeners = append(r.listeners, fn)
}

// SetRenderer replaces the store's renderer.
func (r *Relay) SetRenderer(rd conversation.Renderer) {
	r.store.SetRenderer(rd)
}

// Ready is signalled when Pump has work.
func (r *Relay) Ready() <-chan struct{} {
	return r.mailbox.Ready()
}

// Pump moves every queued inbound message into the store, in arrival order,
// and notifies listeners. It returns how many messages it moved.
func (r *Relay) Pump() int {
	batch := r.mailbox.Drain()
	for _, in := range batch {
		e := r.store.OnInbound(in.Conversation, in.DisplayName, in.Text)
		for _, fn := range r.listeners {
			fn(in.Conversation, e)
		}
	}
	return len(batch)
}

// SelectConversation makes id the target of SendReply.
func (r *Relay) SelectConversation(id remote.ConversationID) error {
	return r.store.Select(id)
}

// ClearSelection deselects the active conversation; SendReply then fails
// with ErrNoSelection until another SelectConversation.
func (r *Relay) ClearSelection() {
	r.store.ClearSelection()
}

// Selection returns the selected conversation, if any.
func (r *Relay) Selection() (remote.ConversationID, bool) {
	return r.store.Selection()
}

// SendReply sends text to the selected conversation. It returns once the
// message is echoed into history; delivery happens in the background and
// its failures are only logged.
func (r *Relay) SendReply(text string) error {
	id, ok := r.store.Selection()
	if !ok {
		return ErrNoSelection
	}
	return r.SendTo(id, text)
}

// SendTo sends text to id regardless of the selection.
func (r *Relay) SendTo(id remote.ConversationID, text string) error {
	return r.sender.Send(id, text)
}

// HistoryOf returns a copy of id's history.
func (r *Relay) HistoryOf(id remote.ConversationID) []conversation.Entry {
	return r.store.HistoryOf(id)
}

// DisplayNameOf returns id's display name, or "" if unknown.
func (r *Relay) DisplayNameOf(id remote.ConversationID) string {
	return r.store.DisplayNameOf(id)
}

// LocalAuthor returns the author recorded for the operator's own messages.
func (r *Relay) LocalAuthor() string {
	return r.store.LocalAuthor()
}

// Conversations lists conversations in creation order.
func (r *Relay) Conversations() []conversation.Summary {
	return r.store.Conversations()
}

// Cursor returns the next sequence number the poller will ask for. Safe
// from any goroutine.
func (r *Relay) Cursor() int64 {
	return r.cursor.Current()
}

// Stats returns the poller's counters. Safe from any goroutine.
func (r *Relay) Stats() poller.Stats {
	return r.poller.Stats()
}

// State returns the poller's lifecycle state. Safe from any goroutine.
func (r *Relay) State() poller.State {
	return r.poller.State()
}

// Pending returns how many inbound messages wait for Pump.
func (r *Relay) Pending() int {
	return r.mailbox.Len()
}
