// ABOUTME: Long-polling retrieval loop: fetch, advance cursor, deliver, notify, sleep
// ABOUTME: Resilient to remote failures; stops only on Stop() or context cancellation

package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389/quickreply/internal/dedupe"
	"github.com/2389/quickreply/internal/dispatch"
	"github.com/2389/quickreply/internal/notify"
	"github.com/2389/quickreply/internal/remote"
)

// NonTextPlaceholder stands in for messages that carry no text.
const NonTextPlaceholder = "<non-text message>"

const (
	DefaultWaitTimeout    = time.Second
	DefaultInterval       = time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultErrorWindow    = time.Minute

	// errorWindowSize bounds how many distinct error strings are remembered.
	errorWindowSize = 64
)

var (
	// ErrStopped is returned by Run once the poller has stopped.
	ErrStopped = errors.New("poller stopped")

	// ErrRunning is returned by Run while another Run is active.
	ErrRunning = errors.New("poller already running")
)

// State is the poller's position in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateDelivering
	StateSleeping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateDelivering:
		return "delivering"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Deliverer receives inbound messages. Deliver must not block on the consumer.
type Deliverer interface {
	Deliver(in dispatch.Inbound) error
}

// Options tunes the loop. Zero values take the defaults.
type Options struct {
	WaitTimeout    time.Duration // long-poll wait passed to Fetch
	Interval       time.Duration // sleep between iterations
	RequestTimeout time.Duration // extra allowance on top of WaitTimeout per fetch
	ErrorWindow    time.Duration // repeated identical errors log at debug within this window

	Notifier      notify.Notifier // fired per inbound text message, may be nil
	NotifyTimeout time.Duration

	Logger *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = DefaultWaitTimeout
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = DefaultRequestTimeout
	}
	if o.ErrorWindow <= 0 {
		o.ErrorWindow = DefaultErrorWindow
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Stats are running counters, safe to read while the poller runs.
type Stats struct {
	Batches   uint64 // successful fetches
	Consumed  uint64 // updates seen
	Delivered uint64 // messages handed to the Deliverer
	Failures  uint64 // failed fetches
}

// Poller drives the retrieval loop.
type Poller struct {
	source remote.Source
	cursor *Cursor
	out    Deliverer
	opts   Options
	logger *slog.Logger

	errs    *dedupe.Window
	failing bool // touched only by the Run goroutine

	state    atomic.Int32
	stop     chan struct{}
	stopOnce sync.Once

	batches   atomic.Uint64
	consumed  atomic.Uint64
	delivered atomic.Uint64
	failures  atomic.Uint64
}

// New creates a poller. It does nothing until Run is called.
func New(source remote.Source, cursor *Cursor, out Deliverer, opts Options) *Poller {
	opts.applyDefaults()
	return &Poller{
		source: source,
		cursor: cursor,
		out:    out,
		opts:   opts,
		logger: opts.Logger.With("component", "poller"),
		errs:   dedupe.New(opts.ErrorWindow, errorWindowSize),
		stop:   make(chan struct{}),
	}
}

// Run executes the loop on the calling goroutine until Stop is called or ctx
// is cancelled. It returns nil on a normal stop.
func (p *Poller) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateFetching)) {
		if p.State() == StateStopped {
			return ErrStopped
		}
		return ErrRunning
	}
	defer p.setState(StateStopped)

	p.logger.Info("poller started",
		"cursor", p.cursor.Current(),
		"wait_timeout", p.opts.WaitTimeout,
		"interval", p.opts.Interval,
	)

	for {
		if p.shouldStop(ctx) {
			p.logger.Info("poller stopped", "cursor", p.cursor.Current())
			return nil
		}
		p.iterate(ctx)
		p.sleep(ctx)
	}
}

// Stop signals the loop to end. It does not wait; use the return of Run.
// Stopping an idle poller makes it unusable.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.state.CompareAndSwap(int32(StateIdle), int32(StateStopped))
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// Stats returns a snapshot of the counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Batches:   p.batches.Load(),
		Consumed:  p.consumed.Load(),
		Delivered: p.delivered.Load(),
		Failures:  p.failures.Load(),
	}
}

// Cursor returns the cursor the poller advances.
func (p *Poller) Cursor() *Cursor {
	return p.cursor
}

func (p *Poller) setState(s State) {
	p.state.Store(int32(s))
}

func (p *Poller) shouldStop(ctx context.Context) bool {
	select {
	case <-p.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// iterate performs one fetch and delivers its batch.
func (p *Poller) iterate(ctx context.Context) {
	p.setState(StateFetching)

	cursor := p.cursor.Current()
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.WaitTimeout+p.opts.RequestTimeout)
	updates, err := p.source.Fetch(fetchCtx, cursor, p.opts.WaitTimeout)
	cancel()

	if err != nil {
		p.failures.Add(1)
		p.logFailure(cursor, err)
		return
	}

	p.batches.Add(1)
	if p.failing {
		p.failing = false
		p.errs.Reset()
		p.logger.Info("fetch recovered", "cursor", cursor)
	}

	p.setState(StateDelivering)
	for _, u := range updates {
		p.consume(u)
	}
}

// consume advances the cursor past u and delivers its message, if any.
func (p *Poller) consume(u remote.Update) {
	if !p.cursor.Advance(u.Seq + 1) {
		p.logger.Debug("update below cursor", "seq", u.Seq, "cursor", p.cursor.Current())
	}
	p.consumed.Add(1)

	msg := u.Message
	if msg == nil {
		p.logger.Debug("skipping non-message update", "seq", u.Seq)
		return
	}

	text := msg.Text
	if !msg.HasText {
		text = NonTextPlaceholder
	}
	in := dispatch.Inbound{
		Conversation: msg.Conversation,
		DisplayName:  msg.DisplayName(),
		Text:         text,
	}
	if err := p.out.Deliver(in); err != nil {
		p.logger.Warn("delivery failed",
			"seq", u.Seq,
			"conversation_id", in.Conversation,
			"error", err,
		)
		return
	}
	p.delivered.Add(1)

	p.logger.Debug("message delivered",
		"seq", u.Seq,
		"conversation_id", in.Conversation,
		"from", in.DisplayName,
		"text", truncate(text, 50),
	)

	if msg.HasText {
		notify.Fire(p.opts.Notifier, p.opts.NotifyTimeout, p.logger)
	}
}

// logFailure logs the first occurrence of an error at warn level and
// repeats within the error window at debug, so an outage does not flood
// the log once per interval.
func (p *Poller) logFailure(cursor int64, err error) {
	p.failing = true
	if p.errs.CheckAndMark(err.Error()) {
		p.logger.Debug("fetch failed again", "kind", remote.KindOf(err), "cursor", cursor, "error", err)
		return
	}
	p.logger.Warn("fetch failed", "kind", remote.KindOf(err), "cursor", cursor, "error", err)
}

func (p *Poller) sleep(ctx context.Context) {
	p.setState(StateSleeping)

	t := time.NewTimer(p.opts.Interval)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.stop:
	case <-ctx.Done():
	}
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
