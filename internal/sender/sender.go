// ABOUTME: Outbound replies: validate, echo into history, transmit on a background goroutine
// ABOUTME: Send failures are logged with a send id and never retried

package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/quickreply/internal/conversation"
	"github.com/2389/quickreply/internal/remote"
)

// DefaultTimeout bounds one remote send.
const DefaultTimeout = 30 * time.Second

// ErrEmptyText is returned for replies that are empty after trimming.
var ErrEmptyText = fmt.Errorf("%w: empty message text", remote.ErrValidation)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("sender closed")

// Echoer records an outbound message in the conversation history.
// *conversation.Store satisfies it.
type Echoer interface {
	OnOutboundEcho(id remote.ConversationID, text string) conversation.Entry
}

// Options configures a Sender.
type Options struct {
	// Signature is prepended to the wire text. Empty disables it.
	Signature string
	Timeout   time.Duration
	Logger    *slog.Logger
}

// DefaultSignature returns the desktop client signature for this OS.
func DefaultSignature() string {
	return SignatureFor(runtime.GOOS)
}

// SignatureFor builds the signature prefix for the given OS name.
func SignatureFor(goos string) string {
	return "TgQuickReply Desktop@" + goos + "User : "
}

// Sender echoes and transmits replies.
type Sender struct {
	source remote.Source
	echo   Echoer
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a sender that transmits through source and echoes into echo.
func New(source remote.Source, echo Echoer, opts Options) *Sender {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Sender{
		source: source,
		echo:   echo,
		opts:   opts,
		logger: opts.Logger.With("component", "sender"),
	}
}

// Send echoes text into id's history and starts transmitting it. It returns
// once the echo is recorded; only validation errors are reported.
// Send must be called from the goroutine that owns the Echoer.
func (s *Sender) Send(id remote.ConversationID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.echo.OnOutboundEcho(id, text)

	sendID := uuid.New().String()
	wire := s.opts.Signature + text

	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("send panicked", "send_id", sendID, "conversation_id", id, "panic", r)
			}
		}()
		s.transmit(sendID, id, wire)
	}()
	return nil
}

// Close makes later Sends fail with ErrClosed. Sends already started
// keep running; see Wait.
func (s *Sender) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Wait blocks until every started send has finished. Call Close first when
// Send may still be called concurrently.
func (s *Sender) Wait() {
	s.wg.Wait()
}

func (s *Sender) transmit(sendID string, id remote.ConversationID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()

	start := time.Now()
	if err := s.source.Send(ctx, id, text); err != nil {
		s.logger.Warn("send failed",
			"send_id", sendID,
			"conversation_id", id,
			"kind", remote.KindOf(err),
			"error", err,
		)
		return
	}
	s.logger.Debug("message sent",
		"send_id", sendID,
		"conversation_id", id,
		"duration", time.Since(start),
	)
}
