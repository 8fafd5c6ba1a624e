// ABOUTME: Notification actions (terminal bell, external command) for inbound messages
// ABOUTME: Fire runs a notifier fire-and-forget; failures and panics are logged only

package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single notification.
const DefaultTimeout = 10 * time.Second

// Notifier performs one notification.
type Notifier interface {
	Notify(ctx context.Context) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context) error

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context) error {
	return f(ctx)
}

// Bell rings the terminal bell by writing BEL to W.
type Bell struct {
	W io.Writer
}

// Notify implements Notifier.
func (b Bell) Notify(context.Context) error {
	if b.W == nil {
		return nil
	}
	_, err := io.WriteString(b.W, "\a")
	return err
}

// Command runs an external program, e.g. []string{"paplay", "notification.wav"}.
type Command struct {
	Argv []string
}

// Notify implements Notifier.
func (c Command) Notify(ctx context.Context) error {
	if len(c.Argv) == 0 {
		return errors.New("notify command is empty")
	}
	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg != "" {
			return fmt.Errorf("running %s: %w: %s", c.Argv[0], err, msg)
		}
		return fmt.Errorf("running %s: %w", c.Argv[0], err)
	}
	return nil
}

// Multi runs every notifier in order and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Fire runs n on its own goroutine and returns immediately. A nil notifier
// is a no-op. timeout <= 0 means DefaultTimeout.
func Fire(n Notifier, timeout time.Duration, logger *slog.Logger) {
	if n == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Debug("notification panicked", "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := n.Notify(ctx); err != nil {
			logger.Debug("notification failed", "error", err)
		}
	}()
}
