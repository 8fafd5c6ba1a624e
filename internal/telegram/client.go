// ABOUTME: Telegram Bot API client implementing remote.Source over telegram-bot-api/v5
// ABOUTME: Maps getUpdates and sendMessage onto the relay's wire-neutral types and error kinds

package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/2389/quickreply/internal/remote"
)

// DefaultEndpoint is the public Bot API endpoint format (token, method).
const DefaultEndpoint = tgbotapi.APIEndpoint

// MaxMessageRunes is the longest text Telegram accepts in one message.
const MaxMessageRunes = 4096

// DefaultConnectTimeout bounds the getMe call made by Connect.
const DefaultConnectTimeout = 10 * time.Second

// redactedToken replaces the bot token in error text.
const redactedToken = "<redacted>"

// Options configures a Client.
type Options struct {
	Token string

	// Endpoint is a format string taking the token and the method name.
	// Defaults to DefaultEndpoint.
	Endpoint string

	// HTTPClient defaults to a plain *http.Client. Per-call deadlines come
	// from contexts, so it should not carry a Timeout shorter than a long poll.
	HTTPClient tgbotapi.HTTPClient

	ConnectTimeout time.Duration
	Logger         *slog.Logger
}

// Client talks to one bot.
type Client struct {
	bot    *tgbotapi.BotAPI
	token  string
	logger *slog.Logger
}

var _ remote.Source = (*Client)(nil)

// Connect validates the token with getMe and returns a ready client.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, fmt.Errorf("%w: bot token is required", remote.ErrValidation)
	}
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, opts.Endpoint, ctxDoer{ctx: ctx, base: opts.HTTPClient})
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", classify("connect", opts.Token, err))
	}
	bot.Client = opts.HTTPClient

	logger := opts.Logger.With("component", "telegram")
	logger.Info("connected to telegram", "bot", bot.Self.UserName, "bot_id", bot.Self.ID)

	return &Client{bot: bot, token: opts.Token, logger: logger}, nil
}

// BotName returns the bot's username as reported by getMe.
func (c *Client) BotName() string {
	return c.bot.Self.UserName
}

// Fetch implements remote.Source.
func (c *Client) Fetch(ctx context.Context, cursor int64, wait time.Duration) ([]remote.Update, error) {
	cfg := tgbotapi.NewUpdate(int(cursor))
	cfg.Timeout = int(wait.Round(time.Second) / time.Second)

	raw, err := c.with(ctx).GetUpdates(cfg)
	if err != nil {
		return nil, classify("fetch", c.token, err)
	}

	updates := make([]remote.Update, 0, len(raw))
	for _, u := range raw {
		updates = append(updates, convertUpdate(u))
	}
	if len(updates) > 0 {
		c.logger.Debug("fetched updates", "cursor", cursor, "count", len(updates))
	}
	return updates, nil
}

// Send implements remote.Source. Texts longer than MaxMessageRunes go out
// as several messages; the first failure stops the rest.
func (c *Client) Send(ctx context.Context, id remote.ConversationID, text string) error {
	bot := c.with(ctx)
	parts := SplitText(text, MaxMessageRunes)
	for i, part := range parts {
		if _, err := bot.Send(tgbotapi.NewMessage(int64(id), part)); err != nil {
			err = redact(err, c.token)
			if len(parts) > 1 {
				err = fmt.Errorf("part %d of %d: %w", i+1, len(parts), err)
			}
			return classify("send", c.token, err)
		}
	}
	return nil
}

// with returns a copy of the bot whose requests carry ctx.
func (c *Client) with(ctx context.Context) *tgbotapi.BotAPI {
	b := *c.bot
	b.Client = ctxDoer{ctx: ctx, base: c.bot.Client}
	return &b
}

// ctxDoer attaches a context to every request it sends.
type ctxDoer struct {
	ctx  context.Context
	base tgbotapi.HTTPClient
}

func (d ctxDoer) Do(req *http.Request) (*http.Response, error) {
	return d.base.Do(req.WithContext(d.ctx))
}

func convertUpdate(u tgbotapi.Update) remote.Update {
	out := remote.Update{Seq: int64(u.UpdateID)}
	m := u.Message
	if m == nil || m.Chat == nil {
		return out
	}

	msg := &remote.Message{
		Conversation: remote.ConversationID(m.Chat.ID),
		Text:         m.Text,
		HasText:      m.Text != "",
	}
	if m.From != nil {
		msg.Username = m.From.UserName
		msg.FirstName = m.From.FirstName
	} else {
		msg.Username = m.Chat.UserName
		msg.FirstName = m.Chat.FirstName
	}
	out.Message = msg
	return out
}

// classify wraps err in the remote error taxonomy, with token scrubbed
// from its text.
func classify(op, token string, err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return remote.ServiceError(op, apiErr.Code, redact(err, token))
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return remote.ServiceError(op, 0, fmt.Errorf("decoding response: %w", redact(err, token)))
	}

	return remote.TransportError(op, redact(err, token))
}

// redact removes token from err's text. Request failures are *url.Error
// values whose URL embeds the token in the method path.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Error() == err.Error() && urlErr.Err != nil &&
		!strings.Contains(urlErr.Err.Error(), token) {
		return &url.Error{
			Op:  urlErr.Op,
			URL: strings.ReplaceAll(urlErr.URL, token, redactedToken),
			Err: urlErr.Err,
		}
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, redactedToken))
}

// SplitText cuts text into pieces of at most limit runes, preferring to
// break after a newline in the second half of a piece.
func SplitText(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i >= limit/2; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// RouteLibraryLogs sends the bot library's own log output to logger at
// debug level. It changes package-level state in the library.
func RouteLibraryLogs(logger *slog.Logger) {
	if logger == nil {
		return
	}
	_ = tgbotapi.SetLogger(botLogger{logger: logger.With("component", "tgbotapi")})
}

type botLogger struct {
	logger *slog.Logger
}

func (l botLogger) Println(v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l botLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
