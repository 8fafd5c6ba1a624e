// ABOUTME: Line-oriented terminal console driving the relay from the UI goroutine
// ABOUTME: Renders conversations, pumps inbound messages and turns input into commands or replies

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/2389/quickreply/internal/conversation"
	"github.com/2389/quickreply/internal/relay"
	"github.com/2389/quickreply/internal/remote"
)

// console owns the relay's foreground side. Every method runs on the
// goroutine that called Run.
type console struct {
	in    io.Reader
	out   io.Writer
	relay *relay.Relay

	accent *color.Color
	muted  *color.Color
	warn   *color.Color
}

func newConsole(in io.Reader, out io.Writer, r *relay.Relay) *console {
	return &console{
		in:     in,
		out:    out,
		relay:  r,
		accent: color.New(color.FgCyan),
		muted:  color.New(color.FgHiBlack),
		warn:   color.New(color.FgYellow),
	}
}

// Run reads input until /quit, EOF or ctx cancellation, pumping inbound
// messages in between.
func (c *console) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- io.EOF
	}()

	fmt.Fprintln(c.out, "Waiting for messages. /help for commands. Ctrl+C to quit.")
	c.prompt()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.relay.Done():
			c.relay.Pump()
			return nil
		case err := <-readErr:
			c.relay.Pump()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case <-c.relay.Ready():
			if c.relay.Pump() > 0 {
				c.prompt()
			}
		case line := <-lines:
			if quit := c.handle(line); quit {
				return nil
			}
			c.prompt()
		}
	}
}

// handle runs one line of input and reports whether the console should exit.
func (c *console) handle(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit", "/q":
		return true
	case "/help":
		c.printHelp()
	case "/list":
		c.printList()
	case "/use":
		c.use(arg)
	case "/history":
		c.printHistory()
	case "/status":
		c.printStatus()
	default:
		if strings.HasPrefix(cmd, "/") {
			c.warn.Fprintf(c.out, "unknown command %s (try /help)\n", cmd)
			return false
		}
		if err := c.relay.SendReply(input); err != nil {
			c.printError(err)
		}
	}
	return false
}

func (c *console) use(arg string) {
	if arg == "" {
		c.relay.ClearSelection()
		c.muted.Fprintln(c.out, "selection cleared")
		return
	}
	id, err := parseSelector(arg, c.relay.Conversations())
	if err != nil {
		c.printError(err)
		return
	}
	if err := c.relay.SelectConversation(id); err != nil {
		c.printError(err)
	}
}

// parseSelector resolves a /use argument: a 1-based position in the
// conversation list, or a chat id.
func parseSelector(arg string, convs []conversation.Summary) (remote.ConversationID, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		for _, s := range convs {
			if strings.EqualFold(s.DisplayName, strings.TrimPrefix(arg, "@")) {
				return s.ID, nil
			}
		}
		return 0, fmt.Errorf("%w: %q", conversation.ErrUnknownConversation, arg)
	}
	if n >= 1 && n <= int64(len(convs)) {
		return convs[n-1].ID, nil
	}
	return remote.ConversationID(n), nil
}

func (c *console) printHelp() {
	fmt.Fprintln(c.out, "Commands:")
	fmt.Fprintln(c.out, "  /list            List conversations")
	fmt.Fprintln(c.out, "  /use <n|id|name> Select a conversation by list number, chat id or name")
	fmt.Fprintln(c.out, "  /use             Clear the selection")
	fmt.Fprintln(c.out, "  /history         Show the selected conversation again")
	fmt.Fprintln(c.out, "  /status          Show poller state and counters")
	fmt.Fprintln(c.out, "  /help            Show this help")
	fmt.Fprintln(c.out, "  /quit            Exit")
	fmt.Fprintln(c.out, "Anything else is sent to the selected conversation.")
}

func (c *console) printList() {
	convs := c.relay.Conversations()
	if len(convs) == 0 {
		c.muted.Fprintln(c.out, "no conversations yet")
		return
	}
	selected, hasSelected := c.relay.Selection()
	for i, s := range convs {
		marker := " "
		if hasSelected && s.ID == selected {
			marker = "*"
		}
		fmt.Fprintf(c.out, "%s %2d. %s ", marker, i+1, s.DisplayName)
		c.muted.Fprintf(c.out, "(id %s, %d messages)\n", s.ID, s.Entries)
	}
}

func (c *console) printHistory() {
	id, ok := c.relay.Selection()
	if !ok {
		c.printError(relay.ErrNoSelection)
		return
	}
	c.Selected(id, c.relay.DisplayNameOf(id), c.relay.HistoryOf(id))
}

func (c *console) printStatus() {
	st := c.relay.Stats()
	fmt.Fprintf(c.out, "poller %s, cursor %d, pending %d\n", c.relay.State(), c.relay.Cursor(), c.relay.Pending())
	c.muted.Fprintf(c.out, "batches %d, updates %d, delivered %d, failed fetches %d\n",
		st.Batches, st.Consumed, st.Delivered, st.Failures)
	c.muted.Fprintf(c.out, "replies shown as %q\n", c.relay.LocalAuthor())
}

func (c *console) printError(err error) {
	c.warn.Fprintf(c.out, "[error] %v\n", err)
}

func (c *console) prompt() {
	if id, ok := c.relay.Selection(); ok {
		c.accent.Fprintf(c.out, "[%s]> ", c.relay.DisplayNameOf(id))
		return
	}
	fmt.Fprint(c.out, "> ")
}

// ConversationAdded implements conversation.Renderer.
func (c *console) ConversationAdded(id remote.ConversationID, displayName string) {
	c.accent.Fprintf(c.out, "\n+ new conversation: %s ", displayName)
	c.muted.Fprintf(c.out, "(id %s)\n", id)
}

// EntryAppended implements conversation.Renderer.
func (c *console) EntryAppended(_ remote.ConversationID, e conversation.Entry, outbound bool) {
	if outbound {
		return
	}
	fmt.Fprintf(c.out, "\n%s\n", e)
}

// Selected implements conversation.Renderer.
func (c *console) Selected(id remote.ConversationID, displayName string, history []conversation.Entry) {
	c.accent.Fprintf(c.out, "── %s ", displayName)
	c.muted.Fprintf(c.out, "(id %s)\n", id)
	if len(history) == 0 {
		c.muted.Fprintln(c.out, "no messages")
		return
	}
	for _, e := range history {
		fmt.Fprintln(c.out, e)
	}
}

// inbound announces messages for conversations that are not selected.
func (c *console) inbound(id remote.ConversationID, e conversation.Entry) {
	if selected, ok := c.relay.Selection(); ok && selected == id {
		return
	}
	c.muted.Fprintf(c.out, "\n• %s\n", e)
}
