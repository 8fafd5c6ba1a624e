// ABOUTME: Source contract and wire-neutral types for the messaging service
// ABOUTME: Updates carry a sequence number and an optional inbound message

package remote

import (
	"context"
	"strconv"
	"time"
)

// ConversationID identifies a remote correspondent. It is assigned by the
// messaging service and stable for the lifetime of the chat.
type ConversationID int64

// String returns the decimal form of the id.
func (id ConversationID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Update is one item of the service's ordered update stream.
type Update struct {
	// Seq is the service-assigned sequence number. The next cursor after
	// consuming this update is Seq+1.
	Seq int64

	// Message is nil for updates that are not new inbound messages.
	Message *Message
}

// Message is an inbound message addressed to the bot.
type Message struct {
	Conversation ConversationID
	Username     string
	FirstName    string
	Text         string
	HasText      bool
}

// DisplayName picks the name shown for the sender: username, then first
// name, then the stringified conversation id.
func (m *Message) DisplayName() string {
	if m.Username != "" {
		return m.Username
	}
	if m.FirstName != "" {
		return m.FirstName
	}
	return m.Conversation.String()
}

// Source is the messaging service as seen by the relay core.
type Source interface {
	// Fetch long-polls for updates with Seq >= cursor, waiting at most wait.
	Fetch(ctx context.Context, cursor int64, wait time.Duration) ([]Update, error)

	// Send delivers text to the conversation.
	Send(ctx context.Context, id ConversationID, text string) error
}
