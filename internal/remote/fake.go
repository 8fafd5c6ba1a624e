// ABOUTME: Scripted in-memory Source for tests of the poller, sender and relay
// ABOUTME: Queues fetch results, records cursors and sends, injects failures

package remote

import (
	"context"
	"sync"
	"time"
)

// FetchResult is one scripted answer to Fetch.
type FetchResult struct {
	Updates []Update
	Err     error
}

// SentMessage records a Send call.
type SentMessage struct {
	Conversation ConversationID
	Text         string
}

// FakeSource is a Source whose Fetch answers come from a script. Once the
// script is exhausted Fetch returns no updates. It is safe for concurrent use.
type FakeSource struct {
	mu      sync.Mutex
	script  []FetchResult
	cursors []int64
	waits   []time.Duration
	sent    []SentMessage
	sendErr error
	sendHit int

	// SendDelay delays every Send, to simulate a slow network.
	SendDelay time.Duration
}

// NewFakeSource creates a FakeSource with the given fetch script.
func NewFakeSource(script ...FetchResult) *FakeSource {
	return &FakeSource{script: script}
}

// Push appends results to the fetch script.
func (f *FakeSource) Push(results ...FetchResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, results...)
}

// FailSends makes every subsequent Send return err (nil restores success).
func (f *FakeSource) FailSends(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

// Fetch implements Source.
func (f *FakeSource) Fetch(ctx context.Context, cursor int64, wait time.Duration) ([]Update, error) {
	if err := ctx.Err(); err != nil {
		return nil, TransportError("fetch", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.cursors = append(f.cursors, cursor)
	f.waits = append(f.waits, wait)
	if len(f.script) == 0 {
		return nil, nil
	}
	next := f.script[0]
	f.script = f.script[1:]
	return next.Updates, next.Err
}

// Send implements Source.
func (f *FakeSource) Send(ctx context.Context, id ConversationID, text string) error {
	if f.SendDelay > 0 {
		select {
		case <-time.After(f.SendDelay):
		case <-ctx.Done():
			return TransportError("send", ctx.Err())
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.sendHit++
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, SentMessage{Conversation: id, Text: text})
	return nil
}

// Cursors returns the cursor passed to each Fetch call so far.
func (f *FakeSource) Cursors() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.cursors...)
}

// Waits returns the wait timeout passed to each Fetch call so far.
func (f *FakeSource) Waits() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.waits...)
}

// FetchCount returns how many times Fetch was called.
func (f *FakeSource) FetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cursors)
}

// Sent returns successfully sent messages in call order.
func (f *FakeSource) Sent() []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SentMessage(nil), f.sent...)
}

// SendCalls returns how many times Send was called, including failures.
func (f *FakeSource) SendCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendHit
}

// TextMessage builds an update carrying a text message from username.
func TextMessage(seq int64, id ConversationID, username, text string) Update {
	return Update{
		Seq: seq,
		Message: &Message{
			Conversation: id,
			Username:     username,
			Text:         text,
			HasText:      true,
		},
	}
}
