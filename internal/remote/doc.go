// Package remote defines the contract between the relay core and the
// messaging service it talks to.
//
// # Source
//
// A Source retrieves updates with a long-polling cursor protocol and sends
// text messages:
//
//	updates, err := src.Fetch(ctx, cursor, time.Second)
//	err = src.Send(ctx, conversationID, "hello")
//
// Fetch returns as soon as updates exist past the cursor or the wait elapses.
// Every Update carries a sequence number; only some carry a Message (edits,
// callbacks and membership changes do not). The caller advances its cursor
// past every update either way.
//
// # Errors
//
// Adapter failures are wrapped in *Error and classified by Kind, so callers
// can test them with errors.Is:
//
//   - ErrTransport: network unreachable, dial or read timeout, reset
//   - ErrService: the service rejected the request or answered garbage
//   - ErrValidation: the caller's input was rejected before any I/O
//
// # Testing
//
// FakeSource is a scripted, in-memory Source used by the poller, sender and
// relay tests.
package remote
