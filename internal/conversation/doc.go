// Package conversation holds per-conversation state for the relay.
//
// # Overview
//
// A Store is the single owner of every Conversation seen during a session:
// its id, display name and append-only history. It is deliberately not safe
// for concurrent use. All calls must come from one goroutine, the one that
// drives the presentation layer; inbound messages reach that goroutine
// through a dispatch.Mailbox.
//
// # Conversations
//
// A Conversation is created on the first inbound message from its id and
// lives until the process exits. Its display name is fixed at creation:
// later messages from the same id never rename it, even if the remote user
// changed their username in the meantime.
//
// An outbound echo to an id that was never seen also creates the
// conversation, named after the stringified id.
//
// # History
//
// History is append-only and kept in call order:
//
//   - OnInbound appends {displayName, text}
//   - OnOutboundEcho appends {LocalAuthor, text}, before the send completes
//
// The Store does not deduplicate. Delivering the same inbound message twice
// appends it twice; keeping duplicates out is the poller cursor's job.
//
// # Rendering
//
// A Renderer, when set, is told about new conversations, about entries
// appended to the selected conversation, and about selection changes (with
// the full history to replay). Reads for unknown ids return empty values.
package conversation
