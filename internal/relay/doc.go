// Package relay wires the poller, mailbox, conversation store and sender
// into one session with a single bot.
//
// A Relay has two sides. The background side is the poller goroutine
// started by Start: it fetches updates, advances the cursor and drops
// inbound messages into the mailbox. The foreground side belongs to the
// presentation layer's goroutine, which waits on Ready, calls Pump to move
// queued messages into the store, and issues operator commands
// (SelectConversation, SendReply). Every method on the foreground side must
// be called from that one goroutine.
//
// Shutdown is Stop followed by Wait. Wait returns once the poller has
// finished its current iteration and every send already started has
// completed or timed out.
package relay
