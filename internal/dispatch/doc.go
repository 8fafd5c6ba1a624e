// Package dispatch provides the hand-off between the poller goroutine and the
// goroutine that owns conversation state.
//
// A Mailbox is an unbounded FIFO queue. Producers call Deliver, which never
// waits for the consumer. The single consumer selects on Ready and calls
// Drain to take everything pending:
//
//	for {
//		select {
//		case <-ctx.Done():
//			return
//		case <-box.Ready():
//			for _, in := range box.Drain() {
//				store.OnInbound(in.Conversation, in.DisplayName, in.Text)
//			}
//		}
//	}
//
// Ready is a coalescing signal: several Deliver calls may produce a single
// wake-up, so the consumer must always Drain fully.
package dispatch
