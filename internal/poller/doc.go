// Package poller runs the long-polling retrieval loop.
//
// # Loop
//
// A Poller owns one goroutine (the one calling Run) and repeats:
//
//  1. Fetch updates past the Cursor, waiting up to WaitTimeout.
//  2. For each update, in order: advance the Cursor to Seq+1; if the update
//     is a message, deliver it and fire the notifier for text messages.
//     Messages without text are delivered as NonTextPlaceholder.
//  3. On a fetch error, log it and leave the Cursor alone.
//  4. Sleep Interval, then start over.
//
// The loop never gives up on errors. It ends only when Stop is called or the
// context passed to Run is cancelled; both are checked at the top of each
// iteration. A fetch already in flight is allowed to finish: it runs on a
// context detached from cancellation and bounded by WaitTimeout plus
// RequestTimeout.
//
// # Delivery
//
// Delivery and cursor movement are independent. An update whose sequence is
// below the cursor (a service replaying old updates) does not move the
// cursor but is still delivered. Deduplication against the cursor is the
// service's job: it only returns updates at or past the offset it was given.
//
// # States
//
//	Idle -> Fetching -> Delivering -> Sleeping -> Fetching -> ... -> Stopped
//	                 \-> Sleeping (on error)
//
// Stopped is terminal. Run on a stopped Poller returns ErrStopped.
package poller
