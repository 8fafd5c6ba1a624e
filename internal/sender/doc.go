// Package sender transmits operator replies without blocking the caller.
//
// Send validates the text, echoes it into the conversation history right
// away and then hands the network call to a short-lived goroutine. The echo
// is never rolled back: if the remote send fails, the failure is logged and
// the history keeps showing a message the recipient never got.
//
// An optional signature is prepended to the text that goes over the wire.
// The echo always records what the operator typed.
package sender
