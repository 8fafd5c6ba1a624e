// Package notify implements the notification action fired for each inbound
// text message.
//
// Notifiers are triggered with Fire, which runs them on a fresh goroutine,
// bounds them with a timeout, recovers panics and logs failures. Nothing is
// reported back to the caller: a broken speaker must never stall the poller.
//
// Available notifiers:
//
//   - Bell: writes the BEL control character to a terminal
//   - Command: runs an external program, e.g. a sound player
//   - Func: adapts a plain function
//   - Multi: runs several notifiers in order
package notify
