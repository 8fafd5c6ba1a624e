// Package telegram adapts the Telegram Bot API to remote.Source.
//
// The adapter is a thin layer over github.com/go-telegram-bot-api/telegram-bot-api/v5.
// Fetch maps to getUpdates with offset set to the cursor and a long-poll
// timeout in whole seconds; Send maps to sendMessage, splitting texts longer
// than MaxMessageRunes into several messages.
//
// The library has no context support of its own. Each call runs on a shallow
// copy of the bot whose HTTP client attaches the caller's context to the
// request, so deadlines and cancellation reach the transport.
//
// Failures come back as *remote.Error: responses the service rejected
// (ok=false) or that could not be decoded are remote.ErrService, anything
// that failed before a response arrived is remote.ErrTransport.
package telegram
