// Package errors defines error types for the event socket engine.
//
// The taxonomy separates fatal connection-level failures (malformed
// framing, transport errors) from local per-command failures (timeouts)
// so callers can distinguish "my command failed" from "the connection
// died". All types support errors.Is and errors.As.
package errors
