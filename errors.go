package genesis

import "github.com/Netzvamp/Genesis/internal/errors"

// Re-export error types from internal package

// GenesisError is the base interface for all errors raised by this module.
type GenesisError = errors.GenesisError

// MalformedFrameError indicates the byte stream violated the header/body
// framing rules. The connection is not salvageable after this.
type MalformedFrameError = errors.MalformedFrameError

// AuthenticationError indicates the switch rejected our credentials.
type AuthenticationError = errors.AuthenticationError

// StreamError indicates the underlying transport failed.
type StreamError = errors.StreamError

// Re-export sentinel errors from internal package.
var (
	// ErrSessionClosed indicates an operation was attempted after the
	// session disconnected or was closed.
	ErrSessionClosed = errors.ErrSessionClosed

	// ErrSessionNotReady indicates a command was issued before the
	// session finished its handshake.
	ErrSessionNotReady = errors.ErrSessionNotReady

	// ErrCommandTimeout indicates no reply arrived within the caller's
	// bound. The session itself remains usable.
	ErrCommandTimeout = errors.ErrCommandTimeout
)
