package errors

import (
	"errors"
	"fmt"
)

// GenesisError is the base interface for all errors raised by this module.
type GenesisError interface {
	error
	IsGenesisError() bool
}

// Compile-time verification that all error types implement GenesisError.
var (
	_ GenesisError = (*MalformedFrameError)(nil)
	_ GenesisError = (*AuthenticationError)(nil)
	_ GenesisError = (*StreamError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrSessionClosed indicates an operation was attempted on a session
	// that has disconnected or been closed. Operations failing with this
	// error are never retried internally; the caller must establish a new
	// session.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionNotReady indicates a command was issued before the session
	// finished its handshake.
	ErrSessionNotReady = errors.New("session not ready")

	// ErrCommandTimeout indicates no reply arrived within the caller's
	// bound. The command may still execute on the switch; the eventual
	// reply is drained and discarded.
	ErrCommandTimeout = errors.New("command timeout")
)

// MalformedFrameError indicates the byte stream violated the header/body
// framing rules. The connection is not salvageable after this.
type MalformedFrameError struct {
	// Line is the offending header line.
	Line string
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame: bad header line %q", e.Line)
}

// IsGenesisError implements GenesisError.
func (e *MalformedFrameError) IsGenesisError() bool { return true }

// AuthenticationError indicates the switch rejected our credentials.
// This is terminal; no automatic retry is attempted.
type AuthenticationError struct {
	Reply string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reply)
}

// IsGenesisError implements GenesisError.
func (e *AuthenticationError) IsGenesisError() bool { return true }

// StreamError indicates the underlying transport failed. It escalates the
// session to its failed state and releases every outstanding waiter.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// IsGenesisError implements GenesisError.
func (e *StreamError) IsGenesisError() bool { return true }
