package genesis

// State is the connection lifecycle state of a Session.
//
// Sessions move Connecting → Authenticating → Ready → Closing → Closed;
// Failed is terminal and reachable from any state. Commands are accepted
// only in Ready.
type State int32

const (
	// StateConnecting means the stream is established and the handshake
	// has not completed.
	StateConnecting State = iota

	// StateAuthenticating means the auth request was received and the
	// credentials are in flight (inbound mode only).
	StateAuthenticating

	// StateReady means commands may be sent and replies and events are
	// being processed.
	StateReady

	// StateClosing means a disconnect notice arrived or shutdown was
	// requested; remaining reads drain but no new commands are accepted.
	StateClosing

	// StateClosed means the stream is released and all operations fail
	// immediately.
	StateClosed

	// StateFailed means a fatal protocol or transport error tore the
	// session down.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
