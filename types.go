package genesis

import (
	"github.com/Netzvamp/Genesis/internal/dispatch"
	"github.com/Netzvamp/Genesis/internal/frame"
)

// Re-export types from internal packages

// ===== Wire units =====

// Frame is one parsed protocol unit: an ordered header block plus an
// optional raw body.
type Frame = frame.Frame

// Header is one name/value pair from a frame or event header block.
type Header = frame.Header

// Event is the uniform header-mapping view of one switch event,
// independent of the wire encoding (plain or JSON) the body used.
type Event = frame.Event

// ===== Dispatch =====

// EventHandler processes one dispatched event. Handlers run as
// independent goroutines and never block the session read loop.
type EventHandler = dispatch.Handler

// Subscription identifies one event subscription for later removal.
type Subscription = dispatch.Handle

// ===== Wire constants =====

// Recognized Content-Type values.
const (
	ContentCommandReply     = frame.ContentCommandReply
	ContentAPIResponse      = frame.ContentAPIResponse
	ContentEventPlain       = frame.ContentEventPlain
	ContentEventJSON        = frame.ContentEventJSON
	ContentDisconnectNotice = frame.ContentDisconnectNotice
	ContentAuthRequest      = frame.ContentAuthRequest
)

// EventFormat selects the wire encoding the switch uses for events.
type EventFormat string

const (
	// FormatPlain asks for text/event-plain encoded events.
	FormatPlain EventFormat = "plain"

	// FormatJSON asks for text/event-json encoded events.
	FormatJSON EventFormat = "json"
)
