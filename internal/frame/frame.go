package frame

// Recognized Content-Type values on the event socket wire.
const (
	ContentCommandReply     = "command/reply"
	ContentAPIResponse      = "api/response"
	ContentEventPlain       = "text/event-plain"
	ContentEventJSON        = "text/event-json"
	ContentDisconnectNotice = "text/disconnect-notice"
	ContentRudeRejection    = "text/rude-rejection"
	ContentAuthRequest      = "auth/request"
)

// Header names the engine itself interprets. Header names are
// case-sensitive on this wire.
const (
	HeaderContentType        = "Content-Type"
	HeaderContentLength      = "Content-Length"
	HeaderContentDisposition = "Content-Disposition"
	HeaderReplyText          = "Reply-Text"
	HeaderEventName          = "Event-Name"
	HeaderEventSubclass      = "Event-Subclass"
	HeaderJobUUID            = "Job-UUID"
	HeaderUniqueID           = "Unique-ID"
	HeaderApplicationUUID    = "Application-UUID"
)

// EventBackgroundJob is the event name carrying the result of a bgapi
// command.
const EventBackgroundJob = "BACKGROUND_JOB"

// Header is one name/value pair from a frame's header block.
type Header struct {
	Name  string
	Value string
}

// Frame is one parsed protocol unit: an ordered header block plus an
// optional raw body. Frames are constructed by the Decoder and must not
// be modified after construction.
type Frame struct {
	// Headers preserves wire order. Duplicate names are not expected but
	// are preserved verbatim when they occur.
	Headers []Header

	// Body holds exactly Content-Length bytes, or nil when the frame has
	// no body. A zero-length body is distinct from no body.
	Body []byte
}

// Get returns the value of the first header with the given name, or ""
// when absent.
func (f *Frame) Get(name string) string {
	for _, h := range f.Headers {
		if h.Name == name {
			return h.Value
		}
	}

	return ""
}

// Has reports whether a header with the given name is present.
func (f *Frame) Has(name string) bool {
	for _, h := range f.Headers {
		if h.Name == name {
			return true
		}
	}

	return false
}

// ContentType returns the frame's Content-Type header, which identifies
// its category (reply, event, disconnect notice, ...).
func (f *Frame) ContentType() string {
	return f.Get(HeaderContentType)
}

// ReplyText returns the Reply-Text header of a command reply.
func (f *Frame) ReplyText() string {
	return f.Get(HeaderReplyText)
}
