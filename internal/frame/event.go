package frame

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Event is the uniform header-mapping view of one switch event,
// independent of the wire encoding the event body used.
type Event struct {
	// Headers holds the event's own header block. For plain events the
	// wire order is preserved; for JSON events the order is normalized.
	Headers []Header

	// Body is the event payload following the event's header block, e.g.
	// the api response text of a BACKGROUND_JOB event.
	Body string
}

// Get returns the value of the first event header with the given name.
func (e *Event) Get(name string) string {
	for _, h := range e.Headers {
		if h.Name == name {
			return h.Value
		}
	}

	return ""
}

// Name returns the Event-Name header.
func (e *Event) Name() string {
	return e.Get(HeaderEventName)
}

// Subclass returns the Event-Subclass header, set on CUSTOM events.
func (e *Event) Subclass() string {
	return e.Get(HeaderEventSubclass)
}

// Key returns the name subscriptions are matched against: the subclass
// for CUSTOM events, the event name otherwise.
func (e *Event) Key() string {
	if name := e.Name(); name != "CUSTOM" {
		return name
	}

	if subclass := e.Subclass(); subclass != "" {
		return subclass
	}

	return "CUSTOM"
}

// ParseEvent extracts the event carried in the body of a text/event-plain
// or text/event-json frame.
//
// Plain bodies are a secondary header block with URL-escaped values,
// optionally followed by a blank line and an inner body of Content-Length
// bytes. JSON bodies are a single object whose "_body" key, when present,
// carries the inner body.
func ParseEvent(f *Frame) (*Event, error) {
	switch f.ContentType() {
	case ContentEventPlain:
		return parsePlainEvent(string(f.Body)), nil

	case ContentEventJSON:
		return parseJSONEvent(f.Body)

	default:
		return nil, fmt.Errorf("not an event frame: %s", f.ContentType())
	}
}

// RawEvent wraps a non-event frame so it can flow through the catch-all
// dispatch path. The envelope headers become the event headers.
func RawEvent(f *Frame) *Event {
	headers := make([]Header, len(f.Headers))
	copy(headers, f.Headers)

	return &Event{Headers: headers, Body: string(f.Body)}
}

func parsePlainEvent(body string) *Event {
	headerPart, inner, hasInner := strings.Cut(body, "\n\n")
	ev := &Event{}

	for _, line := range strings.Split(strings.TrimRight(headerPart, "\n"), "\n") {
		if line == "" {
			continue
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			// Continuation of the previous value (multi-line header).
			if n := len(ev.Headers); n > 0 {
				ev.Headers[n-1].Value += "\n" + line
			}

			continue
		}

		ev.Headers = append(ev.Headers, Header{
			Name:  unescape(strings.TrimSpace(name)),
			Value: unescape(strings.TrimSpace(value)),
		})
	}

	if hasInner && ev.Get(HeaderContentLength) != "" {
		ev.Body = inner
	}

	return ev
}

func parseJSONEvent(body []byte) (*Event, error) {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode event json: %w", err)
	}

	ev := &Event{}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		value := fields[name]

		if name == "_body" {
			if s, ok := value.(string); ok {
				ev.Body = s
			}

			continue
		}

		ev.Headers = append(ev.Headers, Header{
			Name:  name,
			Value: jsonHeaderValue(value),
		})
	}

	return ev, nil
}

// jsonHeaderValue renders a decoded JSON value back to the string form
// headers use on the wire.
func jsonHeaderValue(value any) string {
	switch v := value.(type) {
	case string:
		return v

	case json.Number:
		return v.String()

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(raw)
	}
}

// unescape reverses the URL escaping the switch applies to plain event
// header values. Values that are not valid escapes pass through verbatim.
func unescape(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	// PathUnescape rather than QueryUnescape: the switch never encodes
	// spaces as '+', and literal plus signs occur in dialed numbers.
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}

	return out
}
