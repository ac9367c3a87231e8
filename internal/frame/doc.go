// Package frame implements the event socket wire codec.
//
// A frame is an ASCII header block of "Name: value" lines terminated by a
// blank line, optionally followed by a raw body of exactly Content-Length
// bytes. The Decoder turns a byte stream into frames; Encode serializes
// outgoing commands. Header values are never interpreted here beyond
// Content-Length; classification by Content-Type belongs to the session.
//
// Event frames (text/event-plain, text/event-json) carry a second layer:
// the event's own header block travels inside the envelope body.
// ParseEvent presents both encodings as the same Event view.
package frame
