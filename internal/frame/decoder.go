package frame

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/Netzvamp/Genesis/internal/errors"
)

// Decoder reads discrete frames off a byte stream.
//
// The decoder is resumable by construction: it reads through a buffered
// reader and blocks until enough bytes arrive, so a frame split across
// arbitrarily many partial reads parses identically to one delivered in a
// single read.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next reads and returns the next complete frame.
//
// It returns io.EOF when the stream ends cleanly on a frame boundary, and
// io.ErrUnexpectedEOF when the stream ends inside a header block or body.
// A header line without a colon yields *errors.MalformedFrameError; the
// stream is not recoverable afterwards.
func (d *Decoder) Next() (*Frame, error) {
	f := &Frame{}
	first := true

	for {
		line, err := d.r.ReadString('\n')
		if err != nil {
			if err == io.EOF && first && line == "" {
				return nil, io.EOF
			}

			// An unterminated header block is a truncated stream, not a
			// framing violation.
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}

			return nil, err
		}

		first = false

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &errors.MalformedFrameError{Line: line}
		}

		f.Headers = append(f.Headers, Header{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}

	if raw := f.Get(HeaderContentLength); raw != "" {
		length, err := strconv.Atoi(raw)
		if err != nil || length < 0 {
			return nil, &errors.MalformedFrameError{Line: HeaderContentLength + ": " + raw}
		}

		body := make([]byte, length)
		if _, err := io.ReadFull(d.r, body); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}

			return nil, err
		}

		f.Body = body
	}

	return f, nil
}
