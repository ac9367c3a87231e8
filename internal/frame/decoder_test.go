package frame

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	genErrors "github.com/Netzvamp/Genesis/internal/errors"
)

// oneByteReader delivers the underlying stream a single byte per Read,
// simulating maximally fragmented partial reads.
type oneByteReader struct {
	r io.Reader
}

func (o *oneByteReader) Read(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:1]
	}

	return o.r.Read(p)
}

func TestDecoder_HeaderOnlyFrame(t *testing.T) {
	dec := NewDecoder(strings.NewReader("Content-Type: auth/request\n\n"))

	f, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, "auth/request", f.ContentType())
	assert.Nil(t, f.Body)

	_, err = dec.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestDecoder_FrameWithBody(t *testing.T) {
	wire := "Content-Type: api/response\nContent-Length: 3\n\nOK\n"
	dec := NewDecoder(strings.NewReader(wire))

	f, err := dec.Next()
	require.NoError(t, err)
	require.Equal(t, "api/response", f.ContentType())
	require.Equal(t, "OK\n", string(f.Body))
}

func TestDecoder_ZeroLengthBody(t *testing.T) {
	wire := "Content-Type: api/response\nContent-Length: 0\n\n"
	dec := NewDecoder(strings.NewReader(wire))

	f, err := dec.Next()
	require.NoError(t, err)

	// A zero-length body is distinct from no body.
	require.NotNil(t, f.Body)
	require.Empty(t, f.Body)
}

func TestDecoder_TrimsWhitespaceAndCR(t *testing.T) {
	wire := "Content-Type:  command/reply \r\nReply-Text: +OK accepted\r\n\r\n"
	dec := NewDecoder(strings.NewReader(wire))

	f, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "command/reply", f.ContentType())
	assert.Equal(t, "+OK accepted", f.ReplyText())
}

func TestDecoder_MultipleFrames(t *testing.T) {
	wire := "Content-Type: command/reply\nReply-Text: +OK\n\n" +
		"Content-Type: command/reply\nReply-Text: -ERR no\n\n"
	dec := NewDecoder(strings.NewReader(wire))

	first, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "+OK", first.ReplyText())

	second, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "-ERR no", second.ReplyText())

	_, err = dec.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestDecoder_SingleByteReads(t *testing.T) {
	// A frame split across arbitrarily many partial reads must parse
	// identically to one delivered whole.
	wire := "Content-Type: text/event-plain\nContent-Length: 10\n\n0123456789"

	whole, err := NewDecoder(strings.NewReader(wire)).Next()
	require.NoError(t, err)

	chunked, err := NewDecoder(&oneByteReader{r: strings.NewReader(wire)}).Next()
	require.NoError(t, err)

	require.Equal(t, whole.Headers, chunked.Headers)
	require.Equal(t, whole.Body, chunked.Body)
}

func TestDecoder_MalformedHeaderLine(t *testing.T) {
	dec := NewDecoder(strings.NewReader("this line has no colon\n\n"))

	_, err := dec.Next()

	var malformed *genErrors.MalformedFrameError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "this line has no colon", malformed.Line)
}

func TestDecoder_BadContentLength(t *testing.T) {
	dec := NewDecoder(strings.NewReader("Content-Length: many\n\n"))

	_, err := dec.Next()

	var malformed *genErrors.MalformedFrameError
	require.ErrorAs(t, err, &malformed)
}

func TestDecoder_TruncatedHeaderBlock(t *testing.T) {
	dec := NewDecoder(strings.NewReader("Content-Type: command/reply\n"))

	_, err := dec.Next()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecoder_TruncatedBody(t *testing.T) {
	dec := NewDecoder(strings.NewReader("Content-Length: 10\n\nshort"))

	_, err := dec.Next()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestEncode_CommandOnly(t *testing.T) {
	require.Equal(t, "api status\n\n", string(Encode("api status", nil, nil)))
}

func TestEncode_WithHeadersAndBody(t *testing.T) {
	got := Encode("bgapi status", []Header{{Name: "Job-UUID", Value: "abc"}}, nil)
	require.Equal(t, "bgapi status\nJob-UUID: abc\n\n", string(got))

	withBody := Encode("sendevent NOTIFY", nil, []byte("hello"))
	require.Equal(t, "sendevent NOTIFY\nContent-Length: 5\n\nhello", string(withBody))
}

func TestEncode_ZeroLengthBodyStillDeclared(t *testing.T) {
	got := Encode("sendevent NOTIFY", nil, []byte{})
	require.Equal(t, "sendevent NOTIFY\nContent-Length: 0\n\n", string(got))
}

func TestEncode_MultiLineCommand(t *testing.T) {
	got := Encode("sendmsg\ncall-command: execute\nexecute-app-name: answer", nil, nil)
	require.Equal(t, "sendmsg\ncall-command: execute\nexecute-app-name: answer\n\n", string(got))
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "no body", body: nil},
		{name: "zero-length body", body: []byte{}},
		{name: "binary body", body: []byte("line one\nline two\n\x00\xff")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := []Header{
				{Name: "Event-Name", Value: "HEARTBEAT"},
				{Name: "Core-UUID", Value: "1"},
			}

			wire := Encode("sendevent HEARTBEAT", headers, tt.body)

			// The command line itself is not a header; skip it before
			// handing the rest to the decoder.
			_, rest, ok := bytes.Cut(wire, []byte("\n"))
			require.True(t, ok)

			f, err := NewDecoder(bytes.NewReader(rest)).Next()
			require.NoError(t, err)

			assert.Equal(t, "HEARTBEAT", f.Get("Event-Name"))
			assert.Equal(t, "1", f.Get("Core-UUID"))

			if tt.body == nil {
				assert.Nil(t, f.Body)
			} else {
				assert.Equal(t, tt.body, f.Body)
			}
		})
	}
}
