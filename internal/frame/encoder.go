package frame

import (
	"bytes"
	"strconv"
	"strings"
)

// Encode serializes an outgoing command into wire format.
//
// The command may span multiple lines (as sendmsg blocks do); each line is
// written followed by LF. Extra headers follow the command lines. When
// body is non-nil a Content-Length header equal to the body's byte length
// is appended before the terminating blank line, followed by the raw body
// bytes. A zero-length body still produces Content-Length: 0.
func Encode(command string, headers []Header, body []byte) []byte {
	var buf bytes.Buffer

	if command != "" {
		for _, line := range strings.Split(strings.TrimRight(command, "\n"), "\n") {
			buf.WriteString(strings.TrimRight(line, "\r\n"))
			buf.WriteByte('\n')
		}
	}

	for _, h := range headers {
		buf.WriteString(h.Name)
		buf.WriteString(": ")
		buf.WriteString(h.Value)
		buf.WriteByte('\n')
	}

	if body != nil {
		buf.WriteString(HeaderContentLength)
		buf.WriteString(": ")
		buf.WriteString(strconv.Itoa(len(body)))
		buf.WriteByte('\n')
	}

	buf.WriteByte('\n')

	if body != nil {
		buf.Write(body)
	}

	return buf.Bytes()
}
