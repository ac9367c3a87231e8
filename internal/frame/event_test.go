package frame

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainEventFrame(t *testing.T, body string) *Frame {
	t.Helper()

	return &Frame{
		Headers: []Header{
			{Name: HeaderContentType, Value: ContentEventPlain},
			{Name: HeaderContentLength, Value: fmt.Sprint(len(body))},
		},
		Body: []byte(body),
	}
}

func TestParseEvent_Plain(t *testing.T) {
	f := plainEventFrame(t, "Event-Name: HEARTBEAT\nCore-UUID: 1\n")

	ev, err := ParseEvent(f)
	require.NoError(t, err)
	assert.Equal(t, "HEARTBEAT", ev.Name())
	assert.Equal(t, "1", ev.Get("Core-UUID"))
	assert.Empty(t, ev.Body)
}

func TestParseEvent_PlainUnescapesValues(t *testing.T) {
	f := plainEventFrame(t, "Event-Name: CHANNEL_CREATE\nCaller-Caller-ID-Name: Bob%20Example\nCaller-Destination-Number: %2B49123456\n")

	ev, err := ParseEvent(f)
	require.NoError(t, err)
	assert.Equal(t, "Bob Example", ev.Get("Caller-Caller-ID-Name"))
	assert.Equal(t, "+49123456", ev.Get("Caller-Destination-Number"))
}

func TestParseEvent_PlainWithInnerBody(t *testing.T) {
	// BACKGROUND_JOB events carry the api output as an inner body after
	// the event's own header block.
	body := "Event-Name: BACKGROUND_JOB\nJob-UUID: 7f4d\nContent-Length: 7\n\n+OK yes"
	f := plainEventFrame(t, body)

	ev, err := ParseEvent(f)
	require.NoError(t, err)
	assert.Equal(t, EventBackgroundJob, ev.Name())
	assert.Equal(t, "7f4d", ev.Get(HeaderJobUUID))
	assert.Equal(t, "+OK yes", ev.Body)
}

func TestParseEvent_PlainMultiLineValue(t *testing.T) {
	f := plainEventFrame(t, "Event-Name: CUSTOM\nvariable_note: first\nsecond\n")

	ev, err := ParseEvent(f)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", ev.Get("variable_note"))
}

func TestParseEvent_JSON(t *testing.T) {
	body := `{"Event-Name":"BACKGROUND_JOB","Job-UUID":"7f4d","Event-Sequence":4102,"_body":"+OK yes"}`
	f := &Frame{
		Headers: []Header{
			{Name: HeaderContentType, Value: ContentEventJSON},
			{Name: HeaderContentLength, Value: fmt.Sprint(len(body))},
		},
		Body: []byte(body),
	}

	ev, err := ParseEvent(f)
	require.NoError(t, err)
	assert.Equal(t, EventBackgroundJob, ev.Name())
	assert.Equal(t, "7f4d", ev.Get(HeaderJobUUID))
	assert.Equal(t, "4102", ev.Get("Event-Sequence"))
	assert.Equal(t, "+OK yes", ev.Body)
}

func TestParseEvent_JSONInvalid(t *testing.T) {
	f := &Frame{
		Headers: []Header{{Name: HeaderContentType, Value: ContentEventJSON}},
		Body:    []byte("{truncated"),
	}

	_, err := ParseEvent(f)
	require.Error(t, err)
}

func TestParseEvent_RejectsNonEventFrame(t *testing.T) {
	f := &Frame{Headers: []Header{{Name: HeaderContentType, Value: ContentCommandReply}}}

	_, err := ParseEvent(f)
	require.Error(t, err)
}

func TestEvent_KeyUsesSubclassForCustom(t *testing.T) {
	custom := &Event{Headers: []Header{
		{Name: HeaderEventName, Value: "CUSTOM"},
		{Name: HeaderEventSubclass, Value: "sofia::register"},
	}}
	assert.Equal(t, "sofia::register", custom.Key())

	bare := &Event{Headers: []Header{{Name: HeaderEventName, Value: "CUSTOM"}}}
	assert.Equal(t, "CUSTOM", bare.Key())

	plain := &Event{Headers: []Header{{Name: HeaderEventName, Value: "HEARTBEAT"}}}
	assert.Equal(t, "HEARTBEAT", plain.Key())
}

func TestRawEvent(t *testing.T) {
	f := &Frame{
		Headers: []Header{{Name: HeaderContentType, Value: "log/data"}},
		Body:    []byte("some log line"),
	}

	ev := RawEvent(f)
	assert.Equal(t, "log/data", ev.Get(HeaderContentType))
	assert.Equal(t, "some log line", ev.Body)
	assert.Empty(t, ev.Name())
}
