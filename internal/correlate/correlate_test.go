package correlate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Netzvamp/Genesis/internal/frame"
)

func replyFrame(text string) *frame.Frame {
	return &frame.Frame{Headers: []frame.Header{
		{Name: frame.HeaderContentType, Value: frame.ContentCommandReply},
		{Name: frame.HeaderReplyText, Value: text},
	}}
}

func newTestCorrelator(t *testing.T) *Correlator {
	t.Helper()

	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCorrelator_FIFOUnderPipelining(t *testing.T) {
	c := newTestCorrelator(t)

	// Three commands in flight at once; replies are indistinguishable in
	// content except for an index we smuggle through Reply-Text.
	const n = 3

	pendings := make([]*Pending, n)

	for i := 0; i < n; i++ {
		p, err := c.Register(fmt.Sprintf("api command-%d", i))
		require.NoError(t, err)

		pendings[i] = p
	}

	for i := 0; i < n; i++ {
		c.ResolveReply(replyFrame(fmt.Sprintf("+OK %d", i)))
	}

	for i, p := range pendings {
		select {
		case outcome := <-p.Resolved():
			require.NoError(t, outcome.Err)
			assert.Equal(t, fmt.Sprintf("+OK %d", i), outcome.Frame.ReplyText())
		default:
			t.Fatalf("pending %d not resolved", i)
		}
	}
}

func TestCorrelator_AbandonedEntryDrainsWithoutShiftingOrder(t *testing.T) {
	c := newTestCorrelator(t)

	first, err := c.Register("api slow")
	require.NoError(t, err)

	second, err := c.Register("api fast")
	require.NoError(t, err)

	// Caller gave up on the first command, but its bytes are on the
	// wire: the first reply still belongs to it and must be discarded,
	// not delivered to the second command.
	c.Abandon(first)

	c.ResolveReply(replyFrame("+OK for slow"))
	c.ResolveReply(replyFrame("+OK for fast"))

	outcome := <-second.Resolved()
	require.NoError(t, outcome.Err)
	assert.Equal(t, "+OK for fast", outcome.Frame.ReplyText())
}

func TestCorrelator_RemoveExcisesUnsentCommand(t *testing.T) {
	c := newTestCorrelator(t)

	first, err := c.Register("api never-sent")
	require.NoError(t, err)

	second, err := c.Register("api sent")
	require.NoError(t, err)

	// The first write failed before reaching the wire, so no reply will
	// ever arrive for it; the next reply belongs to the second command.
	c.Remove(first)

	c.ResolveReply(replyFrame("+OK"))

	outcome := <-second.Resolved()
	require.NoError(t, outcome.Err)
	assert.Equal(t, "+OK", outcome.Frame.ReplyText())
}

func TestCorrelator_ReplyWithNoPendingIsDropped(t *testing.T) {
	c := newTestCorrelator(t)

	// Must not panic or block.
	c.ResolveReply(replyFrame("+OK stray"))
}

func TestCorrelator_JobResolvesOnce(t *testing.T) {
	c := newTestCorrelator(t)

	job, err := c.RegisterJob("7f4d")
	require.NoError(t, err)

	ev := &frame.Event{Headers: []frame.Header{
		{Name: frame.HeaderEventName, Value: frame.EventBackgroundJob},
		{Name: frame.HeaderJobUUID, Value: "7f4d"},
	}}

	c.ResolveJob("7f4d", ev)

	outcome := <-job.Resolved()
	require.NoError(t, outcome.Err)
	assert.Equal(t, "7f4d", outcome.Event.Get(frame.HeaderJobUUID))

	// A duplicate result finds no registration and is dropped.
	c.ResolveJob("7f4d", ev)

	select {
	case <-job.Resolved():
		t.Fatal("job resolved twice")
	default:
	}
}

func TestCorrelator_UnmatchedJobResultIsNonFatal(t *testing.T) {
	c := newTestCorrelator(t)

	c.ResolveJob("unknown", &frame.Event{})

	// The correlator stays live for new registrations.
	_, err := c.Register("api status")
	require.NoError(t, err)
}

func TestCorrelator_JobsResolveOutOfOrder(t *testing.T) {
	c := newTestCorrelator(t)

	first, err := c.RegisterJob("job-1")
	require.NoError(t, err)

	second, err := c.RegisterJob("job-2")
	require.NoError(t, err)

	c.ResolveJob("job-2", &frame.Event{})

	select {
	case <-second.Resolved():
	case <-time.After(time.Second):
		t.Fatal("second job not resolved")
	}

	select {
	case <-first.Resolved():
		t.Fatal("first job resolved early")
	default:
	}
}

func TestCorrelator_AbandonRacesResolve(t *testing.T) {
	c := newTestCorrelator(t)

	// A caller timing out while the reply lands must be safe in either
	// interleaving; the reply always resolves the entry exactly once.
	for n := 0; n < 200; n++ {
		p, err := c.Register("api sleep")
		require.NoError(t, err)

		var wg sync.WaitGroup

		wg.Add(2)

		go func() {
			defer wg.Done()

			c.Abandon(p)
		}()

		go func() {
			defer wg.Done()

			c.ResolveReply(replyFrame("+OK"))
		}()

		wg.Wait()

		outcome := <-p.Resolved()
		require.NoError(t, outcome.Err)
	}
}

func TestCorrelator_FailAllReleasesEveryWaiter(t *testing.T) {
	c := newTestCorrelator(t)

	pending, err := c.Register("api status")
	require.NoError(t, err)

	job, err := c.RegisterJob("job-1")
	require.NoError(t, err)

	cause := errors.New("connection closed")
	c.FailAll(cause)

	// Both waiters resolve immediately, not eventually.
	select {
	case outcome := <-pending.Resolved():
		require.ErrorIs(t, outcome.Err, cause)
	default:
		t.Fatal("pending command still waiting after FailAll")
	}

	select {
	case outcome := <-job.Resolved():
		require.ErrorIs(t, outcome.Err, cause)
	default:
		t.Fatal("background job still waiting after FailAll")
	}

	// New registrations are rejected with the teardown failure.
	_, err = c.Register("api status")
	require.ErrorIs(t, err, cause)

	_, err = c.RegisterJob("job-2")
	require.ErrorIs(t, err, cause)

	require.ErrorIs(t, c.Err(), cause)
}
