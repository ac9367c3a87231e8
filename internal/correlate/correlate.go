package correlate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Netzvamp/Genesis/internal/frame"
)

// ReplyOutcome is the single resolution of a pending command: the reply
// frame, or the failure that released the waiter.
type ReplyOutcome struct {
	Frame *frame.Frame
	Err   error
}

// JobOutcome is the single resolution of a background job.
type JobOutcome struct {
	Event *frame.Event
	Err   error
}

// Pending tracks one in-flight command awaiting its synchronous reply.
type Pending struct {
	// Command is the serialized command text, kept for diagnostics.
	Command string

	created   time.Time
	abandoned bool
	ch        chan ReplyOutcome
}

// Resolved returns the channel the reply (or failure) is delivered on.
// It fires exactly once.
func (p *Pending) Resolved() <-chan ReplyOutcome {
	return p.ch
}

// Job tracks one background command awaiting its asynchronous result
// event, keyed by Job-UUID.
type Job struct {
	UUID string

	created time.Time
	ch      chan JobOutcome
}

// Resolved returns the channel the job result (or failure) is delivered
// on. It fires exactly once.
func (j *Job) Resolved() <-chan JobOutcome {
	return j.ch
}

// Correlator matches synchronous replies and background-job results with
// the commands that triggered them.
//
// Synchronous replies are strictly ordered: the switch answers commands
// in send order, so pending commands form a FIFO queue and each arriving
// reply resolves the oldest entry. Pipelining is legal; a reply is never
// matched to the wrong command. Background jobs resolve out of order by
// Job-UUID.
type Correlator struct {
	log *slog.Logger

	mu     sync.Mutex
	queue  []*Pending
	jobs   map[string]*Job
	failed error
}

// New returns an empty correlator.
func New(log *slog.Logger) *Correlator {
	return &Correlator{
		log:  log.With("component", "correlator"),
		jobs: make(map[string]*Job, 8),
	}
}

// Register appends a pending command to the reply queue. It must be
// called before the command bytes are written so a fast reply cannot
// race the registration. After FailAll it returns the teardown failure.
func (c *Correlator) Register(command string) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failed != nil {
		return nil, c.failed
	}

	p := &Pending{
		Command: command,
		created: time.Now(),
		ch:      make(chan ReplyOutcome, 1),
	}
	c.queue = append(c.queue, p)

	return p, nil
}

// Remove excises a pending command whose bytes were never written (the
// write failed). It must not be used once the command is on the wire;
// use Abandon instead so FIFO order is preserved.
func (c *Correlator) Remove(p *Pending) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, q := range c.queue {
		if q == p {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)

			return
		}
	}
}

// Abandon marks a pending command whose caller stopped waiting (timeout
// or cancellation). The entry stays queued: its bytes are already on the
// wire, so the switch's eventual reply must be drained and discarded
// without disturbing the correlation of later commands.
func (c *Correlator) Abandon(p *Pending) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p.abandoned = true
}

// ResolveReply delivers a reply-category frame to the oldest pending
// command. A reply with no pending command is logged and dropped.
func (c *Correlator) ResolveReply(f *frame.Frame) {
	c.mu.Lock()

	var (
		p         *Pending
		abandoned bool
	)

	if len(c.queue) > 0 {
		p = c.queue[0]
		c.queue = c.queue[1:]
		abandoned = p.abandoned
	}

	c.mu.Unlock()

	if p == nil {
		c.log.Warn("Reply with no pending command", "content_type", f.ContentType())

		return
	}

	if abandoned {
		c.log.Debug("Draining reply for abandoned command",
			"command", p.Command,
			"age", time.Since(p.created),
		)
	}

	// Buffered channel; delivery never blocks even if nobody listens.
	p.ch <- ReplyOutcome{Frame: f}
}

// RegisterJob tracks a background command by its Job-UUID. Many jobs may
// be outstanding concurrently.
func (c *Correlator) RegisterJob(uuid string) (*Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failed != nil {
		return nil, c.failed
	}

	j := &Job{
		UUID:    uuid,
		created: time.Now(),
		ch:      make(chan JobOutcome, 1),
	}
	c.jobs[uuid] = j

	return j, nil
}

// ReleaseJob drops a job registration whose caller stopped waiting.
func (c *Correlator) ReleaseJob(j *Job) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.jobs, j.UUID)
}

// ResolveJob delivers a BACKGROUND_JOB event to the registered job, if
// any. An unmatched result is dropped; that is a non-fatal condition.
func (c *Correlator) ResolveJob(uuid string, ev *frame.Event) {
	c.mu.Lock()

	j, ok := c.jobs[uuid]
	if ok {
		delete(c.jobs, uuid)
	}

	c.mu.Unlock()

	if !ok {
		c.log.Warn("Background job result with no registration", "job_uuid", uuid)

		return
	}

	j.ch <- JobOutcome{Event: ev}
}

// FailAll resolves every outstanding pending command and background job
// with the given failure and rejects all future registrations. It is
// invoked on session teardown so no caller awaits forever.
func (c *Correlator) FailAll(err error) {
	c.mu.Lock()

	if c.failed == nil {
		c.failed = err
	}

	queue := c.queue
	jobs := c.jobs
	c.queue = nil
	c.jobs = make(map[string]*Job)

	c.mu.Unlock()

	for _, p := range queue {
		p.ch <- ReplyOutcome{Err: err}
	}

	for _, j := range jobs {
		j.ch <- JobOutcome{Err: err}
	}
}

// Err returns the failure passed to FailAll, or nil while the correlator
// is still live.
func (c *Correlator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.failed
}
