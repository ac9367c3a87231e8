package genesis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Netzvamp/Genesis/internal/correlate"
	genErrors "github.com/Netzvamp/Genesis/internal/errors"
	"github.com/Netzvamp/Genesis/internal/frame"
)

// API runs a switch api command and waits for its api/response frame.
// The response text is the frame's body.
func (s *Session) API(ctx context.Context, command string) (*Frame, error) {
	return s.Send(ctx, "api "+command)
}

// Job is an in-flight background command. Its result arrives later as a
// BACKGROUND_JOB event.
type Job struct {
	// UUID is the Job-UUID correlating the eventual result event.
	UUID string

	session *Session
	job     *correlate.Job
}

// Wait blocks until the job's result event arrives, the context ends, or
// the session closes. The result event's body is the command output.
func (j *Job) Wait(ctx context.Context) (*Event, error) {
	select {
	case outcome := <-j.job.Resolved():
		return outcome.Event, outcome.Err

	case <-ctx.Done():
		j.session.correlator.ReleaseJob(j.job)

		return nil, ctx.Err()
	}
}

// BGAPI runs a switch api command in the background. The Job-UUID is
// generated client-side so the result registration exists before the
// command is sent; Wait on the returned job for the result.
func (s *Session) BGAPI(ctx context.Context, command string) (*Job, error) {
	jobUUID := uuid.NewString()

	job, err := s.correlator.RegisterJob(jobUUID)
	if err != nil {
		return nil, err
	}

	headers := []Header{{Name: frame.HeaderJobUUID, Value: jobUUID}}

	reply, err := s.send(ctx, "bgapi "+command, headers, nil, false)
	if err != nil {
		s.correlator.ReleaseJob(job)

		return nil, err
	}

	if !strings.HasPrefix(reply.ReplyText(), "+OK") {
		s.correlator.ReleaseJob(job)

		return nil, fmt.Errorf("bgapi rejected: %s", reply.ReplyText())
	}

	return &Job{UUID: jobUUID, session: s, job: job}, nil
}

// EnableEvents subscribes the session to the named event types ("ALL"
// for everything) in the given wire format.
func (s *Session) EnableEvents(ctx context.Context, format EventFormat, events ...string) error {
	if len(events) == 0 {
		events = []string{"ALL"}
	}

	_, err := s.Send(ctx, "event "+string(format)+" "+strings.Join(events, " "))

	return err
}

// Filter asks the switch to only deliver events whose header matches the
// given value, e.g. Filter(ctx, "Unique-ID", id).
func (s *Session) Filter(ctx context.Context, header, value string) error {
	_, err := s.Send(ctx, "filter "+header+" "+value)

	return err
}

// MyEvents restricts event delivery to the session's own channel.
func (s *Session) MyEvents(ctx context.Context) error {
	_, err := s.Send(ctx, "myevents")

	return err
}

// Linger asks the switch to keep delivering events after hangup instead
// of dropping the connection immediately.
func (s *Session) Linger(ctx context.Context) error {
	_, err := s.Send(ctx, "linger")

	return err
}

// Exit tells the switch to end the connection. The disconnect notice
// that follows closes the session.
func (s *Session) Exit(ctx context.Context) error {
	_, err := s.Send(ctx, "exit")

	return err
}

// SendMsg is one sendmsg command block addressed to a channel.
type SendMsg struct {
	// Command is the call command: execute, hangup, unicast, nomedia or
	// xferext.
	Command string

	// App and Arg name the dialplan application and its argument; used
	// with the execute command.
	App string
	Arg string

	// UUID targets a specific channel. Empty targets the session's own
	// channel (outbound mode).
	UUID string

	// EventUUID correlates the CHANNEL_EXECUTE_COMPLETE event via its
	// Application-UUID header. Generated when empty and Command is
	// execute.
	EventUUID string

	// Cause is the hangup cause; used with the hangup command.
	Cause string

	// Lock serializes this command behind the channel's current
	// operation (event-lock).
	Lock bool

	// Headers are appended verbatim to the block.
	Headers []Header
}

// encode renders the multi-line sendmsg block.
func (m *SendMsg) encode() string {
	var b strings.Builder

	b.WriteString("sendmsg")

	if m.UUID != "" {
		b.WriteString(" " + m.UUID)
	}

	b.WriteString("\ncall-command: " + m.Command)

	if m.Command == "execute" {
		b.WriteString("\nexecute-app-name: " + m.App)

		if m.Arg != "" {
			b.WriteString("\nexecute-app-arg: " + m.Arg)
		}

		b.WriteString("\nEvent-UUID: " + m.EventUUID)
	}

	if m.Command == "hangup" {
		b.WriteString("\nhangup-cause: " + m.Cause)
	}

	if m.Lock {
		b.WriteString("\nevent-lock: true")
	}

	for _, h := range m.Headers {
		b.WriteString("\n" + h.Name + ": " + h.Value)
	}

	return b.String()
}

// SendMsg sends one sendmsg block and returns its command reply. It does
// not wait for the application to finish; use Execute for that.
func (s *Session) SendMsg(ctx context.Context, msg SendMsg) (*Frame, error) {
	if msg.Command == "execute" && msg.EventUUID == "" {
		msg.EventUUID = uuid.NewString()
	}

	return s.Send(ctx, msg.encode())
}

// Execute runs a dialplan application on the session's channel and waits
// for it to complete. Completion is the CHANNEL_EXECUTE_COMPLETE event
// whose Application-UUID matches this invocation; the subscription is
// registered before the command is sent so the event cannot be missed.
func (s *Session) Execute(ctx context.Context, app, arg string) (*Event, error) {
	eventUUID := uuid.NewString()
	complete := make(chan *Event, 1)

	sub := s.Subscribe(func(ev *Event) {
		if ev.Get(frame.HeaderApplicationUUID) == eventUUID {
			select {
			case complete <- ev:
			default:
			}
		}
	}, "CHANNEL_EXECUTE_COMPLETE")
	defer s.Unsubscribe(sub)

	reply, err := s.SendMsg(ctx, SendMsg{
		Command:   "execute",
		App:       app,
		Arg:       arg,
		EventUUID: eventUUID,
	})
	if err != nil {
		return nil, err
	}

	if !strings.HasPrefix(reply.ReplyText(), "+OK") {
		return nil, fmt.Errorf("execute %s rejected: %s", app, reply.ReplyText())
	}

	select {
	case ev := <-complete:
		return ev, nil

	case <-s.done:
		return nil, genErrors.ErrSessionClosed

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Answer answers the call.
func (s *Session) Answer(ctx context.Context) (*Event, error) {
	return s.Execute(ctx, "answer", "")
}

// Park moves the call to park.
func (s *Session) Park(ctx context.Context) (*Event, error) {
	return s.Execute(ctx, "park", "")
}

// Playback plays an audio file to the channel and waits for it to
// finish.
func (s *Session) Playback(ctx context.Context, path string) (*Event, error) {
	return s.Execute(ctx, "playback", path)
}

// Say reads text using the switch's pre-recorded sound files, e.g.
// Say(ctx, "en", "NUMBER", "pronounced", "FEMININE", "42").
func (s *Session) Say(ctx context.Context, module, kind, method, gender, text string) (*Event, error) {
	return s.Execute(ctx, "say", strings.Join([]string{module, kind, method, gender, text}, " "))
}

// SetVariable sets a channel variable.
func (s *Session) SetVariable(ctx context.Context, name, value string) (*Event, error) {
	return s.Execute(ctx, "set", name+"="+value)
}

// Hangup hangs the call up with the given cause (NORMAL_CLEARING when
// empty). Unlike Execute-based helpers it resolves on the command reply,
// not on a completion event.
func (s *Session) Hangup(ctx context.Context, cause string) (*Frame, error) {
	if cause == "" {
		cause = "NORMAL_CLEARING"
	}

	return s.SendMsg(ctx, SendMsg{Command: "hangup", Cause: cause})
}

// PlayAndGetDigits configures the play_and_get_digits application.
type PlayAndGetDigits struct {
	Min               int
	Max               int
	Tries             int
	Timeout           int
	Terminators       string
	File              string
	InvalidFile       string
	VarName           string
	Regexp            string
	DigitTimeout      int
	TransferOnFailure string
}

// PlayAndGetDigits plays a prompt and collects digits from the caller,
// waiting for the application to complete.
func (s *Session) PlayAndGetDigits(ctx context.Context, p PlayAndGetDigits) (*Event, error) {
	args := []string{
		strconv.Itoa(p.Min),
		strconv.Itoa(p.Max),
		strconv.Itoa(p.Tries),
		strconv.Itoa(p.Timeout),
		p.Terminators,
		p.File,
		p.InvalidFile,
		p.VarName,
		p.Regexp,
	}

	if p.DigitTimeout > 0 {
		args = append(args, strconv.Itoa(p.DigitTimeout))

		if p.TransferOnFailure != "" {
			args = append(args, p.TransferOnFailure)
		}
	}

	return s.Execute(ctx, "play_and_get_digits", strings.TrimRight(strings.Join(args, " "), " "))
}
