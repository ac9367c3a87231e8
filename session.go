package genesis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Netzvamp/Genesis/internal/correlate"
	"github.com/Netzvamp/Genesis/internal/dispatch"
	genErrors "github.com/Netzvamp/Genesis/internal/errors"
	"github.com/Netzvamp/Genesis/internal/frame"
)

// Stream is the duplex byte stream a Session speaks the protocol over.
// net.Conn satisfies it; tests use in-memory pipes.
type Stream interface {
	io.Reader
	io.Writer
	Close() error
}

// Session owns one connection to the switch: its read loop, write path,
// reply correlation, event dispatch, and lifecycle state machine.
//
// The one stream is written to only under the session's write mutex and
// read from only by the read loop. A Session is not reusable after it
// closes or fails.
type Session struct {
	log        *slog.Logger
	opts       *options
	stream     Stream
	dec        *frame.Decoder
	correlator *correlate.Correlator
	dispatcher *dispatch.Dispatcher

	// writeMu serializes all writers; at most one in-flight write.
	writeMu sync.Mutex

	stateMu     sync.RWMutex
	state       State
	channelData *Frame

	// authCh delivers the switch's auth/request frame to the inbound
	// handshake. Buffered so the read loop never blocks on it.
	authCh chan *Frame

	disconnectMu sync.Mutex
	onDisconnect []func()

	closeOnce sync.Once
	done      chan struct{}

	errMu    sync.RWMutex
	fatalErr error

	wg sync.WaitGroup
}

// NewSession binds a Session to an already-established duplex stream and
// starts its read loop. The session starts in StateConnecting; most
// callers want Dial or an OutboundServer instead, which also run the
// matching handshake.
func NewSession(stream Stream, opts ...Option) *Session {
	s := newSession(stream, applyOptions(opts))
	s.start()

	return s
}

func newSession(stream Stream, opts *options) *Session {
	log := opts.logger.With("component", "session")

	return &Session{
		log:        log,
		opts:       opts,
		stream:     stream,
		dec:        frame.NewDecoder(stream),
		correlator: correlate.New(opts.logger),
		dispatcher: dispatch.New(opts.logger),
		state:      StateConnecting,
		authCh:     make(chan *Frame, 1),
		done:       make(chan struct{}),
	}
}

func (s *Session) start() {
	s.wg.Add(1)

	go s.readLoop()
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return s.state
}

func (s *Session) setState(state State) {
	s.stateMu.Lock()
	old := s.state
	s.state = state
	s.stateMu.Unlock()

	if old != state {
		s.log.Debug("Session state changed", "from", old.String(), "to", state.String())
	}
}

// Done returns a channel that is closed when the session stops.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the fatal error that tore the session down, or nil after a
// clean close (or while the session is still live).
func (s *Session) Err() error {
	s.errMu.RLock()
	defer s.errMu.RUnlock()

	return s.fatalErr
}

// ChannelData returns the channel-data frame received as the reply to
// the connect command on outbound sessions, or nil on inbound sessions.
func (s *Session) ChannelData() *Frame {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return s.channelData
}

// UniqueID returns the Unique-ID of the controlled channel on outbound
// sessions, or "" when no channel data is present.
func (s *Session) UniqueID() string {
	if cd := s.ChannelData(); cd != nil {
		return cd.Get(frame.HeaderUniqueID)
	}

	return ""
}

func (s *Session) setChannelData(f *Frame) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	s.channelData = f
}

// Subscribe registers an event handler. With no event names the handler
// receives every event, including frames of unrecognized categories;
// otherwise only events matching one of the names (CUSTOM events match
// on their Event-Subclass).
func (s *Session) Subscribe(handler EventHandler, events ...string) Subscription {
	return s.dispatcher.Subscribe(handler, events...)
}

// Unsubscribe removes an event subscription.
func (s *Session) Unsubscribe(sub Subscription) {
	s.dispatcher.Unsubscribe(sub)
}

// OnDisconnect registers a callback invoked once when the session stops,
// whether by disconnect notice, transport failure, or Close. A callback
// registered after the session stopped runs immediately.
func (s *Session) OnDisconnect(fn func()) {
	s.disconnectMu.Lock()

	select {
	case <-s.done:
		s.disconnectMu.Unlock()

		go fn()

		return
	default:
	}

	s.onDisconnect = append(s.onDisconnect, fn)
	s.disconnectMu.Unlock()
}

// Send issues a single-line command and waits for its reply. It is legal
// to send from multiple goroutines and before earlier replies arrive;
// replies resolve strictly in send order.
//
// Send is accepted only in StateReady. The wait is bounded by ctx and by
// WithCommandTimeout; a timed-out command's reply is later drained and
// discarded without affecting other in-flight commands.
func (s *Session) Send(ctx context.Context, command string) (*Frame, error) {
	return s.send(ctx, command, nil, nil, false)
}

// SendBody issues a command followed by a body (such as the headers of a
// sendmsg block) and waits for its reply.
func (s *Session) SendBody(ctx context.Context, command string, body []byte) (*Frame, error) {
	return s.send(ctx, command, nil, body, false)
}

// sendHandshake bypasses the Ready check for commands that are part of
// the connection handshake (auth, connect).
func (s *Session) sendHandshake(ctx context.Context, command string) (*Frame, error) {
	return s.send(ctx, command, nil, nil, true)
}

func (s *Session) send(
	ctx context.Context,
	command string,
	headers []Header,
	body []byte,
	handshake bool,
) (*Frame, error) {
	switch state := s.State(); {
	case state == StateReady:
	case handshake && (state == StateConnecting || state == StateAuthenticating):
	case state == StateClosing || state == StateClosed || state == StateFailed:
		return nil, genErrors.ErrSessionClosed
	default:
		return nil, genErrors.ErrSessionNotReady
	}

	// Registration and write happen under the one write mutex so queue
	// order always equals wire order; concurrent senders cannot enqueue
	// in one order and write in the other. Registering first also means
	// a reply arriving immediately after the write cannot miss its
	// pending entry.
	s.writeMu.Lock()

	pending, err := s.correlator.Register(command)
	if err != nil {
		s.writeMu.Unlock()

		return nil, err
	}

	data := frame.Encode(command, headers, body)

	s.log.Debug("Sending command", "command", command)

	_, werr := s.stream.Write(data)
	s.writeMu.Unlock()

	if werr != nil {
		// Never hit the wire; safe to excise without breaking FIFO order.
		s.correlator.Remove(pending)

		streamErr := &genErrors.StreamError{Err: werr}
		s.fail(streamErr)

		return nil, streamErr
	}

	var timeout <-chan time.Time

	if s.opts.commandTimeout > 0 {
		timer := time.NewTimer(s.opts.commandTimeout)
		defer timer.Stop()

		timeout = timer.C
	}

	select {
	case outcome := <-pending.Resolved():
		return outcome.Frame, outcome.Err

	case <-timeout:
		s.correlator.Abandon(pending)
		s.log.Warn("Command timed out", "command", command, "timeout", s.opts.commandTimeout)

		return nil, genErrors.ErrCommandTimeout

	case <-ctx.Done():
		s.correlator.Abandon(pending)

		return nil, ctx.Err()
	}
}

// Close shuts the session down: the stream is released, every
// outstanding command and background job resolves with ErrSessionClosed,
// and disconnect callbacks fire. Safe to call multiple times.
func (s *Session) Close() error {
	s.shutdown(nil, StateClosed)

	return nil
}

func (s *Session) fail(err error) {
	s.shutdown(err, StateFailed)
}

// shutdown runs the one-and-only teardown path: state transition, waiter
// release, stream close, handler drain, disconnect callbacks.
func (s *Session) shutdown(cause error, final State) {
	s.closeOnce.Do(func() {
		s.setState(StateClosing)

		if cause != nil {
			s.errMu.Lock()
			s.fatalErr = cause
			s.errMu.Unlock()

			s.log.Warn("Session failed", "error", cause)
		}

		s.setState(final)
		close(s.done)

		waiterErr := cause
		if waiterErr == nil {
			waiterErr = genErrors.ErrSessionClosed
		}

		s.correlator.FailAll(waiterErr)

		if err := s.stream.Close(); err != nil {
			s.log.Debug("Stream close", "error", err)
		}

		s.disconnectMu.Lock()
		callbacks := s.onDisconnect
		s.onDisconnect = nil
		s.disconnectMu.Unlock()

		// Drain handlers and fire callbacks off the caller's goroutine;
		// shutdown may run on the read loop itself.
		go func() {
			s.dispatcher.Close()

			for _, fn := range callbacks {
				fn()
			}
		}()
	})
}

// readLoop pulls frames off the stream and routes them until the stream
// ends or the session is torn down.
func (s *Session) readLoop() {
	defer s.wg.Done()
	defer s.log.Debug("Session read loop stopped")

	for {
		f, err := s.dec.Next()
		if err != nil {
			s.handleReadError(err)

			return
		}

		if !s.route(f) {
			return
		}
	}
}

func (s *Session) handleReadError(err error) {
	select {
	case <-s.done:
		// Teardown already ran; the read error is the closed stream.
		return
	default:
	}

	// A stream ending mid-frame is still a peer disconnect, not a framing
	// violation on our side.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		s.log.Debug("Peer closed connection")
		s.shutdown(nil, StateClosed)

		return
	}

	var malformed *genErrors.MalformedFrameError
	if errors.As(err, &malformed) {
		s.fail(err)

		return
	}

	s.fail(&genErrors.StreamError{Err: err})
}

// route classifies one frame by Content-Type. It returns false when the
// read loop must stop (disconnect notice): after that no further replies
// or events are dispatched.
func (s *Session) route(f *Frame) bool {
	switch contentType := f.ContentType(); contentType {
	case frame.ContentAuthRequest:
		select {
		case s.authCh <- f:
		default:
		}

	case frame.ContentCommandReply, frame.ContentAPIResponse:
		s.correlator.ResolveReply(f)

	case frame.ContentEventPlain, frame.ContentEventJSON:
		ev, err := frame.ParseEvent(f)
		if err != nil {
			s.log.Warn("Dropping undecodable event frame", "error", err)

			return true
		}

		s.log.Debug("Received event", "event", ev.Key())

		// Resolve the job table before fan-out so a waiter never loses
		// the race against its own result event.
		if ev.Name() == frame.EventBackgroundJob {
			s.correlator.ResolveJob(ev.Get(frame.HeaderJobUUID), ev)
		}

		s.dispatcher.Dispatch(ev)

	case frame.ContentDisconnectNotice, frame.ContentRudeRejection:
		if f.Get(frame.HeaderContentDisposition) == "linger" {
			s.log.Debug("Disconnect notice with linger; events continue")

			return true
		}

		s.log.Info("Disconnect notice received", "content_type", contentType)
		s.shutdown(nil, StateClosed)

		return false

	default:
		// Unknown categories go to catch-all subscribers only; forward
		// compatible with content types this engine does not know.
		s.dispatcher.Dispatch(frame.RawEvent(f))
	}

	return true
}
