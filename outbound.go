package genesis

import (
	"context"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	genErrors "github.com/Netzvamp/Genesis/internal/errors"
)

// OutboundHandler processes one switch-initiated call session. The
// session is Ready when the handler runs and is closed when it returns,
// on every exit path including a panic.
type OutboundHandler func(ctx context.Context, s *Session)

// OutboundServer accepts connections the switch initiates per call and
// binds one Session to each.
type OutboundServer struct {
	log     *slog.Logger
	opts    *options
	handler OutboundHandler

	sessionMu sync.Mutex
	sessions  map[*Session]struct{}
}

// NewOutboundServer returns a server that hands each accepted call
// session to handler.
func NewOutboundServer(handler OutboundHandler, opts ...Option) *OutboundServer {
	options := applyOptions(opts)

	return &OutboundServer{
		log:      options.logger.With("component", "outbound"),
		opts:     options,
		handler:  handler,
		sessions: make(map[*Session]struct{}),
	}
}

// ListenAndServe listens on the given TCP address and serves until ctx
// ends or the listener fails.
func (o *OutboundServer) ListenAndServe(ctx context.Context, address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return &genErrors.StreamError{Err: err}
	}

	return o.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx ends or the listener
// fails, running one handler per connection. It returns after the accept
// loop stops and every in-flight handler has finished.
func (o *OutboundServer) Serve(ctx context.Context, ln net.Listener) error {
	o.log.Info("Outbound server listening", "address", ln.Addr().String())

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		<-ctx.Done()

		return ln.Close()
	})

	group.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					// Listener closed by the shutdown goroutine.
					return nil
				}

				return &genErrors.StreamError{Err: err}
			}

			group.Go(func() error {
				o.handle(ctx, conn)

				return nil
			})
		}
	})

	err := group.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	return err
}

// ActiveSessions returns the number of sessions currently being handled.
func (o *OutboundServer) ActiveSessions() int {
	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()

	return len(o.sessions)
}

// handle runs the outbound handshake for one accepted connection and
// invokes the handler. Cleanup is guaranteed on every exit path.
func (o *OutboundServer) handle(ctx context.Context, conn net.Conn) {
	log := o.log.With("remote", conn.RemoteAddr().String())
	log.Debug("Accepted switch connection")

	s := newSession(conn, o.opts)
	s.start()

	o.track(s)

	defer func() {
		if r := recover(); r != nil {
			log.Error("Outbound handler panicked", "panic", r)
		}

		o.untrack(s)

		_ = s.Close()

		log.Debug("Session released")
	}()

	if err := o.handshake(ctx, s); err != nil {
		log.Warn("Outbound handshake failed", "error", err)

		return
	}

	log.Info("Call session ready", "unique_id", s.UniqueID())

	o.handler(ctx, s)
}

// handshake sends connect, captures the channel-data reply, and runs the
// configured event and linger negotiation.
func (o *OutboundServer) handshake(ctx context.Context, s *Session) error {
	hctx, cancel := context.WithTimeout(ctx, o.opts.connectTimeout)
	defer cancel()

	channelData, err := s.sendHandshake(hctx, "connect")
	if err != nil {
		return err
	}

	s.setChannelData(channelData)
	s.setState(StateReady)

	if o.opts.myEvents {
		if _, err := s.Send(hctx, "myevents"); err != nil {
			return err
		}
	} else {
		if _, err := s.Send(hctx, "events plain ALL"); err != nil {
			return err
		}
	}

	if o.opts.linger {
		if _, err := s.Send(hctx, "linger"); err != nil {
			return err
		}
	}

	return nil
}

func (o *OutboundServer) track(s *Session) {
	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()

	o.sessions[s] = struct{}{}
}

func (o *OutboundServer) untrack(s *Session) {
	o.sessionMu.Lock()
	defer o.sessionMu.Unlock()

	delete(o.sessions, s)
}
