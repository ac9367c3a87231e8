package genesis

import (
	"context"
	"fmt"
	"net"
	"strings"

	genErrors "github.com/Netzvamp/Genesis/internal/errors"
)

// Dial connects to a switch's event socket, authenticates, and returns a
// ready session.
//
// The handshake waits for the switch's auth/request frame, answers it
// with "auth <password>", and checks for a +OK reply. A rejected
// password yields *AuthenticationError; there is no automatic retry. The
// whole handshake is bounded by ctx and WithAuthTimeout.
func Dial(ctx context.Context, address, password string, opts ...Option) (*Session, error) {
	options := applyOptions(opts)

	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &genErrors.StreamError{Err: err}
	}

	return inboundSession(ctx, conn, password, options)
}

// NewInboundSession runs the inbound handshake over an already
// established duplex stream. Use this when the connection to the switch
// is made by something other than a plain TCP dial.
func NewInboundSession(ctx context.Context, stream Stream, password string, opts ...Option) (*Session, error) {
	return inboundSession(ctx, stream, password, applyOptions(opts))
}

func inboundSession(ctx context.Context, stream Stream, password string, options *options) (*Session, error) {
	s := newSession(stream, options)
	s.start()

	authCtx, cancel := context.WithTimeout(ctx, options.authTimeout)
	defer cancel()

	if err := s.authenticate(authCtx, password); err != nil {
		// authenticate already failed the session for auth rejections;
		// cover the timeout and teardown paths too.
		_ = s.Close()

		return nil, err
	}

	return s, nil
}

// authenticate drives Connecting → Authenticating → Ready.
func (s *Session) authenticate(ctx context.Context, password string) error {
	select {
	case <-s.authCh:
		s.log.Debug("Auth request received")

	case <-s.done:
		if err := s.Err(); err != nil {
			return err
		}

		return genErrors.ErrSessionClosed

	case <-ctx.Done():
		return fmt.Errorf("waiting for auth request: %w", ctx.Err())
	}

	s.setState(StateAuthenticating)

	reply, err := s.sendHandshake(ctx, "auth "+password)
	if err != nil {
		return fmt.Errorf("auth exchange: %w", err)
	}

	if !strings.HasPrefix(reply.ReplyText(), "+OK") {
		authErr := &genErrors.AuthenticationError{Reply: reply.ReplyText()}
		s.fail(authErr)

		return authErr
	}

	s.setState(StateReady)
	s.log.Info("Authenticated with switch")

	return nil
}
