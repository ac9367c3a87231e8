package genesis

import (
	"log/slog"
	"time"
)

// Option configures sessions and servers using the functional options
// pattern.
type Option func(*options)

type options struct {
	logger         *slog.Logger
	commandTimeout time.Duration
	authTimeout    time.Duration
	connectTimeout time.Duration
	myEvents       bool
	linger         bool
}

// applyOptions applies functional options over the defaults.
func applyOptions(opts []Option) *options {
	options := &options{
		authTimeout:    10 * time.Second,
		connectTimeout: 5 * time.Second,
		linger:         true,
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.logger == nil {
		options.logger = NopLogger()
	}

	return options
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCommandTimeout bounds how long Send waits for a reply. Zero (the
// default) waits until the reply arrives, the context ends, or the
// session closes. On timeout the command's eventual reply is drained and
// discarded; the session remains usable.
func WithCommandTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.commandTimeout = timeout
	}
}

// WithAuthTimeout bounds the inbound handshake: waiting for the switch's
// auth request plus the auth exchange. Default 10s.
func WithAuthTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.authTimeout = timeout
	}
}

// WithConnectTimeout bounds the outbound per-connection handshake (the
// connect command and its channel-data reply). Default 5s.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.connectTimeout = timeout
	}
}

// WithMyEvents makes outbound sessions negotiate myevents instead of
// subscribing to all events. The switch then only delivers events for
// the session's own channel.
func WithMyEvents() Option {
	return func(o *options) {
		o.myEvents = true
	}
}

// WithLinger controls whether outbound sessions ask the switch to keep
// delivering events after hangup. Enabled by default.
func WithLinger(linger bool) Option {
	return func(o *options) {
		o.linger = linger
	}
}
