package genesis

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output. Sessions and
// outbound servers fall back to it when no WithLogger option is given.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
