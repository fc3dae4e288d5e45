package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/digisim/internal/engine"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// QuietEngine returns an engine that logs nothing. opts are applied after
// the logger option, so a test may still pass its own logger.
func QuietEngine(opts ...engine.Option) *engine.Engine {
	return engine.New(append([]engine.Option{engine.WithLogger(DiscardLogger())}, opts...)...)
}
