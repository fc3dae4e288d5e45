package engine

import (
	"log/slog"

	"github.com/roach88/digisim/internal/signal"
)

const (
	// DefaultMaxEvents is the per-Run event quota when none is given.
	DefaultMaxEvents = 100_000

	// DefaultMaxDeltas is how many times a net may change at one timestamp.
	DefaultMaxDeltas = 1_000

	// DefaultHistory is the number of component updates kept for diagnostics.
	DefaultHistory = 16
)

// Config holds the engine settings. It is built once by New and never
// changes afterwards.
type Config struct {
	// MaxEvents bounds the events processed by one Run.
	MaxEvents uint64

	// MaxTime is the default time horizon of Run. signal.Never disables it.
	MaxTime signal.Time

	// MaxDeltas bounds the changes of one net at one timestamp.
	MaxDeltas int

	// History is the size of the update ring attached to errors.
	History int

	Logger    *slog.Logger
	Observers []Observer
}

// DefaultConfig returns the configuration used when no option is given.
func DefaultConfig() Config {
	return Config{
		MaxEvents: DefaultMaxEvents,
		MaxTime:   signal.Never,
		MaxDeltas: DefaultMaxDeltas,
		History:   DefaultHistory,
		Logger:    slog.Default(),
	}
}

// Option configures an Engine at construction.
type Option func(*Config)

// WithMaxEvents sets the default event quota of Run.
//
// Use WithMaxEvents(10) in tests of oscillation detection.
func WithMaxEvents(n uint64) Option {
	return func(c *Config) {
		c.MaxEvents = n
	}
}

// WithMaxTime sets the default time horizon of Run.
func WithMaxTime(t signal.Time) Option {
	return func(c *Config) {
		c.MaxTime = t
	}
}

// WithMaxDeltas sets how many times one net may change at one timestamp
// before the engine reports oscillation.
func WithMaxDeltas(n int) Option {
	return func(c *Config) {
		c.MaxDeltas = n
	}
}

// WithHistory sets the number of recent updates attached to
// SimulationError.
func WithHistory(n int) Option {
	return func(c *Config) {
		c.History = n
	}
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithObserver subscribes o before the first event.
func WithObserver(o Observer) Option {
	return func(c *Config) {
		c.Observers = append(c.Observers, o)
	}
}
