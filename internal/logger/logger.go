// Package logger wraps zerolog with the component-tagged logger pattern
// used throughout the daemon: one logger per subsystem, built once at boot
// from the [logging] config section.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/pingwarden/pingwarden/internal/models"
)

// Logger is the interface every subsystem depends on, never the concrete
// zerolog.Logger, so tests can substitute a no-op implementation.
type Logger interface {
	Trace() *zerolog.Event
	Debug() *zerolog.Event
	Info() *zerolog.Event
	Warn() *zerolog.Event
	Error() *zerolog.Event
	WithComponent(component string) Logger
}

type wrapped struct {
	z zerolog.Logger
}

// New builds the root logger from the config's [logging] section.
func New(cfg models.LoggingConfig) (Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}

		out = f
	}

	z := zerolog.New(out).Level(level).With().Timestamp().Logger()

	return &wrapped{z: z}, nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() Logger {
	return &wrapped{z: zerolog.Nop()}
}

func (w *wrapped) Trace() *zerolog.Event { return w.z.Trace() }
func (w *wrapped) Debug() *zerolog.Event { return w.z.Debug() }
func (w *wrapped) Info() *zerolog.Event  { return w.z.Info() }
func (w *wrapped) Warn() *zerolog.Event  { return w.z.Warn() }
func (w *wrapped) Error() *zerolog.Event { return w.z.Error() }

func (w *wrapped) WithComponent(component string) Logger {
	return &wrapped{z: w.z.With().Str("component", component).Logger()}
}
