// Package logging builds the root zerolog logger.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"roomcast/internal/config"
)

// New returns a logger writing to w: human-readable for the "console"
// format, one JSON object per line otherwise. An unparseable level falls
// back to info.
func New(cfg config.LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out := w
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()
}
