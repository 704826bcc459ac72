// Package logger builds the zerolog logger used by the CLI.
package logger

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line.
const ServiceName = "sensorlog"

// New returns a logger writing to w at the given level. Pretty selects
// human-readable console output; otherwise lines are JSON. Unknown levels
// fall back to info.
func New(w io.Writer, level string, pretty bool) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && l != zerolog.NoLevel {
		lvl = l
	}

	if pretty {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}
