package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

func New(environment string) zerolog.Logger {
	return NewWithWriter(environment, os.Stdout)
}

// NewWithWriter logs human-readable output in development and JSON elsewhere.
func NewWithWriter(environment string, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	writer := out
	if environment == "development" {
		level = zerolog.DebugLevel
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Str("service", "fleet-analytics").
		Logger()
}
