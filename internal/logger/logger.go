package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger for development and a JSON logger otherwise.
func New(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	if env == "development" || env == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().
			Timestamp().
			Logger().
			Level(zerolog.DebugLevel)
	}

	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", "factory-assistant").
		Logger().
		Level(zerolog.InfoLevel)
}
