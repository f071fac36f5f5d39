// Package logging builds the application's zerolog loggers.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New returns the root logger, console-formatted, with the level taken
// from PROMPTLENS_LOG_LEVEL (default info).
func New() zerolog.Logger {
	level := zerolog.InfoLevel
	if raw := strings.TrimSpace(os.Getenv("PROMPTLENS_LOG_LEVEL")); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}
	return zerolog.New(zerolog.NewConsoleWriter()).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
