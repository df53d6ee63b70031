package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

const EnvDevelopment = "development"

// New constructs a zerolog.Logger writing to w. Development gets debug level
// and the human console writer; everything else is JSON at info level.
func New(env string, w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	if env == EnvDevelopment {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	if env == EnvDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true})
	}

	return logger
}

// Nop is used where a caller does not care about audit output.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// WithLevel overrides the level New picked. An empty level keeps it.
func WithLevel(logger zerolog.Logger, raw string) (zerolog.Logger, error) {
	if raw == "" {
		return logger, nil
	}

	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return logger, fmt.Errorf("parse log level %q: %w", raw, err)
	}

	return logger.Level(level), nil
}
