package app

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger for packages that only pass it along.
type Logger = zerolog.Logger

// NewLogger builds the application logger: human readable console output
// at debug level in development, JSON at info level otherwise.
func NewLogger(appEnv string) zerolog.Logger {
	return newLogger(os.Stderr, appEnv)
}

func newLogger(w io.Writer, appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == EnvDevelopment {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()

	if appEnv == EnvDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}
	return logger
}
