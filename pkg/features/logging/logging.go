// Package logging sets up the process wide zerolog logger used by the lambdas.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger to write JSON lines to stdout,
// where the Lambda runtime forwards them to CloudWatch.
func Setup(level, function string) zerolog.Logger {
	return SetupWithWriter(os.Stdout, level, function)
}

func SetupWithWriter(w io.Writer, level, function string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	logger := zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("function", function).
		Logger()

	log.Logger = logger
	return logger
}
