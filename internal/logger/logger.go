package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog level and output and returns the root
// logger. format "pretty" writes colorized console output for development;
// anything else emits JSON lines.
func Setup(level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	root := zerolog.New(os.Stdout)
	if format == "pretty" {
		root = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	root = root.With().Timestamp().Caller().Logger()

	// Keep the package-level logger in sync so components that log via
	// zerolog/log share the same sink.
	log.Logger = root

	return root
}
