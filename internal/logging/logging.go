package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger and returns it. Level falls back
// to info when the configured value does not parse.
func Setup(level string, pretty bool) zerolog.Logger {
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if pretty {
		logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
	}

	log.Logger = logger
	return logger
}
