// Package logtrace initializes the process-wide logger.
package logtrace

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func InitLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// IsTraceEnabled gates route-table dumps and other verbose startup output.
func IsTraceEnabled() bool {
	return os.Getenv("KUDO_TRACE") != ""
}
