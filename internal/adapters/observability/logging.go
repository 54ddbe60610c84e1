package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the gateway's root zerolog Logger, tagged with the
// service name so api and warmer output can be told apart when aggregated.
// APP_ENV=dev (or development) switches to a human-friendly console writer;
// anything else emits JSON for log shippers.
func NewLogger(env string) zerolog.Logger {
	out := zerolog.New(os.Stdout)
	if env == "dev" || env == "development" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return out.With().Timestamp().Str("service", "campus-market").Logger()
}
