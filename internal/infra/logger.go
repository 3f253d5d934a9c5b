package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide logger. Production emits JSON to
// stdout at info level; development uses the console writer at debug
// level so provider and dedup traces stay readable.
func NewLogger(appEnv string) zerolog.Logger {
	out := io.Writer(os.Stdout)
	level := zerolog.InfoLevel
	if appEnv == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		level = zerolog.DebugLevel
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "uplift-api").
		Logger()
}

// Logger lets callers outside infra depend on the logging contract
// without importing the zerolog module directly.
type Logger = zerolog.Logger
