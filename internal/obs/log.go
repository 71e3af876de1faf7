// Package obs wires the ambient observability stack: structured logging
// (rs/zerolog fronted by logur) and OpenTelemetry tracing. Grounded on
// sidedotdev-sidekick's logger package (zerolog.New + console writer +
// level-from-env) and its logur.LoggerToKV(zerologadapter.New(...)) call
// sites in worker.go/temporal.go, simplified: cc-dump is a single-session
// CLI tool, not a long-running service, so there is no daily log
// rotation or async write buffering — just a console writer to stderr
// (stdout is reserved for the terminal UI).
package obs

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	zerologadapter "logur.dev/adapter/zerolog"
	"logur.dev/logur"
)

const logLevelEnv = "CCDUMP_LOG_LEVEL"

// NewLogger builds the process-wide structured logger. Output goes to
// stderr so it never interleaves with the Bubble Tea terminal UI on
// stdout.
func NewLogger() logur.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	level := zerolog.InfoLevel
	if raw := os.Getenv(logLevelEnv); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	zl := zerolog.New(writer).Level(level).With().Timestamp().Logger()

	return zerologadapter.New(zl)
}

// errorfLogger adapts a logur.Logger to the narrow Errorf-only contract
// internal/recorder depends on, keeping that package decoupled from the
// concrete logging stack.
type errorfLogger struct {
	logur.Logger
}

func (l errorfLogger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// AsErrorf adapts any logur.Logger to the recorder.Logger interface.
func AsErrorf(l logur.Logger) errorfLogger {
	return errorfLogger{l}
}
