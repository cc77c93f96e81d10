// Package logging configures the process-wide logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// Setup configures log.DefaultLogger. format is "console" for human-readable
// output or "json" for one JSON object per line.
func Setup(level, format string) {
	SetupWriter(level, format, os.Stderr)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(level, format string, w io.Writer) {
	logger := log.Logger{
		Level:      ParseLevel(level),
		Caller:     1,
		TimeFormat: "2006-01-02T15:04:05Z07:00",
	}
	if strings.EqualFold(format, "json") {
		logger.Writer = &log.IOWriter{Writer: w}
	} else {
		logger.Writer = &log.ConsoleWriter{Writer: w, ColorOutput: false, QuoteString: true}
	}
	log.DefaultLogger = logger
}

// ParseLevel maps a level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
