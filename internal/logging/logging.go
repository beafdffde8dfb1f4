// Package logging provides the structured logger shared across the
// core: subprocess invocations log through it rather than ad-hoc
// fmt.Printf calls, and the CLI's --debug flag sets its level.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// SetDebug toggles debug-level logging, set from the CLI's --debug flag.
func SetDebug(enabled bool) {
	if enabled {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}

// Debugf logs a formatted debug message.
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Infof logs a formatted info message.
func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Errorf logs a formatted error message.
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// With returns a sub-logger carrying the given key/value pairs on every
// subsequent message, e.g. logging.With("stage", "ingestor").
func With(keyvals ...interface{}) *log.Logger {
	return logger.With(keyvals...)
}
