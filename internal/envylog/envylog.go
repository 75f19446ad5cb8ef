// Package envylog configures the engine's structured logger, reusing
// logrus the way the teacher's linter reported diagnostics to stderr.
package envylog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger gated by levelName ("debug", "info", "warn",
// "error") and optionally switched to JSON formatting for machine
// consumption (CI, log aggregators).
func New(levelName string, jsonFormat bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if jsonFormat {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: false,
		})
	}
	return log
}

// Discard returns a logger that drops every entry, for tests and library
// callers that haven't opted into envy's logging.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
