package logging

import (
	"github.com/sirupsen/logrus"
)

// LogFormat selects the output encoding.
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// NewLogger configures the standard logger and returns it; packages using
// package-level logrus entries pick up the same configuration.
func NewLogger(format LogFormat) *logrus.Logger {
	logger := logrus.StandardLogger()
	switch format {
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
