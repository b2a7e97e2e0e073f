package config

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Debug mode logs human-readable text
// at debug level; otherwise JSON at the configured level.
func NewLogger(cfg LoggingConfig, debugMode bool) *logrus.Logger {
	return newLogger(cfg, debugMode, os.Stderr)
}

func newLogger(cfg LoggingConfig, debugMode bool, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if debugMode || strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if debugMode {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	if debugMode {
		logger.Debug("Debug logging enabled")
	}
	return logger
}
