package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Init configures the global logrus logger. format is "text" or "json".
func Init(out io.Writer, level string, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("logger.Init: %w", err)
	}

	logrus.SetLevel(lvl)
	logrus.SetOutput(out)

	switch strings.ToLower(format) {
	case "", "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("logger.Init: unknown log format %q", format)
	}

	return nil
}
