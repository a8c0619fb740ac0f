package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a configured logger. Level comes from LEADSCOUT_LOG_LEVEL
// (debug/info/warn/error), defaulting to info.
func New() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(levelFromEnv())
	return logger
}

// NewWithService returns a logger whose entries all carry a service field.
func NewWithService(service string) *logrus.Logger {
	logger := New()
	logger.AddHook(serviceHook{service: service})
	return logger
}

func levelFromEnv() logrus.Level {
	switch strings.ToLower(os.Getenv("LEADSCOUT_LOG_LEVEL")) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type serviceHook struct {
	service string
}

func (h serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h serviceHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = h.service
	return nil
}
