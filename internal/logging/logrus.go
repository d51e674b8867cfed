package logging

import (
	"github.com/sirupsen/logrus"

	dslerrors "github.com/jacoelho/commsdsl/errors"
)

// LogrusSink adapts a logrus logger into a Sink.
func LogrusSink(log *logrus.Logger) Sink {
	if log == nil {
		log = logrus.New()
	}
	return func(severity dslerrors.Severity, msg string) {
		log.Log(logrusLevel(severity), msg)
	}
}

func logrusLevel(s dslerrors.Severity) logrus.Level {
	switch s {
	case dslerrors.Debug:
		return logrus.DebugLevel
	case dslerrors.Info:
		return logrus.InfoLevel
	case dslerrors.Warning:
		return logrus.WarnLevel
	default:
		return logrus.ErrorLevel
	}
}
