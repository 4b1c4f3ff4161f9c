package logrus

import (
	"github.com/sirupsen/logrus"

	cacher "github.com/cerberix-net/util-nuget-cacher"
)

var _ cacher.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New wraps l, tagging every entry with the component name.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "cacher")}
}

func (l LogrusLogger) Debug(msg string, f cacher.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f cacher.Fields) { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f cacher.Fields) { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f cacher.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
