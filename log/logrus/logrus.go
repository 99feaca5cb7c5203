// Package logrus adapts a *logrus.Entry to doccache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/doccache"
)

var _ doccache.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every entry with component=doccache. A nil logger uses the
// logrus standard logger.
func New(l *logrus.Logger) Logger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return Logger{E: l.WithField("component", "doccache")}
}

func (l Logger) Debug(msg string, f doccache.Fields) { l.with(f).Debug(msg) }
func (l Logger) Info(msg string, f doccache.Fields)  { l.with(f).Info(msg) }
func (l Logger) Warn(msg string, f doccache.Fields)  { l.with(f).Warn(msg) }
func (l Logger) Error(msg string, f doccache.Fields) { l.with(f).Error(msg) }

// with routes an "err" field through WithError so formatters and hooks see
// it under logrus.ErrorKey.
func (l Logger) with(f doccache.Fields) *logrus.Entry {
	e := l.E
	if len(f) == 0 {
		return e
	}
	rest := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			e = e.WithError(err)
			continue
		}
		rest[k] = v
	}
	return e.WithFields(rest)
}
