package logger

import (
	"time"

	"github.com/code-and-chill/txdeadline/pkg/deadline"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DeadlineSource exposes the instant a transaction times out.
type DeadlineSource interface {
	Time() (time.Time, bool)
}

// WithDeadline returns an entry tagged with the transaction deadline, or
// deadline=none when the transaction has no timeout.
func (l *Logger) WithDeadline(d DeadlineSource) *Entry {
	at, ok := d.Time()
	if !ok {
		return &Entry{l.WithField("deadline", "none")}
	}
	return &Entry{l.WithField("deadline", at.UTC().Format(time.RFC3339Nano))}
}

// Entry is a logrus entry aware of transaction errors.
type Entry struct {
	*logrus.Entry
}

// WithTxError adds err, and for classified deadline errors also its kind and
// the operation that detected it.
func (e *Entry) WithTxError(err error) *logrus.Entry {
	entry := e.WithField("err", err)
	var dlErr *deadline.Error
	if errors.As(err, &dlErr) {
		entry = entry.WithFields(logrus.Fields{
			"kind": dlErr.Kind,
			"op":   dlErr.Op,
		})
	}
	return entry
}
