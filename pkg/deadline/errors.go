package deadline

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error.
type Kind int

const (
	// KindDeadlineExceeded means the transaction ran out of time.
	KindDeadlineExceeded = Kind(iota + 1)
)

func (k Kind) String() string {
	switch k {
	case KindDeadlineExceeded:
		return "deadline exceeded"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified transaction failure.
type Error struct {
	Kind Kind
	// Op names the call site that detected the failure, e.g. "remaining", "exec", "commit".
	Op  string
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Cause returns the underlying error, if any.
func (e *Error) Cause() error { return e.Err }

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error { return e.Err }

// Exceeded builds a KindDeadlineExceeded error for op, keeping err as the cause.
func Exceeded(op string, err error) error {
	return errors.WithStack(&Error{Kind: KindDeadlineExceeded, Op: op, Err: err})
}

// IsExceeded reports whether err is, or wraps, a KindDeadlineExceeded error.
func IsExceeded(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindDeadlineExceeded
}
