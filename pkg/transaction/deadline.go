package transaction

import (
	"math"
	"time"

	"github.com/code-and-chill/txdeadline/pkg/deadline"
	"github.com/code-and-chill/txdeadline/pkg/timegenerator"
	"go.uber.org/atomic"
)

// Deadline tracks the time budget of a single transaction.
// A nil *Deadline behaves like a transaction without timeout.
type Deadline struct {
	timegen      timegenerator.TimeGenerator
	at           time.Time
	hasDeadline  bool
	rollbackOnly *atomic.Bool
}

// NewDeadline starts the clock of a transaction. A zero or negative timeout
// means the transaction has no deadline.
func NewDeadline(timegen timegenerator.TimeGenerator, timeout time.Duration) *Deadline {
	d := &Deadline{
		timegen:      timegen,
		rollbackOnly: atomic.NewBool(false),
	}
	if timeout > 0 {
		d.at = timegen.Now().Add(timeout)
		d.hasDeadline = true
	}
	return d
}

// HasDeadline reports whether a timeout was configured.
func (d *Deadline) HasDeadline() bool {
	return d != nil && d.hasDeadline
}

// Time returns the instant the transaction times out.
func (d *Deadline) Time() (time.Time, bool) {
	if !d.HasDeadline() {
		return time.Time{}, false
	}
	return d.at, true
}

// Remaining returns the time left before the deadline. It is only meaningful
// when HasDeadline is true.
func (d *Deadline) Remaining() time.Duration {
	if !d.HasDeadline() {
		return 0
	}
	return d.at.Sub(d.timegen.Now())
}

// RemainingSeconds returns the remaining time rounded up to whole seconds.
// Once the deadline is reached the transaction is marked rollback-only and a
// deadline exceeded error is returned instead.
func (d *Deadline) RemainingSeconds() (int, error) {
	if !d.HasDeadline() {
		return 0, nil
	}
	remaining := d.Remaining()
	secs := int(math.Ceil(remaining.Seconds()))
	if remaining <= 0 {
		d.rollbackOnly.Store(true)
		return 0, deadline.Exceeded("remaining", nil)
	}
	return secs, nil
}

// Expired reports whether the deadline has been reached.
func (d *Deadline) Expired() bool {
	return d.HasDeadline() && d.Remaining() <= 0
}

// MarkRollbackOnly forces the transaction to roll back on completion.
func (d *Deadline) MarkRollbackOnly() {
	if d != nil {
		d.rollbackOnly.Store(true)
	}
}

// RollbackOnly reports whether the transaction must not commit.
func (d *Deadline) RollbackOnly() bool {
	return d != nil && d.rollbackOnly.Load()
}
