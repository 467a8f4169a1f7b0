package repro

import (
	"fmt"
	"time"

	"github.com/code-and-chill/txdeadline/pkg/deadline"
)

// Outcome is the logical result of running a scenario.
type Outcome int

const (
	// OutcomeOK means the statement ran and the transaction committed.
	OutcomeOK = Outcome(iota + 1)
	// OutcomeDeadlineExceeded means the transaction ran out of time.
	OutcomeDeadlineExceeded
	// OutcomeFailed means any other failure.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeDeadlineExceeded:
		return "deadline exceeded"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Classify maps an error returned by Service.Execute to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case deadline.IsExceeded(err):
		return OutcomeDeadlineExceeded
	default:
		return OutcomeFailed
	}
}

// Scenario describes one transaction run.
type Scenario struct {
	Name string
	// Timeout of the transaction, 0 for none.
	Timeout    time.Duration
	BeforeWait time.Duration
	AfterWait  time.Duration
	Want       Outcome
}

// Scenarios returns the reference runs for a transaction timeout and a delay
// longer than it:
//   - before-timeout: the statement runs right away and succeeds.
//   - after-timeout: the statement is reached after the deadline and fails.
//   - no-timeout: without a deadline the delay does not matter.
func Scenarios(timeout, delay time.Duration) []Scenario {
	return []Scenario{
		{Name: "before-timeout", Timeout: timeout, Want: OutcomeOK},
		{Name: "after-timeout", Timeout: timeout, BeforeWait: delay, Want: OutcomeDeadlineExceeded},
		{Name: "no-timeout", BeforeWait: delay, Want: OutcomeOK},
	}
}
