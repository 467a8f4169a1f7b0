package repro

import (
	"context"
	"fmt"
	"time"

	"github.com/code-and-chill/txdeadline/pkg/logger"
	"github.com/code-and-chill/txdeadline/pkg/mysql"
	"github.com/code-and-chill/txdeadline/pkg/transaction"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const currentTimestampQuery = "SELECT CURRENT_TIMESTAMP()"

// Path selects how the timestamp query reaches the database.
type Path int

const (
	// PathMapper prepares the statement and lets the interceptors reconcile it.
	PathMapper = Path(iota + 1)
	// PathTemplate runs the query directly with a reconciled per call timeout.
	PathTemplate
)

func (p Path) String() string {
	switch p {
	case PathMapper:
		return "mapper"
	case PathTemplate:
		return "template"
	default:
		return fmt.Sprintf("path(%d)", int(p))
	}
}

// TimestampSupplier reads the database clock inside tx.
type TimestampSupplier func(ctx context.Context, tx *transaction.Tx) (time.Time, error)

// NewSupplier returns the supplier for path.
func NewSupplier(db mysql.MySQL, path Path) (TimestampSupplier, error) {
	switch path {
	case PathMapper:
		return func(ctx context.Context, tx *transaction.Tx) (time.Time, error) {
			stmt, err := db.Prepare(ctx, tx, currentTimestampQuery)
			if err != nil {
				return time.Time{}, err
			}
			defer stmt.Close()
			var now time.Time
			err = stmt.Get(ctx, &now)
			return now, err
		}, nil
	case PathTemplate:
		return func(ctx context.Context, tx *transaction.Tx) (time.Time, error) {
			var now time.Time
			err := db.GetInTx(ctx, tx, &now, currentTimestampQuery)
			return now, err
		}, nil
	default:
		return nil, errors.Errorf("unknown path %d", int(path))
	}
}

// Waiter blocks for d or until ctx is done.
type Waiter func(ctx context.Context, d time.Duration) error

// Sleep is the Waiter used outside of tests.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// Service reads the database clock inside a transaction, waiting before and
// after the query.
type Service struct {
	provider transaction.Provider
	path     Path
	supplier TimestampSupplier
	logger   *logger.Logger
	wait     Waiter
}

// NewService instantiates a new Service reading the clock through path.
// A nil wait defaults to Sleep.
func NewService(provider transaction.Provider, db mysql.MySQL, path Path, logger *logger.Logger, wait Waiter) (*Service, error) {
	supplier, err := NewSupplier(db, path)
	if err != nil {
		return nil, err
	}
	if wait == nil {
		wait = Sleep
	}
	return &Service{
		provider: provider,
		path:     path,
		supplier: supplier,
		logger:   logger,
		wait:     wait,
	}, nil
}

// Execute runs the scenario once and returns the database timestamp.
// The waits stand for work that knows nothing about the transaction: they
// honour ctx but not the transaction deadline, so an overrun surfaces at the
// next statement.
func (s *Service) Execute(ctx context.Context, scenario Scenario) (time.Time, error) {
	data, err := s.provider.WithTransaction(ctx, transaction.Options{Timeout: scenario.Timeout}, transaction.UnitOfWork{
		Execute: func(txCtx context.Context, tx *transaction.Tx, _ interface{}) (interface{}, error) {
			if err := s.wait(ctx, scenario.BeforeWait); err != nil {
				return nil, err
			}
			now, err := s.supplier(txCtx, tx)
			if err != nil {
				return nil, err
			}
			s.logger.WithFields(logrus.Fields{
				"scenario":  scenario.Name,
				"timestamp": now,
			}).Info("read database clock")
			if err := s.wait(ctx, scenario.AfterWait); err != nil {
				return nil, err
			}
			return now, nil
		},
	})
	if err != nil {
		return time.Time{}, err
	}
	results, ok := data.([]interface{})
	if !ok || len(results) != 1 {
		return time.Time{}, errors.Errorf("unexpected transaction result %v", data)
	}
	now, ok := results[0].(time.Time)
	if !ok {
		return time.Time{}, errors.Errorf("unexpected timestamp %v", results[0])
	}
	return now, nil
}

// Report is the result of one scenario run.
type Report struct {
	Scenario  Scenario
	Path      Path
	Outcome   Outcome
	Timestamp time.Time
	Err       error
}

// Passed reports whether the run ended as the scenario expects.
func (r Report) Passed() bool {
	return r.Outcome == r.Scenario.Want
}

// Run executes every scenario in order and reports each outcome.
func (s *Service) Run(ctx context.Context, scenarios ...Scenario) []Report {
	reports := make([]Report, 0, len(scenarios))
	for _, scenario := range scenarios {
		now, err := s.Execute(ctx, scenario)
		report := Report{
			Scenario:  scenario,
			Path:      s.path,
			Outcome:   Classify(err),
			Timestamp: now,
			Err:       err,
		}
		log := s.logger.WithFields(logrus.Fields{
			"scenario": scenario.Name,
			"path":     s.path,
			"outcome":  report.Outcome,
			"want":     scenario.Want,
		})
		if err != nil {
			log = log.WithField("err", err)
		}
		if report.Passed() {
			log.Info("scenario finished")
		} else {
			log.Warn("scenario finished with unexpected outcome")
		}
		reports = append(reports, report)
	}
	return reports
}
