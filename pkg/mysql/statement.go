package mysql

import (
	"context"
	"database/sql"
	"time"

	"github.com/code-and-chill/txdeadline/pkg/deadline"
	"github.com/code-and-chill/txdeadline/pkg/transaction"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// MySQL server errors raised when a running statement is interrupted.
const (
	errQueryInterrupted    = 1317
	errMaxExecutionTimeout = 3024
)

// Interceptor adjusts a statement right after it is prepared.
type Interceptor func(ctx context.Context, tx *transaction.Tx, stmt *Statement) error

// TimeoutReflector lowers the statement timeout to what is left of the
// transaction deadline.
func TimeoutReflector(_ context.Context, tx *transaction.Tx, stmt *Statement) error {
	return deadline.Reconcile(tx, stmt)
}

// Statement is a prepared statement with a command timeout in seconds.
type Statement struct {
	stmt    *sqlx.Stmt
	tx      *transaction.Tx
	timeout int
}

func newStatement(stmt *sqlx.Stmt, tx *transaction.Tx, timeout int) *Statement {
	s := &Statement{stmt: stmt, tx: tx}
	s.SetQueryTimeout(timeout)
	return s
}

// QueryTimeout returns the statement timeout in seconds, 0 when unset.
func (s *Statement) QueryTimeout() int {
	return s.timeout
}

// SetQueryTimeout sets the statement timeout. Negative values clear it.
func (s *Statement) SetQueryTimeout(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	s.timeout = seconds
}

// Get executes the statement and scans a single row into dest.
func (s *Statement) Get(ctx context.Context, dest interface{}, args ...interface{}) error {
	return run(ctx, s.tx, s.timeout, "get", func(ctx context.Context) error {
		return s.stmt.GetContext(ctx, dest, args...)
	})
}

// Select executes the statement and scans all rows into dest.
func (s *Statement) Select(ctx context.Context, dest interface{}, args ...interface{}) error {
	return run(ctx, s.tx, s.timeout, "select", func(ctx context.Context) error {
		return s.stmt.SelectContext(ctx, dest, args...)
	})
}

// Exec executes the statement.
func (s *Statement) Exec(ctx context.Context, args ...interface{}) (sql.Result, error) {
	var res sql.Result
	err := run(ctx, s.tx, s.timeout, "exec", func(ctx context.Context) error {
		var err error
		res, err = s.stmt.ExecContext(ctx, args...)
		return err
	})
	return res, err
}

// Close releases the prepared statement.
func (s *Statement) Close() error {
	return errors.WithStack(s.stmt.Close())
}

type queryTimeout struct {
	seconds int
}

func (q *queryTimeout) QueryTimeout() int { return q.seconds }

func (q *queryTimeout) SetQueryTimeout(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	q.seconds = seconds
}

func run(ctx context.Context, tx *transaction.Tx, timeout int, op string, fn func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}
	return classify(ctx, tx, op, fn(ctx))
}

type expirer interface {
	Expired() bool
}

// classify turns an interruption caused by the transaction running out of
// time into a deadline exceeded error. Any other failure is returned as is.
func classify(ctx context.Context, tx expirer, op string, err error) error {
	if err == nil {
		return nil
	}
	if deadline.IsExceeded(err) {
		return err
	}
	if interrupted(ctx, err) && tx.Expired() {
		return deadline.Exceeded(op, err)
	}
	return errors.WithStack(err)
}

func interrupted(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, sql.ErrTxDone) {
		return true
	}
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == errQueryInterrupted || myErr.Number == errMaxExecutionTimeout
	}
	return false
}
