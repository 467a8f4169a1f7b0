package transaction

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ErrRollbackOnly is returned when a transaction completes without error but
// was marked rollback-only.
var ErrRollbackOnly = errors.New("transaction rolled back because it has been marked as rollback-only")

//go:generate mockgen -destination=mock/provider.go -package=mock . Provider

// UnitOfWork represents unit of work.
type UnitOfWork struct {
	Execute func(context.Context, *Tx, interface{}) (interface{}, error)
	Data    interface{}
}

// Options configures a transaction.
type Options struct {
	// Timeout bounds the whole transaction. Zero means no deadline.
	Timeout   time.Duration
	ReadOnly  bool
	Isolation sql.IsolationLevel
}

// TxOptions converts these options for database/sql.
func (o Options) TxOptions() *sql.TxOptions {
	return &sql.TxOptions{Isolation: o.Isolation, ReadOnly: o.ReadOnly}
}

// Provider provides transaction context, commit and rollback.
type Provider interface {
	WithTransaction(context.Context, Options, ...UnitOfWork) (interface{}, error)
}

// Tx is the transaction handle passed explicitly to every unit of work.
type Tx struct {
	*sqlx.Tx
	deadline *Deadline
}

// NewTx binds a database transaction to its deadline.
func NewTx(tx *sqlx.Tx, deadline *Deadline) *Tx {
	return &Tx{Tx: tx, deadline: deadline}
}

// Deadline returns the deadline bound to this transaction.
func (tx *Tx) Deadline() *Deadline {
	if tx == nil {
		return nil
	}
	return tx.deadline
}

// HasDeadline reports whether the transaction has a timeout.
func (tx *Tx) HasDeadline() bool {
	return tx.Deadline().HasDeadline()
}

// RemainingSeconds returns the whole seconds left before the deadline.
func (tx *Tx) RemainingSeconds() (int, error) {
	return tx.Deadline().RemainingSeconds()
}

// Expired reports whether the deadline has passed.
func (tx *Tx) Expired() bool {
	return tx.Deadline().Expired()
}
