package deadline

// TransactionContext exposes the remaining time budget of a transaction.
type TransactionContext interface {
	// HasDeadline reports whether the transaction was started with a timeout.
	HasDeadline() bool

	// RemainingSeconds returns the whole seconds left before the deadline.
	// It fails with a KindDeadlineExceeded error once the deadline is reached.
	RemainingSeconds() (int, error)
}

// StatementTimeout is the command timeout of a prepared statement, in seconds.
// Zero means no timeout.
type StatementTimeout interface {
	QueryTimeout() int
	SetQueryTimeout(seconds int)
}

// Reconcile lowers the statement timeout to the remaining seconds of tx.
// A nil tx or a tx without a deadline leaves the statement untouched, and a
// timeout that is already tighter than the remaining budget is kept.
func Reconcile(tx TransactionContext, stmt StatementTimeout) error {
	if tx == nil || !tx.HasDeadline() {
		return nil
	}
	remaining, err := tx.RemainingSeconds()
	if err != nil {
		return err
	}
	current := stmt.QueryTimeout()
	if current == 0 || remaining < current {
		stmt.SetQueryTimeout(remaining)
	}
	return nil
}
