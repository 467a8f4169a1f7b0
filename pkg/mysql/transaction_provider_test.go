package mysql

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/code-and-chill/txdeadline/pkg/deadline"
	"github.com/code-and-chill/txdeadline/pkg/transaction"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionProvider_RequiresMySQL(t *testing.T) {
	_, err := NewTransactionProvider(nil)
	assert.Error(t, err)
}

func TestTransactionProvider_WithTransaction(t *testing.T) {
	insert := "INSERT INTO audit (msg) VALUES (?)"
	write := func(m MySQL) transaction.UnitOfWork {
		return transaction.UnitOfWork{
			Execute: func(ctx context.Context, tx *transaction.Tx, data interface{}) (interface{}, error) {
				if _, err := m.ExecInTx(ctx, tx, insert, data); err != nil {
					return nil, err
				}
				return data, nil
			},
		}
	}

	t.Run("collects results of every unit of work", func(t *testing.T) {
		m, mock := newTestMySQL(t, &manualClock{now: time.Now()}, Config{})
		provider, err := NewTransactionProvider(m)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insert)).WithArgs("first").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(insert)).WithArgs("second").WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		first, second := write(m), write(m)
		first.Data, second.Data = "first", "second"

		data, err := provider.WithTransaction(context.Background(), transaction.Options{Timeout: 2 * time.Second}, first, second)

		require.NoError(t, err)
		assert.Equal(t, []interface{}{"first", "second"}, data)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops at the first failing unit of work", func(t *testing.T) {
		m, mock := newTestMySQL(t, &manualClock{now: time.Now()}, Config{})
		provider, err := NewTransactionProvider(m)
		require.NoError(t, err)

		failure := errors.New("duplicate entry")
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insert)).WithArgs("first").WillReturnError(failure)
		mock.ExpectRollback()

		first, second := write(m), write(m)
		first.Data, second.Data = "first", "second"

		_, err = provider.WithTransaction(context.Background(), transaction.Options{}, first, second)

		require.Error(t, err)
		assert.True(t, errors.Is(err, failure))
		assert.False(t, deadline.IsExceeded(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deadline exceeded between units of work", func(t *testing.T) {
		clock := &manualClock{now: time.Now()}
		m, mock := newTestMySQL(t, clock, Config{})
		provider, err := NewTransactionProvider(m)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(insert)).WithArgs("first").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectRollback()

		first, second := write(m), write(m)
		first.Data, second.Data = "first", "second"
		slow := transaction.UnitOfWork{
			Execute: func(ctx context.Context, tx *transaction.Tx, _ interface{}) (interface{}, error) {
				clock.Advance(3 * time.Second)
				return nil, nil
			},
		}

		_, err = provider.WithTransaction(context.Background(), transaction.Options{Timeout: 2 * time.Second}, first, slow, second)

		require.Error(t, err)
		assert.True(t, deadline.IsExceeded(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
