package mysql

import (
	"context"

	"github.com/code-and-chill/txdeadline/pkg/transaction"

	"github.com/pkg/errors"
)

type transactionProvider struct {
	db MySQL
}

// NewTransactionProvider instantiates a new transaction provider.
func NewTransactionProvider(db MySQL) (transaction.Provider, error) {
	if db == nil {
		return nil, errors.New("mysql is required")
	}
	return &transactionProvider{db}, nil
}

// WithTransaction wraps multiple unit of works with transaction.
func (t *transactionProvider) WithTransaction(ctx context.Context, opts transaction.Options, unitOfWorks ...transaction.UnitOfWork) (interface{}, error) {
	result, err := t.db.WithTransaction(ctx, opts, func(ctx context.Context, tx *transaction.Tx, ch chan Result) {
		txRes := Result{Data: nil, Error: nil}
		var resultData []interface{}
		for _, unitOfWork := range unitOfWorks {
			uowData, uowErr := unitOfWork.Execute(ctx, tx, unitOfWork.Data)
			if uowErr != nil {
				txRes.Error = uowErr
				ch <- txRes
				return
			}
			resultData = append(resultData, uowData)
		}
		txRes.Data = resultData
		ch <- txRes
	})

	if err != nil {
		return nil, errors.WithStack(err)
	}

	if result.Error != nil {
		return nil, errors.WithStack(result.Error)
	}
	return result.Data, nil
}
