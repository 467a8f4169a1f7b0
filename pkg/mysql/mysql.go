package mysql

import (
	"context"
	"database/sql"

	"github.com/code-and-chill/txdeadline/pkg/deadline"
	"github.com/code-and-chill/txdeadline/pkg/logger"
	"github.com/code-and-chill/txdeadline/pkg/timegenerator"
	"github.com/code-and-chill/txdeadline/pkg/transaction"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.elastic.co/apm/module/apmsql"

	// driver
	_ "go.elastic.co/apm/module/apmsql/mysql"
)

// Result wraps transaction result.
type Result struct {
	Data  interface{}
	Error error
}

// Block is a transaction block. The transaction handle is passed explicitly
// and ctx expires together with the transaction.
type Block func(ctx context.Context, tx *transaction.Tx, ch chan Result)

// MySQL provides an interface to access MySQL.
type MySQL interface {
	WithTransaction(ctx context.Context, opts transaction.Options, block Block) (Result, error)
	Prepare(ctx context.Context, tx *transaction.Tx, query string) (*Statement, error)
	GetInTx(ctx context.Context, tx *transaction.Tx, dest interface{}, query string, args ...interface{}) error
	ExecInTx(ctx context.Context, tx *transaction.Tx, query string, args ...interface{}) (sql.Result, error)
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Shutdown()
}

type mysql struct {
	master       *sqlx.DB
	slave        *sqlx.DB
	logger       *logger.Logger
	timegen      timegenerator.TimeGenerator
	interceptors []Interceptor
	queryTimeout int
}

// New instantiates a new MySQL.
func New(config Config, logger *logger.Logger) (MySQL, error) {
	var master, slave *sqlx.DB

	master, err := connect(config.Master, logger)
	if err != nil {
		logger.WithField("err", err).Error()
		return nil, errors.WithStack(err)
	}

	if config.Slave != nil {
		var err error
		slave, err = connect(*config.Slave, logger)
		if err != nil {
			logger.WithField("err", err).Error()
			return nil, errors.WithStack(err)
		}
	}
	return newMySQL(master, slave, config, logger, timegenerator.NewTimeGenerator()), nil
}

// NewWithDB instantiates a MySQL over already opened connections. slave may be nil.
func NewWithDB(master, slave *sqlx.DB, config Config, logger *logger.Logger, timegen timegenerator.TimeGenerator) MySQL {
	return newMySQL(master, slave, config, logger, timegen)
}

func newMySQL(master, slave *sqlx.DB, config Config, logger *logger.Logger, timegen timegenerator.TimeGenerator) *mysql {
	interceptors := config.Interceptors
	if len(interceptors) == 0 {
		interceptors = []Interceptor{TimeoutReflector}
	}
	return &mysql{
		master:       master,
		slave:        slave,
		logger:       logger,
		timegen:      timegen,
		interceptors: interceptors,
		queryTimeout: config.QueryTimeout,
	}
}

func connect(config ConnectionConfig, logger *logger.Logger) (*sqlx.DB, error) {
	logger.WithField("host", config.Host).Debug("initializing mysql connection")
	db, err := apmsql.Open("mysql", config.DSN())
	if err != nil {
		logger.WithField("err", err).Error()
		return nil, errors.WithStack(err)
	}
	if err := db.Ping(); err != nil {
		logger.WithField("err", err).Error()
		return nil, errors.WithStack(err)
	}
	logger.WithField("host", config.Host).Debug("connected to mysql")
	db.SetMaxOpenConns(config.ConnectionLimit)
	conn := sqlx.NewDb(db, "mysql")
	conn = conn.Unsafe()
	return conn, nil
}

// Mode represents mysql mode.
type Mode int

const (
	// ModeWrite represents a mode write.
	ModeWrite = Mode(iota + 1)
	// ModeRead represents a mode read.
	ModeRead
)

// GetActiveDB gets the active db for specific mode.
func (m *mysql) GetActiveDB(mode Mode) *sqlx.DB {
	if m.slave == nil {
		return m.master
	}
	switch mode {
	case ModeRead:
		return m.slave
	default:
		return m.master
	}
}

// WithTransaction starts a transaction on the master and runs block in it.
// When opts.Timeout is set, ctx handed to block carries the transaction
// deadline so statements still running when it passes are cancelled. The
// transaction itself is bound to the caller's ctx only: it stays open until
// block returns and is then rolled back if the deadline has passed.
func (m *mysql) WithTransaction(ctx context.Context, opts transaction.Options, block Block) (Result, error) {
	dl := transaction.NewDeadline(m.timegen, opts.Timeout)
	txCtx := ctx
	if at, ok := dl.Time(); ok {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithDeadline(ctx, at)
		defer cancel()
	}
	log := m.logger.WithDeadline(dl)

	sqlTx, err := m.master.BeginTxx(ctx, opts.TxOptions())
	if err != nil {
		err = classify(txCtx, dl, "begin", err)
		log.WithTxError(err).Error("begin failed")
		return Result{Data: nil, Error: err}, err
	}
	log.Debug("transaction started")

	tx := transaction.NewTx(sqlTx, dl)
	c := make(chan Result, 1)
	go block(txCtx, tx, c)
	result := <-c

	if result.Error == nil && dl.Expired() {
		result.Error = deadline.Exceeded("commit", nil)
	}
	if result.Error == nil && dl.RollbackOnly() {
		result.Error = errors.WithStack(transaction.ErrRollbackOnly)
	}

	if result.Error != nil {
		if deadline.IsExceeded(result.Error) {
			log.WithTxError(result.Error).Warn("transaction deadline exceeded, rolling back")
		}
		if err := sqlTx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.WithTxError(err).Error("rollback failed")
		}
		log.Debug("transaction rolled back")
		return result, nil
	}

	if err := sqlTx.Commit(); err != nil {
		err = classify(txCtx, dl, "commit", err)
		log.WithTxError(err).Error("commit failed")
		return Result{Data: result.Data, Error: err}, err
	}
	log.Debug("transaction committed")
	return result, nil
}

// Prepare prepares query on tx and runs the interceptors on the statement.
// Preparing is not bounded by the transaction deadline; an expired deadline
// is reported by the interceptors. A nil tx prepares on the master outside of
// any transaction.
func (m *mysql) Prepare(ctx context.Context, tx *transaction.Tx, query string) (*Statement, error) {
	var (
		stmt *sqlx.Stmt
		err  error
	)
	if tx == nil || tx.Tx == nil {
		stmt, err = m.GetActiveDB(ModeWrite).PreparexContext(ctx, query)
	} else {
		stmt, err = tx.PreparexContext(context.WithoutCancel(ctx), query)
	}
	if err != nil {
		return nil, classify(ctx, tx, "prepare", err)
	}

	s := newStatement(stmt, tx, m.queryTimeout)
	for _, intercept := range m.interceptors {
		if err := intercept(ctx, tx, s); err != nil {
			if deadline.IsExceeded(err) {
				m.logger.WithField("query", query).Warn("transaction deadline exceeded before statement execution")
			}
			_ = stmt.Close()
			return nil, err
		}
	}
	return s, nil
}

// GetInTx runs a single row query on tx without preparing it first. The query
// timeout is reconciled with the transaction deadline the same way prepared
// statements are. A nil tx runs on the master.
func (m *mysql) GetInTx(ctx context.Context, tx *transaction.Tx, dest interface{}, query string, args ...interface{}) error {
	timeout := &queryTimeout{seconds: m.queryTimeout}
	if err := deadline.Reconcile(tx, timeout); err != nil {
		return err
	}
	return run(ctx, tx, timeout.seconds, "get", func(ctx context.Context) error {
		return sqlx.GetContext(ctx, m.executor(tx), dest, query, args...)
	})
}

// ExecInTx executes query on tx without preparing it first.
func (m *mysql) ExecInTx(ctx context.Context, tx *transaction.Tx, query string, args ...interface{}) (sql.Result, error) {
	timeout := &queryTimeout{seconds: m.queryTimeout}
	if err := deadline.Reconcile(tx, timeout); err != nil {
		return nil, err
	}
	var res sql.Result
	err := run(ctx, tx, timeout.seconds, "exec", func(ctx context.Context) error {
		var err error
		res, err = m.executor(tx).ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

func (m *mysql) executor(tx *transaction.Tx) sqlx.ExtContext {
	if tx == nil || tx.Tx == nil {
		return m.GetActiveDB(ModeWrite)
	}
	return tx.Tx
}

// Get gets data from database.
func (m *mysql) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) (err error) {
	return m.GetActiveDB(ModeRead).GetContext(ctx, dest, query, args...)
}

// Shutdown shuts the server down.
func (m *mysql) Shutdown() {
	if m.master != nil {
		m.logger.Debug("closing master mysql database connection")
		m.master.Close()
	}
	if m.slave != nil {
		m.logger.Debug("closing slave mysql database connection")
		m.slave.Close()
	}
}
