package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so a repository can be
// bound to the pool or to a running transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	ErrDuplicateEntry   = errors.New("duplicate entry")
	ErrMissingReference = errors.New("referenced row does not exist")
	ErrUnknownTarget    = errors.New("unknown target kind")
	ErrDeadlock         = errors.New("transaction deadlock")
)

// MySQLDSN forces the driver options the repositories rely on: DATETIME
// columns scan into time.Time.
func MySQLDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// OpenMySQL opens a pool on dsn and checks it is reachable.
func OpenMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	normalized, err := MySQLDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, err
	}
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// MySQL server error numbers.
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrNoReferencedRow = 1452
	mysqlErrLockDeadlock    = 1213
)

// classify maps the MySQL constraint violations and deadlocks callers care about onto
// repository sentinels and leaves everything else untouched.
func classify(err error) error {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return err
	}
	switch mysqlErr.Number {
	case mysqlErrDuplicateEntry:
		return errors.Join(ErrDuplicateEntry, err)
	case mysqlErrNoReferencedRow:
		return errors.Join(ErrMissingReference, err)
	case mysqlErrLockDeadlock:
		return errors.Join(ErrDeadlock, err)
	default:
		return err
	}
}
