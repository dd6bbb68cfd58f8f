// Package store is the SQL boundary shared by every repository. Statements
// are written once with '?' placeholders; each engine adapter binds the
// values as parameters, so the repositories never branch on the engine.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Engine names the backing relational engine.
type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineSQLite   Engine = "sqlite"
)

var (
	// ErrNoRows is returned by Row.Scan when the query matched nothing.
	ErrNoRows = errors.New("no rows in result set")

	// ErrUniqueViolation reports a write rejected by a uniqueness constraint.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrUnavailable reports that the store could not serve the operation at all.
	ErrUnavailable = errors.New("store unavailable")
)

// Row is a single-row query result.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a multi-row query result. Close must be called once iteration ends.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Querier executes parameterized statements.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Tx is a store transaction.
type Tx interface {
	Querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB is a SQL-capable connection handle.
type DB interface {
	Querier
	Begin(ctx context.Context) (Tx, error)
	Engine() Engine
	Ping(ctx context.Context) error
	// SizeBytes reports the on-disk size of the database.
	SizeBytes(ctx context.Context) (int64, error)
	Close() error
}

// InsertReturningID runs an INSERT statement and returns the generated id.
// Both engines understand RETURNING, so the clause is appended here.
func InsertReturningID(ctx context.Context, q Querier, insert string, args ...any) (int64, error) {
	var id int64
	if err := q.QueryRow(ctx, insert+" RETURNING id", args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
