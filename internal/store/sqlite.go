package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLite adapts a database/sql handle opened with the modernc driver to DB.
type SQLite struct {
	sqlConn
	db *sql.DB
}

// NewSQLite wraps an open handle.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{sqlConn: sqlConn{q: db}, db: db}
}

// Engine reports EngineSQLite.
func (s *SQLite) Engine() Engine { return EngineSQLite }

// Begin starts a transaction.
func (s *SQLite) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin", err)
	}
	return &sqlTx{sqlConn: sqlConn{q: tx}, tx: tx}, nil
}

// Ping verifies the database file is usable.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// SizeBytes returns page_count * page_size.
func (s *SQLite) SizeBytes(ctx context.Context) (int64, error) {
	var size int64
	err := s.QueryRow(ctx, `SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`).Scan(&size)
	if err != nil {
		return 0, err
	}
	return size, nil
}

// Close closes the handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// sqlConn implements Querier for both *sql.DB and *sql.Tx.
type sqlConn struct {
	q sqlQuerier
}

func (c sqlConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, translateSQLite(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translateSQLite(err)
	}
	return n, nil
}

func (c sqlConn) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlRow{row: c.q.QueryRowContext(ctx, query, args...)}
}

func (c sqlConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateSQLite(err)
	}
	return sqlRows{rows: rows}, nil
}

type sqlTx struct {
	sqlConn
	tx *sql.Tx
}

func (t *sqlTx) Commit(context.Context) error {
	return translateSQLite(t.tx.Commit())
}

func (t *sqlTx) Rollback(context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return translateSQLite(err)
	}
	return nil
}

type sqlRow struct {
	row *sql.Row
}

func (r sqlRow) Scan(dest ...any) error {
	return translateSQLite(r.row.Scan(dest...))
}

type sqlRows struct {
	rows *sql.Rows
}

func (r sqlRows) Next() bool             { return r.rows.Next() }
func (r sqlRows) Scan(dest ...any) error { return translateSQLite(r.rows.Scan(dest...)) }
func (r sqlRows) Err() error             { return translateSQLite(r.rows.Err()) }
func (r sqlRows) Close()                 { _ = r.rows.Close() }

func translateSQLite(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	if errors.Is(err, sql.ErrConnDone) {
		return unavailable("sqlite", err)
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrUniqueViolation, err)
		case sqlite3.SQLITE_CONSTRAINT:
			if strings.Contains(se.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("%w: %v", ErrUniqueViolation, err)
			}
		}
		// primary result code lives in the low byte
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN,
			sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL, sqlite3.SQLITE_READONLY:
			return unavailable("sqlite", err)
		}
	}
	return err
}
