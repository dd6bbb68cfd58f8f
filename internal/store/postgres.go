package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// Postgres adapts a pgx pool to DB.
type Postgres struct {
	pgConn
	pool *pgxpool.Pool
}

// NewPostgres wraps an already connected pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pgConn: pgConn{q: pool}, pool: pool}
}

// Engine reports EnginePostgres.
func (p *Postgres) Engine() Engine { return EnginePostgres }

// Begin starts a transaction.
func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, unavailable("begin", err)
	}
	return &pgTx{pgConn: pgConn{q: tx}, tx: tx}, nil
}

// Ping verifies connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// SizeBytes returns pg_database_size for the current database.
func (p *Postgres) SizeBytes(ctx context.Context) (int64, error) {
	var size int64
	if err := p.QueryRow(ctx, `SELECT pg_database_size(current_database())`).Scan(&size); err != nil {
		return 0, err
	}
	return size, nil
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// pgConn implements Querier for both the pool and a transaction.
type pgConn struct {
	q pgQuerier
}

func (c pgConn) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := c.q.Exec(ctx, Rebind(query), args...)
	if err != nil {
		return 0, translatePostgres(err)
	}
	return tag.RowsAffected(), nil
}

func (c pgConn) QueryRow(ctx context.Context, query string, args ...any) Row {
	return pgRow{row: c.q.QueryRow(ctx, Rebind(query), args...)}
}

func (c pgConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.q.Query(ctx, Rebind(query), args...)
	if err != nil {
		return nil, translatePostgres(err)
	}
	return pgRows{rows: rows}, nil
}

type pgTx struct {
	pgConn
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error {
	return translatePostgres(t.tx.Commit(ctx))
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return translatePostgres(err)
	}
	return nil
}

type pgRow struct {
	row pgx.Row
}

func (r pgRow) Scan(dest ...any) error {
	return translatePostgres(r.row.Scan(dest...))
}

type pgRows struct {
	rows pgx.Rows
}

func (r pgRows) Next() bool             { return r.rows.Next() }
func (r pgRows) Scan(dest ...any) error { return translatePostgres(r.rows.Scan(dest...)) }
func (r pgRows) Err() error             { return translatePostgres(r.rows.Err()) }
func (r pgRows) Close()                 { r.rows.Close() }

func translatePostgres(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoRows
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
		// class 08: connection exception, 57P0x: server shutting down
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P0"):
			return unavailable("postgres", err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return unavailable("postgres", err)
	}
	return err
}

// Rebind rewrites '?' placeholders into postgres' $n form. Question marks
// inside single-quoted literals are left alone.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
