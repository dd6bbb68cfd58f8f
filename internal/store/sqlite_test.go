package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/consultacpf/consulta-clientes/internal/store"
	"github.com/consultacpf/consulta-clientes/internal/store/storetest"
)

func TestSQLiteSchemaIsIdempotent(t *testing.T) {
	db := storetest.NewSQLite(t)
	if err := store.EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
	if db.Engine() != store.EngineSQLite {
		t.Fatalf("unexpected engine %q", db.Engine())
	}
}

func TestSQLiteTranslatesErrors(t *testing.T) {
	db := storetest.NewSQLite(t)
	ctx := context.Background()

	var id int64
	err := db.QueryRow(ctx, `SELECT id FROM customers WHERE national_id = ?`, "missing").Scan(&id)
	if !errors.Is(err, store.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}

	insert := `INSERT INTO customers (name, national_id) VALUES (?, ?)`
	first, err := store.InsertReturningID(ctx, db, insert, "Ana", "12345678909")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first <= 0 {
		t.Fatalf("expected generated id, got %d", first)
	}
	if _, err := store.InsertReturningID(ctx, db, insert, "Bia", "12345678909"); !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestSQLiteRollbackDiscardsWrites(t *testing.T) {
	db := storetest.NewSQLite(t)
	ctx := context.Background()

	tx, err := db.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO customers (name, national_id) VALUES (?, ?)`, "Ana", "1"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	// second rollback is a no-op
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("repeat rollback: %v", err)
	}

	var n int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected rollback to discard insert, got %d rows", n)
	}

	size, err := db.SizeBytes(ctx)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size <= 0 {
		t.Fatalf("expected positive size, got %d", size)
	}
}
