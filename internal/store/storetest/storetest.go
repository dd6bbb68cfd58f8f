// Package storetest opens throwaway stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/consultacpf/consulta-clientes/internal/infra"
	"github.com/consultacpf/consulta-clientes/internal/store"
)

// NewSQLite returns a schema-initialized sqlite store in t.TempDir().
func NewSQLite(t testing.TB) store.DB {
	t.Helper()
	ctx := context.Background()

	sqlDB, err := infra.OpenSQLite(ctx, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := store.NewSQLite(sqlDB)
	t.Cleanup(func() { db.Close() })

	if err := store.EnsureSchema(ctx, db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return db
}
