package infra

import (
	"context"

	"github.com/consultacpf/consulta-clientes/internal/config"
	"github.com/consultacpf/consulta-clientes/internal/store"
)

// OpenStore picks the storage engine from configuration: postgres when
// DATABASE_URL is set, the embedded sqlite file otherwise.
func OpenStore(ctx context.Context, cfg config.Config) (store.DB, error) {
	if cfg.DatabaseURL != "" {
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL, cfg.AppName)
		if err != nil {
			return nil, err
		}
		return store.NewPostgres(pool), nil
	}

	db, err := OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	return store.NewSQLite(db), nil
}
