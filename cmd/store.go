package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pointpattern/internal/db"
	"github.com/sells-group/pointpattern/internal/store"
)

// initStore opens and migrates the configured run store.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// initPostGIS connects to the database holding feature tables.
func initPostGIS(ctx context.Context) (*pgxpool.Pool, error) {
	url := cfg.PostGIS.URL(cfg.Store)
	if url == "" {
		return nil, eris.New("postgis database url is required (POINTPATTERN_POSTGIS_DATABASE_URL)")
	}
	pool, err := db.Connect(ctx, url, cfg.PostGIS.Pool)
	if err != nil {
		return nil, eris.Wrap(err, "connect postgis")
	}
	return pool, nil
}
