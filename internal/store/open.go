package store

import (
	"context"
	"time"
)

// Open selects the Postgres or embedded SQLite backend per spec §6
// (DATABASE_URL set -> Postgres; unset -> embedded file store) and runs
// its migrations before returning.
func Open(ctx context.Context, dsn string, sqliteFallbackPath string, poolSize, overflow int32, recycle time.Duration) (Gateway, error) {
	var gw Gateway
	var err error
	if dsn != "" {
		gw, err = OpenPostgres(ctx, dsn, poolSize, overflow, recycle)
	} else {
		gw, err = OpenSQLite(sqliteFallbackPath)
	}
	if err != nil {
		return nil, err
	}
	if err := gw.Migrate(ctx); err != nil {
		gw.Close()
		return nil, err
	}
	return gw, nil
}
