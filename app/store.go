package app

import (
	"context"
	"fmt"

	"github.com/xraph/groupbuy/config"
	"github.com/xraph/groupbuy/store"
	"github.com/xraph/groupbuy/store/memory"
	"github.com/xraph/groupbuy/store/mongo"
	"github.com/xraph/groupbuy/store/postgres"
	"github.com/xraph/groupbuy/store/sqlite"
)

// openStore connects the backend named by cfg.Driver. Migration happens
// later, when the engine starts.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "", config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.DSN)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DSN)
	case config.DriverMongo:
		return mongo.Open(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.Driver)
	}
}
