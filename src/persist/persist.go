/*
Package persist keeps a store's entity graph in a SQL database. There is one
table per entity kind, named after the kind, holding the entity's flat record,
plus forum_thread_tag for the ordered tags of each forum. References between
entities are object ID columns.

Both backends share the SQL: statements are built with goqu for the backend's
dialect, and the schema is created by the versioned migrations in the
migrations package.
*/
package persist

import (
	"context"
	"errors"

	"git.handmade.network/hmn/forumsync/src/config"
	"git.handmade.network/hmn/forumsync/src/db"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/persist/types"
	"git.handmade.network/hmn/forumsync/src/store"
	"github.com/doug-martin/goqu/v9"
)

var ErrUnknownDriver = errors.New("unknown store driver")

type Options struct {
	// The most rows a single delete or insert statement may carry.
	BatchSize int
}

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return store.DefaultBatchSize
	}
	return o.BatchSize
}

// Backend is a durable store backend that manages its own schema.
type Backend interface {
	store.Backend

	// Migrate moves the schema to target, or to the latest migration if
	// target is zero.
	Migrate(ctx context.Context, target types.MigrationVersion) error
	ListMigrations(ctx context.Context) ([]MigrationStatus, error)
	Close() error
}

var (
	_ Backend = &SQLite{}
	_ Backend = &Postgres{}
)

/*
Open connects to the backend the config names. The memory driver has no
backend, so Open returns a nil Backend for it; a store with no backend keeps
everything in memory.
*/
func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	opts := Options{BatchSize: cfg.BatchSize}
	switch cfg.Driver {
	case config.DriverMemory:
		return nil, nil
	case config.DriverSQLite:
		backend, err := OpenSQLite(ctx, cfg.SQLitePath, opts)
		if err != nil {
			return nil, err
		}
		return backend, nil
	case config.DriverPostgres:
		pool, err := db.NewConnPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		backend, err := OpenPostgres(ctx, pool, opts)
		if err != nil {
			pool.Close()
			return nil, err
		}
		backend.ownsPool = true
		return backend, nil
	default:
		return nil, oops.New(ErrUnknownDriver, "cannot open store driver %q", cfg.Driver)
	}
}

// What the shared save, load, and migrate code needs from a driver.
type database interface {
	dialect() goqu.DialectWrapper
	exec(ctx context.Context, sql string, args ...any) error
	// queryString returns the single string a query selects, and whether
	// there was a row at all.
	queryString(ctx context.Context, sql string, args ...any) (string, bool, error)
	inTx(ctx context.Context, f func(tx types.Execer) error) error
}
