package persist

import (
	"context"
	"errors"

	"git.handmade.network/hmn/forumsync/src/db"
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/persist/types"
	"git.handmade.network/hmn/forumsync/src/store"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the shared database backend.
type Postgres struct {
	pool     *pgxpool.Pool
	opts     Options
	ownsPool bool
}

// OpenPostgres uses an existing pool, which Close leaves open.
func OpenPostgres(ctx context.Context, pool *pgxpool.Pool, opts Options) (*Postgres, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, oops.New(err, "failed to connect to postgres")
	}
	return &Postgres{pool: pool, opts: opts}, nil
}

func (p *Postgres) Load(ctx context.Context) (*models.Dump, error) {
	return load(ctx, p)
}

func (p *Postgres) Save(ctx context.Context, changes *store.Changeset) error {
	return save(ctx, p, changes, p.opts.batchSize())
}

func (p *Postgres) Migrate(ctx context.Context, target types.MigrationVersion) error {
	return migrate(ctx, p, target)
}

func (p *Postgres) ListMigrations(ctx context.Context) ([]MigrationStatus, error) {
	return listMigrations(ctx, p)
}

func (p *Postgres) Close() error {
	if p.ownsPool {
		p.pool.Close()
	}
	return nil
}

func (p *Postgres) dialect() goqu.DialectWrapper {
	return goqu.Dialect("postgres")
}

func (p *Postgres) exec(ctx context.Context, query string, args ...any) error {
	return pgxExecer{conn: p.pool}.Exec(ctx, query, args...)
}

func (p *Postgres) queryString(ctx context.Context, query string, args ...any) (string, bool, error) {
	var result string
	err := p.pool.QueryRow(ctx, query, args...).Scan(&result)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return result, true, nil
}

func (p *Postgres) inTx(ctx context.Context, f func(tx types.Execer) error) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		return f(pgxExecer{conn: tx})
	})
}

type pgxExecer struct {
	conn db.ConnOrTx
}

func (e pgxExecer) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.conn.Exec(ctx, query, args...)
	return err
}

func collectRows[R any](ctx context.Context, conn db.ConnOrTx, query string) ([]R, error) {
	rows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[R])
}
