package persist

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/persist/types"
	"git.handmade.network/hmn/forumsync/src/store"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLite is the local database backend.
type SQLite struct {
	db   *sqlx.DB
	opts Options
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

/*
OpenSQLite opens or creates the database at path, creating its directory if
needed. The path ":memory:" gives a private in-memory database. The schema is
not touched; call Migrate before the first Load.
*/
func OpenSQLite(ctx context.Context, path string, opts Options) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, oops.New(err, "failed to create directory for %s", path)
		}
	}

	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, oops.New(err, "failed to open sqlite database %s", path)
	}
	// One connection, so an in-memory database is the same database on every
	// query and writers never contend.
	conn.SetMaxOpenConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, oops.New(err, "failed to apply %q", pragma)
		}
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, oops.New(err, "failed to connect to sqlite database %s", path)
	}

	return &SQLite{db: conn, opts: opts}, nil
}

func (s *SQLite) Load(ctx context.Context) (*models.Dump, error) {
	return load(ctx, s)
}

func (s *SQLite) Save(ctx context.Context, changes *store.Changeset) error {
	return save(ctx, s, changes, s.opts.batchSize())
}

func (s *SQLite) Migrate(ctx context.Context, target types.MigrationVersion) error {
	return migrate(ctx, s, target)
}

func (s *SQLite) ListMigrations(ctx context.Context) ([]MigrationStatus, error) {
	return listMigrations(ctx, s)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) dialect() goqu.DialectWrapper {
	return goqu.Dialect("sqlite3")
}

func (s *SQLite) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *SQLite) queryString(ctx context.Context, query string, args ...any) (string, bool, error) {
	var result string
	err := s.db.GetContext(ctx, &result, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return result, true, nil
}

func (s *SQLite) inTx(ctx context.Context, f func(tx types.Execer) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return oops.New(err, "failed to start transaction")
	}
	defer tx.Rollback()

	if err := f(sqlxExecer{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return oops.New(err, "failed to commit transaction")
	}
	return nil
}

type sqlxExecer struct {
	tx *sqlx.Tx
}

func (e sqlxExecer) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.tx.ExecContext(ctx, query, args...)
	return err
}
