package migrations

import (
	"context"

	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/persist/types"
)

var All = make(map[types.MigrationVersion]types.Migration)

func registerMigration(m types.Migration) {
	All[m.Version()] = m
}

// Runs statements one at a time; not every driver accepts several per call.
func execAll(ctx context.Context, tx types.Execer, what string, stmts ...string) error {
	for _, stmt := range stmts {
		if err := tx.Exec(ctx, stmt); err != nil {
			return oops.New(err, "failed to %s", what)
		}
	}
	return nil
}
