package persist

import (
	"context"
	"errors"
	"sort"

	"git.handmade.network/hmn/forumsync/src/logging"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/persist/migrations"
	"git.handmade.network/hmn/forumsync/src/persist/types"
	"github.com/doug-martin/goqu/v9"
)

const migrationTable = "forumsync_migration"

var ErrUnknownMigration = errors.New("unknown migration")

type MigrationStatus struct {
	Version     types.MigrationVersion
	Name        string
	Description string

	Applied bool
	// Whether this is the migration the database is at.
	Current bool
}

func getSortedMigrationVersions() []types.MigrationVersion {
	var allVersions []types.MigrationVersion
	for migrationTime := range migrations.All {
		allVersions = append(allVersions, migrationTime)
	}
	sort.Slice(allVersions, func(i, j int) bool {
		return allVersions[i].Before(allVersions[j])
	})

	return allVersions
}

// The zero version means no migration has run. A database without the
// migration table is at the zero version too.
func getCurrentVersion(ctx context.Context, d database) (types.MigrationVersion, error) {
	sql, _, err := d.dialect().From(migrationTable).Select("version").ToSQL()
	if err != nil {
		return types.MigrationVersion{}, oops.New(err, "failed to build version query")
	}
	raw, _, err := d.queryString(ctx, sql)
	if err != nil {
		return types.MigrationVersion{}, err
	}
	version, err := types.ParseMigrationVersion(raw)
	if err != nil {
		return types.MigrationVersion{}, oops.New(err, "bad version %q in %s", raw, migrationTable)
	}
	return version, nil
}

func listMigrations(ctx context.Context, d database) ([]MigrationStatus, error) {
	// A missing table just means nothing has been applied.
	currentVersion, _ := getCurrentVersion(ctx, d)

	var result []MigrationStatus
	for _, version := range getSortedMigrationVersions() {
		migration := migrations.All[version]
		result = append(result, MigrationStatus{
			Version:     version,
			Name:        migration.Name(),
			Description: migration.Description(),
			Applied:     !currentVersion.IsZero() && !currentVersion.Before(version),
			Current:     version.Equal(currentVersion),
		})
	}
	return result, nil
}

func ensureMigrationTable(ctx context.Context, d database) error {
	err := d.exec(ctx, `
		CREATE TABLE IF NOT EXISTS forumsync_migration (
			version TEXT NOT NULL
		)
	`)
	if err != nil {
		return oops.New(err, "failed to create migration table")
	}

	sql, _, err := d.dialect().From(migrationTable).Select("version").ToSQL()
	if err != nil {
		return oops.New(err, "failed to build version query")
	}
	_, found, err := d.queryString(ctx, sql)
	if err != nil {
		return oops.New(err, "failed to read migration table")
	}
	if !found {
		sql, args, err := d.dialect().Insert(migrationTable).Rows(goqu.Record{"version": ""}).Prepared(true).ToSQL()
		if err != nil {
			return oops.New(err, "failed to build initial migration row")
		}
		if err := d.exec(ctx, sql, args...); err != nil {
			return oops.New(err, "failed to insert initial migration row")
		}
	}
	return nil
}

func setVersion(ctx context.Context, d database, tx types.Execer, version types.MigrationVersion) error {
	raw := ""
	if !version.IsZero() {
		raw = version.String()
	}
	sql, args, err := d.dialect().Update(migrationTable).Set(goqu.Record{"version": raw}).Prepared(true).ToSQL()
	if err != nil {
		return oops.New(err, "failed to build version update")
	}
	if err := tx.Exec(ctx, sql, args...); err != nil {
		return oops.New(err, "failed to update version in migrations table")
	}
	return nil
}

/*
Rolls the schema forward or back to targetVersion, one migration per
transaction, so a failure leaves the database at the last migration that
succeeded.
*/
func migrate(ctx context.Context, d database, targetVersion types.MigrationVersion) error {
	logger := logging.ExtractLogger(ctx)

	if err := ensureMigrationTable(ctx, d); err != nil {
		return err
	}

	currentVersion, err := getCurrentVersion(ctx, d)
	if err != nil {
		return oops.New(err, "failed to get current version")
	}
	if currentVersion.IsZero() {
		logger.Info().Msg("Running database migrations for the first time")
	} else {
		logger.Info().Str("version", currentVersion.String()).Msg("Current version")
	}

	allVersions := getSortedMigrationVersions()
	if targetVersion.IsZero() {
		targetVersion = allVersions[len(allVersions)-1]
	}

	currentIndex := -1
	targetIndex := -1
	for i, version := range allVersions {
		if currentVersion.Equal(version) {
			currentIndex = i
		}
		if targetVersion.Equal(version) {
			targetIndex = i
		}
	}

	if targetIndex < 0 {
		return oops.New(ErrUnknownMigration, "could not find migration with version %v", targetVersion)
	}
	if currentIndex < 0 && !currentVersion.IsZero() {
		return oops.New(ErrUnknownMigration, "database is at unknown version %v", currentVersion)
	}

	if currentIndex < targetIndex {
		// roll forward
		for i := currentIndex + 1; i <= targetIndex; i++ {
			version := allVersions[i]
			migration := migrations.All[version]
			logger.Info().Str("version", version.String()).Str("name", migration.Name()).Msg("Applying migration")

			err := d.inTx(ctx, func(tx types.Execer) error {
				if err := migration.Up(ctx, tx); err != nil {
					return oops.New(err, "migration %v (%s) failed", version, migration.Name())
				}
				return setVersion(ctx, d, tx, version)
			})
			if err != nil {
				return err
			}
		}
	} else if currentIndex > targetIndex {
		// roll back
		for i := currentIndex; i > targetIndex; i-- {
			version := allVersions[i]
			previousVersion := types.MigrationVersion{}
			if i > 0 {
				previousVersion = allVersions[i-1]
			}
			migration := migrations.All[version]
			logger.Info().Str("version", version.String()).Str("name", migration.Name()).Msg("Rolling back migration")

			err := d.inTx(ctx, func(tx types.Execer) error {
				if err := migration.Down(ctx, tx); err != nil {
					return oops.New(err, "rollback of migration %v (%s) failed", version, migration.Name())
				}
				return setVersion(ctx, d, tx, previousVersion)
			})
			if err != nil {
				return err
			}
		}
	} else {
		logger.Info().Msg("Already migrated; nothing to do.")
	}

	return nil
}
