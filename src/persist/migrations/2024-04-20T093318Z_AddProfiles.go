package migrations

import (
	"context"
	"time"

	"git.handmade.network/hmn/forumsync/src/persist/types"
)

func init() {
	registerMigration(AddProfiles{})
}

type AddProfiles struct{}

func (m AddProfiles) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2024, 4, 20, 9, 33, 18, 0, time.UTC))
}

func (m AddProfiles) Name() string {
	return "AddProfiles"
}

func (m AddProfiles) Description() string {
	return "Create table for user profiles"
}

func (m AddProfiles) Up(ctx context.Context, tx types.Execer) error {
	return execAll(ctx, tx, "create profile table",
		`
		CREATE TABLE profile (
			object_id TEXT PRIMARY KEY,
			user_object_id TEXT,
			about_me_html TEXT NOT NULL,
			location TEXT NOT NULL,
			interests TEXT NOT NULL,
			occupation TEXT NOT NULL,
			homepage TEXT NOT NULL,
			post_count INTEGER NOT NULL,
			post_rate TEXT NOT NULL,
			last_post_date BIGINT,
			avatar_url TEXT NOT NULL
		)
		`,
		"CREATE INDEX profile_user ON profile (user_object_id)",
	)
}

func (m AddProfiles) Down(ctx context.Context, tx types.Execer) error {
	return execAll(ctx, tx, "drop profile table",
		"DROP INDEX profile_user",
		"DROP TABLE profile",
	)
}
