package migrations

import (
	"context"
	"time"

	"git.handmade.network/hmn/forumsync/src/persist/types"
)

func init() {
	registerMigration(AddLookupIndexes{})
}

type AddLookupIndexes struct{}

func (m AddLookupIndexes) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2024, 3, 9, 18, 42, 10, 0, time.UTC))
}

func (m AddLookupIndexes) Name() string {
	return "AddLookupIndexes"
}

func (m AddLookupIndexes) Description() string {
	return "Index forum-assigned IDs and the foreign keys that saves delete by"
}

func (m AddLookupIndexes) Up(ctx context.Context, tx types.Execer) error {
	return execAll(ctx, tx, "create lookup indexes",
		"CREATE INDEX thread_thread_id ON thread (thread_id)",
		"CREATE INDEX post_post_id ON post (post_id)",
		"CREATE INDEX post_thread ON post (thread_object_id)",
		"CREATE INDEX forum_user_user_id ON forum_user (user_id)",
		"CREATE INDEX forum_user_username ON forum_user (username)",
		"CREATE INDEX forum_thread_tag_forum ON forum_thread_tag (forum_object_id)",
		"CREATE INDEX private_message_message_id ON private_message (message_id)",
	)
}

func (m AddLookupIndexes) Down(ctx context.Context, tx types.Execer) error {
	return execAll(ctx, tx, "drop lookup indexes",
		"DROP INDEX private_message_message_id",
		"DROP INDEX forum_thread_tag_forum",
		"DROP INDEX forum_user_username",
		"DROP INDEX forum_user_user_id",
		"DROP INDEX post_thread",
		"DROP INDEX post_post_id",
		"DROP INDEX thread_thread_id",
	)
}
