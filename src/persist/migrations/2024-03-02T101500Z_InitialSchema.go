package migrations

import (
	"context"
	"time"

	"git.handmade.network/hmn/forumsync/src/persist/types"
)

func init() {
	registerMigration(InitialSchema{})
}

type InitialSchema struct{}

func (m InitialSchema) Version() types.MigrationVersion {
	return types.MigrationVersion(time.Date(2024, 3, 2, 10, 15, 0, 0, time.UTC))
}

func (m InitialSchema) Name() string {
	return "InitialSchema"
}

func (m InitialSchema) Description() string {
	return "Create the forum, thread, post, user, and message tables"
}

func (m InitialSchema) Up(ctx context.Context, tx types.Execer) error {
	return execAll(ctx, tx, "create initial schema",
		`
		CREATE TABLE forum_group (
			object_id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			name TEXT NOT NULL,
			list_index INTEGER NOT NULL
		)
		`,
		`
		CREATE TABLE forum (
			object_id TEXT PRIMARY KEY,
			forum_id TEXT NOT NULL,
			name TEXT NOT NULL,
			list_index INTEGER NOT NULL,
			group_object_id TEXT,
			parent_object_id TEXT,
			can_post BOOLEAN NOT NULL
		)
		`,
		`
		CREATE TABLE thread_tag (
			object_id TEXT PRIMARY KEY,
			tag_id TEXT NOT NULL,
			image_name TEXT NOT NULL,
			image_url TEXT NOT NULL
		)
		`,
		`
		CREATE TABLE forum_thread_tag (
			forum_object_id TEXT NOT NULL,
			tag_object_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			secondary BOOLEAN NOT NULL
		)
		`,
		`
		CREATE TABLE forum_user (
			object_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			username TEXT NOT NULL,
			custom_title_html TEXT NOT NULL,
			reg_date BIGINT,
			administrator BOOLEAN NOT NULL,
			moderator BOOLEAN NOT NULL,
			author_classes TEXT NOT NULL,
			can_receive_private_messages BOOLEAN NOT NULL
		)
		`,
		`
		CREATE TABLE thread (
			object_id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			title TEXT NOT NULL,
			forum_object_id TEXT,
			author_object_id TEXT,
			thread_tag_object_id TEXT,
			secondary_thread_tag_object_id TEXT,
			bookmarked BOOLEAN NOT NULL,
			bookmark_color INTEGER NOT NULL,
			sticky BOOLEAN NOT NULL,
			sticky_index INTEGER NOT NULL,
			closed BOOLEAN NOT NULL,
			rating DOUBLE PRECISION NOT NULL,
			number_of_votes INTEGER NOT NULL,
			total_replies INTEGER NOT NULL,
			seen_posts INTEGER NOT NULL,
			last_post_author_name TEXT NOT NULL,
			last_post_date BIGINT,
			number_of_pages INTEGER NOT NULL,
			thread_list_page INTEGER NOT NULL,
			bookmark_list_page INTEGER NOT NULL
		)
		`,
		`
		CREATE TABLE post (
			object_id TEXT PRIMARY KEY,
			post_id TEXT NOT NULL,
			thread_object_id TEXT,
			author_object_id TEXT,
			inner_html TEXT NOT NULL,
			post_date BIGINT,
			thread_index INTEGER NOT NULL,
			single_user_index INTEGER NOT NULL,
			editable BOOLEAN NOT NULL,
			ignored BOOLEAN NOT NULL
		)
		`,
		`
		CREATE TABLE announcement (
			object_id TEXT PRIMARY KEY,
			list_index INTEGER NOT NULL,
			title TEXT NOT NULL,
			author_object_id TEXT,
			author_username TEXT NOT NULL,
			thread_tag_object_id TEXT,
			icon_url TEXT NOT NULL,
			last_updated BIGINT,
			body_html TEXT NOT NULL,
			posted_date BIGINT,
			has_been_seen BOOLEAN NOT NULL
		)
		`,
		`
		CREATE TABLE pm_folder (
			object_id TEXT PRIMARY KEY,
			folder_id TEXT NOT NULL,
			name TEXT NOT NULL,
			list_index INTEGER NOT NULL
		)
		`,
		`
		CREATE TABLE private_message (
			object_id TEXT PRIMARY KEY,
			message_id TEXT NOT NULL,
			subject TEXT NOT NULL,
			from_object_id TEXT,
			to_object_id TEXT,
			sent_date BIGINT,
			inner_html TEXT NOT NULL,
			seen BOOLEAN NOT NULL,
			replied BOOLEAN NOT NULL,
			forwarded BOOLEAN NOT NULL,
			thread_tag_object_id TEXT,
			folder_object_id TEXT
		)
		`,
		`
		CREATE TABLE thread_filter (
			object_id TEXT PRIMARY KEY,
			forum_object_id TEXT,
			author_object_id TEXT,
			thread_tag_object_id TEXT,
			number_of_pages INTEGER NOT NULL
		)
		`,
	)
}

func (m InitialSchema) Down(ctx context.Context, tx types.Execer) error {
	return execAll(ctx, tx, "drop initial schema",
		"DROP TABLE thread_filter",
		"DROP TABLE private_message",
		"DROP TABLE pm_folder",
		"DROP TABLE announcement",
		"DROP TABLE post",
		"DROP TABLE thread",
		"DROP TABLE forum_user",
		"DROP TABLE forum_thread_tag",
		"DROP TABLE thread_tag",
		"DROP TABLE forum",
		"DROP TABLE forum_group",
	)
}
