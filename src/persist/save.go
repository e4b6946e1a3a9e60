package persist

import (
	"context"

	"git.handmade.network/hmn/forumsync/src/db"
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/persist/types"
	"git.handmade.network/hmn/forumsync/src/store"
	"git.handmade.network/hmn/forumsync/src/utils"
	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

const (
	forumThreadTagTable = "forum_thread_tag"
	objectIDColumn      = "object_id"
)

// The records of one table, with the object ID of each.
type rowSet struct {
	table string
	ids   []string
	rows  []any
}

func rowsOf[R any](kind models.Kind, records []R, oid func(R) string) rowSet {
	set := rowSet{table: string(kind)}
	for _, r := range records {
		set.ids = append(set.ids, oid(r))
		set.rows = append(set.rows, r)
	}
	return set
}

func dumpRows(d *models.Dump) []rowSet {
	return []rowSet{
		rowsOf(models.KindForumGroup, d.ForumGroups, func(r models.ForumGroupRecord) string { return r.ObjectID }),
		rowsOf(models.KindForum, d.Forums, func(r models.ForumRecord) string { return r.ObjectID }),
		rowsOf(models.KindThreadTag, d.ThreadTags, func(r models.ThreadTagRecord) string { return r.ObjectID }),
		rowsOf(models.KindUser, d.Users, func(r models.UserRecord) string { return r.ObjectID }),
		rowsOf(models.KindProfile, d.Profiles, func(r models.ProfileRecord) string { return r.ObjectID }),
		rowsOf(models.KindThread, d.Threads, func(r models.ThreadRecord) string { return r.ObjectID }),
		rowsOf(models.KindPost, d.Posts, func(r models.PostRecord) string { return r.ObjectID }),
		rowsOf(models.KindAnnouncement, d.Announcements, func(r models.AnnouncementRecord) string { return r.ObjectID }),
		rowsOf(models.KindPrivateMessageFolder, d.PrivateMessageFolders, func(r models.PrivateMessageFolderRecord) string { return r.ObjectID }),
		rowsOf(models.KindPrivateMessage, d.PrivateMessages, func(r models.PrivateMessageRecord) string { return r.ObjectID }),
		rowsOf(models.KindThreadFilter, d.ThreadFilters, func(r models.ThreadFilterRecord) string { return r.ObjectID }),
	}
}

func uuidStrings(oids []uuid.UUID) []string {
	result := make([]string, len(oids))
	for i, oid := range oids {
		result[i] = oid.String()
	}
	return result
}

/*
Writes a changeset in one transaction. Saved rows are replaced by deleting
whatever row has their object ID and inserting the new record. The tag rows
of every saved or deleted forum are replaced the same way.
*/
func save(ctx context.Context, d database, cs *store.Changeset, batchSize int) error {
	if cs.Empty() {
		return nil
	}
	q := d.dialect()

	return d.inTx(ctx, func(tx types.Execer) error {
		for _, kind := range models.Kinds {
			oids := uuidStrings(cs.Deleted[kind])
			if err := deleteIn(ctx, q, tx, string(kind), objectIDColumn, oids, batchSize); err != nil {
				return err
			}
			if kind == models.KindForum {
				if err := deleteIn(ctx, q, tx, forumThreadTagTable, "forum_object_id", oids, batchSize); err != nil {
					return err
				}
			}
		}

		for _, set := range dumpRows(&cs.Saved) {
			if err := deleteIn(ctx, q, tx, set.table, objectIDColumn, set.ids, batchSize); err != nil {
				return err
			}
			if err := insertRows(ctx, q, tx, set.table, set.rows, batchSize); err != nil {
				return err
			}
			if set.table == string(models.KindForum) {
				if err := deleteIn(ctx, q, tx, forumThreadTagTable, "forum_object_id", set.ids, batchSize); err != nil {
					return err
				}
			}
		}

		tagRows := rowsOf(forumThreadTagTable, cs.Saved.ForumThreadTags, func(r models.ForumThreadTagRecord) string { return r.ForumID })
		return insertRows(ctx, q, tx, forumThreadTagTable, tagRows.rows, batchSize)
	})
}

func deleteIn(ctx context.Context, q goqu.DialectWrapper, tx types.Execer, table, column string, values []string, batchSize int) error {
	for _, chunk := range utils.Chunk(values, batchSize) {
		sql, args, err := q.Delete(table).Where(goqu.C(column).In(chunk)).Prepared(true).ToSQL()
		if err != nil {
			return oops.New(err, "failed to build delete from %s", table)
		}
		if err := tx.Exec(ctx, db.NameQuery("Delete "+table, sql), args...); err != nil {
			return oops.New(err, "failed to delete from %s", table)
		}
	}
	return nil
}

func insertRows(ctx context.Context, q goqu.DialectWrapper, tx types.Execer, table string, rows []any, batchSize int) error {
	for _, chunk := range utils.Chunk(rows, batchSize) {
		sql, args, err := q.Insert(table).Rows(chunk...).Prepared(true).ToSQL()
		if err != nil {
			return oops.New(err, "failed to build insert into %s", table)
		}
		if err := tx.Exec(ctx, db.NameQuery("Insert "+table, sql), args...); err != nil {
			return oops.New(err, "failed to insert into %s", table)
		}
	}
	return nil
}

func selectAllSQL(q goqu.DialectWrapper, table string, order ...string) (string, error) {
	ds := q.From(table)
	for _, col := range order {
		ds = ds.OrderAppend(goqu.I(col).Asc())
	}
	sql, _, err := ds.ToSQL()
	if err != nil {
		return "", oops.New(err, "failed to build select from %s", table)
	}
	return db.NameQuery("Load "+table, sql), nil
}

/*
Reads every table. Rows come back in object ID order, which is creation
order, so the loaded store orders entities as the original one did.
*/
func load(ctx context.Context, d database) (*models.Dump, error) {
	var dump models.Dump
	l := &loader{ctx: ctx, d: d}
	loadTable(l, models.KindForumGroup, &dump.ForumGroups)
	loadTable(l, models.KindForum, &dump.Forums)
	loadTable(l, forumThreadTagTable, &dump.ForumThreadTags, "forum_object_id", "secondary", "position")
	loadTable(l, models.KindThreadTag, &dump.ThreadTags)
	loadTable(l, models.KindUser, &dump.Users)
	loadTable(l, models.KindProfile, &dump.Profiles)
	loadTable(l, models.KindThread, &dump.Threads)
	loadTable(l, models.KindPost, &dump.Posts)
	loadTable(l, models.KindAnnouncement, &dump.Announcements)
	loadTable(l, models.KindPrivateMessageFolder, &dump.PrivateMessageFolders)
	loadTable(l, models.KindPrivateMessage, &dump.PrivateMessages)
	loadTable(l, models.KindThreadFilter, &dump.ThreadFilters)
	if l.err != nil {
		return nil, l.err
	}
	return &dump, nil
}

type loader struct {
	ctx context.Context
	d   database
	err error
}

func loadTable[R any](l *loader, table models.Kind, dest *[]R, order ...string) {
	if l.err != nil {
		return
	}
	if len(order) == 0 {
		order = []string{objectIDColumn}
	}
	sql, err := selectAllSQL(l.d.dialect(), string(table), order...)
	if err != nil {
		l.err = err
		return
	}

	var rows []R
	switch d := l.d.(type) {
	case *SQLite:
		err = d.db.SelectContext(l.ctx, &rows, sql)
	case *Postgres:
		rows, err = collectRows[R](l.ctx, d.pool, sql)
	default:
		err = oops.New(nil, "cannot load from %T", l.d)
	}
	if err != nil {
		l.err = oops.New(err, "failed to load %s", table)
		return
	}
	*dest = rows
}
