package upsert

import (
	"fmt"
	"net/url"

	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
)

// Result is what every upsert returns.
type Result interface {
	Touched() []models.Entity
}

// Upsert reconciles any kind of snapshot.
func Upsert(tx *store.Tx, snap snapshot.Snapshot, opts Options) (Result, error) {
	switch s := snap.(type) {
	case *snapshot.ThreadList:
		return nilSafe(UpsertThreadList(tx, s, opts))
	case *snapshot.PostsPage:
		return nilSafe(UpsertPostsPage(tx, s, opts))
	case *snapshot.PrivateMessage:
		return nilSafe(UpsertPrivateMessage(tx, s))
	case *snapshot.PrivateMessageFolder:
		return nilSafe(UpsertPrivateMessageFolder(tx, s))
	case *snapshot.AnnouncementList:
		return nilSafe(UpsertAnnouncementList(tx, s))
	case *snapshot.PostIconList:
		return nilSafe(UpsertPostIconList(tx, s))
	case *snapshot.Profile:
		return nilSafe(UpsertProfile(tx, s))
	case *snapshot.ForumHierarchy:
		return nilSafe(UpsertForumHierarchy(tx, s))
	case snapshot.ForumBreadcrumbs:
		return nilSafe(UpsertBreadcrumbs(tx, s))
	default:
		panic(fmt.Errorf("no upsert for snapshot type %T", snap))
	}
}

func nilSafe[R Result](r R, err error) (Result, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.String()
}
