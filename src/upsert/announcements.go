package upsert

import (
	"sort"

	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
)

// Stored announcements by list position. Ties keep store order.
func existingAnnouncements(u *upserter) []*models.Announcement {
	announcements := fetchWhere(u, func(*models.Announcement) bool { return true })
	sort.SliceStable(announcements, func(i, j int) bool {
		return announcements[i].ListIndex < announcements[j].ListIndex
	})
	return announcements
}

/*
Pairs stored announcements with scraped ones by position. Position is the only
identity an announcement has, so the returned slice holds the stored
announcement for each position, inserting any that are new. Stored
announcements past the end of the scraped list are deleted.
*/
func zipAnnouncements(u *upserter, count int) []*models.Announcement {
	existing := existingAnnouncements(u)
	result := make([]*models.Announcement, count)
	for i := 0; i < count; i++ {
		if i < len(existing) {
			result[i] = existing[i]
		} else {
			result[i] = insert[models.Announcement](u)
			if result[i] == nil {
				return nil
			}
		}
		set(u, result[i], "ListIndex", &result[i].ListIndex, i)
	}
	for _, stale := range existing[min(count, len(existing)):] {
		u.delete(stale)
	}
	return result
}

/*
Reconciles the announcement rows at the top of a thread list. A title that
differs from the stored one means a different announcement now sits at that
position, so its body is thrown away and it counts as unseen.
*/
func upsertListedAnnouncements(u *upserter, scraped []snapshot.ThreadListAnnouncement, users func(snapshot.UserRef) *models.User, tags func(*snapshot.IconRef) *models.ThreadTag) []*models.Announcement {
	announcements := zipAnnouncements(u, len(scraped))
	if u.err != nil {
		return nil
	}

	for i, sa := range scraped {
		a := announcements[i]
		if a.Title != sa.Title {
			set(u, a, "BodyHTML", &a.BodyHTML, "")
			set(u, a, "HasBeenSeen", &a.HasBeenSeen, false)
			setTime(u, a, "PostedDate", &a.PostedDate, nil)
		}
		set(u, a, "Title", &a.Title, sa.Title)
		set(u, a, "Author", &a.Author, users(sa.Author))
		set(u, a, "AuthorUsername", &a.AuthorUsername, sa.Author.Username)
		set(u, a, "ThreadTag", &a.ThreadTag, tags(sa.Icon))
		iconURL := ""
		if sa.Icon != nil && sa.Icon.URL != nil {
			iconURL = sa.Icon.URL.String()
		}
		set(u, a, "IconURL", &a.IconURL, iconURL)
		if lastUpdated, ok := sa.LastUpdated.Get(); ok {
			setTime(u, a, "LastUpdated", &a.LastUpdated, &lastUpdated)
		}
	}

	return announcements
}

type AnnouncementListResult struct {
	TouchedSet

	Announcements []*models.Announcement
}

// UpsertAnnouncementList records the full text of the announcements, which
// are taken to be in the same order as on the thread list.
func UpsertAnnouncementList(tx *store.Tx, list *snapshot.AnnouncementList) (*AnnouncementListResult, error) {
	u := newUpserter(tx, Options{})

	refs := make([]snapshot.UserRef, 0, len(list.Announcements))
	for _, la := range list.Announcements {
		refs = append(refs, la.Author)
	}
	users := resolveUsers(u, refs)

	announcements := zipAnnouncements(u, len(list.Announcements))
	if u.err != nil {
		return nil, u.err
	}

	for i, la := range list.Announcements {
		a := announcements[i]
		author := users(la.Author)
		if sidebar, ok := la.AuthorSidebar.Get(); ok && author != nil {
			applySidebar(u, author, sidebar)
		}
		set(u, a, "Author", &a.Author, author)
		set(u, a, "AuthorUsername", &a.AuthorUsername, la.Author.Username)
		set(u, a, "BodyHTML", &a.BodyHTML, la.BodyHTML)
		if posted, ok := la.PostedDate.Get(); ok {
			setTime(u, a, "PostedDate", &a.PostedDate, &posted)
		}
		set(u, a, "HasBeenSeen", &a.HasBeenSeen, true)
	}

	if u.err != nil {
		return nil, u.err
	}
	return &AnnouncementListResult{TouchedSet: *u.touched, Announcements: announcements}, nil
}
