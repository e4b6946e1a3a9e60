package upsert

import (
	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
	"git.handmade.network/hmn/forumsync/src/utils"
)

// A row of a thread list: either an announcement or a thread.
type Row interface {
	isRow()
}

type AnnouncementRow struct {
	Announcement *models.Announcement
}

type ThreadRow struct {
	Thread *models.Thread
}

func (AnnouncementRow) isRow() {}
func (ThreadRow) isRow()       {}

type ThreadListResult struct {
	TouchedSet

	// Nil for bookmark lists and for lists without breadcrumbs.
	Forum *models.Forum

	Announcements []*models.Announcement
	Threads       []*models.Thread
}

// Rows lists announcements then threads, in page order.
func (r *ThreadListResult) Rows() []Row {
	rows := make([]Row, 0, len(r.Announcements)+len(r.Threads))
	for _, a := range r.Announcements {
		rows = append(rows, AnnouncementRow{Announcement: a})
	}
	for _, t := range r.Threads {
		rows = append(rows, ThreadRow{Thread: t})
	}
	return rows
}

/*
How many posts of a thread the user has seen, counting the first post. An
unread count says exactly; a thread marked unread with no count has never
been opened; anything else has been read to the end.
*/
func seenPosts(t snapshot.ThreadListThread) int {
	total := t.ReplyCount + 1
	seen := total
	if unread, ok := t.UnreadCount.Get(); ok {
		seen = total - unread
	} else if t.IsUnread {
		seen = 0
	}
	return utils.IntClamp(0, seen, total)
}

func UpsertThreadList(tx *store.Tx, list *snapshot.ThreadList, opts Options) (*ThreadListResult, error) {
	u := newUpserter(tx, opts)
	result := &ThreadListResult{}

	if list.Kind == snapshot.ForumThreadList {
		result.Forum = upsertBreadcrumbs(u, list.Breadcrumbs).Forum
	}

	var refs []snapshot.UserRef
	var icons []*snapshot.IconRef
	var threadIDs []ids.ThreadID
	for i := range list.Threads {
		t := &list.Threads[i]
		refs = append(refs, t.Author)
		icons = append(icons, t.PrimaryIcon, t.SecondaryIcon)
		threadIDs = append(threadIDs, t.ID)
	}
	for i := range list.Announcements {
		refs = append(refs, list.Announcements[i].Author)
		icons = append(icons, list.Announcements[i].Icon)
	}
	icons = append(icons, iconRefs(list.FilterableIcons)...)
	if selected, ok := list.SelectedFilterIcon.Get(); ok {
		icons = append(icons, &selected)
	}

	users := resolveUsers(u, refs)
	tags := resolveTags(u, icons)
	threads := resolveByKey(u,
		func(t *models.Thread) ids.ThreadID { return t.ThreadID },
		uniq(threadIDs),
		func(t *models.Thread, id ids.ThreadID) { set(u, t, "ThreadID", &t.ThreadID, id) },
	)
	if u.err != nil {
		return nil, u.err
	}

	ppp := u.opts.postsPerPage()
	stickyIndex := -len(list.Threads)
	for _, st := range list.Threads {
		t := threads[st.ID]

		set(u, t, "Title", &t.Title, st.Title)
		if result.Forum != nil {
			set(u, t, "Forum", &t.Forum, result.Forum)
		}
		if author := users(st.Author); author != nil {
			set(u, t, "Author", &t.Author, author)
		}
		set(u, t, "ThreadTag", &t.ThreadTag, tags(st.PrimaryIcon))
		set(u, t, "SecondaryThreadTag", &t.SecondaryThreadTag, tags(st.SecondaryIcon))

		if color, ok := st.Bookmark.Get(); ok {
			set(u, t, "BookmarkColor", &t.BookmarkColor, color)
			if list.Kind == snapshot.ForumThreadList {
				set(u, t, "Bookmarked", &t.Bookmarked, color != snapshot.BookmarkNone)
			}
		}
		if list.Kind == snapshot.BookmarkThreadList {
			set(u, t, "Bookmarked", &t.Bookmarked, true)
			set(u, t, "BookmarkListPage", &t.BookmarkListPage, list.PageNumber)
		} else {
			set(u, t, "ThreadListPage", &t.ThreadListPage, list.PageNumber)
		}

		set(u, t, "Sticky", &t.Sticky, st.IsSticky)
		if st.IsSticky {
			set(u, t, "StickyIndex", &t.StickyIndex, stickyIndex)
			stickyIndex++
		} else {
			set(u, t, "StickyIndex", &t.StickyIndex, 0)
		}

		set(u, t, "Closed", &t.Closed, st.IsClosed)
		if st.Rating != nil {
			set(u, t, "Rating", &t.Rating, st.Rating.Average)
			set(u, t, "NumberOfVotes", &t.NumberOfVotes, st.Rating.Votes)
		} else {
			set(u, t, "Rating", &t.Rating, 0)
			set(u, t, "NumberOfVotes", &t.NumberOfVotes, 0)
		}

		set(u, t, "TotalReplies", &t.TotalReplies, st.ReplyCount)
		set(u, t, "SeenPosts", &t.SeenPosts, seenPosts(st))
		set(u, t, "NumberOfPages", &t.NumberOfPages, utils.NumPages(st.ReplyCount+1, ppp))

		set(u, t, "LastPostAuthorName", &t.LastPostAuthorName, st.LastPostAuthorName)
		if lastPost, ok := st.LastPostDate.Get(); ok {
			setTime(u, t, "LastPostDate", &t.LastPostDate, &lastPost)
		}

		result.Threads = append(result.Threads, t)
	}

	if forum := result.Forum; forum != nil {
		if canPost, ok := list.CanPostNewThread.Get(); ok {
			set(u, forum, "CanPost", &forum.CanPost, canPost)
		}
		if len(list.FilterableIcons) > 0 {
			setTags(u, forum, "ThreadTags", &forum.ThreadTags, tagsFor(tags, list.FilterableIcons))
		}
		if selected, ok := list.SelectedFilterIcon.Get(); ok {
			if tag := tags(&selected); tag != nil {
				filter := upsertThreadFilter(u, forum, nil, tag)
				if filter != nil {
					set(u, filter, "NumberOfPages", &filter.NumberOfPages, list.PageCount)
				}
			}
		}
		result.Announcements = upsertListedAnnouncements(u, list.Announcements, users, tags)
	}

	if u.err != nil {
		return nil, u.err
	}
	result.TouchedSet = *u.touched
	return result, nil
}

// Finds or creates the filter state for a forum filtered by author or tag.
func upsertThreadFilter(u *upserter, forum *models.Forum, author *models.User, tag *models.ThreadTag) *models.ThreadFilter {
	existing := fetchWhere(u, func(f *models.ThreadFilter) bool {
		return f.Forum == forum && f.Author == author && f.ThreadTag == tag
	})
	if len(existing) > 0 {
		return existing[0]
	}

	filter := insert[models.ThreadFilter](u)
	if filter == nil {
		return nil
	}
	set(u, filter, "Forum", &filter.Forum, forum)
	set(u, filter, "Author", &filter.Author, author)
	set(u, filter, "ThreadTag", &filter.ThreadTag, tag)
	return filter
}
