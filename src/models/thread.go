package models

import (
	"time"

	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/snapshot"
)

type Thread struct {
	Base

	ThreadID ids.ThreadID
	Title    string

	Forum              *Forum
	Author             *User
	ThreadTag          *ThreadTag
	SecondaryThreadTag *ThreadTag

	Bookmarked    bool
	BookmarkColor snapshot.BookmarkColor

	// Stickies sort by StickyIndex, which is negative so that they sort
	// before every other thread. Non-sticky threads have a StickyIndex of 0.
	Sticky      bool
	StickyIndex int

	Closed        bool
	Rating        float64
	NumberOfVotes int
	TotalReplies  int

	// How many posts, counting the first, the user has seen.
	SeenPosts int

	LastPostAuthorName string
	LastPostDate       *time.Time

	NumberOfPages    int
	ThreadListPage   int
	BookmarkListPage int
}

func (*Thread) Kind() Kind { return KindThread }

// UnreadPosts is how many posts in the thread the user has not seen.
func (t *Thread) UnreadPosts() int {
	return t.TotalReplies + 1 - t.SeenPosts
}

type ThreadRecord struct {
	ObjectID             string  `db:"object_id"`
	ThreadID             string  `db:"thread_id"`
	Title                string  `db:"title"`
	ForumID              *string `db:"forum_object_id"`
	AuthorID             *string `db:"author_object_id"`
	ThreadTagID          *string `db:"thread_tag_object_id"`
	SecondaryThreadTagID *string `db:"secondary_thread_tag_object_id"`
	Bookmarked           bool    `db:"bookmarked"`
	BookmarkColor        int     `db:"bookmark_color"`
	Sticky               bool    `db:"sticky"`
	StickyIndex          int     `db:"sticky_index"`
	Closed               bool    `db:"closed"`
	Rating               float64 `db:"rating"`
	NumberOfVotes        int     `db:"number_of_votes"`
	TotalReplies         int     `db:"total_replies"`
	SeenPosts            int     `db:"seen_posts"`
	LastPostAuthorName   string  `db:"last_post_author_name"`
	LastPostDate         *int64  `db:"last_post_date"`
	NumberOfPages        int     `db:"number_of_pages"`
	ThreadListPage       int     `db:"thread_list_page"`
	BookmarkListPage     int     `db:"bookmark_list_page"`
}

func (t *Thread) Record() ThreadRecord {
	return ThreadRecord{
		ObjectID:             t.OID.String(),
		ThreadID:             t.ThreadID.Raw(),
		Title:                t.Title,
		ForumID:              ref(t.Forum),
		AuthorID:             ref(t.Author),
		ThreadTagID:          ref(t.ThreadTag),
		SecondaryThreadTagID: ref(t.SecondaryThreadTag),
		Bookmarked:           t.Bookmarked,
		BookmarkColor:        int(t.BookmarkColor),
		Sticky:               t.Sticky,
		StickyIndex:          t.StickyIndex,
		Closed:               t.Closed,
		Rating:               t.Rating,
		NumberOfVotes:        t.NumberOfVotes,
		TotalReplies:         t.TotalReplies,
		SeenPosts:            t.SeenPosts,
		LastPostAuthorName:   t.LastPostAuthorName,
		LastPostDate:         millis(t.LastPostDate),
		NumberOfPages:        t.NumberOfPages,
		ThreadListPage:       t.ThreadListPage,
		BookmarkListPage:     t.BookmarkListPage,
	}
}

type Post struct {
	Base

	PostID ids.PostID
	Thread *Thread
	Author *User

	InnerHTML string
	PostDate  *time.Time

	// 1-based position in the thread. SingleUserIndex is the position among
	// only the author's posts, as seen when the thread is filtered by user.
	ThreadIndex     int
	SingleUserIndex int

	Editable bool
	Ignored  bool
}

func (*Post) Kind() Kind { return KindPost }

type PostRecord struct {
	ObjectID        string  `db:"object_id"`
	PostID          string  `db:"post_id"`
	ThreadID        *string `db:"thread_object_id"`
	AuthorID        *string `db:"author_object_id"`
	InnerHTML       string  `db:"inner_html"`
	PostDate        *int64  `db:"post_date"`
	ThreadIndex     int     `db:"thread_index"`
	SingleUserIndex int     `db:"single_user_index"`
	Editable        bool    `db:"editable"`
	Ignored         bool    `db:"ignored"`
}

func (p *Post) Record() PostRecord {
	return PostRecord{
		ObjectID:        p.OID.String(),
		PostID:          p.PostID.Raw(),
		ThreadID:        ref(p.Thread),
		AuthorID:        ref(p.Author),
		InnerHTML:       p.InnerHTML,
		PostDate:        millis(p.PostDate),
		ThreadIndex:     p.ThreadIndex,
		SingleUserIndex: p.SingleUserIndex,
		Editable:        p.Editable,
		Ignored:         p.Ignored,
	}
}

/*
An announcement at the top of a forum. Announcements have no ID on the site,
so ListIndex is their identity: the announcement at position 2 today is taken
to be the same one that was at position 2 yesterday, unless its title changed.
*/
type Announcement struct {
	Base

	ListIndex      int
	Title          string
	Author         *User
	AuthorUsername string
	ThreadTag      *ThreadTag
	IconURL        string
	LastUpdated    *time.Time

	BodyHTML    string
	PostedDate  *time.Time
	HasBeenSeen bool
}

func (*Announcement) Kind() Kind { return KindAnnouncement }

type AnnouncementRecord struct {
	ObjectID       string  `db:"object_id"`
	ListIndex      int     `db:"list_index"`
	Title          string  `db:"title"`
	AuthorID       *string `db:"author_object_id"`
	AuthorUsername string  `db:"author_username"`
	ThreadTagID    *string `db:"thread_tag_object_id"`
	IconURL        string  `db:"icon_url"`
	LastUpdated    *int64  `db:"last_updated"`
	BodyHTML       string  `db:"body_html"`
	PostedDate     *int64  `db:"posted_date"`
	HasBeenSeen    bool    `db:"has_been_seen"`
}

func (a *Announcement) Record() AnnouncementRecord {
	return AnnouncementRecord{
		ObjectID:       a.OID.String(),
		ListIndex:      a.ListIndex,
		Title:          a.Title,
		AuthorID:       ref(a.Author),
		AuthorUsername: a.AuthorUsername,
		ThreadTagID:    ref(a.ThreadTag),
		IconURL:        a.IconURL,
		LastUpdated:    millis(a.LastUpdated),
		BodyHTML:       a.BodyHTML,
		PostedDate:     millis(a.PostedDate),
		HasBeenSeen:    a.HasBeenSeen,
	}
}
