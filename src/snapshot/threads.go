package snapshot

import (
	"time"

	"git.handmade.network/hmn/forumsync/src/ids"
)

type ThreadListKind int

const (
	ForumThreadList ThreadListKind = iota
	BookmarkThreadList
)

type ThreadList struct {
	Kind          ThreadListKind
	Breadcrumbs   ForumBreadcrumbs
	Announcements []ThreadListAnnouncement
	Threads       []ThreadListThread

	// The thread tags the forum can be filtered by, and the one currently
	// filtered on, if any.
	FilterableIcons    []PostIcon
	SelectedFilterIcon Maybe[IconRef]

	CanPostNewThread Maybe[bool]

	PageNumber int
	PageCount  int
}

// An announcement row at the top of a forum's thread list. Announcements have
// no ID; their position in the list is all there is.
type ThreadListAnnouncement struct {
	Author      UserRef
	Title       string
	Icon        *IconRef
	LastUpdated Maybe[time.Time]
}

type BookmarkColor int

const (
	BookmarkNone BookmarkColor = iota
	BookmarkOrange
	BookmarkRed
	BookmarkYellow
	BookmarkCyan
	BookmarkGreen
	BookmarkPurple
)

type Rating struct {
	Average float64
	Votes   int
}

type ThreadListThread struct {
	ID     ids.ThreadID
	Title  string
	Author UserRef

	// Absent when the page has no bookmark column at all.
	Bookmark Maybe[BookmarkColor]

	IsSticky    bool
	IsClosed    bool
	IsUnread    bool
	UnreadCount Maybe[int]

	Rating     *Rating
	ReplyCount int

	PrimaryIcon   *IconRef
	SecondaryIcon *IconRef

	LastPostAuthorName string
	LastPostDate       Maybe[time.Time]
}

type PostsPage struct {
	ThreadID           ids.ThreadID
	ThreadTitle        string
	ThreadIsClosed     bool
	ThreadIsBookmarked Maybe[bool]
	Breadcrumbs        ForumBreadcrumbs

	PageNumber int
	PageCount  int

	// Set when the page only shows posts by one user.
	FilteredAuthor Maybe[ids.UserID]

	Posts []PagePost
}

type PagePost struct {
	ID        ids.PostID
	Author    AuthorSidebar
	InnerHTML string
	PostDate  Maybe[time.Time]

	HasBeenSeen bool
	IsEditable  bool
	IsIgnored   bool

	// The 1-based position of the post in the whole thread, when the page
	// says so.
	IndexInThread Maybe[int]
}

type AnnouncementList struct {
	Announcements []ListedAnnouncement
}

type ListedAnnouncement struct {
	Author        UserRef
	AuthorSidebar Maybe[AuthorSidebar]
	BodyHTML      string
	PostedDate    Maybe[time.Time]
}

type PostIconList struct {
	ForumID Maybe[ids.ForumID]

	PrimaryIcons   []PostIcon
	SecondaryIcons []PostIcon

	SelectedPrimary   Maybe[string]
	SelectedSecondary Maybe[string]
}

type ForumHierarchy struct {
	Nodes []HierarchyNode
}

// An entry in the forum jump list. Depth 0 entries are forum groups.
type HierarchyNode struct {
	ForumID ids.ForumID
	Name    string
	Depth   int
}
