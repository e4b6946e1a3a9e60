package upsert

import (
	"context"
	"net/url"
	"testing"
	"time"

	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/models"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forumID(raw string) ids.ForumID {
	id, _ := ids.NewForumID(raw)
	return id
}

func threadID(raw string) ids.ThreadID {
	id, _ := ids.NewThreadID(raw)
	return id
}

func postID(raw string) ids.PostID {
	id, _ := ids.NewPostID(raw)
	return id
}

func userID(raw string) ids.UserID {
	id, _ := ids.NewUserID(raw)
	return id
}

func messageID(raw string) ids.PrivateMessageID {
	id, _ := ids.NewPrivateMessageID(raw)
	return id
}

func folderID(raw string) ids.PrivateMessageFolderID {
	id, _ := ids.NewPrivateMessageFolderID(raw)
	return id
}

func icon(t *testing.T, rawURL string, id string) *snapshot.IconRef {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.Nil(t, err)
	ref := &snapshot.IconRef{URL: u}
	if id != "" {
		ref.ID = snapshot.Some(id)
	}
	return ref
}

func user(id, name string) snapshot.UserRef {
	ref := snapshot.UserRef{Username: name}
	if id != "" {
		ref.ID = snapshot.Some(userID(id))
	}
	return ref
}

// Runs f in a transaction and commits it.
func commit(t *testing.T, s *store.Store, f func(tx *store.Tx) error) {
	t.Helper()
	tx := s.Begin()
	if err := f(tx); err != nil {
		require.Nil(t, tx.Rollback())
		t.Fatal(err)
	}
	require.Nil(t, tx.Commit(context.Background()))
}

func all[E models.Entity](t *testing.T, s *store.Store) []E {
	t.Helper()
	tx := s.Begin()
	defer tx.Rollback()
	result, err := store.FetchAll[E](tx)
	require.Nil(t, err)
	return result
}

var when = time.Date(2024, 3, 1, 15, 45, 0, 0, time.UTC)

func crumbs() snapshot.ForumBreadcrumbs {
	return snapshot.ForumBreadcrumbs{
		{ForumID: forumID("48"), Name: "Main", Depth: 0},
		{ForumID: forumID("1"), Name: "GBS", Depth: 1},
		{ForumID: forumID("155"), Name: "FYAD", Depth: 2},
	}
}

func threadList(t *testing.T) *snapshot.ThreadList {
	ama := icon(t, "https://fi.somethingawful.com/posticons/ama.gif", "692")
	news := icon(t, "https://fi.somethingawful.com/posticons/news.gif", "41")
	return &snapshot.ThreadList{
		Kind:        snapshot.ForumThreadList,
		Breadcrumbs: crumbs(),
		Announcements: []snapshot.ThreadListAnnouncement{
			{Author: user("", "Lowtax"), Title: "Rules", LastUpdated: snapshot.Some(when)},
			{Author: user("", "Lowtax"), Title: "Downtime"},
		},
		Threads: []snapshot.ThreadListThread{
			{ID: threadID("1"), Title: "First sticky", Author: user("27", "Someone"), IsSticky: true, ReplyCount: 9, PrimaryIcon: ama, Bookmark: snapshot.Some(snapshot.BookmarkRed), Rating: &snapshot.Rating{Average: 4.5, Votes: 10}},
			{ID: threadID("2"), Title: "Normal", Author: user("28", "Other"), ReplyCount: 100, IsUnread: true, UnreadCount: snapshot.Some(21), PrimaryIcon: news, LastPostDate: snapshot.Some(when)},
			{ID: threadID("3"), Title: "Second sticky", Author: user("27", "Someone"), IsSticky: true, IsUnread: true, ReplyCount: 0},
		},
		FilterableIcons:    []snapshot.PostIcon{{Icon: *ama, Title: "AMA"}, {Icon: *news, Title: "News"}},
		SelectedFilterIcon: snapshot.Some(*ama),
		CanPostNewThread:   snapshot.Some(true),
		PageNumber:         1,
		PageCount:          4,
	}
}

func TestThreadList(t *testing.T) {
	s := store.New(nil, store.Options{})
	var result *ThreadListResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertThreadList(tx, threadList(t), Options{PostsPerPage: 40})
		return err
	})

	require.NotNil(t, result.Forum)
	assert.Equal(t, "FYAD", result.Forum.Name)
	assert.True(t, result.Forum.CanPost)
	require.Len(t, result.Forum.ThreadTags, 2)
	assert.Equal(t, "ama", result.Forum.ThreadTags[0].ImageName)

	require.Len(t, result.Threads, 3)
	first, normal, second := result.Threads[0], result.Threads[1], result.Threads[2]

	assert.Equal(t, "First sticky", first.Title)
	assert.Same(t, result.Forum, first.Forum)
	assert.Equal(t, "Someone", first.Author.Username)
	assert.Same(t, first.Author, second.Author)
	assert.Equal(t, "692", first.ThreadTag.TagID)
	assert.True(t, first.Bookmarked)
	assert.Equal(t, snapshot.BookmarkRed, first.BookmarkColor)
	assert.Equal(t, 4.5, first.Rating)
	assert.Equal(t, 10, first.NumberOfVotes)
	assert.Equal(t, 10, first.SeenPosts)
	assert.Equal(t, 1, first.NumberOfPages)
	assert.Equal(t, 1, first.ThreadListPage)

	assert.Equal(t, 80, normal.SeenPosts)
	assert.Equal(t, 21, normal.UnreadPosts())
	assert.Equal(t, 3, normal.NumberOfPages)
	require.NotNil(t, normal.LastPostDate)
	assert.True(t, normal.LastPostDate.Equal(when))

	assert.Equal(t, 0, second.SeenPosts)
	assert.Nil(t, second.ThreadTag)

	rows := result.Rows()
	require.Len(t, rows, 5)
	assert.IsType(t, AnnouncementRow{}, rows[0])
	assert.IsType(t, ThreadRow{}, rows[2])
	assert.Same(t, first, rows[2].(ThreadRow).Thread)

	filters := all[*models.ThreadFilter](t, s)
	require.Len(t, filters, 1)
	assert.Equal(t, 4, filters[0].NumberOfPages)
	assert.Same(t, first.ThreadTag, filters[0].ThreadTag)
}

func TestStickyOrdering(t *testing.T) {
	s := store.New(nil, store.Options{})
	var result *ThreadListResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertThreadList(tx, threadList(t), Options{})
		return err
	})

	first, normal, second := result.Threads[0], result.Threads[1], result.Threads[2]
	assert.Less(t, first.StickyIndex, second.StickyIndex)
	assert.Less(t, second.StickyIndex, 0)
	assert.Equal(t, 0, normal.StickyIndex)
	assert.False(t, normal.Sticky)

	// A thread that stops being sticky goes back to 0.
	list := threadList(t)
	list.Threads[0].IsSticky = false
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertThreadList(tx, list, Options{})
		return err
	})
	assert.Equal(t, 0, result.Threads[0].StickyIndex)
	assert.Equal(t, -3, result.Threads[2].StickyIndex)
}

func TestThreadListIdempotent(t *testing.T) {
	s := store.New(nil, store.Options{})
	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertThreadList(tx, threadList(t), Options{})
		return err
	})
	before := s.Dump()

	var changes []store.Change
	s.Subscribe(func(c []store.Change) { changes = append(changes, c...) })

	var result *ThreadListResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertThreadList(tx, threadList(t), Options{})
		return err
	})

	assert.Empty(t, changes)
	assert.Empty(t, result.Touched())
	assert.Equal(t, before, s.Dump())
}

func TestSeenPosts(t *testing.T) {
	assert.Equal(t, 11, seenPosts(snapshot.ThreadListThread{ReplyCount: 10}))
	assert.Equal(t, 0, seenPosts(snapshot.ThreadListThread{ReplyCount: 10, IsUnread: true}))
	assert.Equal(t, 8, seenPosts(snapshot.ThreadListThread{ReplyCount: 10, UnreadCount: snapshot.Some(3)}))
	assert.Equal(t, 0, seenPosts(snapshot.ThreadListThread{ReplyCount: 10, UnreadCount: snapshot.Some(30)}))
	assert.Equal(t, 11, seenPosts(snapshot.ThreadListThread{ReplyCount: 10, UnreadCount: snapshot.Some(-2)}))
}

func TestAnnouncementStaleness(t *testing.T) {
	s := store.New(nil, store.Options{})
	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertThreadList(tx, threadList(t), Options{})
		return err
	})
	assert.Equal(t, 2, s.Count(models.KindAnnouncement))

	list := threadList(t)
	list.Announcements = nil
	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertThreadList(tx, list, Options{})
		return err
	})
	assert.Equal(t, 0, s.Count(models.KindAnnouncement))
}

func TestAnnouncementTitleChange(t *testing.T) {
	s := store.New(nil, store.Options{})
	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertThreadList(tx, threadList(t), Options{})
		return err
	})
	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertAnnouncementList(tx, &snapshot.AnnouncementList{
			Announcements: []snapshot.ListedAnnouncement{
				{Author: user("", "Lowtax"), BodyHTML: "be nice", PostedDate: snapshot.Some(when)},
				{Author: user("", "Lowtax"), BodyHTML: "we will be down"},
			},
		})
		return err
	})

	announcements := all[*models.Announcement](t, s)
	require.Len(t, announcements, 2)
	assert.Equal(t, "be nice", announcements[0].BodyHTML)
	assert.True(t, announcements[0].HasBeenSeen)

	list := threadList(t)
	list.Announcements[1].Title = "New rules"
	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertThreadList(tx, list, Options{})
		return err
	})

	announcements = all[*models.Announcement](t, s)
	require.Len(t, announcements, 2)
	assert.Equal(t, "be nice", announcements[0].BodyHTML)
	assert.True(t, announcements[0].HasBeenSeen)
	assert.Equal(t, "New rules", announcements[1].Title)
	assert.Equal(t, "", announcements[1].BodyHTML)
	assert.False(t, announcements[1].HasBeenSeen)
}

func TestBreadcrumbs(t *testing.T) {
	s := store.New(nil, store.Options{})
	var result *BreadcrumbsResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertBreadcrumbs(tx, crumbs())
		return err
	})

	require.NotNil(t, result.Group)
	assert.Equal(t, "Main", result.Group.Name)
	require.Len(t, result.Forums, 2)
	gbs, fyad := result.Forums[0], result.Forums[1]
	assert.Nil(t, gbs.Parent)
	assert.Same(t, gbs, fyad.Parent)
	assert.Same(t, result.Group, fyad.Group)
	assert.Same(t, fyad, result.Forum)
	assert.Equal(t, 1, s.Count(models.KindForumGroup))
	assert.Equal(t, 2, s.Count(models.KindForum))
}

func TestForumHierarchy(t *testing.T) {
	s := store.New(nil, store.Options{})
	hierarchy := &snapshot.ForumHierarchy{Nodes: []snapshot.HierarchyNode{
		{ForumID: forumID("48"), Name: "Main", Depth: 0},
		{ForumID: forumID("1"), Name: "GBS", Depth: 1},
		{ForumID: forumID("155"), Name: "FYAD", Depth: 2},
		{ForumID: forumID("26"), Name: "FYAD 2", Depth: 2},
		{ForumID: forumID("2"), Name: "Games", Depth: 1},
		{ForumID: forumID("49"), Name: "Discussion", Depth: 0},
		{ForumID: forumID("22"), Name: "SHSC", Depth: 1},
	}}

	var result *HierarchyResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertForumHierarchy(tx, hierarchy)
		return err
	})

	require.Len(t, result.Groups, 2)
	assert.Equal(t, 1, result.Groups[1].Index)
	require.Len(t, result.Forums, 5)
	gbs, fyad, fyad2, games, shsc := result.Forums[0], result.Forums[1], result.Forums[2], result.Forums[3], result.Forums[4]
	assert.Equal(t, 0, gbs.Index)
	assert.Equal(t, 0, fyad.Index)
	assert.Equal(t, 1, fyad2.Index)
	assert.Same(t, gbs, fyad2.Parent)
	assert.Equal(t, 1, games.Index)
	assert.Nil(t, games.Parent)
	assert.Equal(t, 0, shsc.Index)
	assert.Same(t, result.Groups[1], shsc.Group)

	// The breadcrumbs of a page agree with the hierarchy.
	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertBreadcrumbs(tx, crumbs())
		return err
	})
	assert.Equal(t, 5, s.Count(models.KindForum))
}

func insertUser(t *testing.T, tx *store.Tx, id, name string) *models.User {
	t.Helper()
	user, err := store.Insert[models.User](tx)
	require.Nil(t, err)
	if id != "" {
		require.Nil(t, store.Set(tx, user, "UserID", &user.UserID, userID(id)))
	}
	require.Nil(t, store.Set(tx, user, "Username", &user.Username, name))
	return user
}

func insertPost(t *testing.T, tx *store.Tx, id string, author *models.User) *models.Post {
	t.Helper()
	post, err := store.Insert[models.Post](tx)
	require.Nil(t, err)
	require.Nil(t, store.Set(tx, post, "PostID", &post.PostID, postID(id)))
	require.Nil(t, store.Set(tx, post, "Author", &post.Author, author))
	return post
}

func sidebar(id, name string) snapshot.AuthorSidebar {
	return snapshot.AuthorSidebar{UserID: userID(id), Username: name, CustomTitleHTML: "<b>hi</b>", CanReceivePrivateMessages: true}
}

func postsPage(pageNumber, pageCount int, posts ...snapshot.PagePost) *snapshot.PostsPage {
	return &snapshot.PostsPage{
		ThreadID:    threadID("5"),
		ThreadTitle: "A thread",
		Breadcrumbs: crumbs(),
		PageNumber:  pageNumber,
		PageCount:   pageCount,
		Posts:       posts,
	}
}

func TestUserMergeSameID(t *testing.T) {
	s := store.New(nil, store.Options{})
	var old *models.User
	commit(t, s, func(tx *store.Tx) error {
		old = insertUser(t, tx, "27", "OldName")
		renamed := insertUser(t, tx, "27", "NewName")
		insertPost(t, tx, "100", old)
		insertPost(t, tx, "101", renamed)
		return nil
	})

	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertPostsPage(tx, postsPage(1, 1,
			snapshot.PagePost{ID: postID("102"), Author: sidebar("27", "NewName")},
		), Options{})
		return err
	})

	users := all[*models.User](t, s)
	require.Len(t, users, 1)
	assert.Same(t, old, users[0])
	assert.Equal(t, "NewName", users[0].Username)
	assert.Equal(t, "<b>hi</b>", users[0].CustomTitleHTML)

	posts := all[*models.Post](t, s)
	require.Len(t, posts, 3)
	for _, post := range posts {
		assert.Same(t, users[0], post.Author, post.PostID.Raw())
	}
}

func TestUserMergeByName(t *testing.T) {
	s := store.New(nil, store.Options{})
	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertThreadList(tx, threadList(t), Options{})
		return err
	})
	lowtax := all[*models.Announcement](t, s)[0].Author
	require.NotNil(t, lowtax)
	assert.True(t, lowtax.UserID.IsZero())

	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertPostsPage(tx, postsPage(1, 1,
			snapshot.PagePost{ID: postID("1"), Author: sidebar("1", "Lowtax")},
		), Options{})
		return err
	})

	assert.Equal(t, "1", lowtax.UserID.Raw())
	for _, a := range all[*models.Announcement](t, s) {
		assert.Same(t, lowtax, a.Author)
	}
	assert.Same(t, lowtax, all[*models.Post](t, s)[0].Author)
}

func TestNameOnlyRefKeepsDistinctIDs(t *testing.T) {
	s := store.New(nil, store.Options{})
	var first *models.User
	commit(t, s, func(tx *store.Tx) error {
		first = insertUser(t, tx, "1", "Bob")
		insertUser(t, tx, "2", "Bob")
		return nil
	})

	var result *AnnouncementListResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertAnnouncementList(tx, &snapshot.AnnouncementList{
			Announcements: []snapshot.ListedAnnouncement{{Author: user("", "Bob"), BodyHTML: "hello"}},
		})
		return err
	})

	assert.Equal(t, 2, s.Count(models.KindUser))
	assert.Same(t, first, result.Announcements[0].Author)
}

func TestPlanUserMerge(t *testing.T) {
	assert.Equal(t, MergePlan{}, PlanUserMerge(nil))

	a, b, c := &models.User{Username: "a"}, &models.User{Username: "b"}, &models.User{Username: "c"}
	plan := PlanUserMerge([]*models.User{a, b, c})
	assert.Same(t, a, plan.Canonical)
	assert.Equal(t, []*models.User{b, c}, plan.Discard)
}

func TestResolveUsers(t *testing.T) {
	s := store.New(nil, store.Options{})
	var users []*models.User
	commit(t, s, func(tx *store.Tx) (err error) {
		users, err = ResolveUsers(tx, []snapshot.UserRef{user("27", "Someone"), user("", "Nobody"), {}, user("27", "Someone")})
		return err
	})

	require.Len(t, users, 4)
	assert.Equal(t, "27", users[0].UserID.Raw())
	assert.Equal(t, "Nobody", users[1].Username)
	assert.Nil(t, users[2])
	assert.Same(t, users[0], users[3])
	assert.Equal(t, 2, s.Count(models.KindUser))
}

func TestMergeMovesProfile(t *testing.T) {
	s := store.New(nil, store.Options{})
	var keep, discard *models.User
	var profile *models.Profile
	commit(t, s, func(tx *store.Tx) (err error) {
		keep = insertUser(t, tx, "", "Ann")
		discard = insertUser(t, tx, "9", "Ann")
		profile, err = store.Insert[models.Profile](tx)
		require.Nil(t, err)
		return store.Set(tx, profile, "User", &profile.User, discard)
	})

	commit(t, s, func(tx *store.Tx) error {
		return PlanUserMerge([]*models.User{keep, discard}).Apply(tx)
	})

	assert.Equal(t, 1, s.Count(models.KindUser))
	assert.Equal(t, "9", keep.UserID.Raw())
	assert.Same(t, keep, profile.User)
}

func TestPostIndexes(t *testing.T) {
	page := postsPage(3, 5, snapshot.PagePost{}, snapshot.PagePost{})
	assert.Equal(t, []int{81, 82}, postIndexes(page, 40))

	page = postsPage(3, 5,
		snapshot.PagePost{},
		snapshot.PagePost{IndexInThread: snapshot.Some(7)},
		snapshot.PagePost{},
	)
	assert.Equal(t, []int{6, 7, 8}, postIndexes(page, 40))
}

func TestPostsPage(t *testing.T) {
	s := store.New(nil, store.Options{})
	seen := snapshot.PagePost{ID: postID("1"), Author: sidebar("27", "Someone"), InnerHTML: "first", HasBeenSeen: true, PostDate: snapshot.Some(when)}
	unseen := snapshot.PagePost{ID: postID("2"), Author: sidebar("28", "Other"), InnerHTML: "second", IsEditable: true}

	var result *PostsPageResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertPostsPage(tx, postsPage(2, 3, seen, unseen), Options{PostsPerPage: 40})
		return err
	})

	thread := result.Thread
	assert.Equal(t, "A thread", thread.Title)
	assert.Equal(t, "FYAD", thread.Forum.Name)
	assert.Equal(t, 3, thread.NumberOfPages)
	assert.Equal(t, 41, thread.TotalReplies)
	assert.Equal(t, 41, thread.SeenPosts)

	require.Len(t, result.Posts, 2)
	assert.Equal(t, 41, result.Posts[0].ThreadIndex)
	assert.Equal(t, 42, result.Posts[1].ThreadIndex)
	assert.Same(t, thread, result.Posts[0].Thread)
	assert.True(t, result.Posts[1].Editable)
	require.NotNil(t, result.Posts[0].PostDate)
	assert.True(t, result.Posts[0].PostDate.Equal(when))

	// The last page fixes the reply count.
	commit(t, s, func(tx *store.Tx) (err error) {
		last := snapshot.PagePost{ID: postID("3"), Author: sidebar("27", "Someone"), HasBeenSeen: true}
		result, err = UpsertPostsPage(tx, postsPage(3, 3, last), Options{PostsPerPage: 40})
		return err
	})
	assert.Equal(t, 80, thread.TotalReplies)
	assert.Equal(t, 81, thread.SeenPosts)
	assert.Equal(t, 81, result.Posts[0].ThreadIndex)
	assert.Equal(t, 3, s.Count(models.KindPost))
	assert.Equal(t, 2, s.Count(models.KindUser))
}

func TestFilteredPostsPage(t *testing.T) {
	s := store.New(nil, store.Options{})
	page := postsPage(1, 2,
		snapshot.PagePost{ID: postID("1"), Author: sidebar("27", "Someone")},
		snapshot.PagePost{ID: postID("9"), Author: sidebar("27", "Someone")},
	)
	page.FilteredAuthor = snapshot.Some(userID("27"))

	var result *PostsPageResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertPostsPage(tx, page, Options{})
		return err
	})

	assert.Equal(t, 1, result.Posts[0].SingleUserIndex)
	assert.Equal(t, 2, result.Posts[1].SingleUserIndex)
	assert.Equal(t, 0, result.Posts[1].ThreadIndex)
	assert.Equal(t, 0, result.Thread.NumberOfPages)

	filters := all[*models.ThreadFilter](t, s)
	require.Len(t, filters, 1)
	assert.Equal(t, "27", filters[0].Author.UserID.Raw())
	assert.Nil(t, filters[0].ThreadTag)
	assert.Equal(t, 2, filters[0].NumberOfPages)
}

func TestPrivateMessages(t *testing.T) {
	s := store.New(nil, store.Options{})
	pmIcon := icon(t, "https://fi.somethingawful.com/images/shitpost.gif", "")

	var folderResult *PrivateMessageFolderResult
	commit(t, s, func(tx *store.Tx) (err error) {
		folderResult, err = UpsertPrivateMessageFolder(tx, &snapshot.PrivateMessageFolder{
			FolderID: folderID("0"),
			Name:     "Inbox",
			Folders: []snapshot.FolderOption{
				{FolderID: folderID("0"), Name: "Inbox"},
				{FolderID: folderID("-1"), Name: "Sent items"},
			},
			Messages: []snapshot.FolderMessage{
				{ID: messageID("77"), Subject: "hey", From: user("", "Someone"), Replied: true, Icon: pmIcon},
			},
		})
		return err
	})

	require.Len(t, folderResult.Folders, 2)
	assert.Same(t, folderResult.Folder, folderResult.Folders[0])
	assert.Equal(t, 1, folderResult.Folders[1].Index)
	message := folderResult.Messages[0]
	assert.False(t, message.Seen)
	assert.True(t, message.Replied)
	assert.Equal(t, "shitpost", message.ThreadTag.ImageName)

	var result *PrivateMessageResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertPrivateMessage(tx, &snapshot.PrivateMessage{
			ID:        messageID("77"),
			Subject:   "hey",
			From:      sidebar("27", "Someone"),
			To:        snapshot.Some(user("", "Me")),
			InnerHTML: "what's up",
			Seen:      true,
			Icon:      pmIcon,
		})
		return err
	})

	assert.Same(t, message, result.Message)
	assert.True(t, message.Seen)
	assert.True(t, message.Replied)
	assert.Equal(t, "what's up", message.InnerHTML)
	assert.Equal(t, "27", message.From.UserID.Raw())
	assert.Equal(t, "Me", message.To.Username)
	assert.Same(t, folderResult.Folder, message.Folder)
	assert.Equal(t, 2, s.Count(models.KindUser))
	assert.Equal(t, 1, s.Count(models.KindThreadTag))
}

func TestPostIconList(t *testing.T) {
	s := store.New(nil, store.Options{})

	// A tag first seen without an ID picks up its ID later.
	commit(t, s, func(tx *store.Tx) error {
		_, err := UpsertThreadList(tx, &snapshot.ThreadList{
			Kind: snapshot.BookmarkThreadList,
			Threads: []snapshot.ThreadListThread{
				{ID: threadID("1"), Title: "t", PrimaryIcon: icon(t, "https://fi.somethingawful.com/posticons/ama.gif", "")},
			},
		}, Options{})
		return err
	})
	require.Equal(t, 1, s.Count(models.KindThreadTag))

	var result *PostIconListResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertPostIconList(tx, &snapshot.PostIconList{
			ForumID: snapshot.Some(forumID("155")),
			PrimaryIcons: []snapshot.PostIcon{
				{Icon: *icon(t, "https://fi.somethingawful.com/posticons/ama.gif", "692")},
				{Icon: *icon(t, "https://fi.somethingawful.com/posticons/news.gif", "41")},
			},
			SecondaryIcons: []snapshot.PostIcon{
				{Icon: *icon(t, "https://fi.somethingawful.com/posticons/ask.gif", "1")},
			},
		})
		return err
	})

	assert.Equal(t, 3, s.Count(models.KindThreadTag))
	require.Len(t, result.PrimaryTags, 2)
	assert.Equal(t, "692", result.PrimaryTags[0].TagID)
	assert.Equal(t, result.PrimaryTags, result.Forum.ThreadTags)
	assert.Equal(t, result.SecondaryTags, result.Forum.SecondaryThreadTags)

	thread := all[*models.Thread](t, s)[0]
	assert.Same(t, result.PrimaryTags[0], thread.ThreadTag)
	assert.True(t, thread.Bookmarked)
}

func TestProfile(t *testing.T) {
	s := store.New(nil, store.Options{})
	home, err := url.Parse("https://example.com/")
	require.Nil(t, err)
	p := &snapshot.Profile{
		Author:    sidebar("27", "Someone"),
		Location:  "Earth",
		Homepage:  home,
		PostCount: snapshot.Some(1234),
	}

	var result *ProfileResult
	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertProfile(tx, p)
		return err
	})
	assert.Same(t, result.User, result.Profile.User)
	assert.Equal(t, "https://example.com/", result.Profile.Homepage)
	assert.Equal(t, 1234, result.Profile.PostCount)
	assert.True(t, result.User.CanReceivePrivateMessages)

	commit(t, s, func(tx *store.Tx) (err error) {
		result, err = UpsertProfile(tx, p)
		return err
	})
	assert.Empty(t, result.Touched())
	assert.Equal(t, 1, s.Count(models.KindProfile))
}

func TestUpsertDispatch(t *testing.T) {
	s := store.New(nil, store.Options{})
	snaps := []snapshot.Snapshot{
		crumbs(),
		threadList(t),
		postsPage(1, 1, snapshot.PagePost{ID: postID("1"), Author: sidebar("27", "Someone")}),
		&snapshot.ForumHierarchy{},
		&snapshot.AnnouncementList{},
		&snapshot.PostIconList{},
	}
	for _, snap := range snaps {
		commit(t, s, func(tx *store.Tx) error {
			result, err := Upsert(tx, snap, Options{})
			if err == nil {
				assert.NotNil(t, result)
			}
			return err
		})
	}
	assert.Equal(t, 0, s.Count(models.KindAnnouncement))

	assert.Panics(t, func() {
		tx := s.Begin()
		defer tx.Rollback()
		Upsert(tx, nil, Options{})
	})
}
