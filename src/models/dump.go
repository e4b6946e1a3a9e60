package models

import (
	"fmt"

	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"github.com/google/uuid"
)

// Dump is every entity of a store in flat form, as it is persisted.
type Dump struct {
	ForumGroups           []ForumGroupRecord
	Forums                []ForumRecord
	ForumThreadTags       []ForumThreadTagRecord
	ThreadTags            []ThreadTagRecord
	Users                 []UserRecord
	Profiles              []ProfileRecord
	Threads               []ThreadRecord
	Posts                 []PostRecord
	Announcements         []AnnouncementRecord
	PrivateMessageFolders []PrivateMessageFolderRecord
	PrivateMessages       []PrivateMessageRecord
	ThreadFilters         []ThreadFilterRecord
}

// Append adds the record of e to the dump. Forums add their tag rows too.
func (d *Dump) Append(e Entity) {
	switch e := e.(type) {
	case *ForumGroup:
		d.ForumGroups = append(d.ForumGroups, e.Record())
	case *Forum:
		d.Forums = append(d.Forums, e.Record())
		d.ForumThreadTags = append(d.ForumThreadTags, e.TagRecords()...)
	case *ThreadTag:
		d.ThreadTags = append(d.ThreadTags, e.Record())
	case *User:
		d.Users = append(d.Users, e.Record())
	case *Profile:
		d.Profiles = append(d.Profiles, e.Record())
	case *Thread:
		d.Threads = append(d.Threads, e.Record())
	case *Post:
		d.Posts = append(d.Posts, e.Record())
	case *Announcement:
		d.Announcements = append(d.Announcements, e.Record())
	case *PrivateMessageFolder:
		d.PrivateMessageFolders = append(d.PrivateMessageFolders, e.Record())
	case *PrivateMessage:
		d.PrivateMessages = append(d.PrivateMessages, e.Record())
	case *ThreadFilter:
		d.ThreadFilters = append(d.ThreadFilters, e.Record())
	default:
		panic(fmt.Errorf("unknown entity type %T", e))
	}
}

func (d *Dump) Len() int {
	return len(d.ForumGroups) + len(d.Forums) + len(d.ThreadTags) + len(d.Users) +
		len(d.Profiles) + len(d.Threads) + len(d.Posts) + len(d.Announcements) +
		len(d.PrivateMessageFolders) + len(d.PrivateMessages) + len(d.ThreadFilters)
}

type linker struct {
	byOID map[uuid.UUID]Entity
	err   error
}

func (l *linker) add(oid string, e Entity) {
	if l.err != nil {
		return
	}
	id, err := uuid.Parse(oid)
	if err != nil {
		l.err = oops.New(err, "bad object ID %q", oid)
		return
	}
	if _, exists := l.byOID[id]; exists {
		l.err = oops.New(nil, "duplicate object ID %s", id)
		return
	}
	e.EntityBase().OID = id
	l.byOID[id] = e
}

/*
Looks up a reference. A reference to a row that no longer exists reads as no
reference, since nothing enforces foreign keys.
*/
func link[T any, PT interface {
	*T
	Entity
}](l *linker, oid *string) PT {
	if oid == nil || l.err != nil {
		return nil
	}
	id, err := uuid.Parse(*oid)
	if err != nil {
		l.err = oops.New(err, "bad object ID reference %q", *oid)
		return nil
	}
	e, ok := l.byOID[id]
	if !ok {
		return nil
	}
	typed, ok := e.(PT)
	if !ok {
		l.err = oops.New(nil, "object %s is a %s, not a %s", id, e.Kind(), KindOf[PT]())
		return nil
	}
	return typed
}

/*
Entities rebuilds the entity graph from the dump. Entities come back grouped
by kind in the order of Kinds, and within a kind in dump order.
*/
func (d *Dump) Entities() ([]Entity, error) {
	l := &linker{byOID: make(map[uuid.UUID]Entity, d.Len())}
	result := make([]Entity, 0, d.Len())

	groups := make([]*ForumGroup, len(d.ForumGroups))
	for i, r := range d.ForumGroups {
		groupID, _ := ids.NewForumGroupID(r.GroupID)
		groups[i] = &ForumGroup{GroupID: groupID, Name: r.Name, Index: r.Index}
		l.add(r.ObjectID, groups[i])
	}
	forums := make([]*Forum, len(d.Forums))
	for i, r := range d.Forums {
		forumID, _ := ids.NewForumID(r.ForumID)
		forums[i] = &Forum{ForumID: forumID, Name: r.Name, Index: r.Index, CanPost: r.CanPost}
		l.add(r.ObjectID, forums[i])
	}
	tags := make([]*ThreadTag, len(d.ThreadTags))
	for i, r := range d.ThreadTags {
		tags[i] = &ThreadTag{TagID: r.TagID, ImageName: r.ImageName, ImageURL: r.ImageURL}
		l.add(r.ObjectID, tags[i])
	}
	users := make([]*User, len(d.Users))
	for i, r := range d.Users {
		userID, _ := ids.NewUserID(r.UserID)
		users[i] = &User{
			UserID:                    userID,
			Username:                  r.Username,
			CustomTitleHTML:           r.CustomTitleHTML,
			RegDate:                   fromMillis(r.RegDate),
			Administrator:             r.Administrator,
			Moderator:                 r.Moderator,
			AuthorClasses:             r.AuthorClasses,
			CanReceivePrivateMessages: r.CanReceivePrivateMessages,
		}
		l.add(r.ObjectID, users[i])
	}
	profiles := make([]*Profile, len(d.Profiles))
	for i, r := range d.Profiles {
		profiles[i] = &Profile{
			AboutMeHTML:  r.AboutMeHTML,
			Location:     r.Location,
			Interests:    r.Interests,
			Occupation:   r.Occupation,
			Homepage:     r.Homepage,
			PostCount:    r.PostCount,
			PostRate:     r.PostRate,
			LastPostDate: fromMillis(r.LastPostDate),
			AvatarURL:    r.AvatarURL,
		}
		l.add(r.ObjectID, profiles[i])
	}
	threads := make([]*Thread, len(d.Threads))
	for i, r := range d.Threads {
		threadID, _ := ids.NewThreadID(r.ThreadID)
		threads[i] = &Thread{
			ThreadID:           threadID,
			Title:              r.Title,
			Bookmarked:         r.Bookmarked,
			BookmarkColor:      snapshot.BookmarkColor(r.BookmarkColor),
			Sticky:             r.Sticky,
			StickyIndex:        r.StickyIndex,
			Closed:             r.Closed,
			Rating:             r.Rating,
			NumberOfVotes:      r.NumberOfVotes,
			TotalReplies:       r.TotalReplies,
			SeenPosts:          r.SeenPosts,
			LastPostAuthorName: r.LastPostAuthorName,
			LastPostDate:       fromMillis(r.LastPostDate),
			NumberOfPages:      r.NumberOfPages,
			ThreadListPage:     r.ThreadListPage,
			BookmarkListPage:   r.BookmarkListPage,
		}
		l.add(r.ObjectID, threads[i])
	}
	posts := make([]*Post, len(d.Posts))
	for i, r := range d.Posts {
		postID, _ := ids.NewPostID(r.PostID)
		posts[i] = &Post{
			PostID:          postID,
			InnerHTML:       r.InnerHTML,
			PostDate:        fromMillis(r.PostDate),
			ThreadIndex:     r.ThreadIndex,
			SingleUserIndex: r.SingleUserIndex,
			Editable:        r.Editable,
			Ignored:         r.Ignored,
		}
		l.add(r.ObjectID, posts[i])
	}
	announcements := make([]*Announcement, len(d.Announcements))
	for i, r := range d.Announcements {
		announcements[i] = &Announcement{
			ListIndex:      r.ListIndex,
			Title:          r.Title,
			AuthorUsername: r.AuthorUsername,
			IconURL:        r.IconURL,
			LastUpdated:    fromMillis(r.LastUpdated),
			BodyHTML:       r.BodyHTML,
			PostedDate:     fromMillis(r.PostedDate),
			HasBeenSeen:    r.HasBeenSeen,
		}
		l.add(r.ObjectID, announcements[i])
	}
	folders := make([]*PrivateMessageFolder, len(d.PrivateMessageFolders))
	for i, r := range d.PrivateMessageFolders {
		folderID, _ := ids.NewPrivateMessageFolderID(r.FolderID)
		folders[i] = &PrivateMessageFolder{FolderID: folderID, Name: r.Name, Index: r.Index}
		l.add(r.ObjectID, folders[i])
	}
	messages := make([]*PrivateMessage, len(d.PrivateMessages))
	for i, r := range d.PrivateMessages {
		messageID, _ := ids.NewPrivateMessageID(r.MessageID)
		messages[i] = &PrivateMessage{
			MessageID: messageID,
			Subject:   r.Subject,
			SentDate:  fromMillis(r.SentDate),
			InnerHTML: r.InnerHTML,
			Seen:      r.Seen,
			Replied:   r.Replied,
			Forwarded: r.Forwarded,
		}
		l.add(r.ObjectID, messages[i])
	}
	filters := make([]*ThreadFilter, len(d.ThreadFilters))
	for i, r := range d.ThreadFilters {
		filters[i] = &ThreadFilter{NumberOfPages: r.NumberOfPages}
		l.add(r.ObjectID, filters[i])
	}
	if l.err != nil {
		return nil, l.err
	}

	// Now that every entity exists, wire up the references.
	for i, r := range d.Forums {
		forums[i].Group = link[ForumGroup](l, r.GroupID)
		forums[i].Parent = link[Forum](l, r.ParentID)
	}
	for _, r := range d.ForumThreadTags {
		forum := link[Forum](l, &r.ForumID)
		tag := link[ThreadTag](l, &r.TagID)
		if forum == nil || tag == nil {
			continue
		}
		if r.Secondary {
			forum.SecondaryThreadTags = insertAt(forum.SecondaryThreadTags, r.Position, tag)
		} else {
			forum.ThreadTags = insertAt(forum.ThreadTags, r.Position, tag)
		}
	}
	for _, f := range forums {
		f.ThreadTags = compact(f.ThreadTags)
		f.SecondaryThreadTags = compact(f.SecondaryThreadTags)
	}
	for i, r := range d.Profiles {
		profiles[i].User = link[User](l, r.UserID)
	}
	for i, r := range d.Threads {
		threads[i].Forum = link[Forum](l, r.ForumID)
		threads[i].Author = link[User](l, r.AuthorID)
		threads[i].ThreadTag = link[ThreadTag](l, r.ThreadTagID)
		threads[i].SecondaryThreadTag = link[ThreadTag](l, r.SecondaryThreadTagID)
	}
	for i, r := range d.Posts {
		posts[i].Thread = link[Thread](l, r.ThreadID)
		posts[i].Author = link[User](l, r.AuthorID)
	}
	for i, r := range d.Announcements {
		announcements[i].Author = link[User](l, r.AuthorID)
		announcements[i].ThreadTag = link[ThreadTag](l, r.ThreadTagID)
	}
	for i, r := range d.PrivateMessages {
		messages[i].From = link[User](l, r.FromID)
		messages[i].To = link[User](l, r.ToID)
		messages[i].ThreadTag = link[ThreadTag](l, r.ThreadTagID)
		messages[i].Folder = link[PrivateMessageFolder](l, r.FolderID)
	}
	for i, r := range d.ThreadFilters {
		filters[i].Forum = link[Forum](l, r.ForumID)
		filters[i].Author = link[User](l, r.AuthorID)
		filters[i].ThreadTag = link[ThreadTag](l, r.ThreadTagID)
	}
	if l.err != nil {
		return nil, l.err
	}

	for _, g := range groups {
		result = append(result, g)
	}
	for _, f := range forums {
		result = append(result, f)
	}
	for _, t := range tags {
		result = append(result, t)
	}
	for _, u := range users {
		result = append(result, u)
	}
	for _, p := range profiles {
		result = append(result, p)
	}
	for _, t := range threads {
		result = append(result, t)
	}
	for _, p := range posts {
		result = append(result, p)
	}
	for _, a := range announcements {
		result = append(result, a)
	}
	for _, f := range folders {
		result = append(result, f)
	}
	for _, m := range messages {
		result = append(result, m)
	}
	for _, f := range filters {
		result = append(result, f)
	}

	return result, nil
}

// Join rows may come back in any order, so each tag is placed by position.
func insertAt(tags []*ThreadTag, position int, tag *ThreadTag) []*ThreadTag {
	if position < 0 {
		position = 0
	}
	for len(tags) <= position {
		tags = append(tags, nil)
	}
	tags[position] = tag
	return tags
}

func compact(tags []*ThreadTag) []*ThreadTag {
	result := tags[:0]
	for _, tag := range tags {
		if tag != nil {
			result = append(result, tag)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
