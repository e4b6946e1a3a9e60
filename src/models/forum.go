package models

import (
	"git.handmade.network/hmn/forumsync/src/ids"
)

type ForumGroup struct {
	Base

	GroupID ids.ForumGroupID
	Name    string
	Index   int
}

func (*ForumGroup) Kind() Kind { return KindForumGroup }

type ForumGroupRecord struct {
	ObjectID string `db:"object_id"`
	GroupID  string `db:"group_id"`
	Name     string `db:"name"`
	Index    int    `db:"list_index"`
}

func (g *ForumGroup) Record() ForumGroupRecord {
	return ForumGroupRecord{
		ObjectID: g.OID.String(),
		GroupID:  g.GroupID.Raw(),
		Name:     g.Name,
		Index:    g.Index,
	}
}

type Forum struct {
	Base

	ForumID ids.ForumID
	Name    string

	// Position among the forums with the same parent.
	Index int

	Group  *ForumGroup
	Parent *Forum

	CanPost bool

	// The tags threads in this forum can be given, in the order the forum
	// offers them.
	ThreadTags          []*ThreadTag
	SecondaryThreadTags []*ThreadTag
}

func (*Forum) Kind() Kind { return KindForum }

type ForumRecord struct {
	ObjectID string  `db:"object_id"`
	ForumID  string  `db:"forum_id"`
	Name     string  `db:"name"`
	Index    int     `db:"list_index"`
	GroupID  *string `db:"group_object_id"`
	ParentID *string `db:"parent_object_id"`
	CanPost  bool    `db:"can_post"`
}

func (f *Forum) Record() ForumRecord {
	return ForumRecord{
		ObjectID: f.OID.String(),
		ForumID:  f.ForumID.Raw(),
		Name:     f.Name,
		Index:    f.Index,
		GroupID:  ref(f.Group),
		ParentID: ref(f.Parent),
		CanPost:  f.CanPost,
	}
}

// A row of the join table between forums and the thread tags they offer.
type ForumThreadTagRecord struct {
	ForumID   string `db:"forum_object_id"`
	TagID     string `db:"tag_object_id"`
	Position  int    `db:"position"`
	Secondary bool   `db:"secondary"`
}

func (f *Forum) TagRecords() []ForumThreadTagRecord {
	var records []ForumThreadTagRecord
	add := func(tags []*ThreadTag, secondary bool) {
		for i, tag := range tags {
			records = append(records, ForumThreadTagRecord{
				ForumID:   f.OID.String(),
				TagID:     tag.OID.String(),
				Position:  i,
				Secondary: secondary,
			})
		}
	}
	add(f.ThreadTags, false)
	add(f.SecondaryThreadTags, true)
	return records
}

// A thread tag, also called a post icon. Tags without an ID on the site are
// told apart by image name.
type ThreadTag struct {
	Base

	TagID     string
	ImageName string
	ImageURL  string
}

func (*ThreadTag) Kind() Kind { return KindThreadTag }

type ThreadTagRecord struct {
	ObjectID  string `db:"object_id"`
	TagID     string `db:"tag_id"`
	ImageName string `db:"image_name"`
	ImageURL  string `db:"image_url"`
}

func (t *ThreadTag) Record() ThreadTagRecord {
	return ThreadTagRecord{
		ObjectID:  t.OID.String(),
		TagID:     t.TagID,
		ImageName: t.ImageName,
		ImageURL:  t.ImageURL,
	}
}

/*
Filtered listing state for a forum. A forum has one filter per thread tag it
has been filtered by, and one per author.
*/
type ThreadFilter struct {
	Base

	Forum     *Forum
	Author    *User
	ThreadTag *ThreadTag

	NumberOfPages int
}

func (*ThreadFilter) Kind() Kind { return KindThreadFilter }

type ThreadFilterRecord struct {
	ObjectID      string  `db:"object_id"`
	ForumID       *string `db:"forum_object_id"`
	AuthorID      *string `db:"author_object_id"`
	ThreadTagID   *string `db:"thread_tag_object_id"`
	NumberOfPages int     `db:"number_of_pages"`
}

func (f *ThreadFilter) Record() ThreadFilterRecord {
	return ThreadFilterRecord{
		ObjectID:      f.OID.String(),
		ForumID:       ref(f.Forum),
		AuthorID:      ref(f.Author),
		ThreadTagID:   ref(f.ThreadTag),
		NumberOfPages: f.NumberOfPages,
	}
}
