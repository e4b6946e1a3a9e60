package models

import (
	"time"

	"git.handmade.network/hmn/forumsync/src/ids"
)

/*
A forum user. Some pages only show a username, so a user may exist with no
UserID until a page with the ID turns up. When that happens two rows may
describe the same person for a while; the next sighting merges them.
*/
type User struct {
	Base

	UserID   ids.UserID
	Username string

	CustomTitleHTML string
	RegDate         *time.Time

	Administrator bool
	Moderator     bool
	AuthorClasses string

	CanReceivePrivateMessages bool
}

func (*User) Kind() Kind { return KindUser }

type UserRecord struct {
	ObjectID                  string `db:"object_id"`
	UserID                    string `db:"user_id"`
	Username                  string `db:"username"`
	CustomTitleHTML           string `db:"custom_title_html"`
	RegDate                   *int64 `db:"reg_date"`
	Administrator             bool   `db:"administrator"`
	Moderator                 bool   `db:"moderator"`
	AuthorClasses             string `db:"author_classes"`
	CanReceivePrivateMessages bool   `db:"can_receive_private_messages"`
}

func (u *User) Record() UserRecord {
	return UserRecord{
		ObjectID:                  u.OID.String(),
		UserID:                    u.UserID.Raw(),
		Username:                  u.Username,
		CustomTitleHTML:           u.CustomTitleHTML,
		RegDate:                   millis(u.RegDate),
		Administrator:             u.Administrator,
		Moderator:                 u.Moderator,
		AuthorClasses:             u.AuthorClasses,
		CanReceivePrivateMessages: u.CanReceivePrivateMessages,
	}
}

type Profile struct {
	Base

	User *User

	AboutMeHTML  string
	Location     string
	Interests    string
	Occupation   string
	Homepage     string
	PostCount    int
	PostRate     string
	LastPostDate *time.Time
	AvatarURL    string
}

func (*Profile) Kind() Kind { return KindProfile }

type ProfileRecord struct {
	ObjectID     string  `db:"object_id"`
	UserID       *string `db:"user_object_id"`
	AboutMeHTML  string  `db:"about_me_html"`
	Location     string  `db:"location"`
	Interests    string  `db:"interests"`
	Occupation   string  `db:"occupation"`
	Homepage     string  `db:"homepage"`
	PostCount    int     `db:"post_count"`
	PostRate     string  `db:"post_rate"`
	LastPostDate *int64  `db:"last_post_date"`
	AvatarURL    string  `db:"avatar_url"`
}

func (p *Profile) Record() ProfileRecord {
	return ProfileRecord{
		ObjectID:     p.OID.String(),
		UserID:       ref(p.User),
		AboutMeHTML:  p.AboutMeHTML,
		Location:     p.Location,
		Interests:    p.Interests,
		Occupation:   p.Occupation,
		Homepage:     p.Homepage,
		PostCount:    p.PostCount,
		PostRate:     p.PostRate,
		LastPostDate: millis(p.LastPostDate),
		AvatarURL:    p.AvatarURL,
	}
}
