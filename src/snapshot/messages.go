package snapshot

import (
	"net/url"
	"time"

	"git.handmade.network/hmn/forumsync/src/ids"
)

type PrivateMessage struct {
	ID        ids.PrivateMessageID
	Subject   string
	From      AuthorSidebar
	To        Maybe[UserRef]
	SentDate  Maybe[time.Time]
	InnerHTML string

	// Opening a message marks it seen. Replied and forwarded are only known
	// when the page shows a status icon.
	Seen      bool
	Replied   Maybe[bool]
	Forwarded Maybe[bool]

	Icon *IconRef
}

type PrivateMessageFolder struct {
	FolderID ids.PrivateMessageFolderID
	Name     string

	// Every folder the folder picker offers, in order.
	Folders []FolderOption

	Messages []FolderMessage
}

type FolderOption struct {
	FolderID ids.PrivateMessageFolderID
	Name     string
}

type FolderMessage struct {
	ID       ids.PrivateMessageID
	Subject  string
	From     UserRef
	SentDate Maybe[time.Time]

	Seen      bool
	Replied   bool
	Forwarded bool

	Icon *IconRef
}

type Profile struct {
	Author       AuthorSidebar
	AboutMeHTML  string
	Location     string
	Interests    string
	Occupation   string
	Homepage     *url.URL
	PostCount    Maybe[int]
	PostRate     string
	LastPostDate Maybe[time.Time]
	AvatarURL    *url.URL
}
