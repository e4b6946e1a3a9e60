package models

import (
	"time"

	"git.handmade.network/hmn/forumsync/src/ids"
)

type PrivateMessageFolder struct {
	Base

	FolderID ids.PrivateMessageFolderID
	Name     string
	Index    int
}

func (*PrivateMessageFolder) Kind() Kind { return KindPrivateMessageFolder }

type PrivateMessageFolderRecord struct {
	ObjectID string `db:"object_id"`
	FolderID string `db:"folder_id"`
	Name     string `db:"name"`
	Index    int    `db:"list_index"`
}

func (f *PrivateMessageFolder) Record() PrivateMessageFolderRecord {
	return PrivateMessageFolderRecord{
		ObjectID: f.OID.String(),
		FolderID: f.FolderID.Raw(),
		Name:     f.Name,
		Index:    f.Index,
	}
}

type PrivateMessage struct {
	Base

	MessageID ids.PrivateMessageID
	Subject   string
	From      *User
	To        *User
	SentDate  *time.Time
	InnerHTML string

	Seen      bool
	Replied   bool
	Forwarded bool

	ThreadTag *ThreadTag
	Folder    *PrivateMessageFolder
}

func (*PrivateMessage) Kind() Kind { return KindPrivateMessage }

type PrivateMessageRecord struct {
	ObjectID    string  `db:"object_id"`
	MessageID   string  `db:"message_id"`
	Subject     string  `db:"subject"`
	FromID      *string `db:"from_object_id"`
	ToID        *string `db:"to_object_id"`
	SentDate    *int64  `db:"sent_date"`
	InnerHTML   string  `db:"inner_html"`
	Seen        bool    `db:"seen"`
	Replied     bool    `db:"replied"`
	Forwarded   bool    `db:"forwarded"`
	ThreadTagID *string `db:"thread_tag_object_id"`
	FolderID    *string `db:"folder_object_id"`
}

func (m *PrivateMessage) Record() PrivateMessageRecord {
	return PrivateMessageRecord{
		ObjectID:    m.OID.String(),
		MessageID:   m.MessageID.Raw(),
		Subject:     m.Subject,
		FromID:      ref(m.From),
		ToID:        ref(m.To),
		SentDate:    millis(m.SentDate),
		InnerHTML:   m.InnerHTML,
		Seen:        m.Seen,
		Replied:     m.Replied,
		Forwarded:   m.Forwarded,
		ThreadTagID: ref(m.ThreadTag),
		FolderID:    ref(m.Folder),
	}
}
