package models

import (
	"time"

	"github.com/google/uuid"
)

// Kind names a kind of entity. It doubles as the entity's table name.
type Kind string

const (
	KindForumGroup           Kind = "forum_group"
	KindForum                Kind = "forum"
	KindThreadTag            Kind = "thread_tag"
	KindUser                 Kind = "forum_user"
	KindProfile              Kind = "profile"
	KindThread               Kind = "thread"
	KindPost                 Kind = "post"
	KindAnnouncement         Kind = "announcement"
	KindPrivateMessageFolder Kind = "pm_folder"
	KindPrivateMessage       Kind = "private_message"
	KindThreadFilter         Kind = "thread_filter"
)

// Every kind, ordered so that an entity only refers to kinds before it or
// to its own kind.
var Kinds = []Kind{
	KindForumGroup,
	KindForum,
	KindThreadTag,
	KindUser,
	KindProfile,
	KindThread,
	KindPost,
	KindAnnouncement,
	KindPrivateMessageFolder,
	KindPrivateMessage,
	KindThreadFilter,
}

// Base is embedded in every entity. OID is assigned by the store when the
// entity is inserted and never changes.
type Base struct {
	OID uuid.UUID
}

func (b *Base) EntityBase() *Base {
	return b
}

func (b *Base) ObjectID() uuid.UUID {
	return b.OID
}

type Entity interface {
	EntityBase() *Base
	ObjectID() uuid.UUID

	// Kind must not dereference its receiver, so that it can be called on a
	// nil pointer of the entity's type.
	Kind() Kind
}

func KindOf[E Entity]() Kind {
	var zero E
	return zero.Kind()
}

func ref[T any, PT interface {
	*T
	Entity
}](e PT) *string {
	if e == nil {
		return nil
	}
	s := e.ObjectID().String()
	return &s
}

func millis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
