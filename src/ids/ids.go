/*
Package ids contains the identifier types for everything the forums hand out
an ID for. Each kind of entity gets its own type so that a thread ID can never
be passed where a post ID is expected.

Identifiers are opaque strings. They look numeric, but nothing here relies on
that: "0123" and "123" are different identifiers.
*/
package ids

import (
	"fmt"
)

type kind interface {
	kindName() string
}

// ID is an identifier of one kind of entity. The zero value is not a valid
// identifier; use the New* constructors.
type ID[K kind] struct {
	raw string
}

func newID[K kind](raw string) (ID[K], bool) {
	if raw == "" {
		return ID[K]{}, false
	}
	return ID[K]{raw: raw}, true
}

func (id ID[K]) Raw() string {
	return id.raw
}

func (id ID[K]) String() string {
	return id.raw
}

// IsZero reports whether id was never constructed.
func (id ID[K]) IsZero() bool {
	return id.raw == ""
}

func (id ID[K]) MarshalText() ([]byte, error) {
	return []byte(id.raw), nil
}

func (id *ID[K]) UnmarshalText(text []byte) error {
	parsed, ok := newID[K](string(text))
	if !ok {
		var k K
		return fmt.Errorf("empty %s", k.kindName())
	}
	*id = parsed
	return nil
}

type forumGroupKind struct{}
type forumKind struct{}
type threadKind struct{}
type postKind struct{}
type userKind struct{}
type privateMessageKind struct{}
type privateMessageFolderKind struct{}

func (forumGroupKind) kindName() string           { return "forum group ID" }
func (forumKind) kindName() string                { return "forum ID" }
func (threadKind) kindName() string               { return "thread ID" }
func (postKind) kindName() string                 { return "post ID" }
func (userKind) kindName() string                 { return "user ID" }
func (privateMessageKind) kindName() string       { return "private message ID" }
func (privateMessageFolderKind) kindName() string { return "private message folder ID" }

type (
	ForumGroupID           = ID[forumGroupKind]
	ForumID                = ID[forumKind]
	ThreadID               = ID[threadKind]
	PostID                 = ID[postKind]
	UserID                 = ID[userKind]
	PrivateMessageID       = ID[privateMessageKind]
	PrivateMessageFolderID = ID[privateMessageFolderKind]
)

func NewForumGroupID(raw string) (ForumGroupID, bool) { return newID[forumGroupKind](raw) }
func NewForumID(raw string) (ForumID, bool)           { return newID[forumKind](raw) }
func NewThreadID(raw string) (ThreadID, bool)         { return newID[threadKind](raw) }
func NewPostID(raw string) (PostID, bool)             { return newID[postKind](raw) }
func NewUserID(raw string) (UserID, bool)             { return newID[userKind](raw) }

func NewPrivateMessageID(raw string) (PrivateMessageID, bool) {
	return newID[privateMessageKind](raw)
}

func NewPrivateMessageFolderID(raw string) (PrivateMessageFolderID, bool) {
	return newID[privateMessageFolderKind](raw)
}
