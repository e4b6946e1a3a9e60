/*
Package snapshot contains the immutable results of scraping one page. A
snapshot is pure data: it knows nothing about the store, and is thrown away
once it has been reconciled.
*/
package snapshot

import (
	"net/url"
	"path"
	"strings"
	"time"

	"git.handmade.network/hmn/forumsync/src/ids"
)

// Snapshot is implemented by every page snapshot in this package.
type Snapshot interface {
	isSnapshot()
}

func (*ThreadList) isSnapshot()           {}
func (*PostsPage) isSnapshot()            {}
func (*PrivateMessage) isSnapshot()       {}
func (*PrivateMessageFolder) isSnapshot() {}
func (*AnnouncementList) isSnapshot()     {}
func (*PostIconList) isSnapshot()         {}
func (*Profile) isSnapshot()              {}
func (*ForumHierarchy) isSnapshot()       {}
func (ForumBreadcrumbs) isSnapshot()      {}

// One link in the breadcrumb trail. Depth 0 is the forum group; every later
// link is a forum, each the parent of the next.
type ForumBreadcrumb struct {
	ForumID ids.ForumID
	Name    string
	Depth   int
}

type ForumBreadcrumbs []ForumBreadcrumb

// The deepest crumb, which is the forum the page belongs to.
func (b ForumBreadcrumbs) Last() (ForumBreadcrumb, bool) {
	if len(b) == 0 {
		return ForumBreadcrumb{}, false
	}
	return b[len(b)-1], true
}

/*
A reference to a thread tag image. The ID is the forum's opaque tag ID if the
page exposed one. Tags without an ID are identified by their image name.
*/
type IconRef struct {
	ID  Maybe[string]
	URL *url.URL
}

// The file stem of the icon URL, e.g. "ama" for ".../posticons/ama.gif#123".
func (i IconRef) ImageName() string {
	if i.URL == nil {
		return ""
	}
	base := path.Base(i.URL.Path)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// A user as seen in a context that might not expose their ID.
type UserRef struct {
	ID       Maybe[ids.UserID]
	Username string
}

// The author block that sits next to a post, message, or profile.
type AuthorSidebar struct {
	UserID                    ids.UserID
	Username                  string
	CustomTitleHTML           string
	RegDate                   Maybe[time.Time]
	IsAdministrator           bool
	IsModerator               bool
	AuthorClasses             string
	CanReceivePrivateMessages bool
}

func (a AuthorSidebar) Ref() UserRef {
	return UserRef{ID: Some(a.UserID), Username: a.Username}
}

type PostIcon struct {
	Icon  IconRef
	Title string
}
