package scraping

import (
	"fmt"
	"net/url"
	"sort"

	"git.handmade.network/hmn/forumsync/src/snapshot"
	"golang.org/x/net/html"
)

// Kind names a kind of page that can be scraped.
type Kind string

const (
	KindThreadList           Kind = "threadlist"
	KindPostsPage            Kind = "posts"
	KindPrivateMessage       Kind = "privatemessage"
	KindPrivateMessageFolder Kind = "pmfolder"
	KindAnnouncementList     Kind = "announcements"
	KindPostIconList         Kind = "posticons"
	KindForumBreadcrumbs     Kind = "breadcrumbs"
	KindProfile              Kind = "profile"
	KindForumHierarchy       Kind = "hierarchy"
)

type scrapeFunc func(s Scraper, root *html.Node, sourceURL *url.URL) (snapshot.Snapshot, error)

var scrapers = map[Kind]scrapeFunc{
	KindThreadList: func(s Scraper, root *html.Node, u *url.URL) (snapshot.Snapshot, error) {
		return nilSafe(s.ThreadList(root, u))
	},
	KindPostsPage: func(s Scraper, root *html.Node, u *url.URL) (snapshot.Snapshot, error) {
		return nilSafe(s.PostsPage(root, u))
	},
	KindPrivateMessage: func(s Scraper, root *html.Node, u *url.URL) (snapshot.Snapshot, error) {
		return nilSafe(s.PrivateMessage(root, u))
	},
	KindPrivateMessageFolder: func(s Scraper, root *html.Node, u *url.URL) (snapshot.Snapshot, error) {
		return nilSafe(s.PrivateMessageFolder(root, u))
	},
	KindAnnouncementList: func(s Scraper, root *html.Node, u *url.URL) (snapshot.Snapshot, error) {
		return nilSafe(s.AnnouncementList(root, u))
	},
	KindPostIconList: func(s Scraper, root *html.Node, u *url.URL) (snapshot.Snapshot, error) {
		return nilSafe(s.PostIconList(root, u))
	},
	KindForumBreadcrumbs: func(s Scraper, root *html.Node, u *url.URL) (snapshot.Snapshot, error) {
		crumbs, err := s.ForumBreadcrumbs(root, u)
		if err != nil {
			return nil, err
		}
		return crumbs, nil
	},
	KindProfile: func(s Scraper, root *html.Node, u *url.URL) (snapshot.Snapshot, error) {
		return nilSafe(s.Profile(root, u))
	},
	KindForumHierarchy: func(s Scraper, root *html.Node, u *url.URL) (snapshot.Snapshot, error) {
		return nilSafe(s.ForumHierarchy(root, u))
	},
}

// Keeps a typed nil pointer from turning into a non-nil interface.
func nilSafe[T snapshot.Snapshot](snap T, err error) (snapshot.Snapshot, error) {
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := scrapers[k]; !ok {
		return "", fmt.Errorf("unknown page kind %q (expected one of %v)", s, Kinds())
	}
	return k, nil
}

func Kinds() []Kind {
	kinds := make([]Kind, 0, len(scrapers))
	for k := range scrapers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Scrape runs the scraper for the given kind of page.
func (s Scraper) Scrape(kind Kind, root *html.Node, sourceURL *url.URL) (snapshot.Snapshot, error) {
	scrape, ok := scrapers[kind]
	if !ok {
		return nil, fmt.Errorf("unknown page kind %q", kind)
	}
	return scrape(s, root, sourceURL)
}

func Scrape(kind Kind, root *html.Node, sourceURL *url.URL) (snapshot.Snapshot, error) {
	return Default.Scrape(kind, root, sourceURL)
}
