/*
Package scraping turns forum pages into snapshots. Every scraper takes the
root of a parsed document and the URL it was fetched from, and returns either
a complete snapshot or an error. Scrapers never touch the store.
*/
package scraping

import (
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/oops"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"git.handmade.network/hmn/forumsync/src/utils"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func ParseHTML(r io.Reader) (*html.Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, oops.New(err, "failed to parse HTML")
	}
	return root, nil
}

/*
A Scraper holds the settings that affect how values on a page are read. The
zero value parses dates in UTC.
*/
type Scraper struct {
	// The time zone the forum displays dates in.
	Location *time.Location
}

var Default = Scraper{Location: time.UTC}

type page struct {
	doc  *goquery.Document
	base *url.URL
	loc  *time.Location
}

func (s Scraper) newPage(root *html.Node, sourceURL *url.URL) *page {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return &page{
		doc:  goquery.NewDocumentFromNode(root),
		base: sourceURL,
		loc:  loc,
	}
}

func required(sel *goquery.Selection, selector string) (*goquery.Selection, error) {
	found := sel.Find(selector)
	if found.Length() == 0 {
		return nil, missingElement(selector)
	}
	return found.First(), nil
}

func text(sel *goquery.Selection) string {
	return normalizeSpace(sel.Text())
}

func innerHTML(sel *goquery.Selection) string {
	h, err := sel.Html()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(h)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// parseCount reads numbers like "1,024".
func parseCount(s string) (int, bool) {
	s = strings.ReplaceAll(normalizeSpace(s), ",", "")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

/*
Finds prefix in s and returns the run of digits immediately after it, so
scanCompositeID("post 123 post456", "post") returns "456", and
scanCompositeID("thread789x", "thread") returns "789".
*/
func scanCompositeID(s, prefix string) (string, error) {
	rest := s
	for {
		i := strings.Index(rest, prefix)
		if i < 0 {
			return "", missingElement(prefix)
		}
		rest = rest[i+len(prefix):]
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end > 0 {
			return rest[:end], nil
		}
	}
}

func (p *page) resolve(ref string) *url.URL {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil
	}
	if p.base != nil {
		u = p.base.ResolveReference(u)
	}
	return u
}

// The value of a query parameter in the href of a link.
func (p *page) queryParam(link *goquery.Selection, name string) (string, bool) {
	href, ok := link.Attr("href")
	if !ok {
		return "", false
	}
	u := p.resolve(href)
	if u == nil {
		return "", false
	}
	v := u.Query().Get(name)
	return v, v != ""
}

func (p *page) userIDFromLink(link *goquery.Selection) snapshot.Maybe[ids.UserID] {
	raw, ok := p.queryParam(link, "userid")
	if !ok {
		return snapshot.None[ids.UserID]()
	}
	id, ok := ids.NewUserID(raw)
	if !ok {
		return snapshot.None[ids.UserID]()
	}
	return snapshot.Some(id)
}

var (
	postDateLayouts = []string{
		"Jan 2, 2006 3:04 PM",
		"Jan 2, 2006 15:04",
	}
	lastPostDateLayouts = []string{
		"3:04 PM Jan 2, 2006",
		"15:04 Jan 2, 2006",
	}
	regDateLayouts = []string{
		"Jan 2, 2006",
	}
)

// Tries each layout in order. The first one that parses wins.
func (p *page) parseDate(s string, layouts []string) snapshot.Maybe[time.Time] {
	s = normalizeSpace(s)
	if s == "" {
		return snapshot.None[time.Time]()
	}
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, p.loc)
		if err == nil {
			return snapshot.Some(t)
		}
	}
	return snapshot.None[time.Time]()
}

func (p *page) pagination() (current, total int, err error) {
	pages := p.doc.Find("div.pages").First()
	if pages.Length() == 0 {
		return 0, 0, missingElement("div.pages")
	}
	options := pages.Find("select").First().Find("option")
	if options.Length() == 0 {
		return 1, 1, nil
	}

	selected := options.Filter("[selected]").First()
	if selected.Length() == 0 {
		selected = options.First()
	}
	current, ok := optionNumber(selected)
	if !ok {
		return 0, 0, missingValue("current page number")
	}
	total, ok = optionNumber(options.Last())
	if !ok {
		return 0, 0, missingValue("page count")
	}
	return current, utils.IntMax(current, total), nil
}

func optionNumber(option *goquery.Selection) (int, bool) {
	if v, ok := option.Attr("value"); ok {
		if n, ok := parseCount(v); ok {
			return n, true
		}
	}
	return parseCount(option.Text())
}

/*
Reads a thread tag from an img. The tag's ID comes from a companion input
next to the image if there is one, and otherwise from the URL fragment. The
stored URL never keeps the fragment.
*/
func (p *page) iconRef(img *goquery.Selection) *snapshot.IconRef {
	if img.Length() == 0 {
		return nil
	}
	src, _ := img.Attr("src")
	u := p.resolve(src)
	if u == nil {
		return nil
	}

	icon := snapshot.IconRef{}
	if input := img.SiblingsFiltered("input").First(); input.Length() > 0 {
		if v, ok := input.Attr("value"); ok && strings.TrimSpace(v) != "" {
			icon.ID = snapshot.Some(strings.TrimSpace(v))
		}
	}
	if !icon.ID.Valid && u.Fragment != "" {
		icon.ID = snapshot.Some(u.Fragment)
	}

	clean := *u
	clean.Fragment = ""
	clean.RawFragment = ""
	icon.URL = &clean
	return &icon
}

func (p *page) breadcrumbs() (snapshot.ForumBreadcrumbs, error) {
	var crumbs snapshot.ForumBreadcrumbs
	var err error
	p.doc.Find("div.breadcrumbs a[href*='forumid=']").EachWithBreak(func(i int, link *goquery.Selection) bool {
		raw, ok := p.queryParam(link, "forumid")
		if !ok {
			err = missingValue("forumid")
			return false
		}
		id, _ := ids.NewForumID(raw)
		crumbs = append(crumbs, snapshot.ForumBreadcrumb{
			ForumID: id,
			Name:    text(link),
			Depth:   len(crumbs),
		})
		return true
	})
	if err != nil {
		return nil, err
	}
	return crumbs, nil
}
