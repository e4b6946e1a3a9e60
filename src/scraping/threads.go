package scraping

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func ScrapeThreadList(root *html.Node, sourceURL *url.URL) (*snapshot.ThreadList, error) {
	return Default.ThreadList(root, sourceURL)
}

// ThreadList scrapes a forum's thread list or the bookmarked threads page.
func (s Scraper) ThreadList(root *html.Node, sourceURL *url.URL) (*snapshot.ThreadList, error) {
	p := s.newPage(root, sourceURL)

	table, err := required(p.doc.Selection, "table#forum")
	if err != nil {
		return nil, err
	}

	list := &snapshot.ThreadList{Kind: snapshot.ForumThreadList}
	if p.doc.Find("body.bookmarkthreads").Length() > 0 {
		list.Kind = snapshot.BookmarkThreadList
	}

	list.Breadcrumbs, err = p.breadcrumbs()
	if err != nil {
		return nil, err
	}

	var rowErr error
	table.Find("tr.thread").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if row.HasClass("announcement") {
			announcement, err := p.threadListAnnouncement(row)
			if err != nil {
				rowErr = err
				return false
			}
			list.Announcements = append(list.Announcements, announcement)
			return true
		}

		thread, err := p.threadListThread(row)
		if err != nil {
			rowErr = err
			return false
		}
		list.Threads = append(list.Threads, thread)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	p.doc.Find("div.thread_tags a").Each(func(i int, link *goquery.Selection) {
		img := link.Find("img").First()
		icon := p.iconRef(img)
		if icon == nil {
			return
		}
		if raw, ok := p.queryParam(link, "posticon"); ok && !icon.ID.Valid {
			icon.ID = snapshot.Some(raw)
		}
		list.FilterableIcons = append(list.FilterableIcons, snapshot.PostIcon{
			Icon:  *icon,
			Title: iconTitle(img),
		})
		if link.HasClass("selected") {
			list.SelectedFilterIcon = snapshot.Some(*icon)
		}
	})

	if buttons := p.doc.Find("ul.postbuttons"); buttons.Length() > 0 {
		canPost := buttons.Find("a[href*='newthread.php']").Length() > 0
		list.CanPostNewThread = snapshot.Some(canPost)
	}

	list.PageNumber, list.PageCount, err = p.pagination()
	if err != nil {
		return nil, err
	}

	return list, nil
}

func (p *page) threadListAnnouncement(row *goquery.Selection) (snapshot.ThreadListAnnouncement, error) {
	titleLink, err := required(row, "td.title a")
	if err != nil {
		return snapshot.ThreadListAnnouncement{}, err
	}

	var announcement snapshot.ThreadListAnnouncement
	announcement.Title = text(titleLink)
	if authorLink := row.Find("td.author a").First(); authorLink.Length() > 0 {
		announcement.Author = snapshot.UserRef{
			ID:       p.userIDFromLink(authorLink),
			Username: text(authorLink),
		}
	} else {
		announcement.Author = snapshot.UserRef{Username: text(row.Find("td.author"))}
	}
	announcement.Icon = p.iconRef(row.Find("td.icon img").First())
	announcement.LastUpdated = p.parseDate(text(row.Find("td.lastpost .date")), lastPostDateLayouts)

	return announcement, nil
}

var bookmarkClasses = map[string]snapshot.BookmarkColor{
	"bm0": snapshot.BookmarkOrange,
	"bm1": snapshot.BookmarkRed,
	"bm2": snapshot.BookmarkYellow,
	"bm3": snapshot.BookmarkCyan,
	"bm4": snapshot.BookmarkGreen,
	"bm5": snapshot.BookmarkPurple,
}

func (p *page) threadListThread(row *goquery.Selection) (snapshot.ThreadListThread, error) {
	var thread snapshot.ThreadListThread

	rowID, _ := row.Attr("id")
	rawID, err := scanCompositeID(rowID, "thread")
	if err != nil {
		return thread, err
	}
	thread.ID, _ = ids.NewThreadID(rawID)

	titleLink, err := required(row, "a.thread_title")
	if err != nil {
		return thread, err
	}
	thread.Title = text(titleLink)

	if authorLink := row.Find("td.author a").First(); authorLink.Length() > 0 {
		thread.Author = snapshot.UserRef{
			ID:       p.userIDFromLink(authorLink),
			Username: text(authorLink),
		}
	}

	if star := row.Find("td.star").First(); star.Length() > 0 {
		color := snapshot.BookmarkNone
		for class, c := range bookmarkClasses {
			if star.HasClass(class) {
				color = c
			}
		}
		thread.Bookmark = snapshot.Some(color)
	}

	thread.IsSticky = row.HasClass("sticky") || row.Find("td.title_sticky").Length() > 0
	thread.IsClosed = row.HasClass("closed")

	lastSeen := row.Find(".lastseen").First()
	thread.IsUnread = lastSeen.Length() == 0
	if count := lastSeen.Find("a.count").First(); count.Length() > 0 {
		if n, ok := parseCount(count.Text()); ok {
			thread.UnreadCount = snapshot.Some(n)
		}
	}

	thread.Rating = parseRating(row.Find("td.rating img").First())

	repliesCell, err := required(row, "td.replies")
	if err != nil {
		return thread, err
	}
	replies, ok := parseCount(repliesCell.Text())
	if !ok {
		return thread, missingValue("reply count")
	}
	thread.ReplyCount = replies

	thread.PrimaryIcon = p.iconRef(row.Find("td.icon img").First())
	thread.SecondaryIcon = p.iconRef(row.Find("td.icon2 img").First())

	lastPost := row.Find("td.lastpost").First()
	thread.LastPostAuthorName = text(lastPost.Find("a.author"))
	thread.LastPostDate = p.parseDate(text(lastPost.Find(".date")), lastPostDateLayouts)

	return thread, nil
}

var ratingRegex = regexp.MustCompile(`([\d,]+)\s+votes?\s+-\s+([\d.]+)\s+average`)

// Reads a rating image whose title looks like "123 votes - 4.56 average".
func parseRating(img *goquery.Selection) *snapshot.Rating {
	if img.Length() == 0 {
		return nil
	}
	title, _ := img.Attr("title")
	match := ratingRegex.FindStringSubmatch(title)
	if match == nil {
		return nil
	}
	votes, ok := parseCount(match[1])
	if !ok {
		return nil
	}
	average, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return nil
	}
	return &snapshot.Rating{Average: average, Votes: votes}
}

func iconTitle(img *goquery.Selection) string {
	if title, ok := img.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	alt, _ := img.Attr("alt")
	return strings.TrimSpace(alt)
}
