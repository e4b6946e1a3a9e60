package scraping

import (
	"net/url"
	"strconv"
	"strings"

	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func ScrapePostsPage(root *html.Node, sourceURL *url.URL) (*snapshot.PostsPage, error) {
	return Default.PostsPage(root, sourceURL)
}

// PostsPage scrapes one page of a thread.
func (s Scraper) PostsPage(root *html.Node, sourceURL *url.URL) (*snapshot.PostsPage, error) {
	p := s.newPage(root, sourceURL)

	body, err := required(p.doc.Selection, "body[data-thread]")
	if err != nil {
		return nil, err
	}
	rawThreadID, _ := body.Attr("data-thread")
	threadID, ok := ids.NewThreadID(strings.TrimSpace(rawThreadID))
	if !ok {
		return nil, missingValue("thread ID")
	}

	title, err := required(p.doc.Selection, "div.breadcrumbs a.bclast")
	if err != nil {
		return nil, err
	}

	result := &snapshot.PostsPage{
		ThreadID:    threadID,
		ThreadTitle: text(title),
	}

	result.ThreadIsClosed = p.doc.Find("ul.postbuttons a[href*='newreply.php'] img[src*='closed']").Length() > 0
	if bookmark := p.doc.Find("img.thread_bookmark").First(); bookmark.Length() > 0 {
		result.ThreadIsBookmarked = snapshot.Some(bookmark.HasClass("unbookmark"))
	}

	result.Breadcrumbs, err = p.breadcrumbs()
	if err != nil {
		return nil, err
	}

	result.PageNumber, result.PageCount, err = p.pagination()
	if err != nil {
		return nil, err
	}

	if filter := p.doc.Find("#filteruser[data-userid]").First(); filter.Length() > 0 {
		raw, _ := filter.Attr("data-userid")
		if userID, ok := ids.NewUserID(strings.TrimSpace(raw)); ok {
			result.FilteredAuthor = snapshot.Some(userID)
		}
	}

	if _, err := required(p.doc.Selection, "table.post"); err != nil {
		return nil, err
	}

	var postErr error
	p.doc.Find("table.post").EachWithBreak(func(i int, postTable *goquery.Selection) bool {
		post, err := p.pagePost(postTable)
		if err != nil {
			postErr = err
			return false
		}
		result.Posts = append(result.Posts, post)
		return true
	})
	if postErr != nil {
		return nil, postErr
	}

	return result, nil
}

func (p *page) pagePost(postTable *goquery.Selection) (snapshot.PagePost, error) {
	var post snapshot.PagePost

	tableID, _ := postTable.Attr("id")
	rawID, err := scanCompositeID(tableID, "post")
	if err != nil {
		return post, err
	}
	post.ID, _ = ids.NewPostID(rawID)

	post.Author, err = p.sidebar(postTable)
	if err != nil {
		return post, err
	}

	postBody, err := required(postTable, "td.postbody")
	if err != nil {
		return post, err
	}
	post.InnerHTML = innerHTML(postBody)
	post.PostDate = p.parseDate(dateCellText(postTable.Find("td.postdate").First()), postDateLayouts)

	post.HasBeenSeen = postTable.Find("tr.seen1, tr.seen2").Length() > 0
	post.IsEditable = postTable.Find("a[href*='action=editpost']").Length() > 0
	post.IsIgnored = postTable.HasClass("ignored")

	if raw, ok := postTable.Attr("data-idx"); ok {
		if idx, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && idx > 0 {
			post.IndexInThread = snapshot.Some(idx)
		}
	}

	return post, nil
}

// The date cell also holds the permalink and "posts by user" links.
func dateCellText(cell *goquery.Selection) string {
	if cell.Length() == 0 {
		return ""
	}
	clone := cell.Clone()
	clone.Find("a").Remove()
	return normalizeSpace(clone.Text())
}

/*
Reads the author block of a post, message, or profile. The container must hold
a td.userinfo cell carrying a userid-N class.
*/
func (p *page) sidebar(container *goquery.Selection) (snapshot.AuthorSidebar, error) {
	var author snapshot.AuthorSidebar

	userinfo, err := required(container, "td.userinfo")
	if err != nil {
		return author, err
	}
	class, _ := userinfo.Attr("class")
	rawUserID, err := scanCompositeID(class, "userid-")
	if err != nil {
		return author, missingValue("user ID")
	}
	author.UserID, _ = ids.NewUserID(rawUserID)

	name, err := required(userinfo, "dt.author")
	if err != nil {
		return author, err
	}
	author.Username = text(name)
	author.AuthorClasses, _ = name.Attr("class")
	author.AuthorClasses = normalizeSpace(author.AuthorClasses)
	author.IsAdministrator = name.HasClass("role-admin")
	author.IsModerator = name.HasClass("role-mod")

	author.RegDate = p.parseDate(text(userinfo.Find("dd.registered")), regDateLayouts)
	author.CustomTitleHTML = innerHTML(userinfo.Find("dd.title").First())
	author.CanReceivePrivateMessages = container.Find("ul.profilelinks a[href*='private.php']").Length() > 0

	return author, nil
}
