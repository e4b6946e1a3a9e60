package scraping

import (
	"net/url"
	"strings"

	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func ScrapeAnnouncementList(root *html.Node, sourceURL *url.URL) (*snapshot.AnnouncementList, error) {
	return Default.AnnouncementList(root, sourceURL)
}

func ScrapePostIconList(root *html.Node, sourceURL *url.URL) (*snapshot.PostIconList, error) {
	return Default.PostIconList(root, sourceURL)
}

func ScrapeForumBreadcrumbs(root *html.Node, sourceURL *url.URL) (snapshot.ForumBreadcrumbs, error) {
	return Default.ForumBreadcrumbs(root, sourceURL)
}

func ScrapeForumHierarchy(root *html.Node, sourceURL *url.URL) (*snapshot.ForumHierarchy, error) {
	return Default.ForumHierarchy(root, sourceURL)
}

// AnnouncementList scrapes the page showing every announcement in full. An
// empty list is valid.
func (s Scraper) AnnouncementList(root *html.Node, sourceURL *url.URL) (*snapshot.AnnouncementList, error) {
	p := s.newPage(root, sourceURL)

	container, err := required(p.doc.Selection, "#thread")
	if err != nil {
		return nil, err
	}

	list := &snapshot.AnnouncementList{}
	var postErr error
	container.Find("table.post").EachWithBreak(func(i int, post *goquery.Selection) bool {
		announcement, err := p.listedAnnouncement(post)
		if err != nil {
			postErr = err
			return false
		}
		list.Announcements = append(list.Announcements, announcement)
		return true
	})
	if postErr != nil {
		return nil, postErr
	}

	return list, nil
}

func (p *page) listedAnnouncement(post *goquery.Selection) (snapshot.ListedAnnouncement, error) {
	var announcement snapshot.ListedAnnouncement

	userinfo, err := required(post, "td.userinfo")
	if err != nil {
		return announcement, err
	}
	name, err := required(userinfo, "dt.author")
	if err != nil {
		return announcement, err
	}
	announcement.Author = snapshot.UserRef{Username: text(name)}

	// Announcements posted by the site itself have no user behind them.
	if class, _ := userinfo.Attr("class"); strings.Contains(class, "userid-") {
		sidebar, err := p.sidebar(post)
		if err == nil {
			announcement.AuthorSidebar = snapshot.Some(sidebar)
			announcement.Author = sidebar.Ref()
		}
	}

	body, err := required(post, "td.postbody")
	if err != nil {
		return announcement, err
	}
	announcement.BodyHTML = innerHTML(body)
	announcement.PostedDate = p.parseDate(dateCellText(post.Find("td.postdate").First()), postDateLayouts)

	return announcement, nil
}

// PostIconList scrapes the thread tag pickers on the new thread and new
// message forms.
func (s Scraper) PostIconList(root *html.Node, sourceURL *url.URL) (*snapshot.PostIconList, error) {
	p := s.newPage(root, sourceURL)

	primary, err := required(p.doc.Selection, "#posticons")
	if err != nil {
		return nil, err
	}

	list := &snapshot.PostIconList{}
	list.PrimaryIcons, list.SelectedPrimary = p.postIcons(primary)
	if secondary := p.doc.Find("#secondary_icons").First(); secondary.Length() > 0 {
		list.SecondaryIcons, list.SelectedSecondary = p.postIcons(secondary)
	}

	if input := p.doc.Find("input[name='forumid']").First(); input.Length() > 0 {
		raw, _ := input.Attr("value")
		if forumID, ok := ids.NewForumID(strings.TrimSpace(raw)); ok {
			list.ForumID = snapshot.Some(forumID)
		}
	}

	return list, nil
}

func (p *page) postIcons(container *goquery.Selection) ([]snapshot.PostIcon, snapshot.Maybe[string]) {
	var icons []snapshot.PostIcon
	selected := snapshot.None[string]()

	container.Find("div.posticon").Each(func(i int, cell *goquery.Selection) {
		img := cell.Find("img").First()
		icon := p.iconRef(img)
		if icon == nil {
			return
		}
		icons = append(icons, snapshot.PostIcon{Icon: *icon, Title: iconTitle(img)})

		input := cell.Find("input").First()
		if _, checked := input.Attr("checked"); checked && icon.ID.Valid {
			selected = icon.ID
		}
	})

	return icons, selected
}

// ForumBreadcrumbs scrapes just the breadcrumb trail of any forum page.
func (s Scraper) ForumBreadcrumbs(root *html.Node, sourceURL *url.URL) (snapshot.ForumBreadcrumbs, error) {
	p := s.newPage(root, sourceURL)
	if _, err := required(p.doc.Selection, "div.breadcrumbs"); err != nil {
		return nil, err
	}
	return p.breadcrumbs()
}

/*
ForumHierarchy scrapes the forum jump list. Nesting is shown by leading
dashes, two per level:

	<option value="48">Main</option>
	<option value="1">-- General Bullshit</option>
	<option value="155">---- SA's Front Page Discussion</option>
*/
func (s Scraper) ForumHierarchy(root *html.Node, sourceURL *url.URL) (*snapshot.ForumHierarchy, error) {
	p := s.newPage(root, sourceURL)

	picker, err := required(p.doc.Selection, "select[name='forumid']")
	if err != nil {
		return nil, err
	}

	hierarchy := &snapshot.ForumHierarchy{}
	picker.Find("option").Each(func(i int, option *goquery.Selection) {
		raw, _ := option.Attr("value")
		raw = strings.TrimSpace(raw)
		// Separators and the "Please select one" entry.
		if n, ok := parseCount(raw); !ok || n <= 0 {
			return
		}
		forumID, _ := ids.NewForumID(raw)

		label := strings.TrimSpace(option.Text())
		name := strings.TrimLeft(label, "-")
		dashes := len(label) - len(name)

		hierarchy.Nodes = append(hierarchy.Nodes, snapshot.HierarchyNode{
			ForumID: forumID,
			Name:    normalizeSpace(name),
			Depth:   dashes / 2,
		})
	})

	return hierarchy, nil
}
