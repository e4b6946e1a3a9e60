package scraping

import (
	"net/url"
	"strings"

	"git.handmade.network/hmn/forumsync/src/snapshot"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func ScrapeProfile(root *html.Node, sourceURL *url.URL) (*snapshot.Profile, error) {
	return Default.Profile(root, sourceURL)
}

// Profile scrapes a user's profile page.
func (s Scraper) Profile(root *html.Node, sourceURL *url.URL) (*snapshot.Profile, error) {
	p := s.newPage(root, sourceURL)

	container, err := required(p.doc.Selection, "table.profile")
	if err != nil {
		return nil, err
	}
	author, err := p.sidebar(container)
	if err != nil {
		return nil, err
	}

	profile := &snapshot.Profile{
		Author:      author,
		AboutMeHTML: innerHTML(container.Find("div.aboutme").First()),
	}

	if avatar := container.Find("td.userinfo dd.title img").First(); avatar.Length() > 0 {
		src, _ := avatar.Attr("src")
		profile.AvatarURL = p.resolve(src)
	}

	container.Find("dl.additional dt").Each(func(i int, dt *goquery.Selection) {
		dd := dt.NextFiltered("dd")
		value := text(dd)
		switch strings.ToLower(strings.TrimSuffix(text(dt), ":")) {
		case "post count":
			if n, ok := parseCount(value); ok {
				profile.PostCount = snapshot.Some(n)
			}
		case "post rate":
			profile.PostRate = value
		case "last post":
			profile.LastPostDate = p.parseDate(value, postDateLayouts)
		case "location":
			profile.Location = value
		case "interests":
			profile.Interests = value
		case "occupation":
			profile.Occupation = value
		case "homepage":
			if link := dd.Find("a[href]").First(); link.Length() > 0 {
				href, _ := link.Attr("href")
				profile.Homepage = p.resolve(href)
			} else {
				profile.Homepage = p.resolve(value)
			}
		}
	})

	return profile, nil
}
