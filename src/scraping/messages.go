package scraping

import (
	"net/url"
	"strings"

	"git.handmade.network/hmn/forumsync/src/ids"
	"git.handmade.network/hmn/forumsync/src/snapshot"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func ScrapePrivateMessage(root *html.Node, sourceURL *url.URL) (*snapshot.PrivateMessage, error) {
	return Default.PrivateMessage(root, sourceURL)
}

func ScrapePrivateMessageFolder(root *html.Node, sourceURL *url.URL) (*snapshot.PrivateMessageFolder, error) {
	return Default.PrivateMessageFolder(root, sourceURL)
}

// PrivateMessage scrapes the page showing a single private message.
func (s Scraper) PrivateMessage(root *html.Node, sourceURL *url.URL) (*snapshot.PrivateMessage, error) {
	p := s.newPage(root, sourceURL)

	idInput, err := required(p.doc.Selection, "input[name='privatemessageid']")
	if err != nil {
		return nil, err
	}
	rawID, _ := idInput.Attr("value")
	messageID, ok := ids.NewPrivateMessageID(strings.TrimSpace(rawID))
	if !ok {
		return nil, missingValue("private message ID")
	}

	subject, err := required(p.doc.Selection, "div.breadcrumbs b")
	if err != nil {
		return nil, err
	}

	post, err := required(p.doc.Selection, "table.post")
	if err != nil {
		return nil, err
	}
	from, err := p.sidebar(post)
	if err != nil {
		return nil, err
	}

	body, err := required(post, "td.postbody")
	if err != nil {
		return nil, err
	}

	message := &snapshot.PrivateMessage{
		ID:        messageID,
		Subject:   text(subject),
		From:      from,
		SentDate:  p.parseDate(dateCellText(post.Find("td.postdate").First()), postDateLayouts),
		InnerHTML: innerHTML(body),
		Seen:      true,
		Icon:      p.iconRef(p.doc.Find("div.pm-icon img").First()),
	}

	if recipient := p.doc.Find("div.pm-recipient a[href*='userid=']").First(); recipient.Length() > 0 {
		message.To = snapshot.Some(snapshot.UserRef{
			ID:       p.userIDFromLink(recipient),
			Username: text(recipient),
		})
	}

	if status := p.doc.Find("div.pm-status img").First(); status.Length() > 0 {
		src, _ := status.Attr("src")
		message.Replied = snapshot.Some(strings.Contains(src, "pmreplied"))
		message.Forwarded = snapshot.Some(strings.Contains(src, "pmforwarded"))
	}

	return message, nil
}

// PrivateMessageFolder scrapes the list of messages in one folder.
func (s Scraper) PrivateMessageFolder(root *html.Node, sourceURL *url.URL) (*snapshot.PrivateMessageFolder, error) {
	p := s.newPage(root, sourceURL)

	picker, err := required(p.doc.Selection, "select[name='folderid']")
	if err != nil {
		return nil, err
	}

	folder := &snapshot.PrivateMessageFolder{}
	selected := -1
	picker.Find("option").Each(func(i int, option *goquery.Selection) {
		raw, _ := option.Attr("value")
		folderID, ok := ids.NewPrivateMessageFolderID(strings.TrimSpace(raw))
		if !ok {
			return
		}
		folder.Folders = append(folder.Folders, snapshot.FolderOption{
			FolderID: folderID,
			Name:     text(option),
		})
		if _, isSelected := option.Attr("selected"); isSelected && selected < 0 {
			selected = len(folder.Folders) - 1
		}
	})
	if len(folder.Folders) == 0 {
		return nil, missingElement("select[name='folderid'] option[value]")
	}
	if selected < 0 {
		selected = 0
	}
	folder.FolderID = folder.Folders[selected].FolderID
	folder.Name = folder.Folders[selected].Name

	table, err := required(p.doc.Selection, "table.pms")
	if err != nil {
		return nil, err
	}

	var rowErr error
	table.Find("tr.pm").EachWithBreak(func(i int, row *goquery.Selection) bool {
		message, err := p.folderMessage(row)
		if err != nil {
			rowErr = err
			return false
		}
		folder.Messages = append(folder.Messages, message)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	return folder, nil
}

func (p *page) folderMessage(row *goquery.Selection) (snapshot.FolderMessage, error) {
	var message snapshot.FolderMessage

	link, err := required(row, "td.title a[href*='privatemessageid=']")
	if err != nil {
		return message, err
	}
	raw, ok := p.queryParam(link, "privatemessageid")
	if !ok {
		return message, missingValue("private message ID")
	}
	message.ID, _ = ids.NewPrivateMessageID(raw)
	message.Subject = text(link)

	sender := row.Find("td.sender").First()
	message.From = snapshot.UserRef{Username: text(sender)}
	if senderLink := sender.Find("a").First(); senderLink.Length() > 0 {
		message.From.ID = p.userIDFromLink(senderLink)
	}

	message.SentDate = p.parseDate(text(row.Find("td.date")), postDateLayouts)
	message.Icon = p.iconRef(row.Find("td.icon img").First())

	message.Seen = true
	if status := row.Find("td.status img").First(); status.Length() > 0 {
		src, _ := status.Attr("src")
		switch {
		case strings.Contains(src, "newpm"):
			message.Seen = false
		case strings.Contains(src, "pmreplied"):
			message.Replied = true
		case strings.Contains(src, "pmforwarded"):
			message.Forwarded = true
		}
	}

	return message, nil
}
