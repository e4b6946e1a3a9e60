package scraping

import (
	"strings"
	"testing"
	"time"

	"git.handmade.network/hmn/forumsync/src/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const privateMessageHTML = `<!DOCTYPE html>
<html><body>
<div class="breadcrumbs"><a href="private.php">Private Messages</a> &gt; <b>Re: hello</b></div>
<div class="pm-recipient"><a href="member.php?action=getinfo&amp;userid=99">Me</a></div>
<div class="pm-icon"><img src="/posticons/smile.gif#12"></div>
<div class="pm-status"><img src="/images/pmreplied.gif"></div>
<table class="post"><tbody>
	<tr>
		<td class="userinfo userid-27"><dl><dt class="author role-admin">Someone</dt></dl></td>
		<td class="postbody">Hi there</td>
	</tr>
	<tr><td class="postdate">Mar 1, 2024 3:45 PM</td></tr>
</tbody></table>
<form><input type="hidden" name="privatemessageid" value="5551"></form>
</body></html>`

func TestScrapePrivateMessage(t *testing.T) {
	message, err := ScrapePrivateMessage(mustParseHTML(t, privateMessageHTML), mustURL(t, "https://forums.somethingawful.com/private.php?action=show&privatemessageid=5551"))
	require.Nil(t, err)

	assert.Equal(t, "5551", message.ID.Raw())
	assert.Equal(t, "Re: hello", message.Subject)
	assert.Equal(t, "27", message.From.UserID.Raw())
	assert.True(t, message.From.IsAdministrator)
	assert.Equal(t, "Hi there", message.InnerHTML)
	assert.Equal(t, snapshot.Some(time.Date(2024, 3, 1, 15, 45, 0, 0, time.UTC)), message.SentDate)
	assert.True(t, message.Seen)
	assert.Equal(t, snapshot.Some(true), message.Replied)
	assert.Equal(t, snapshot.Some(false), message.Forwarded)

	to, ok := message.To.Get()
	require.True(t, ok)
	assert.Equal(t, "Me", to.Username)
	assert.Equal(t, "99", to.ID.Value.Raw())

	require.NotNil(t, message.Icon)
	assert.Equal(t, snapshot.Some("12"), message.Icon.ID)
}

func TestScrapePrivateMessageMissingID(t *testing.T) {
	page := strings.Replace(privateMessageHTML, `value="5551"`, `value=""`, 1)
	_, err := ScrapePrivateMessage(mustParseHTML(t, page), nil)
	assert.True(t, IsMissingRequiredValue(err))
}

const folderHTML = `<!DOCTYPE html>
<html><body>
<form><select name="folderid">
	<option value="0">Inbox</option>
	<option value="-1" selected>Sent Items</option>
	<option value="7">Saved</option>
</select></form>
<table class="pms"><tbody>
<tr class="pm">
	<td class="status"><img src="/images/newpm.gif"></td>
	<td class="icon"><img src="/posticons/smile.gif#12"></td>
	<td class="title"><a href="private.php?action=show&amp;privatemessageid=5551">hello</a></td>
	<td class="sender"><a href="member.php?action=getinfo&amp;userid=27">Someone</a></td>
	<td class="date">Mar 1, 2024 17:45</td>
</tr>
<tr class="pm">
	<td class="status"><img src="/images/pmforwarded.gif"></td>
	<td class="title"><a href="private.php?action=show&amp;privatemessageid=5552">fwd</a></td>
	<td class="sender">Stranger</td>
	<td class="date">Feb 2, 2024 3:04 PM</td>
</tr>
</tbody></table>
</body></html>`

func TestScrapePrivateMessageFolder(t *testing.T) {
	folder, err := ScrapePrivateMessageFolder(mustParseHTML(t, folderHTML), mustURL(t, "https://forums.somethingawful.com/private.php?folderid=-1"))
	require.Nil(t, err)

	assert.Equal(t, "-1", folder.FolderID.Raw())
	assert.Equal(t, "Sent Items", folder.Name)
	require.Len(t, folder.Folders, 3)
	assert.Equal(t, "0", folder.Folders[0].FolderID.Raw())
	assert.Equal(t, "Saved", folder.Folders[2].Name)

	require.Len(t, folder.Messages, 2)
	first := folder.Messages[0]
	assert.Equal(t, "5551", first.ID.Raw())
	assert.Equal(t, "hello", first.Subject)
	assert.Equal(t, "27", first.From.ID.Value.Raw())
	assert.False(t, first.Seen)
	assert.NotNil(t, first.Icon)

	second := folder.Messages[1]
	assert.True(t, second.Seen)
	assert.True(t, second.Forwarded)
	assert.False(t, second.Replied)
	assert.Equal(t, "Stranger", second.From.Username)
	assert.False(t, second.From.ID.Valid)
	assert.Nil(t, second.Icon)
}

func TestScrapePrivateMessageFolderEmpty(t *testing.T) {
	_, err := ScrapePrivateMessageFolder(mustParseHTML(t, `<select name="folderid"></select><table class="pms"></table>`), nil)
	assert.True(t, IsMissingExpectedElement(err))
}

const announcementsHTML = `<!DOCTYPE html>
<html><body><div id="thread">
<table class="post"><tbody>
	<tr>
		<td class="userinfo userid-1"><dl><dt class="author role-admin">Lowtax</dt></dl></td>
		<td class="postbody">Be <i>nice</i>.</td>
	</tr>
	<tr><td class="postdate">Jan 2, 2020 3:04 PM</td></tr>
</tbody></table>
<table class="post"><tbody>
	<tr>
		<td class="userinfo"><dl><dt class="author">The Management</dt></dl></td>
		<td class="postbody">Forums will be down.</td>
	</tr>
</tbody></table>
</div></body></html>`

func TestScrapeAnnouncementList(t *testing.T) {
	list, err := ScrapeAnnouncementList(mustParseHTML(t, announcementsHTML), nil)
	require.Nil(t, err)
	require.Len(t, list.Announcements, 2)

	first := list.Announcements[0]
	assert.Equal(t, "Lowtax", first.Author.Username)
	assert.Equal(t, "1", first.Author.ID.Value.Raw())
	assert.True(t, first.AuthorSidebar.Valid)
	assert.Equal(t, "Be <i>nice</i>.", first.BodyHTML)
	assert.Equal(t, snapshot.Some(time.Date(2020, 1, 2, 15, 4, 0, 0, time.UTC)), first.PostedDate)

	second := list.Announcements[1]
	assert.Equal(t, "The Management", second.Author.Username)
	assert.False(t, second.Author.ID.Valid)
	assert.False(t, second.AuthorSidebar.Valid)
	assert.False(t, second.PostedDate.Valid)
}

func TestScrapeAnnouncementListEmpty(t *testing.T) {
	list, err := ScrapeAnnouncementList(mustParseHTML(t, `<div id="thread"></div>`), nil)
	require.Nil(t, err)
	assert.Empty(t, list.Announcements)
}

const postIconsHTML = `<!DOCTYPE html>
<html><body><form>
<input type="hidden" name="forumid" value="1">
<div id="posticons">
	<div class="posticon"><label><input type="radio" name="iconid" value="0" checked><img src="/images/shitpost.gif" alt="No icon"></label></div>
	<div class="posticon"><input type="radio" name="iconid" value="692"><img src="/posticons/ama.gif" alt="AMA"></div>
	<div class="posticon"><input type="radio" name="iconid" value="41" checked><img src="/posticons/news.gif" alt="News"></div>
</div>
<div id="secondary_icons">
	<div class="posticon"><input type="radio" name="tma_ama" value="1"><img src="/posticons/tma.gif" alt="Ask"></div>
	<div class="posticon"><input type="radio" name="tma_ama" value="2"><img src="/posticons/tma2.gif" alt="Tell"></div>
</div>
</form></body></html>`

func TestScrapePostIconList(t *testing.T) {
	list, err := ScrapePostIconList(mustParseHTML(t, postIconsHTML), nil)
	require.Nil(t, err)

	assert.Equal(t, "1", list.ForumID.Value.Raw())
	require.Len(t, list.PrimaryIcons, 3)
	assert.Equal(t, snapshot.Some("0"), list.PrimaryIcons[0].Icon.ID)
	assert.Equal(t, "No icon", list.PrimaryIcons[0].Title)
	assert.Equal(t, snapshot.Some("692"), list.PrimaryIcons[1].Icon.ID)
	assert.Equal(t, "ama", list.PrimaryIcons[1].Icon.ImageName())
	// The last checked icon wins the same way a browser would pick it.
	assert.Equal(t, snapshot.Some("41"), list.SelectedPrimary)

	require.Len(t, list.SecondaryIcons, 2)
	assert.Equal(t, "Tell", list.SecondaryIcons[1].Title)
	assert.False(t, list.SelectedSecondary.Valid)
}

func TestScrapeForumHierarchy(t *testing.T) {
	hierarchy, err := ScrapeForumHierarchy(mustParseHTML(t, `
		<select name="forumid">
			<option value="-1">Please select one:</option>
			<option value="48">Main</option>
			<option value="1">-- General Bullshit</option>
			<option value="155">---- SA's Front Page Discussion</option>
			<option value="-1">--------------------</option>
			<option value="49">Discussion</option>
			<option value="22">-- Serious Hardware / Software Crap</option>
		</select>`), nil)
	require.Nil(t, err)

	require.Len(t, hierarchy.Nodes, 5)
	assert.Equal(t, snapshot.HierarchyNode{ForumID: hierarchy.Nodes[0].ForumID, Name: "Main", Depth: 0}, hierarchy.Nodes[0])
	assert.Equal(t, "1", hierarchy.Nodes[1].ForumID.Raw())
	assert.Equal(t, "General Bullshit", hierarchy.Nodes[1].Name)
	assert.Equal(t, 1, hierarchy.Nodes[1].Depth)
	assert.Equal(t, "SA's Front Page Discussion", hierarchy.Nodes[2].Name)
	assert.Equal(t, 2, hierarchy.Nodes[2].Depth)
	assert.Equal(t, 0, hierarchy.Nodes[3].Depth)
	assert.Equal(t, 1, hierarchy.Nodes[4].Depth)
}

func TestScrapeForumBreadcrumbs(t *testing.T) {
	crumbs, err := ScrapeForumBreadcrumbs(mustParseHTML(t, `<div class="breadcrumbs"><a href="index.php">SA</a> &gt; <a href="forumdisplay.php?forumid=48">Main</a> &gt; <a href="forumdisplay.php?forumid=1">GBS</a></div>`), nil)
	require.Nil(t, err)
	require.Len(t, crumbs, 2)
	assert.Equal(t, "Main", crumbs[0].Name)
	assert.Equal(t, 1, crumbs[1].Depth)

	_, err = ScrapeForumBreadcrumbs(mustParseHTML(t, `<div></div>`), nil)
	assert.True(t, IsMissingExpectedElement(err))
}

const profileHTML = `<!DOCTYPE html>
<html><body><table class="profile"><tbody><tr>
	<td class="userinfo userid-27"><dl><dt class="author">Someone</dt><dd class="registered">Jan 5, 2004</dd><dd class="title"><img src="https://i.somethingawful.com/av.png"> hi</dd></dl></td>
	<td class="info">
		<div class="aboutme"><p>About <b>me</b></p></div>
		<dl class="additional">
			<dt>Post Count</dt><dd>12,345</dd>
			<dt>Post Rate</dt><dd>2.5 per day</dd>
			<dt>Last Post</dt><dd>Mar 1, 2024 17:45</dd>
			<dt>Location:</dt><dd>Ohio</dd>
			<dt>Homepage</dt><dd><a href="https://example.com/me">https://example.com/me</a></dd>
		</dl>
		<ul class="profilelinks"><li><a href="private.php?action=newmessage&amp;userid=27">Send PM</a></li></ul>
	</td>
</tr></tbody></table></body></html>`

func TestScrapeProfile(t *testing.T) {
	profile, err := ScrapeProfile(mustParseHTML(t, profileHTML), nil)
	require.Nil(t, err)

	assert.Equal(t, "27", profile.Author.UserID.Raw())
	assert.True(t, profile.Author.CanReceivePrivateMessages)
	assert.Equal(t, "<p>About <b>me</b></p>", profile.AboutMeHTML)
	assert.Equal(t, snapshot.Some(12345), profile.PostCount)
	assert.Equal(t, "2.5 per day", profile.PostRate)
	assert.Equal(t, snapshot.Some(time.Date(2024, 3, 1, 17, 45, 0, 0, time.UTC)), profile.LastPostDate)
	assert.Equal(t, "Ohio", profile.Location)
	require.NotNil(t, profile.Homepage)
	assert.Equal(t, "https://example.com/me", profile.Homepage.String())
	require.NotNil(t, profile.AvatarURL)
	assert.Equal(t, "https://i.somethingawful.com/av.png", profile.AvatarURL.String())
}

func TestScrapeDispatch(t *testing.T) {
	kind, err := ParseKind("posts")
	require.Nil(t, err)
	assert.Equal(t, KindPostsPage, kind)

	_, err = ParseKind("nope")
	assert.NotNil(t, err)

	snap, err := Scrape(KindPostsPage, mustParseHTML(t, postsPageHTML), nil)
	require.Nil(t, err)
	assert.IsType(t, &snapshot.PostsPage{}, snap)

	snap, err = Scrape(KindThreadList, mustParseHTML(t, "<p>error</p>"), nil)
	assert.NotNil(t, err)
	assert.Nil(t, snap)

	assert.Len(t, Kinds(), 9)
}
