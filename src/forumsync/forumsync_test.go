package forumsync

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

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
		<td class="userinfo userid-27"><dl><dt class="author">Someone</dt></dl></td>
		<td class="postbody">Hi there</td>
	</tr>
	<tr><td class="postdate">Mar 1, 2024 3:45 PM</td></tr>
</tbody></table>
<form><input type="hidden" name="privatemessageid" value="5551"></form>
</body></html>`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	ForumsyncCommand.SetOut(&out)
	ForumsyncCommand.SetArgs(args)
	err := ForumsyncCommand.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.Nil(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "forumsync.db")
	t.Setenv("FORUMSYNC_STORE_DRIVER", "sqlite")
	t.Setenv("FORUMSYNC_STORE_SQLITEPATH", dbPath)
	pm := writeFile(t, dir, "pm.html", privateMessageHTML)

	t.Run("parse", func(t *testing.T) {
		out, err := run(t, "parse", "privatemessage", pm, "--url", "https://forums.somethingawful.com/private.php")
		require.Nil(t, err)
		assert.Contains(t, out, `"Subject": "Re: hello"`)
		assert.Contains(t, out, `"ID": "5551"`)
	})

	t.Run("parse unknown kind", func(t *testing.T) {
		_, err := run(t, "parse", "guestbook", pm)
		assert.Error(t, err)
	})

	t.Run("ingest", func(t *testing.T) {
		_, err := run(t, "ingest", "privatemessage", pm, pm)
		require.Nil(t, err)
		_, err = os.Stat(dbPath)
		assert.Nil(t, err)
	})

	t.Run("ingest stops on a bad page", func(t *testing.T) {
		broken := writeFile(t, dir, "broken.html", "<html><body>Server busy</body></html>")
		_, err := run(t, "ingest", "privatemessage", broken)
		assert.Error(t, err)
	})

	t.Run("migrate", func(t *testing.T) {
		_, err := run(t, "migrate")
		require.Nil(t, err)

		out, err := run(t, "migrate", "--list")
		require.Nil(t, err)
		assert.Contains(t, out, "✔")
		assert.Contains(t, out, "AddProfiles")
	})

	t.Run("mentions", func(t *testing.T) {
		body := writeFile(t, dir, "body.html", "<p>hey Someone, and <b>Someone</b></p>")
		out, err := run(t, "mentions", body, "Someone", "--highlight")
		require.Nil(t, err)
		assert.Contains(t, out, `<span class="mention highlight">Someone</span>`)
	})

	t.Run("bbcode", func(t *testing.T) {
		out, err := run(t, "bbcode", "[code]", "[b]")
		require.Nil(t, err)
		assert.Contains(t, out, "in code block: true")
		assert.Contains(t, out, "open tag: b")
	})
}
