package scraping

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func highlight(t *testing.T, fragment, username string, hl bool) (string, int) {
	t.Helper()
	root, err := ParseFragment(fragment)
	require.Nil(t, err)
	n := HighlightMentions(root, username, hl)
	out, err := RenderHTML(root)
	require.Nil(t, err)
	return out, n
}

func TestHighlightMentions(t *testing.T) {
	out, n := highlight(t, `<p>hi Bob, Bob!</p>`, "Bob", false)
	assert.Equal(t, 2, n)
	assert.Equal(t, `<p>hi <span class="mention">Bob</span>, <span class="mention">Bob</span>!</p>`, out)

	out, n = highlight(t, `Bob`, "Bob", true)
	assert.Equal(t, 1, n)
	assert.Equal(t, `<span class="mention highlight">Bob</span>`, out)
}

func TestHighlightMentionsSkips(t *testing.T) {
	out, n := highlight(t, `<script>var Bob = 1;</script><span class="mention">Bob</span><style>.Bob{}</style>bob`, "Bob", false)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, strings.Count(out, `class="mention"`))
	assert.Contains(t, out, "var Bob = 1;")
}

func TestHighlightMentionsElementBoundaries(t *testing.T) {
	out, n := highlight(t, `B<b>ob</b>`, "Bob", false)
	assert.Equal(t, 0, n)
	assert.Equal(t, `B<b>ob</b>`, out)
}

func TestHighlightMentionsEscapes(t *testing.T) {
	out, n := highlight(t, `<p>&lt;Bob&gt;</p>`, "<Bob>", false)
	assert.Equal(t, 1, n)
	assert.Equal(t, `<p><span class="mention">&lt;Bob&gt;</span></p>`, out)
}
