package bbcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInCodeBlock(t *testing.T) {
	assert.False(t, IsInCodeBlock(""))
	assert.False(t, IsInCodeBlock("[b]hello"))
	assert.True(t, IsInCodeBlock("look [code]func main() {"))
	assert.True(t, IsInCodeBlock("[code=go]x := 1"))
	assert.True(t, IsInCodeBlock("[CODE]x"))
	assert.False(t, IsInCodeBlock("[code]x[/code] done"))
	assert.True(t, IsInCodeBlock("[code]x[/code] and [code]y"))
	assert.False(t, IsInCodeBlock("[/code]"))
}

func TestCurrentlyOpenTag(t *testing.T) {
	open := func(text string) string {
		tag, ok := CurrentlyOpenTag(text)
		if !ok {
			return ""
		}
		return tag
	}

	assert.Equal(t, "", open(""))
	assert.Equal(t, "", open("plain text"))
	assert.Equal(t, "b", open("[b]bold"))
	assert.Equal(t, "i", open("[b][i]both"))
	assert.Equal(t, "b", open("[b][i]both[/i]"))
	assert.Equal(t, "", open("[b][i]both[/b]"))
	assert.Equal(t, "url", open("[url=https://example.com]link"))
	assert.Equal(t, "list", open("[list][*]one[*]two"))
	assert.Equal(t, "b", open("[b]x[/i]"))
	assert.Equal(t, "code", open("[code]"))
	assert.Equal(t, "b", open("[code][b]"))
}

func TestAutolink(t *testing.T) {
	assert.Equal(t,
		"see [url]https://example.com/x[/url] and [url]https://a.com[/url]",
		autolink("see https://example.com/x and [url]https://a.com[/url]"),
	)
	assert.Equal(t, "[code]https://a.com[/code]", autolink("[code]https://a.com[/code]"))
	assert.Equal(t, "[img]https://a.com/a.png[/img] [url]https://b.com[/url]", autolink("[img]https://a.com/a.png[/img] https://b.com"))
	assert.Equal(t, "no links here", autolink("no links here"))
}

func TestRenderPreview(t *testing.T) {
	assert.Contains(t, RenderPreview("[b]hi[/b]"), "<b>hi</b>")
	assert.Contains(t, RenderPreview("go to https://example.com"), `href="https://example.com"`)

	quote := RenderPreview("[quote=Someone]words[/quote]")
	assert.Contains(t, quote, "<blockquote")
	assert.Contains(t, quote, "Someone posted:")

	code := RenderPreview("[code]<b>not bold</b>[/code]")
	assert.Contains(t, code, `class="bbcode-code"`)
	assert.Contains(t, code, "&lt;b&gt;")

	highlighted := RenderPreview("[code=go]package main[/code]")
	assert.Contains(t, highlighted, `class="bbcode-code"`)
	assert.Contains(t, highlighted, "package")
}
