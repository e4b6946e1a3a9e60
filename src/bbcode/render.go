package bbcode

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma"
	chromahtml "github.com/alecthomas/chroma/formatters/html"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
	"github.com/frustra/bbcode"
	"mvdan.cc/xurls/v2"
)

var previewCompiler = bbcode.NewCompiler(true, true)

var chromaOptions = []chromahtml.Option{
	chromahtml.WithClasses(true),
	chromahtml.WithPreWrapper(nopPreWrapper{}),
}

type nopPreWrapper struct{}

var _ chromahtml.PreWrapper = nopPreWrapper{}

func (w nopPreWrapper) Start(code bool, styleAttr string) string { return "" }
func (w nopPreWrapper) End(code bool) string                     { return "" }

func init() {
	addSimpleTag := func(name, tag string, class string) {
		previewCompiler.SetTag(name, func(bn *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
			out := bbcode.NewHTMLTag("")
			out.Name = tag
			if class != "" {
				out.Attrs["class"] = class
			}
			return out, true
		})
	}

	addSimpleTag("spoiler", "span", "bbc-spoiler")
	addSimpleTag("fixed", "tt", "bbc-fixed")
	addSimpleTag("sub", "sub", "")
	addSimpleTag("super", "sup", "")

	previewCompiler.SetTag("quote", func(bn *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
		out := bbcode.NewHTMLTag("")
		out.Name = "blockquote"
		out.Attrs["class"] = "bbc-block"

		if who := bn.GetOpeningTag().Value; who != "" {
			cite := bbcode.NewHTMLTag("")
			cite.Name = "h4"
			cite.AppendChild(bbcode.NewHTMLTag(who + " posted:"))
			out.AppendChild(cite)
		}
		return out, true
	})

	previewCompiler.SetTag("code", func(bn *bbcode.BBCodeNode) (*bbcode.HTMLTag, bool) {
		lang := bn.GetOpeningTag().Value
		text := strings.TrimPrefix(bbcode.CompileText(bn), "\n")

		out := bbcode.NewHTMLTag("")
		out.Name = "pre"
		out.Attrs["class"] = "bbcode-code"

		formatted, ok := highlight(lang, text)
		if !ok {
			out.AppendChild(bbcode.NewHTMLTag(text))
			return out, false
		}
		child := bbcode.NewHTMLTag(formatted)
		child.Raw = true
		out.AppendChild(child)
		return out, false
	})
}

// Highlighting only happens when the user names a language.
func highlight(lang, text string) (string, bool) {
	if lang == "" {
		return "", false
	}
	var lexer chroma.Lexer = lexers.Get(lang)
	if lexer == nil {
		return "", false
	}

	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", false
	}

	var result bytes.Buffer
	formatter := chromahtml.New(chromaOptions...)
	if err := formatter.Format(&result, styles.Monokai, iterator); err != nil {
		return "", false
	}
	return result.String(), true
}

var reURL = xurls.Strict()

/*
Wraps bare URLs in [url] tags, the way the forums do when a post is
submitted. URLs already inside a url, img, or code tag are left alone.
*/
func autolink(text string) string {
	var b strings.Builder
	depth := 0
	last := 0

	tags := reTag.FindAllStringSubmatchIndex(text, -1)
	nameIdx := reTag.SubexpIndex("name")
	closeIdx := reTag.SubexpIndex("close")

	flush := func(end int) {
		segment := text[last:end]
		if depth == 0 {
			segment = reURL.ReplaceAllString(segment, "[url]$0[/url]")
		}
		b.WriteString(segment)
	}

	for _, m := range tags {
		name := strings.ToLower(text[m[2*nameIdx]:m[2*nameIdx+1]])
		if name != "url" && name != "img" && name != "code" {
			continue
		}
		flush(m[0])
		b.WriteString(text[m[0]:m[1]])
		last = m[1]

		if m[2*closeIdx] < 0 {
			depth++
		} else if depth > 0 {
			depth--
		}
	}
	flush(len(text))

	return b.String()
}

// RenderPreview renders the HTML the composer shows while the user types.
func RenderPreview(text string) string {
	return previewCompiler.Compile(autolink(text))
}
