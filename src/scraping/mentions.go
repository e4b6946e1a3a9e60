package scraping

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

/*
HighlightMentions wraps every occurrence of username in the text of the tree
in a <span class="mention">, adding the "highlight" class if highlight is
set. Matching is case-sensitive and never spans elements. Text inside script
and style elements and inside existing mentions is left alone.

Returns the number of mentions wrapped.
*/
func HighlightMentions(root *html.Node, username string, highlight bool) int {
	if root == nil || username == "" {
		return 0
	}

	class := "mention"
	if highlight {
		class += " highlight"
	}

	var textNodes []*html.Node
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style || isMention(n) {
				return
			}
		}
		if n.Type == html.TextNode && strings.Contains(n.Data, username) {
			textNodes = append(textNodes, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(root)

	count := 0
	for _, n := range textNodes {
		count += splitMentions(n, username, class)
	}
	return count
}

func isMention(n *html.Node) bool {
	if n.DataAtom != atom.Span {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == "mention" {
					return true
				}
			}
		}
	}
	return false
}

// Replaces the text node n with alternating text and mention spans.
func splitMentions(n *html.Node, username, class string) int {
	parent := n.Parent
	if parent == nil {
		return 0
	}

	count := 0
	rest := n.Data
	for {
		i := strings.Index(rest, username)
		if i < 0 {
			break
		}
		if i > 0 {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: rest[:i]}, n)
		}
		span := &html.Node{
			Type:     html.ElementNode,
			Data:     "span",
			DataAtom: atom.Span,
			Attr:     []html.Attribute{{Key: "class", Val: class}},
		}
		span.AppendChild(&html.Node{Type: html.TextNode, Data: username})
		parent.InsertBefore(span, n)
		count++
		rest = rest[i+len(username):]
	}

	if rest == "" {
		parent.RemoveChild(n)
	} else {
		n.Data = rest
	}
	return count
}

// RenderHTML renders the children of n, which is how post bodies are stored.
func RenderHTML(n *html.Node) (string, error) {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// ParseFragment parses an HTML fragment such as a post body into a detached
// div holding the fragment's nodes.
func ParseFragment(fragment string) (*html.Node, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), container)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}
