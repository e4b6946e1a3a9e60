/*
Package bbcode helps the post composer: it answers questions about text the
user is still typing, and renders a preview of it.
*/
package bbcode

import (
	"regexp"
	"strings"
)

var reTag = regexp.MustCompile(`\[\s*(?P<close>/)?\s*(?P<name>[a-zA-Z0-9]+|\*)(?:\s*=[^\]]*)?\s*\]`)
var reCodeOpen = regexp.MustCompile(`(?i)\[\s*code(?:\s*=[^\]]*)?\s*\]`)
var reCodeClose = regexp.MustCompile(`(?i)\[\s*/\s*code\s*\]`)

// Tags that never have a closing tag.
var voidTags = map[string]bool{
	"*": true,
}

// IsInCodeBlock reports whether text ends inside an unclosed [code] block.
func IsInCodeBlock(text string) bool {
	lastOpen := lastMatchIndex(reCodeOpen, text)
	if lastOpen < 0 {
		return false
	}
	return lastOpen > lastMatchIndex(reCodeClose, text)
}

func lastMatchIndex(re *regexp.Regexp, text string) int {
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return -1
	}
	return matches[len(matches)-1][0]
}

/*
CurrentlyOpenTag returns the innermost tag that is open at the end of text.
Closing a tag also closes everything opened after it. Closing tags that were
never opened are ignored.

Tags inside a [code] block are tracked like any other, so "[code][b]" reports
"b" and not "code".
*/
func CurrentlyOpenTag(text string) (string, bool) {
	var stack []string

	nameIdx := reTag.SubexpIndex("name")
	closeIdx := reTag.SubexpIndex("close")
	for _, m := range reTag.FindAllStringSubmatch(text, -1) {
		name := strings.ToLower(m[nameIdx])
		if voidTags[name] {
			continue
		}

		if m[closeIdx] == "" {
			stack = append(stack, name)
			continue
		}

		for i := len(stack) - 1; i >= 0; i-- {
			if stack[i] == name {
				stack = stack[:i]
				break
			}
		}
	}

	if len(stack) == 0 {
		return "", false
	}
	return stack[len(stack)-1], true
}
