package rod

import (
	"strings"

	"golang.org/x/net/html"
)

// Tags whose subtree never renders as page text.
var skippedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"svg":      true,
	"iframe":   true,
}

// ExtractText flattens an HTML document into the text a reader would
// see: non-rendering subtrees are dropped, whitespace is collapsed and
// the result is truncated to max runes.
func ExtractText(rawHTML string, max int) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var b strings.Builder
	collectText(doc, &b)

	text := strings.Join(strings.Fields(b.String()), " ")
	return truncateRunes(text, max)
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode && skippedTags[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
