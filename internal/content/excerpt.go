package content

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

const ellipsis = "…"

// Excerpter renders Markdown and reduces it to a plain-text summary.
type Excerpter struct {
	md     goldmark.Markdown
	length int
}

// NewExcerpter creates an Excerpter that prunes to at most length runes
// (plus the ellipsis).
func NewExcerpter(md goldmark.Markdown, length int) *Excerpter {
	return &Excerpter{md: md, length: length}
}

// Excerpt returns the plain-text summary of a Markdown body.
func (e *Excerpter) Excerpt(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := e.md.Convert(body, &buf); err != nil {
		return "", err
	}
	text, err := plainText(&buf)
	if err != nil {
		return "", err
	}
	return prune(text, e.length), nil
}

// plainText extracts the visible text of an HTML fragment with runs of
// whitespace collapsed to single spaces.
func plainText(r *bytes.Buffer) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlock(n.Data) {
			b.WriteByte(' ')
		}
	}
	walk(doc)

	return strings.Join(strings.Fields(b.String()), " "), nil
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "li", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "blockquote", "br", "tr", "td", "th", "hr", "div":
		return true
	}
	return false
}

// prune shortens s to at most length runes, cutting at the last word
// boundary and appending an ellipsis. Text that fits is returned unchanged.
func prune(s string, length int) string {
	if length <= 0 || utf8.RuneCountInString(s) <= length {
		return s
	}

	runes := []rune(s)
	cut := length
	if !unicode.IsSpace(runes[cut]) {
		for cut > 0 && !unicode.IsSpace(runes[cut-1]) {
			cut--
		}
		if cut == 0 {
			cut = length
		}
	}

	out := strings.TrimRightFunc(string(runes[:cut]), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return out + ellipsis
}
