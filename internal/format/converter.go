// Package format renders message bodies for human reading.
package format

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Converter handles document format conversions.
type Converter struct{}

// HTML2Text renders an HTML email body as plain text: one line per block,
// links followed by their target, scripts and styles dropped.
func (c Converter) HTML2Text(raw []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("goquery.NewDocumentFromReader failed: %w", err)
	}

	doc.Find("head, script, style, noscript, title").Remove()

	var b strings.Builder
	for _, n := range doc.Nodes {
		render(&b, n)
	}

	return tidy(b.String()), nil
}

var blockTags = map[string]bool{
	"p": true, "div": true, "table": true, "tr": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "blockquote": true,
	"center": true, "hr": true, "pre": true,
}

func render(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		writeText(b, n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "br":
			b.WriteString("\n")
			return
		case "td", "th":
			space(b)
		}
	}

	block := n.Type == html.ElementNode && blockTags[n.Data]
	if block {
		newline(b)
	}

	start := b.Len()
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(b, c)
	}

	if n.Type == html.ElementNode && n.Data == "a" {
		href := strings.TrimSpace(attr(n, "href"))
		text := strings.TrimSpace(b.String()[start:])
		if isExternalLink(href) && href != text {
			fmt.Fprintf(b, " (%s)", href)
		}
	}

	if block {
		newline(b)
	}
}

func writeText(b *strings.Builder, s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			space(b)
		}
		return
	}

	if first, _ := utf8.DecodeRuneInString(s); unicode.IsSpace(first) {
		space(b)
	}
	b.WriteString(strings.Join(fields, " "))
	if last, _ := utf8.DecodeLastRuneInString(s); unicode.IsSpace(last) {
		b.WriteString(" ")
	}
}

func newline(b *strings.Builder) {
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
}

func space(b *strings.Builder) {
	if b.Len() == 0 {
		return
	}
	s := b.String()
	if last := s[len(s)-1]; last != ' ' && last != '\n' {
		b.WriteString(" ")
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isExternalLink(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") || strings.HasPrefix(href, "mailto:")
}

// tidy trims every line and keeps at most one blank line in a row.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
