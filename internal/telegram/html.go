package telegram

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// PlainText strips stray HTML markup a completion may contain. Line breaks
// and block elements become newlines; text without tags is returned as is.
func PlainText(s string) string {
	if !strings.Contains(s, "<") || !strings.Contains(s, ">") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithNodes(newline())
	doc.Find("p, div, li, h1, h2, h3, h4, tr").AppendNodes(newline())

	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func newline() *html.Node {
	return &html.Node{Type: html.TextNode, Data: "\n"}
}
