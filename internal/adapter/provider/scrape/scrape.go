// Package scrape holds the HTML helpers shared by the page-scraping
// providers.
package scrape

import (
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// UserAgent is sent by scraping providers; both sites serve reduced markup
// to unknown clients.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Parse reads an HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Text returns the concatenated text content of n, like DOM textContent.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// First returns the first descendant of n matching sel, or nil.
func First(n *html.Node, sel cascadia.Selector) *html.Node {
	if n == nil {
		return nil
	}
	return sel.MatchFirst(n)
}

// All returns every descendant of n matching sel.
func All(n *html.Node, sel cascadia.Selector) []*html.Node {
	if n == nil {
		return nil
	}
	return sel.MatchAll(n)
}
