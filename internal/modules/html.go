package modules

import (
	"bytes"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/agobrik/webtesttool-sub001/internal/model"
)

// parsePage parses a crawled page's stored body into a DOM tree.
// Returns nil when the page is not parseable HTML.
func parsePage(page *model.CrawledPage) *html.Node {
	if !page.IsHTML() || !page.Succeeded() || len(page.Body) == 0 {
		return nil
	}
	reader, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return nil
	}
	doc, err := html.Parse(reader)
	if err != nil {
		return nil
	}
	return doc
}

// walkElements calls fn for every element node under root.
func walkElements(root *html.Node, fn func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			fn(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

// attr returns the value of the named attribute, and whether it exists.
func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// textOf returns the concatenated text content under a node.
func textOf(n *html.Node) string {
	var buf bytes.Buffer
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}
