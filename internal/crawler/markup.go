package crawler

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// MarkupNode is the subset of DOM access the extractor needs
type MarkupNode interface {
	// FindFirst returns the first descendant matching selector
	FindFirst(selector string) (MarkupNode, bool)

	// FindAll returns every descendant matching selector in document order
	FindAll(selector string) []MarkupNode

	// Attr returns the value of an attribute of the node
	Attr(name string) (string, bool)

	// Text returns all descendant text nodes, each trimmed, joined by one space
	Text() string

	// CompactText returns all descendant text nodes, each trimmed, with no
	// separator between them
	CompactText() string

	// OwnText returns only the text nodes that are direct children of the node
	OwnText() string
}

// ParseMarkup parses an HTML document
func ParseMarkup(raw string) (MarkupNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return goqueryNode{sel: doc.Selection}, nil
}

type goqueryNode struct {
	sel *goquery.Selection
}

func (n goqueryNode) FindFirst(selector string) (MarkupNode, bool) {
	found := n.sel.Find(selector).First()
	if found.Length() == 0 {
		return nil, false
	}
	return goqueryNode{sel: found}, true
}

func (n goqueryNode) FindAll(selector string) []MarkupNode {
	found := n.sel.Find(selector)
	nodes := make([]MarkupNode, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, goqueryNode{sel: s})
	})
	return nodes
}

func (n goqueryNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n goqueryNode) Text() string {
	var parts []string
	for _, node := range n.sel.Nodes {
		collectText(node, &parts)
	}
	return strings.Join(parts, " ")
}

func (n goqueryNode) CompactText() string {
	var parts []string
	for _, node := range n.sel.Nodes {
		collectText(node, &parts)
	}
	return strings.Join(parts, "")
}

func (n goqueryNode) OwnText() string {
	if len(n.sel.Nodes) == 0 {
		return ""
	}

	var parts []string
	for child := n.sel.Nodes[0].FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.TextNode {
			continue
		}
		if text := strings.TrimSpace(child.Data); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func collectText(node *html.Node, parts *[]string) {
	if node.Type == html.TextNode {
		if text := strings.TrimSpace(node.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}
