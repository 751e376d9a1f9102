package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is a page parsed once and shared by every extractor.
type Document struct {
	doc *goquery.Document
}

func ParseHTML(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{doc: doc}, nil
}

func FromString(s string) (*Document, error) {
	return ParseHTML(strings.NewReader(s))
}

// Node returns the document node.
func (d *Document) Node() *html.Node {
	return d.doc.Nodes[0]
}

func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}

// RootLocator finds the anchor node a record is extracted from. A nil
// selection with a nil error means the root is absent.
type RootLocator interface {
	Locate(doc *Document) (*goquery.Selection, error)
}

// XPath locates the first node in document order matching the expression.
type XPath string

func (x XPath) Locate(doc *Document) (*goquery.Selection, error) {
	nodes, err := htmlquery.QueryAll(doc.Node(), string(x))
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", string(x), err)
	}

	// unions are yielded per branch, not in document order
	matches := make(map[*html.Node]bool, len(nodes))
	for _, n := range nodes {
		if a := anchor(n); a != nil {
			matches[a] = true
		}
	}
	if len(matches) == 0 {
		return nil, nil
	}
	if matches[doc.Node()] {
		return doc.Selection(), nil
	}
	if first := firstInOrder(doc.Node(), matches); first != nil {
		return doc.doc.FindNodes(first), nil
	}
	return nil, nil
}

// anchor maps an XPath result onto the element it belongs to. Attribute
// results come back detached and have nothing to anchor on.
func anchor(n *html.Node) *html.Node {
	switch n.Type {
	case html.DocumentNode:
		return n
	case html.ElementNode:
		if n.Parent == nil {
			return nil
		}
		return n
	default:
		// text() and comment results anchor on their owning element
		if p := n.Parent; p != nil && p.Type == html.ElementNode {
			return p
		}
		return nil
	}
}

func firstInOrder(n *html.Node, set map[*html.Node]bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if set[c] {
			return c
		}
		if found := firstInOrder(c, set); found != nil {
			return found
		}
	}
	return nil
}
