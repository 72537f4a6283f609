// internal/dom/document.go
package dom

import (
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document owns one parsed element tree and the live state layered on it.
// The identity map guarantees every html.Node has at most one Element
// wrapper, so listener registrations and field values survive repeated
// lookups of the same node.
type Document struct {
	root  *html.Node
	elems map[*html.Node]*Element

	active *Element
	title  string
	url    string
}

// Parse reads an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return newDocument(root), nil
}

// ParseString parses an HTML document held in memory.
func ParseString(src string) (*Document, error) {
	return Parse(strings.NewReader(src))
}

// MustParse parses src and panics on error. Test helper.
func MustParse(src string) *Document {
	d, err := ParseString(src)
	if err != nil {
		panic(err)
	}
	return d
}

func newDocument(root *html.Node) *Document {
	return &Document{
		root:  root,
		elems: make(map[*html.Node]*Element),
	}
}

// Root returns the document root node.
func (d *Document) Root() *html.Node { return d.root }

// ElementFor returns the unique Element wrapper for n, creating it on first
// use. Only element nodes are wrapped.
func (d *Document) ElementFor(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if el, ok := d.elems[n]; ok {
		return el
	}
	el := &Element{node: n, doc: d}
	d.elems[n] = el
	return el
}

// Body returns the body element, or nil for a fragment without one.
func (d *Document) Body() *Element {
	n := htmlquery.FindOne(d.root, "//body")
	return d.ElementFor(n)
}

// Title returns the document title: an explicit override set by the host,
// otherwise the text of the title element.
func (d *Document) Title() string {
	if d.title != "" {
		return d.title
	}
	if n := htmlquery.FindOne(d.root, "//title"); n != nil {
		return strings.TrimSpace(htmlquery.InnerText(n))
	}
	return ""
}

// SetTitle overrides the document title.
func (d *Document) SetTitle(t string) { d.title = t }

// URL returns the document location as reported to callers.
func (d *Document) URL() string { return d.url }

// SetURL sets the document location.
func (d *Document) SetURL(u string) { d.url = u }

// QueryAll runs an XPath expression against the tree and wraps the matching
// element nodes.
func (d *Document) QueryAll(expr string) []*Element {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil
	}
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if el := d.ElementFor(n); el != nil {
			out = append(out, el)
		}
	}
	return out
}

// QueryOne returns the first element matching the XPath expression, or nil.
func (d *Document) QueryOne(expr string) *Element {
	n, err := htmlquery.Query(d.root, expr)
	if err != nil || n == nil {
		return nil
	}
	return d.ElementFor(n)
}

// GetElementByID returns the first element with the given id in document
// order, or nil.
func (d *Document) GetElementByID(id string) *Element {
	var found *html.Node
	Walk(d.root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type != html.ElementNode {
			return true
		}
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				found = n
				return false
			}
		}
		return true
	})
	return d.ElementFor(found)
}

// CreateElement builds a detached element owned by this document.
func (d *Document) CreateElement(tag string) *Element {
	n := &html.Node{Type: html.ElementNode, Data: strings.ToLower(tag)}
	return d.ElementFor(n)
}

// ActiveElement returns the element currently holding focus, or nil.
func (d *Document) ActiveElement() *Element { return d.active }

// setFocus moves focus, dispatching blur and focus as non-bubbling events
// the way the platform does.
func (d *Document) setFocus(el *Element) {
	if el != nil && el.IsDisabled() {
		return
	}
	if d.active == el {
		return
	}
	if prev := d.active; prev != nil {
		d.active = nil
		prev.Dispatch(&Event{Type: EventBlur})
	}
	d.active = el
	if el != nil {
		el.Dispatch(&Event{Type: EventFocus})
	}
}

// Walk visits every node under root in document order. The visitor returns
// false to skip the node's children; siblings and the rest of the tree are
// still visited.
func Walk(root *html.Node, visit func(*html.Node) bool) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if !visit(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}
