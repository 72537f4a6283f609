// internal/layout/layout.go
package layout

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/xkilldash9x/pagepilot/internal/style"
)

// lineHeight is the height one text line contributes to flow.
const lineHeight = 18.0

// Rect is an axis-aligned box in page coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Intersects reports whether two rects overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// Center returns the rect's midpoint.
func (r Rect) Center() (x, y float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Tree holds the computed box for every laid-out element node plus the
// total content height of the page.
type Tree struct {
	rects         map[*html.Node]Rect
	ContentHeight float64
}

// Rect returns the computed box for a node. The second return is false for
// nodes the flow skipped: hidden subtrees, head content, detached nodes.
func (t *Tree) Rect(n *html.Node) (Rect, bool) {
	r, ok := t.rects[n]
	return r, ok
}

// Build runs a single block-flow pass over the tree. Every rendered element
// gets a box: blocks fill the available width and stack vertically,
// inline-level elements shrink to their content, form controls take their
// intrinsic sizes from the resolver's user agent sheet. This is a coarse
// model, but it preserves the properties the engine depends on: document
// order maps to increasing Y, hidden subtrees produce no boxes, and pages
// with more content than the viewport are taller than it.
func Build(root *html.Node, res *style.Resolver, pageWidth float64) *Tree {
	t := &Tree{rects: make(map[*html.Node]Rect)}
	body := findBody(root)
	if body == nil {
		return t
	}
	h := t.flow(body, res, 0, 0, pageWidth)
	t.ContentHeight = h
	return t
}

// flow lays out n at (x, y) within availWidth and returns its height.
func (t *Tree) flow(n *html.Node, res *style.Resolver, x, y, availWidth float64) float64 {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return 0
		}
		return lineHeight
	case html.ElementNode:
	default:
		return 0
	}

	tag := strings.ToLower(n.Data)
	switch tag {
	case "script", "style", "noscript", "head", "title", "meta", "link":
		return 0
	}

	cs := res.Computed(n)
	if cs["display"] == "none" {
		return 0
	}

	// Fixed-position boxes sit at their given viewport coordinates and
	// take no space in the flow.
	if cs["position"] == "fixed" {
		t.rects[n] = Rect{
			X:      style.ParsePx(cs["left"]),
			Y:      style.ParsePx(cs["top"]),
			Width:  style.ParsePx(cs["width"]),
			Height: style.ParsePx(cs["height"]),
		}
		return 0
	}

	width := style.ParsePx(cs["width"])
	if width <= 0 {
		if isInlineLevel(cs, tag) {
			width = shrinkToFit(n)
		} else {
			width = availWidth
		}
	}
	if width > availWidth && availWidth > 0 {
		width = availWidth
	}

	childY := y
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		childY += t.flow(c, res, x, childY, width)
	}
	contentHeight := childY - y

	height := style.ParsePx(cs["height"])
	if height <= 0 {
		height = contentHeight
	}

	t.rects[n] = Rect{X: x, Y: y, Width: width, Height: height}
	return height
}

func isInlineLevel(cs map[string]string, tag string) bool {
	switch cs["display"] {
	case "block", "list-item":
		return false
	case "inline", "inline-block":
		return true
	}
	switch tag {
	case "a", "span", "b", "i", "em", "strong", "label", "small", "code",
		"button", "input", "select", "textarea", "img":
		return true
	}
	return false
}

// shrinkToFit estimates an inline element's width from its text content.
func shrinkToFit(n *html.Node) float64 {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	w, _ := style.MeasureText(sb.String())
	return w
}

func findBody(root *html.Node) *html.Node {
	var body *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && strings.ToLower(n.Data) == "body" {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return body
}
