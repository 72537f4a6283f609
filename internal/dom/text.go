// internal/dom/text.go
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// TextNodes returns the document's rendered text nodes in document order,
// skipping the head as well as script, style and noscript subtrees.
func (d *Document) TextNodes() []*html.Node {
	var out []*html.Node
	Walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "head", "script", "style", "noscript":
				return false
			}
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			out = append(out, n)
		}
		return true
	})
	return out
}

// WrapTextRange splits the text node around [start, end) and wraps the
// middle segment in a new inline element carrying the given class. It
// returns the wrapper element. Out-of-range offsets are clamped.
func (d *Document) WrapTextRange(textNode *html.Node, start, end int, tag, class string) *Element {
	if textNode == nil || textNode.Type != html.TextNode || textNode.Parent == nil {
		return nil
	}
	text := textNode.Data
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return nil
	}

	parent := textNode.Parent
	next := textNode.NextSibling
	parent.RemoveChild(textNode)

	insert := func(n *html.Node) {
		if next != nil {
			parent.InsertBefore(n, next)
		} else {
			parent.AppendChild(n)
		}
	}

	if start > 0 {
		insert(&html.Node{Type: html.TextNode, Data: text[:start]})
	}
	wrapper := &html.Node{
		Type: html.ElementNode,
		Data: strings.ToLower(tag),
		Attr: []html.Attribute{{Key: "class", Val: class}},
	}
	wrapper.AppendChild(&html.Node{Type: html.TextNode, Data: text[start:end]})
	insert(wrapper)
	if end < len(text) {
		insert(&html.Node{Type: html.TextNode, Data: text[end:]})
	}
	return d.ElementFor(wrapper)
}

// UnwrapAll removes every element carrying the given class, splicing its
// children back into the parent and merging adjacent text nodes so repeated
// wrap and unwrap cycles leave the tree canonical.
func (d *Document) UnwrapAll(class string) int {
	var wrappers []*html.Node
	Walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, class) {
			wrappers = append(wrappers, n)
		}
		return true
	})
	for _, w := range wrappers {
		unwrap(w)
	}
	return len(wrappers)
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for n.FirstChild != nil {
		c := n.FirstChild
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
	mergeTextChildren(parent)
}

// mergeTextChildren coalesces adjacent text node siblings.
func mergeTextChildren(parent *html.Node) {
	c := parent.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode && next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			parent.RemoveChild(next)
			continue
		}
		c = next
	}
}
