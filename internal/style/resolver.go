// internal/style/resolver.go
package style

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

const (
	// BaseFontSize is the root font size assumed for text measurement.
	BaseFontSize = 16.0
	// charWidthRatio approximates average glyph width as a fraction of
	// font size. Good enough for shrink-to-fit button sizing.
	charWidthRatio = 0.6
)

// DefaultUserAgentCSS supplies the intrinsic dimensions the layout pass
// needs for form controls, plus block defaults for common containers.
const DefaultUserAgentCSS = `
div, p, h1, h2, h3, h4, h5, h6, body, html, ul, ol, li, form,
header, footer, section, article, nav, main {
    display: block;
}

input, button, textarea, select {
    display: inline-block;
}

input {
    width: 170px;
    height: 22px;
}

input[type="checkbox"], input[type="radio"] {
    width: 13px;
    height: 13px;
}

input[type="hidden"] {
    display: none;
}

textarea {
    width: 300px;
    height: 64px;
}

select {
    width: 170px;
    height: 22px;
}

button, input[type="submit"], input[type="button"], input[type="reset"] {
    width: auto;
    height: 22px;
}
`

// Resolver computes effective styles for element nodes from the user agent
// sheet, author sheets and inline style attributes.
type Resolver struct {
	ua      Sheet
	authors []Sheet
}

// NewResolver returns a resolver seeded with the user agent sheet.
func NewResolver() *Resolver {
	return &Resolver{ua: ParseSheet(DefaultUserAgentCSS)}
}

// AddSheet appends an author stylesheet. Later sheets win ties.
func (r *Resolver) AddSheet(s Sheet) {
	r.authors = append(r.authors, s)
}

// CollectStyleElements parses every style element under root into author
// sheets.
func (r *Resolver) CollectStyleElements(root *html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.ToLower(n.Data) == "style" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			r.AddSheet(ParseSheet(sb.String()))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

type weighted struct {
	decl  Declaration
	prio  int // origin priority: UA 1, author 2, inline 3; important bumps
	a, b  int
	c     int
	order int
}

// Computed cascades matching declarations for one element node. Inherited
// properties are not resolved here; callers that need inheritance walk
// ancestors themselves.
func (r *Resolver) Computed(n *html.Node) map[string]string {
	var ds []weighted
	order := 0

	addSheet := func(s Sheet, prio int) {
		for _, rule := range s.Rules {
			for _, sel := range rule.Selectors {
				if !matches(n, sel) {
					continue
				}
				a, b, c := sel.Specificity()
				for _, d := range rule.Declarations {
					p := prio
					if d.Important {
						p += 3
					}
					ds = append(ds, weighted{decl: d, prio: p, a: a, b: b, c: c, order: order})
					order++
				}
				break
			}
		}
	}

	addSheet(r.ua, 1)
	for _, s := range r.authors {
		addSheet(s, 2)
	}
	for _, attr := range n.Attr {
		if attr.Key == "style" {
			for _, d := range ParseInline(attr.Val) {
				p := 3
				if d.Important {
					p += 3
				}
				ds = append(ds, weighted{decl: d, prio: p, a: 1, order: order})
				order++
			}
		}
	}

	sort.Slice(ds, func(i, j int) bool {
		x, y := ds[i], ds[j]
		if x.prio != y.prio {
			return x.prio < y.prio
		}
		if x.a != y.a {
			return x.a < y.a
		}
		if x.b != y.b {
			return x.b < y.b
		}
		if x.c != y.c {
			return x.c < y.c
		}
		return x.order < y.order
	})

	out := make(map[string]string, len(ds))
	for _, w := range ds {
		out[w.decl.Property] = w.decl.Value
	}
	return out
}

func matches(n *html.Node, sel Selector) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if sel.Tag != "" && sel.Tag != "*" && strings.ToLower(n.Data) != sel.Tag {
		return false
	}
	if sel.ID != "" && attrValue(n, "id") != sel.ID {
		return false
	}
	if len(sel.Classes) > 0 {
		have := strings.Fields(attrValue(n, "class"))
		for _, want := range sel.Classes {
			found := false
			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	for _, am := range sel.Attrs {
		v, ok := lookupAttr(n, am.Name)
		switch am.Op {
		case "":
			if !ok {
				return false
			}
		case "=":
			if !ok || v != am.Value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func attrValue(n *html.Node, name string) string {
	v, _ := lookupAttr(n, name)
	return v
}

func lookupAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// IsVisible reports whether the node is rendered: no display:none on it or
// any ancestor, effective visibility not hidden, and opacity above zero.
// Visibility is inherited from the nearest ancestor that sets it, so a
// visible child inside a hidden parent can opt back in.
func (r *Resolver) IsVisible(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		cs := r.Computed(cur)
		if cs["display"] == "none" {
			return false
		}
		if op, ok := cs["opacity"]; ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(op), 64); err == nil && f <= 0 {
				return false
			}
		}
	}
	if v := r.effectiveVisibility(n); v == "hidden" || v == "collapse" {
		return false
	}
	return true
}

func (r *Resolver) effectiveVisibility(n *html.Node) string {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if v, ok := r.Computed(cur)["visibility"]; ok {
			return v
		}
	}
	return "visible"
}

// ParsePx parses a pixel or unitless length. Anything else resolves to 0.
func ParsePx(v string) float64 {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" || v == "auto" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

// MeasureText estimates the rendered width and height of a text run.
func MeasureText(text string) (width, height float64) {
	return float64(len(text)) * BaseFontSize * charWidthRatio, BaseFontSize
}
