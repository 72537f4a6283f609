// internal/page/page.go

// Package page ties one parsed document to its style resolver, layout tree
// and scroll state. It is the in-process stand-in for a rendered browser
// tab: everything above it (snapshotting, actions, highlighting) works
// purely against this surface.
package page

import (
	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/internal/dom"
	"github.com/xkilldash9x/pagepilot/internal/layout"
	"github.com/xkilldash9x/pagepilot/internal/style"
)

// Page is one loaded document with a viewport over it.
type Page struct {
	doc *dom.Document
	res *style.Resolver

	viewport config.ViewportConfig
	scrollY  float64

	tree  *layout.Tree
	dirty bool

	pendingNav string
}

// Load parses src as the page content.
func Load(src, url string, vp config.ViewportConfig) (*Page, error) {
	doc, err := dom.ParseString(src)
	if err != nil {
		return nil, err
	}
	doc.SetURL(url)
	return FromDocument(doc, vp), nil
}

// MustLoad is Load for tests with known-good markup.
func MustLoad(src, url string, vp config.ViewportConfig) *Page {
	p, err := Load(src, url, vp)
	if err != nil {
		panic(err)
	}
	return p
}

// FromDocument wraps an already parsed document.
func FromDocument(doc *dom.Document, vp config.ViewportConfig) *Page {
	res := style.NewResolver()
	res.CollectStyleElements(doc.Root())
	return &Page{
		doc:      doc,
		res:      res,
		viewport: vp,
		dirty:    true,
	}
}

// Document returns the underlying document.
func (p *Page) Document() *dom.Document { return p.doc }

// Resolver returns the page's style resolver.
func (p *Page) Resolver() *style.Resolver { return p.res }

// Viewport returns the viewport geometry.
func (p *Page) Viewport() config.ViewportConfig { return p.viewport }

// URL returns the document location.
func (p *Page) URL() string { return p.doc.URL() }

// Title returns the document title.
func (p *Page) Title() string { return p.doc.Title() }

// Invalidate marks the layout stale after a tree mutation.
func (p *Page) Invalidate() { p.dirty = true }

// Layout returns the current layout tree, rebuilding it when stale.
func (p *Page) Layout() *layout.Tree {
	if p.dirty || p.tree == nil {
		p.tree = layout.Build(p.doc.Root(), p.res, p.viewport.Width)
		p.dirty = false
	}
	return p.tree
}

// RectOf returns the element's box in page coordinates.
func (p *Page) RectOf(el *dom.Element) (layout.Rect, bool) {
	if el == nil {
		return layout.Rect{}, false
	}
	return p.Layout().Rect(el.Node())
}

// ViewportRectOf returns the element's box translated into viewport
// coordinates, accounting for the current scroll position.
func (p *Page) ViewportRectOf(el *dom.Element) (layout.Rect, bool) {
	r, ok := p.RectOf(el)
	if !ok {
		return layout.Rect{}, false
	}
	r.Y -= p.scrollY
	return r, true
}

// IsVisible reports whether the element is rendered at all.
func (p *Page) IsVisible(el *dom.Element) bool {
	if el == nil {
		return false
	}
	return p.res.IsVisible(el.Node())
}

// -- scrolling --

// ScrollY returns the current vertical scroll offset.
func (p *Page) ScrollY() float64 { return p.scrollY }

// MaxScroll returns the largest reachable scroll offset.
func (p *Page) MaxScroll() float64 {
	max := p.Layout().ContentHeight - p.viewport.Height
	if max < 0 {
		return 0
	}
	return max
}

// SetScrollY clamps and applies a scroll offset.
func (p *Page) SetScrollY(y float64) {
	if y < 0 {
		y = 0
	}
	if max := p.MaxScroll(); y > max {
		y = max
	}
	p.scrollY = y
}

// ScrollBy moves the viewport and reports whether the offset changed.
func (p *Page) ScrollBy(delta float64) bool {
	before := p.scrollY
	p.SetScrollY(p.scrollY + delta)
	return p.scrollY != before
}

// InViewport reports whether any part of the element is inside the
// viewport right now.
func (p *Page) InViewport(el *dom.Element) bool {
	r, ok := p.RectOf(el)
	if !ok {
		return false
	}
	vp := layout.Rect{X: 0, Y: p.scrollY, Width: p.viewport.Width, Height: p.viewport.Height}
	return r.Intersects(vp)
}

// ScrollIntoView centers the element vertically in the viewport when it is
// currently outside it.
func (p *Page) ScrollIntoView(el *dom.Element) {
	if p.InViewport(el) {
		return
	}
	r, ok := p.RectOf(el)
	if !ok {
		return
	}
	p.SetScrollY(r.Y + r.Height/2 - p.viewport.Height/2)
}

// -- navigation --

// RecordNavigation notes a navigation the page would have performed, such
// as a form submit. The host decides whether to follow it.
func (p *Page) RecordNavigation(target string) {
	p.pendingNav = target
}

// PendingNavigation returns and clears the recorded navigation target.
func (p *Page) PendingNavigation() string {
	t := p.pendingNav
	p.pendingNav = ""
	return t
}
