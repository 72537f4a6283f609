// internal/engine/snapshot.go
package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/api/schemas"
	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/internal/dom"
	"github.com/xkilldash9x/pagepilot/internal/page"
)

// candidateXPath enumerates the interactive categories the snapshot
// considers: links with a destination, buttons, form fields, editable
// regions, disclosure widgets and the fixed set of interactive ARIA roles.
const candidateXPath = `
    //a[@href] | //button | //input | //textarea | //select |
    //summary | //details |
    //*[@contenteditable and (normalize-space(@contenteditable)='true' or normalize-space(@contenteditable)='')] |
    //*[@role='button' or @role='link' or @role='tab' or @role='menuitem' or
        @role='checkbox' or @role='radio' or @role='combobox' or @role='searchbox' or
        @role='textbox' or @role='switch' or @role='option']
`

// Builder produces accessibility tree snapshots and populates the registry
// with a fresh handle generation on every build.
type Builder struct {
	cfg config.EngineConfig
	log *zap.Logger
}

// NewBuilder returns a snapshot builder with the given tuning.
func NewBuilder(cfg config.EngineConfig, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{cfg: cfg, log: log.Named("snapshot")}
}

// Build replaces the registry's generation with the page's current
// interactive elements and renders the textual tree.
func (b *Builder) Build(p *page.Page, reg *Registry) (schemas.TreeResult, []schemas.ElementSnapshot) {
	candidates := b.collect(p)
	active := p.Document().ActiveElement()

	truncated := 0
	if len(candidates) > b.cfg.SnapshotCap {
		kept := candidates[:b.cfg.SnapshotCap]
		// The focused element survives the cap even when it falls in the
		// truncated tail: whatever the last action touched must stay
		// actionable.
		if active != nil && contains(candidates, active) && !contains(kept, active) {
			kept = append(kept, active)
		}
		truncated = len(candidates) - len(kept)
		candidates = kept
	}
	if active != nil && !contains(candidates, active) {
		candidates = append(candidates, active)
	}

	handles := reg.Replace(candidates)

	entries := make([]schemas.ElementSnapshot, 0, len(candidates))
	var sb strings.Builder
	fmt.Fprintf(&sb, "Page: %s (%s)\n", p.Title(), p.URL())
	for i, el := range candidates {
		entry := b.describe(p, el, handles[i])
		entries = append(entries, entry)
		sb.WriteString(renderLine(entry))
		sb.WriteByte('\n')
	}
	if truncated > 0 {
		fmt.Fprintf(&sb, "(%d additional elements hidden; snapshot capped at %d)\n",
			truncated, b.cfg.SnapshotCap)
	}

	b.log.Debug("snapshot built",
		zap.Int("elements", len(candidates)),
		zap.Int("hidden", truncated),
		zap.Int("generation", reg.Generation()))

	return schemas.TreeResult{Tree: sb.String(), URL: p.URL(), Title: p.Title()}, entries
}

// collect gathers, deduplicates and filters candidate elements in document
// order. Build force-includes the focused element separately, after the
// cap, so it is never filtered or truncated away.
func (b *Builder) collect(p *page.Page) []*dom.Element {
	seen := make(map[*dom.Element]bool)
	var out []*dom.Element

	for _, el := range p.Document().QueryAll(candidateXPath) {
		if seen[el] {
			continue
		}
		seen[el] = true
		if b.keep(p, el) {
			out = append(out, el)
		}
	}
	return out
}

func contains(els []*dom.Element, el *dom.Element) bool {
	for _, e := range els {
		if e == el {
			return true
		}
	}
	return false
}

// keep applies the standard filters: minimum rendered size (with a smaller
// threshold for form fields, which some frameworks render narrow until
// focused), style visibility, a generous vertical window around the
// viewport, and a non-empty name for anything that is not inherently
// interactive by tag.
func (b *Builder) keep(p *page.Page, el *dom.Element) bool {
	if !p.IsVisible(el) {
		return false
	}

	r, ok := p.RectOf(el)
	if !ok {
		return false
	}
	minSize := b.cfg.MinElementSize
	if isFormField(el) {
		minSize = b.cfg.MinFieldSize
	}
	if r.Width < minSize || r.Height < minSize {
		return false
	}

	top := p.ScrollY() - b.cfg.ViewportMargin
	bottom := p.ScrollY() + p.Viewport().Height + b.cfg.ViewportMargin
	if r.Y+r.Height < top || r.Y > bottom {
		return false
	}

	if !isInherentlyInteractive(el) && AccessibleName(el, b.cfg.MaxNameLength) == "" {
		return false
	}
	return true
}

// isInherentlyInteractive covers the tags that stay in the snapshot even
// without a resolvable name.
func isInherentlyInteractive(el *dom.Element) bool {
	switch el.Tag() {
	case "a", "button", "input", "textarea", "select":
		return true
	}
	return false
}

func (b *Builder) describe(p *page.Page, el *dom.Element, handle string) schemas.ElementSnapshot {
	region := schemas.Region{}
	if r, ok := p.ViewportRectOf(el); ok {
		region = schemas.Region{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	return schemas.ElementSnapshot{
		Handle:         handle,
		Role:           Role(el),
		AccessibleName: AccessibleName(el, b.cfg.MaxNameLength),
		TagHint:        TagHint(el),
		StateFlags:     StateFlags(el, b.cfg.ValuePreviewLength),
		BoundingRegion: region,
	}
}

// renderLine formats one snapshot entry:
//
//	role <tag[ type]> [handle] "name" [state,...]
func renderLine(e schemas.ElementSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s <%s> [%s] %q", e.Role, e.TagHint, e.Handle, e.AccessibleName)
	if len(e.StateFlags) > 0 {
		fmt.Fprintf(&sb, " [%s]", strings.Join(e.StateFlags, ","))
	}
	return sb.String()
}
