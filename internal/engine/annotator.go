// internal/engine/annotator.go
package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/internal/page"
)

// OverlayClass marks every annotation element so Clear can remove them all
// in one sweep. Overlays are purely visual and safe to redraw at any time.
const OverlayClass = "pilot-mark-overlay"

// Annotator draws and clears the set-of-marks overlays for the current
// registry generation: a small handle tag above each element's top-left
// corner plus an outline matching its bounding box.
type Annotator struct {
	cfg config.EngineConfig
	log *zap.Logger
}

// NewAnnotator returns an annotator with the given tuning.
func NewAnnotator(cfg config.EngineConfig, log *zap.Logger) *Annotator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Annotator{cfg: cfg, log: log.Named("annotator")}
}

// Draw clears any previous overlays and renders fresh ones for every
// registry entry that intersects the viewport and exceeds the minimum
// mark size. It returns the number of marks drawn.
func (a *Annotator) Draw(p *page.Page, reg *Registry) int {
	a.Clear(p)

	body := p.Document().Body()
	if body == nil {
		return 0
	}

	drawn := 0
	for _, handle := range reg.Handles() {
		el, ok := reg.Resolve(handle)
		if !ok {
			continue
		}
		r, ok := p.ViewportRectOf(el)
		if !ok {
			continue
		}
		if r.Width < a.cfg.MarkMinSize || r.Height < a.cfg.MarkMinSize {
			continue
		}
		if r.Y+r.Height < 0 || r.Y > p.Viewport().Height {
			continue
		}

		outline := p.Document().CreateElement("div")
		outline.SetAttr("class", OverlayClass)
		outline.SetAttr("data-overlay-kind", "outline")
		outline.SetAttr("data-for", handle)
		outline.SetAttr("style", fmt.Sprintf(
			"position:fixed;left:%.0fpx;top:%.0fpx;width:%.0fpx;height:%.0fpx;pointer-events:none",
			r.X, r.Y, r.Width, r.Height))
		body.AppendChild(outline)

		tag := p.Document().CreateElement("div")
		tag.SetAttr("class", OverlayClass)
		tag.SetAttr("data-overlay-kind", "tag")
		tag.SetAttr("data-for", handle)
		tag.SetAttr("style", fmt.Sprintf(
			"position:fixed;left:%.0fpx;top:%.0fpx;pointer-events:none", r.X, r.Y-14))
		tag.SetText(handle)
		body.AppendChild(tag)

		drawn++
	}

	p.Invalidate()
	a.log.Debug("marks drawn", zap.Int("count", drawn))
	return drawn
}

// Clear removes every overlay by the shared marker class.
func (a *Annotator) Clear(p *page.Page) int {
	removed := 0
	for _, el := range p.Document().QueryAll("//*[contains(concat(' ', normalize-space(@class), ' '), ' " + OverlayClass + " ')]") {
		el.Remove()
		removed++
	}
	if removed > 0 {
		p.Invalidate()
	}
	return removed
}
