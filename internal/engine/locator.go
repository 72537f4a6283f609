// internal/engine/locator.go
package engine

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/pagepilot/api/schemas"
	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/internal/dom"
	"github.com/xkilldash9x/pagepilot/internal/page"
)

const (
	// HighlightClass marks the inline wrappers around exact text matches.
	HighlightClass = "pilot-find-highlight"
	// BlockHighlightClass marks a containing block highlighted by the
	// coarse fallback.
	BlockHighlightClass = "pilot-find-block"

	// Snippets longer than probeThreshold search with only their first
	// probeLength characters to raise the match likelihood.
	probeThreshold = 100
	probeLength    = 80

	// When no exact match exists and the snippet is longer than
	// fallbackThreshold, a fallbackProbeLength prefix is matched anywhere
	// in a text node and its containing block is highlighted instead.
	fallbackThreshold   = 20
	fallbackProbeLength = 40

	maxHighlights = 3
)

// Locator finds an arbitrary text snippet on the page and highlights it.
// It is independent of the handle machinery. Highlight fading and removal
// are cooperative: deadlines are recorded at locate time and applied by
// Tick, which the session calls before each operation. The engine runs no
// goroutines of its own.
type Locator struct {
	cfg config.EngineConfig
	log *zap.Logger
	now func() time.Time

	fadeAt   time.Time
	removeAt time.Time
}

// NewLocator returns a locator using the wall clock.
func NewLocator(cfg config.EngineConfig, log *zap.Logger) *Locator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Locator{cfg: cfg, log: log.Named("locator"), now: time.Now}
}

// SetClock replaces the clock, letting tests drive highlight expiry.
func (l *Locator) SetClock(now func() time.Time) {
	l.now = now
}

// Locate strips any previous highlights, searches for the snippet and
// wraps up to the first three matches, scrolling the first into view.
func (l *Locator) Locate(p *page.Page, snippet string) schemas.LocateResult {
	l.clear(p)

	snippet = strings.TrimSpace(snippet)
	if snippet == "" {
		return schemas.LocateResult{}
	}

	probe := snippet
	if utf8.RuneCountInString(probe) > probeThreshold {
		probe = truncate(probe, probeLength)
	}

	count := l.highlightExact(p, probe)
	if count == 0 && utf8.RuneCountInString(snippet) > fallbackThreshold {
		count = l.highlightBlock(p, truncate(snippet, fallbackProbeLength))
	}
	if count == 0 {
		return schemas.LocateResult{}
	}

	deadline := l.now()
	l.fadeAt = deadline.Add(time.Duration(l.cfg.HighlightFadeMs) * time.Millisecond)
	l.removeAt = deadline.Add(time.Duration(l.cfg.HighlightRemoveMs) * time.Millisecond)

	l.log.Debug("text located", zap.Int("matches", count))
	return schemas.LocateResult{Found: true, MatchCount: count}
}

// highlightExact wraps case-insensitive substring matches in inline
// highlight spans and scrolls to the first.
func (l *Locator) highlightExact(p *page.Page, probe string) int {
	doc := p.Document()

	count := 0
	var first *dom.Element
	for _, tn := range doc.TextNodes() {
		if count >= maxHighlights {
			break
		}
		start, length := foldIndex(tn.Data, probe)
		if start < 0 {
			continue
		}
		w := doc.WrapTextRange(tn, start, start+length, "span", HighlightClass)
		if w == nil {
			continue
		}
		if first == nil {
			first = w
		}
		count++
	}

	if first != nil {
		p.Invalidate()
		p.ScrollIntoView(first)
	}
	return count
}

// highlightBlock finds the first qualifying text node containing the
// fallback probe and highlights its nearest containing block. Coarser than
// an exact span, but better than reporting nothing.
func (l *Locator) highlightBlock(p *page.Page, probe string) int {
	probe = strings.TrimSpace(probe)
	doc := p.Document()

	for _, tn := range doc.TextNodes() {
		if start, _ := foldIndex(tn.Data, probe); start < 0 {
			continue
		}
		block := containingBlock(doc, tn)
		if block == nil {
			continue
		}
		cls := strings.TrimSpace(block.AttrOr("class", "") + " " + BlockHighlightClass)
		block.SetAttr("class", cls)
		p.ScrollIntoView(block)
		return 1
	}
	return 0
}

// foldIndex reports the byte offset and byte length of the first
// case-insensitive match of needle in haystack, or -1. Offsets are
// computed against the original haystack, so length-changing case folds
// cannot misalign the wrap range.
func foldIndex(haystack, needle string) (start, length int) {
	if needle == "" {
		return -1, 0
	}
	for i := 0; i < len(haystack); {
		if n, ok := foldMatch(haystack[i:], needle); ok {
			return i, n
		}
		_, size := utf8.DecodeRuneInString(haystack[i:])
		i += size
	}
	return -1, 0
}

// foldMatch reports whether s begins with needle under rune-wise case
// folding, and how many bytes of s the match covers.
func foldMatch(s, needle string) (int, bool) {
	n := 0
	for _, want := range needle {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0, false
		}
		if unicode.ToLower(r) != unicode.ToLower(want) {
			return 0, false
		}
		n += size
	}
	return n, true
}

// blockTags are the ancestors the fallback accepts as a containing block.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "td": true, "th": true,
	"section": true, "article": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

func containingBlock(doc *dom.Document, tn *html.Node) *dom.Element {
	for n := tn.Parent; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if blockTags[strings.ToLower(n.Data)] {
			return doc.ElementFor(n)
		}
		if strings.ToLower(n.Data) == "body" {
			return doc.ElementFor(n)
		}
	}
	return nil
}

// Tick applies any expired highlight deadlines. The session calls it
// before each operation; nothing here blocks or schedules.
func (l *Locator) Tick(p *page.Page) {
	now := l.now()
	if !l.removeAt.IsZero() && !now.Before(l.removeAt) {
		l.clear(p)
		return
	}
	if !l.fadeAt.IsZero() && !now.Before(l.fadeAt) {
		for _, el := range p.Document().QueryAll(classQuery(HighlightClass)) {
			el.SetAttr("style", "opacity:0.3")
		}
		l.fadeAt = time.Time{}
	}
}

// clear removes inline wrappers and block highlight classes.
func (l *Locator) clear(p *page.Page) {
	doc := p.Document()
	removed := doc.UnwrapAll(HighlightClass)
	for _, el := range doc.QueryAll(classQuery(BlockHighlightClass)) {
		classes := strings.Fields(el.AttrOr("class", ""))
		var kept []string
		for _, c := range classes {
			if c != BlockHighlightClass {
				kept = append(kept, c)
			}
		}
		el.SetAttr("class", strings.Join(kept, " "))
		removed++
	}
	if removed > 0 {
		p.Invalidate()
	}
	l.fadeAt = time.Time{}
	l.removeAt = time.Time{}
}

func classQuery(class string) string {
	return "//*[contains(concat(' ', normalize-space(@class), ' '), ' " + class + " ')]"
}
