// internal/engine/session.go
package engine

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/api/schemas"
	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/internal/page"
)

// Session owns one page's automation state: the registry, the snapshot
// builder, the executor, the annotator and the locator. Everything mutable
// lives here rather than in package state, so independent sessions over
// different pages cannot cross-talk. A session is single-threaded and
// externally driven: one request at a time, no internal queuing.
type Session struct {
	page *page.Page
	reg  *Registry

	builder   *Builder
	executor  *Executor
	annotator *Annotator
	locator   *Locator

	lastEntries []schemas.ElementSnapshot
	log         *zap.Logger
}

// NewSession wires an automation session over one page.
func NewSession(p *page.Page, cfg config.EngineConfig, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		page:      p,
		reg:       NewRegistry(),
		builder:   NewBuilder(cfg, log),
		executor:  NewExecutor(cfg, log),
		annotator: NewAnnotator(cfg, log),
		locator:   NewLocator(cfg, log),
		log:       log.Named("session"),
	}
}

// Page returns the session's page.
func (s *Session) Page() *page.Page { return s.page }

// Registry returns the session's registry. Exposed for tests and the
// script bridge.
func (s *Session) Registry() *Registry { return s.reg }

// Locator returns the session's locator, letting tests inject a clock.
func (s *Session) Locator() *Locator { return s.locator }

// GetAccessibilityTree rebuilds the registry generation and returns the
// textual tree. Every handle from the previous generation is invalidated
// by this call.
func (s *Session) GetAccessibilityTree() schemas.TreeResult {
	s.locator.Tick(s.page)
	tree, entries := s.builder.Build(s.page, s.reg)
	s.lastEntries = entries
	return tree
}

// Entries returns the element descriptions from the most recent snapshot.
func (s *Session) Entries() []schemas.ElementSnapshot {
	return s.lastEntries
}

// DrawSetOfMarks renders handle overlays for the current generation.
func (s *Session) DrawSetOfMarks() int {
	s.locator.Tick(s.page)
	return s.annotator.Draw(s.page, s.reg)
}

// ClearSetOfMarks removes all overlays.
func (s *Session) ClearSetOfMarks() int {
	s.locator.Tick(s.page)
	return s.annotator.Clear(s.page)
}

// WebAgentAction performs one primitive action against the current
// generation. Failures arrive as ActionResult messages, never as errors.
func (s *Session) WebAgentAction(req schemas.ActionRequest) schemas.ActionResult {
	s.locator.Tick(s.page)
	return s.executor.Execute(s.page, s.reg, req)
}

// FindAndHighlight locates a text snippet and highlights its matches.
func (s *Session) FindAndHighlight(searchText string) schemas.LocateResult {
	s.locator.Tick(s.page)
	return s.locator.Locate(s.page, searchText)
}
