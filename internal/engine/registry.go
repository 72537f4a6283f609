// internal/engine/registry.go
package engine

import (
	"fmt"

	"github.com/xkilldash9x/pagepilot/internal/dom"
)

// HandleAttr is the marker attribute written onto every registered element
// so overlays and scripts can find it by handle.
const HandleAttr = "data-pilot-ref"

// Registry is the handle to element map for one snapshot generation. It is
// only ever replaced wholesale: a handle is meaningful solely against the
// generation that issued it, and acting on a stale handle must fail rather
// than silently resolve to a different element.
type Registry struct {
	entries    map[string]*dom.Element
	order      []string
	generation int
}

// NewRegistry returns an empty registry at generation zero.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*dom.Element)}
}

// Replace discards the previous generation entirely, strips the old handle
// markers from their elements, assigns fresh handles to els in the given
// order and writes the new markers. It returns the assigned handles.
func (r *Registry) Replace(els []*dom.Element) []string {
	for _, el := range r.entries {
		el.RemoveAttr(HandleAttr)
	}
	r.entries = make(map[string]*dom.Element, len(els))
	r.order = make([]string, 0, len(els))
	for i, el := range els {
		handle := fmt.Sprintf("e%d", i)
		r.entries[handle] = el
		r.order = append(r.order, handle)
		el.SetAttr(HandleAttr, handle)
	}
	r.generation++
	return r.order
}

// Resolve returns the element for a handle in the current generation.
// Handles from any earlier generation are always absent.
func (r *Registry) Resolve(handle string) (*dom.Element, bool) {
	el, ok := r.entries[handle]
	return el, ok
}

// Generation returns the number of Replace calls so far.
func (r *Registry) Generation() int { return r.generation }

// Len returns the number of registered elements.
func (r *Registry) Len() int { return len(r.entries) }

// Handles returns the current generation's handles in assignment order.
func (r *Registry) Handles() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Sample returns up to n handles in assignment order, used to give a
// caller holding a stale handle something current to self-correct with.
func (r *Registry) Sample(n int) []string {
	if n > len(r.order) {
		n = len(r.order)
	}
	out := make([]string, n)
	copy(out, r.order[:n])
	return out
}
