// internal/dom/element.go
package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// ValueHook is the pair of accessors a UI framework layers over a form
// field's value property. When installed, SetValue routes through Set and
// Value routes through Get, exactly like a patched property descriptor.
// SetValueBypassingHooks reaches underneath it to the base storage, which is
// what a framework's own change detection observes once the matching input
// and change events are dispatched.
type ValueHook struct {
	Get func(el *Element, base string) string
	Set func(el *Element, v string)
}

// Element wraps a single element node and carries the live state the bare
// parse tree cannot: current field value, checked state, selection index,
// event listeners and any installed value hook.
type Element struct {
	node *html.Node
	doc  *Document

	value       string
	valueInit   bool
	checked     bool
	checkedInit bool
	selected    int
	selectInit  bool

	listeners map[string][]Listener
	hook      *ValueHook
}

// Node returns the underlying parse-tree node.
func (el *Element) Node() *html.Node { return el.node }

// Document returns the owning document.
func (el *Element) Document() *Document { return el.doc }

// Tag returns the lowercase tag name.
func (el *Element) Tag() string {
	return strings.ToLower(el.node.Data)
}

// Attr returns the value of the named attribute and whether it is present.
func (el *Element) Attr(name string) (string, bool) {
	for _, a := range el.node.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the attribute value or the fallback when absent.
func (el *Element) AttrOr(name, fallback string) string {
	if v, ok := el.Attr(name); ok {
		return v
	}
	return fallback
}

// HasAttr reports attribute presence regardless of value.
func (el *Element) HasAttr(name string) bool {
	_, ok := el.Attr(name)
	return ok
}

// SetAttr sets or replaces the named attribute.
func (el *Element) SetAttr(name, value string) {
	for i, a := range el.node.Attr {
		if strings.EqualFold(a.Key, name) {
			el.node.Attr[i].Val = value
			return
		}
	}
	el.node.Attr = append(el.node.Attr, html.Attribute{Key: strings.ToLower(name), Val: value})
}

// RemoveAttr deletes the named attribute if present.
func (el *Element) RemoveAttr(name string) {
	for i, a := range el.node.Attr {
		if strings.EqualFold(a.Key, name) {
			el.node.Attr = append(el.node.Attr[:i], el.node.Attr[i+1:]...)
			return
		}
	}
}

// ID returns the id attribute.
func (el *Element) ID() string { return el.AttrOr("id", "") }

// Type returns the lowercase type attribute, defaulting to "text" for
// inputs the way the platform does.
func (el *Element) Type() string {
	t := strings.ToLower(el.AttrOr("type", ""))
	if t == "" && el.Tag() == "input" {
		return "text"
	}
	return t
}

// Text returns the element's concatenated text content with surrounding
// whitespace trimmed and internal runs collapsed.
func (el *Element) Text() string {
	var sb strings.Builder
	collectText(el.node, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// SetText replaces all children with a single text node.
func (el *Element) SetText(s string) {
	for el.node.FirstChild != nil {
		el.node.RemoveChild(el.node.FirstChild)
	}
	el.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// baseValue lazily initializes the live value from the parsed markup.
func (el *Element) baseValue() string {
	if !el.valueInit {
		el.valueInit = true
		switch el.Tag() {
		case "textarea":
			el.value = el.Text()
		default:
			el.value = el.AttrOr("value", "")
		}
	}
	return el.value
}

// Value returns the field's current value, routed through an installed
// value hook when one exists.
func (el *Element) Value() string {
	base := el.baseValue()
	if el.hook != nil && el.hook.Get != nil {
		return el.hook.Get(el, base)
	}
	if el.Tag() == "select" {
		if opt := el.SelectedOption(); opt != nil {
			return opt.OptionValue()
		}
		return ""
	}
	return base
}

// SetValue assigns the field's value through an installed hook when one
// exists, mimicking a write to the patched property.
func (el *Element) SetValue(v string) {
	el.baseValue()
	if el.hook != nil && el.hook.Set != nil {
		el.hook.Set(el, v)
		return
	}
	el.value = v
}

// SetValueBypassingHooks writes the base value storage directly, skipping
// any installed hook. This is the native prototype setter.
func (el *Element) SetValueBypassingHooks(v string) {
	el.baseValue()
	el.value = v
}

// InstallValueHook installs framework-style value accessors. Passing nil
// removes a previously installed hook.
func (el *Element) InstallValueHook(h *ValueHook) {
	el.hook = h
}

// Checked reports the live checked state of a checkbox or radio input.
func (el *Element) Checked() bool {
	if !el.checkedInit {
		el.checkedInit = true
		el.checked = el.HasAttr("checked")
	}
	return el.checked
}

// SetChecked sets the live checked state.
func (el *Element) SetChecked(v bool) {
	el.Checked()
	el.checked = v
}

// IsDisabled reports whether the element carries a disabled attribute or an
// aria-disabled marker.
func (el *Element) IsDisabled() bool {
	if el.HasAttr("disabled") {
		return true
	}
	return strings.EqualFold(el.AttrOr("aria-disabled", ""), "true")
}

// ContentEditable reports whether the element is an editable region.
func (el *Element) ContentEditable() bool {
	v, ok := el.Attr("contenteditable")
	if !ok {
		return false
	}
	return v == "" || strings.EqualFold(v, "true") || strings.EqualFold(v, "plaintext-only")
}

// -- select element support --

// Options returns the option elements of a select in document order.
func (el *Element) Options() []*Element {
	var opts []*Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && strings.ToLower(c.Data) == "option" {
				opts = append(opts, el.doc.ElementFor(c))
				continue
			}
			walk(c)
		}
	}
	walk(el.node)
	return opts
}

// OptionValue returns an option's submit value: the value attribute when
// present, otherwise its visible text.
func (el *Element) OptionValue() string {
	if v, ok := el.Attr("value"); ok {
		return v
	}
	return el.Text()
}

// SelectedIndex returns the index of the currently selected option, or -1
// for a select with no options.
func (el *Element) SelectedIndex() int {
	opts := el.Options()
	if len(opts) == 0 {
		return -1
	}
	if !el.selectInit {
		el.selectInit = true
		el.selected = 0
		for i, o := range opts {
			if o.HasAttr("selected") {
				el.selected = i
				break
			}
		}
	}
	if el.selected >= len(opts) {
		return len(opts) - 1
	}
	return el.selected
}

// SetSelectedIndex sets the live selection. Out-of-range indexes are
// ignored.
func (el *Element) SetSelectedIndex(i int) {
	opts := el.Options()
	if i < 0 || i >= len(opts) {
		return
	}
	el.SelectedIndex()
	el.selected = i
}

// SelectedOption returns the currently selected option element, if any.
func (el *Element) SelectedOption() *Element {
	opts := el.Options()
	i := el.SelectedIndex()
	if i < 0 || i >= len(opts) {
		return nil
	}
	return opts[i]
}

// -- tree navigation --

// Parent returns the parent element, or nil at the tree root.
func (el *Element) Parent() *Element {
	for p := el.node.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return el.doc.ElementFor(p)
		}
	}
	return nil
}

// Closest walks ancestors (including the element itself) for the first
// element with the given tag.
func (el *Element) Closest(tag string) *Element {
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur.Tag() == tag {
			return cur
		}
	}
	return nil
}

// ClosestForm returns the containing form element, if any.
func (el *Element) ClosestForm() *Element {
	return el.Closest("form")
}

// AppendChild attaches a child element to this element.
func (el *Element) AppendChild(child *Element) {
	el.node.AppendChild(child.node)
}

// Remove detaches the element from its parent.
func (el *Element) Remove() {
	if el.node.Parent != nil {
		el.node.Parent.RemoveChild(el.node)
	}
}

// -- focus --

// Focus makes this element the document's active element, dispatching blur
// on the previous holder and focus here. Disabled elements refuse focus.
func (el *Element) Focus() {
	el.doc.setFocus(el)
}

// Blur removes focus if this element currently holds it.
func (el *Element) Blur() {
	if el.doc.active == el {
		el.doc.setFocus(nil)
	}
}

// Focused reports whether this element is the document's active element.
func (el *Element) Focused() bool {
	return el.doc.active == el
}

// -- events --

// AddEventListener registers a listener for the given event type.
func (el *Element) AddEventListener(typ string, fn Listener) {
	if el.listeners == nil {
		el.listeners = make(map[string][]Listener)
	}
	el.listeners[typ] = append(el.listeners[typ], fn)
}

// Dispatch delivers the event to this element's listeners and then bubbles
// it through ancestors. It returns false when a listener on a cancelable
// event called PreventDefault. Default actions for click on checkable
// inputs run after an uncanceled dispatch.
func (el *Element) Dispatch(ev *Event) bool {
	ev.Target = el
	el.invoke(ev)
	if ev.Bubbles && !ev.propagationStopped {
		for p := el.Parent(); p != nil; p = p.Parent() {
			p.invoke(ev)
			if ev.propagationStopped {
				break
			}
		}
	}
	if !ev.defaultPrevented {
		el.performDefault(ev)
	}
	return !ev.defaultPrevented
}

func (el *Element) invoke(ev *Event) {
	for _, fn := range el.listeners[ev.Type] {
		fn(ev)
		if ev.propagationStopped {
			return
		}
	}
}

// performDefault applies the platform default action for the handful of
// cases the engine depends on: toggling checkboxes and selecting radios.
func (el *Element) performDefault(ev *Event) {
	if ev.Type != EventClick || el.Tag() != "input" {
		return
	}
	switch el.Type() {
	case "checkbox":
		el.SetChecked(!el.Checked())
	case "radio":
		el.SetChecked(true)
		el.uncheckRadioGroup()
	}
}

func (el *Element) uncheckRadioGroup() {
	name := el.AttrOr("name", "")
	if name == "" {
		return
	}
	for _, other := range el.doc.QueryAll("//input[@type='radio']") {
		if other != el && other.AttrOr("name", "") == name {
			other.SetChecked(false)
		}
	}
}
