// internal/dom/dom_test.go
package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestElementIdentityMap(t *testing.T) {
	doc := MustParse(`<html><body><button id="b">Go</button></body></html>`)

	a := doc.GetElementByID("b")
	require.NotNil(t, a)
	b := doc.QueryOne("//button")
	require.NotNil(t, b)

	assert.Same(t, a, b, "the same node must always yield the same wrapper")
}

func TestAttrRoundTrip(t *testing.T) {
	doc := MustParse(`<html><body><input id="f" type="email" value="x@y.z"></body></html>`)
	el := doc.GetElementByID("f")
	require.NotNil(t, el)

	assert.Equal(t, "input", el.Tag())
	assert.Equal(t, "email", el.Type())

	v, ok := el.Attr("value")
	assert.True(t, ok)
	assert.Equal(t, "x@y.z", v)

	el.SetAttr("data-ref", "e3")
	assert.Equal(t, "e3", el.AttrOr("data-ref", ""))

	el.RemoveAttr("data-ref")
	assert.False(t, el.HasAttr("data-ref"))
}

func TestTextCollapsesWhitespaceAndSkipsScripts(t *testing.T) {
	doc := MustParse(`<html><body><div id="d">
		Hello   <b>big</b>
		world<script>ignored()</script>
	</div></body></html>`)

	assert.Equal(t, "Hello big world", doc.GetElementByID("d").Text())
}

func TestValueLazyInitFromMarkup(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"input value attr", `<input id="f" value="seed">`, "seed"},
		{"input no value", `<input id="f">`, ""},
		{"textarea content", `<textarea id="f">seed text</textarea>`, "seed text"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := MustParse(`<html><body>` + tc.html + `</body></html>`)
			assert.Equal(t, tc.want, doc.GetElementByID("f").Value())
		})
	}
}

func TestValueHookInterceptsWrites(t *testing.T) {
	doc := MustParse(`<html><body><input id="f"></body></html>`)
	el := doc.GetElementByID("f")

	var hookSaw []string
	el.InstallValueHook(&ValueHook{
		Set: func(el *Element, v string) {
			hookSaw = append(hookSaw, v)
			// A framework setter typically does not write the base field.
		},
	})

	el.SetValue("intercepted")
	assert.Equal(t, []string{"intercepted"}, hookSaw)
	assert.Equal(t, "", el.baseValue(), "hooked write must not reach base storage")

	el.SetValueBypassingHooks("direct")
	assert.Empty(t, hookSaw[1:], "bypass must not re-enter the hook")
	assert.Equal(t, "direct", el.baseValue())

	el.InstallValueHook(nil)
	assert.Equal(t, "direct", el.Value())
}

func TestDispatchBubblesAndStops(t *testing.T) {
	doc := MustParse(`<html><body><div id="outer"><div id="inner"><a id="leaf" href="/x">go</a></div></div></body></html>`)
	leaf := doc.GetElementByID("leaf")
	inner := doc.GetElementByID("inner")
	outer := doc.GetElementByID("outer")

	var order []string
	leaf.AddEventListener(EventClick, func(*Event) { order = append(order, "leaf") })
	inner.AddEventListener(EventClick, func(ev *Event) {
		order = append(order, "inner")
		ev.StopPropagation()
	})
	outer.AddEventListener(EventClick, func(*Event) { order = append(order, "outer") })

	leaf.Dispatch(&Event{Type: EventClick, Bubbles: true, Cancelable: true})
	assert.Equal(t, []string{"leaf", "inner"}, order)
}

func TestDispatchPreventDefault(t *testing.T) {
	doc := MustParse(`<html><body><button id="b">x</button></body></html>`)
	el := doc.GetElementByID("b")

	el.AddEventListener(EventClick, func(ev *Event) { ev.PreventDefault() })
	ok := el.Dispatch(&Event{Type: EventClick, Bubbles: true, Cancelable: true})
	assert.False(t, ok)

	// Non-cancelable events ignore PreventDefault.
	el.AddEventListener(EventInput, func(ev *Event) { ev.PreventDefault() })
	ok = el.Dispatch(&Event{Type: EventInput, Bubbles: true})
	assert.True(t, ok)
}

func TestClickDefaultTogglesCheckbox(t *testing.T) {
	doc := MustParse(`<html><body><input id="c" type="checkbox"></body></html>`)
	el := doc.GetElementByID("c")

	require.False(t, el.Checked())
	el.Dispatch(&Event{Type: EventClick, Bubbles: true, Cancelable: true})
	assert.True(t, el.Checked())
	el.Dispatch(&Event{Type: EventClick, Bubbles: true, Cancelable: true})
	assert.False(t, el.Checked())
}

func TestClickDefaultSelectsRadioGroup(t *testing.T) {
	doc := MustParse(`<html><body>
		<input id="a" type="radio" name="g" checked>
		<input id="b" type="radio" name="g">
	</body></html>`)
	a := doc.GetElementByID("a")
	b := doc.GetElementByID("b")

	require.True(t, a.Checked())
	b.Dispatch(&Event{Type: EventClick, Bubbles: true, Cancelable: true})
	assert.True(t, b.Checked())
	assert.False(t, a.Checked())
}

func TestSelectOptionsAndSelection(t *testing.T) {
	doc := MustParse(`<html><body><select id="s">
		<option value="us">United States</option>
		<option value="de" selected>Germany</option>
		<option>France</option>
	</select></body></html>`)
	sel := doc.GetElementByID("s")

	opts := sel.Options()
	require.Len(t, opts, 3)
	assert.Equal(t, "us", opts[0].OptionValue())
	assert.Equal(t, "France", opts[2].OptionValue(), "option without value falls back to text")

	assert.Equal(t, 1, sel.SelectedIndex())
	assert.Equal(t, "de", sel.Value())

	sel.SetSelectedIndex(2)
	assert.Equal(t, "France", sel.Value())

	sel.SetSelectedIndex(99)
	assert.Equal(t, 2, sel.SelectedIndex(), "out of range writes are ignored")
}

func TestFocusDispatchesBlurAndFocus(t *testing.T) {
	doc := MustParse(`<html><body><input id="a"><input id="b"><input id="c" disabled></body></html>`)
	a := doc.GetElementByID("a")
	b := doc.GetElementByID("b")
	c := doc.GetElementByID("c")

	var order []string
	a.AddEventListener(EventFocus, func(*Event) { order = append(order, "focus a") })
	a.AddEventListener(EventBlur, func(*Event) { order = append(order, "blur a") })
	b.AddEventListener(EventFocus, func(*Event) { order = append(order, "focus b") })

	a.Focus()
	b.Focus()
	assert.Equal(t, []string{"focus a", "blur a", "focus b"}, order)
	assert.Same(t, b, doc.ActiveElement())

	c.Focus()
	assert.Same(t, b, doc.ActiveElement(), "disabled elements refuse focus")

	b.Blur()
	assert.Nil(t, doc.ActiveElement())
}

func TestClosestForm(t *testing.T) {
	doc := MustParse(`<html><body><form id="f"><div><input id="i"></div></form><input id="o"></body></html>`)
	in := doc.GetElementByID("i")
	out := doc.GetElementByID("o")

	form := in.ClosestForm()
	require.NotNil(t, form)
	assert.Equal(t, "f", form.ID())
	assert.Nil(t, out.ClosestForm())
}

func TestWrapAndUnwrapTextRange(t *testing.T) {
	doc := MustParse(`<html><body><p id="p">the quick brown fox</p></body></html>`)
	p := doc.GetElementByID("p")

	nodes := doc.TextNodes()
	require.Len(t, nodes, 1)

	w := doc.WrapTextRange(nodes[0], 4, 9, "span", "hl")
	require.NotNil(t, w)
	assert.Equal(t, "quick", w.Text())
	assert.Equal(t, "the quick brown fox", p.Text(), "visible text is unchanged")

	removed := doc.UnwrapAll("hl")
	assert.Equal(t, 1, removed)
	assert.Equal(t, "the quick brown fox", p.Text())

	// The split text nodes are merged back into one.
	assert.Len(t, doc.TextNodes(), 1)
}

func TestWalkSkipsSubtreeNotTraversal(t *testing.T) {
	doc := MustParse(`<html><head><title>T</title></head><body>
		<div id="skipme"><span>inside</span></div>
		<p id="after">after</p>
	</body></html>`)

	var visited []string
	Walk(doc.Root(), func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		visited = append(visited, n.Data)
		return n.Data != "div"
	})

	// Skipping the div must not stop the walk from reaching its siblings.
	assert.NotContains(t, visited, "span")
	assert.Contains(t, visited, "p")
}

func TestTextNodesReachPastTheHead(t *testing.T) {
	doc := MustParse(`<html><head><title>Title text</title></head><body>
		<p>the quick brown fox</p>
	</body></html>`)

	var texts []string
	for _, n := range doc.TextNodes() {
		texts = append(texts, strings.TrimSpace(n.Data))
	}
	assert.Contains(t, texts, "the quick brown fox")
	assert.NotContains(t, texts, "Title text")
}

func TestTextNodesSkipHiddenContainers(t *testing.T) {
	doc := MustParse(`<html><head><style>.x{}</style></head><body>
		<p>visible</p><script>var a = "not text";</script>
	</body></html>`)

	var texts []string
	for _, n := range doc.TextNodes() {
		texts = append(texts, n.Data)
	}
	assert.NotContains(t, texts, `var a = "not text";`)
	assert.NotContains(t, texts, ".x{}")
}

func TestContentEditable(t *testing.T) {
	doc := MustParse(`<html><body>
		<div id="a" contenteditable></div>
		<div id="b" contenteditable="true"></div>
		<div id="c" contenteditable="false"></div>
		<div id="d"></div>
	</body></html>`)

	assert.True(t, doc.GetElementByID("a").ContentEditable())
	assert.True(t, doc.GetElementByID("b").ContentEditable())
	assert.False(t, doc.GetElementByID("c").ContentEditable())
	assert.False(t, doc.GetElementByID("d").ContentEditable())
}
