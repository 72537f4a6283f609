// internal/engine/resolver.go
package engine

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/pagepilot/internal/dom"
)

// Role derives an ARIA-style role for an element. An explicit role
// attribute wins; otherwise a fixed tag table applies.
func Role(el *dom.Element) string {
	if r := strings.TrimSpace(el.AttrOr("role", "")); r != "" {
		return strings.ToLower(r)
	}
	switch el.Tag() {
	case "a":
		if el.HasAttr("href") {
			return "link"
		}
	case "button":
		return "button"
	case "select":
		return "combobox"
	case "textarea":
		return "textbox"
	case "summary":
		return "button"
	case "input":
		switch el.Type() {
		case "checkbox":
			return "checkbox"
		case "radio":
			return "radio"
		case "search":
			return "searchbox"
		case "submit", "button", "reset", "image":
			return "button"
		case "range":
			return "slider"
		default:
			return "textbox"
		}
	}
	if el.ContentEditable() {
		return "textbox"
	}
	return el.Tag()
}

// nameStrategy is one source in the accessible name priority chain. The
// first strategy returning a non-empty string wins.
type nameStrategy struct {
	name string
	get  func(el *dom.Element) string
}

var nameStrategies = []nameStrategy{
	{"aria-label", func(el *dom.Element) string {
		return strings.TrimSpace(el.AttrOr("aria-label", ""))
	}},
	{"aria-labelledby", func(el *dom.Element) string {
		var parts []string
		for _, id := range strings.Fields(el.AttrOr("aria-labelledby", "")) {
			if ref := el.Document().GetElementByID(id); ref != nil {
				if t := ref.Text(); t != "" {
					parts = append(parts, t)
				}
			}
		}
		return strings.Join(parts, " ")
	}},
	{"title", func(el *dom.Element) string {
		return strings.TrimSpace(el.AttrOr("title", ""))
	}},
	{"placeholder", func(el *dom.Element) string {
		if !isFormField(el) {
			return ""
		}
		return strings.TrimSpace(el.AttrOr("placeholder", ""))
	}},
	{"label-for", func(el *dom.Element) string {
		if !isFormField(el) {
			return ""
		}
		id := el.ID()
		if id == "" {
			return ""
		}
		for _, lbl := range el.Document().QueryAll("//label[@for='" + id + "']") {
			if t := lbl.Text(); t != "" {
				return t
			}
		}
		return ""
	}},
	{"text-content", func(el *dom.Element) string {
		return el.Text()
	}},
	{"value-attr", func(el *dom.Element) string {
		// Submit buttons render their value attribute as the label.
		if el.Tag() == "input" {
			switch el.Type() {
			case "submit", "button", "reset":
				return strings.TrimSpace(el.AttrOr("value", ""))
			}
		}
		return ""
	}},
}

// AccessibleName resolves the element's name through the strategy chain,
// truncated to maxLen characters.
func AccessibleName(el *dom.Element, maxLen int) string {
	for _, s := range nameStrategies {
		if v := s.get(el); v != "" {
			return truncate(v, maxLen)
		}
	}
	return ""
}

// isFormField reports whether the element takes the form-field branches of
// name resolution and snapshot filtering.
func isFormField(el *dom.Element) bool {
	switch el.Tag() {
	case "input", "textarea", "select":
		return true
	}
	return el.ContentEditable()
}

// isTextCapable reports whether type and clear apply to the element.
func isTextCapable(el *dom.Element) bool {
	switch el.Tag() {
	case "textarea":
		return true
	case "input":
		switch el.Type() {
		case "checkbox", "radio", "submit", "button", "reset", "image", "file":
			return false
		}
		return true
	}
	return false
}

// StateFlags reports the element's live state: focus, checked, disabled,
// the ARIA expanded and selected markers, and a truncated value preview
// for non-secret fields.
func StateFlags(el *dom.Element, previewLen int) []string {
	var flags []string
	if el.Focused() {
		flags = append(flags, "focused")
	}
	if el.Tag() == "input" {
		switch el.Type() {
		case "checkbox", "radio":
			if el.Checked() {
				flags = append(flags, "checked")
			}
		}
	}
	if el.IsDisabled() {
		flags = append(flags, "disabled")
	}
	if strings.EqualFold(el.AttrOr("aria-expanded", ""), "true") {
		flags = append(flags, "expanded")
	}
	if strings.EqualFold(el.AttrOr("aria-selected", ""), "true") {
		flags = append(flags, "selected")
	}
	if preview := valuePreview(el, previewLen); preview != "" {
		flags = append(flags, preview)
	}
	return flags
}

func valuePreview(el *dom.Element, previewLen int) string {
	if !isFormField(el) || el.Type() == "password" {
		return ""
	}
	var v string
	if el.ContentEditable() {
		v = el.Text()
	} else {
		v = el.Value()
	}
	if v == "" {
		return ""
	}
	return fmt.Sprintf("value=%q", truncate(v, previewLen))
}

// TagHint returns the lowercase tag plus the type attribute for inputs,
// used to disambiguate elements sharing a role.
func TagHint(el *dom.Element) string {
	if el.Tag() == "input" {
		return "input " + el.Type()
	}
	return el.Tag()
}

// truncate caps s at n characters, never splitting a multibyte rune.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
