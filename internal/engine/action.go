// internal/engine/action.go
package engine

import (
	"fmt"
)

// ActionKind is the closed set of primitive actions. Dispatch over it is an
// exhaustive switch, so adding a kind is a compile-time-checked change.
type ActionKind int

const (
	ActionClick ActionKind = iota
	ActionType
	ActionClear
	ActionSelect
	ActionHover
	ActionPressKey
	ActionScrollPage
)

var actionNames = map[ActionKind]string{
	ActionClick:      "click",
	ActionType:       "type",
	ActionClear:      "clear",
	ActionSelect:     "select",
	ActionHover:      "hover",
	ActionPressKey:   "press_key",
	ActionScrollPage: "scroll_page",
}

func (k ActionKind) String() string {
	if n, ok := actionNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// ParseActionKind maps a wire action type to its kind.
func ParseActionKind(s string) (ActionKind, error) {
	for k, n := range actionNames {
		if n == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// NeedsHandle reports whether the action kind requires a resolved element.
// Key presses fall back to the focused element and page scrolls never
// target one.
func (k ActionKind) NeedsHandle() bool {
	switch k {
	case ActionPressKey, ActionScrollPage:
		return false
	}
	return true
}
