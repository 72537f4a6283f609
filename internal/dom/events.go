// internal/dom/events.go
package dom

// Event types dispatched by the engine. Kept as constants so the per-action
// event sequences read as explicit ordered lists at the call sites.
const (
	EventPointerDown = "pointerdown"
	EventPointerUp   = "pointerup"
	EventClick       = "click"
	EventInput       = "input"
	EventChange      = "change"
	EventFocus       = "focus"
	EventBlur        = "blur"
	EventMouseEnter  = "mouseenter"
	EventMouseOver   = "mouseover"
	EventMouseMove   = "mousemove"
	EventTextInput   = "textinput"
	EventKeyDown     = "keydown"
	EventKeyPress    = "keypress"
	EventKeyUp       = "keyup"
	EventSubmit      = "submit"
)

// Event is a synthetic DOM event. Fields mirror the subset of the platform
// event interfaces the engine actually synthesizes: key identity for keyboard
// events, client coordinates for mouse events and an input data payload.
type Event struct {
	Type       string
	Bubbles    bool
	Cancelable bool

	Key     string
	KeyCode int
	ClientX float64
	ClientY float64
	Data    string

	Target *Element

	defaultPrevented   bool
	propagationStopped bool
}

// NewEvent returns a bubbling, non-cancelable event of the given type.
func NewEvent(typ string) *Event {
	return &Event{Type: typ, Bubbles: true}
}

// PreventDefault marks the event's default action as suppressed. It has no
// effect on events created with Cancelable false.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.defaultPrevented = true
	}
}

// StopPropagation stops the event from bubbling past the current element.
func (e *Event) StopPropagation() {
	e.propagationStopped = true
}

// DefaultPrevented reports whether PreventDefault was called on a cancelable
// event.
func (e *Event) DefaultPrevented() bool {
	return e.defaultPrevented
}

// Listener receives a dispatched event.
type Listener func(*Event)
