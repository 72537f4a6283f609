// internal/engine/executor.go
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

// namedKey pairs a key identity with its legacy key code.
type namedKey struct {
	Key  string
	Code int
}

// namedKeys is the fixed set of keys press_key synthesizes.
var namedKeys = map[string]namedKey{
	"enter":     {"Enter", 13},
	"tab":       {"Tab", 9},
	"escape":    {"Escape", 27},
	"backspace": {"Backspace", 8},
	"space":     {" ", 32},
	"arrowup":   {"ArrowUp", 38},
	"arrowdown": {"ArrowDown", 40},
}

// Executor performs one primitive action against a registered element. All
// failures, including panics from the interaction primitives, are folded
// into the returned ActionResult; nothing propagates past Execute.
type Executor struct {
	cfg config.EngineConfig
	log *zap.Logger
}

// NewExecutor returns an executor with the given tuning.
func NewExecutor(cfg config.EngineConfig, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{cfg: cfg, log: log.Named("executor")}
}

// Execute resolves the request's handle against the registry and performs
// the action.
func (x *Executor) Execute(p *page.Page, reg *Registry, req schemas.ActionRequest) (result schemas.ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			err := &ExecutionError{Action: req.ActionType, Handle: req.Handle, Err: fmt.Errorf("%v", r)}
			x.log.Error("action panicked", zap.String("action", req.ActionType), zap.Any("panic", r))
			result = failure(err.Error())
		}
	}()

	kind, err := ParseActionKind(req.ActionType)
	if err != nil {
		return failure(err.Error())
	}

	var el *dom.Element
	if req.Handle != "" {
		var ok bool
		el, ok = reg.Resolve(req.Handle)
		if !ok {
			return failure(fmt.Sprintf(
				"%s: handle %q is not in the current snapshot; valid handles include %v. Request a fresh snapshot and retry.",
				ErrNotFound, req.Handle, reg.Sample(x.cfg.HandleSampleSize)))
		}
	} else if kind.NeedsHandle() {
		return failure(fmt.Sprintf("%s: action %q requires a handle", ErrNotFound, kind))
	}

	x.log.Debug("executing action",
		zap.String("action", kind.String()),
		zap.String("handle", req.Handle))

	switch kind {
	case ActionClick:
		return x.click(p, el)
	case ActionType:
		return x.typeText(p, el, req.Value)
	case ActionClear:
		return x.typeText(p, el, "")
	case ActionSelect:
		return x.selectOption(p, el, req.Value)
	case ActionHover:
		return x.hover(p, el)
	case ActionPressKey:
		return x.pressKey(p, el, req.Value)
	case ActionScrollPage:
		return x.scrollPage(p, req.Value)
	}
	return failure(fmt.Sprintf("%v: %q", ErrUnknownAction, req.ActionType))
}

// click scrolls the element into view, focuses it and dispatches the
// pointer-down, pointer-up, click sequence. The three near-duplicate
// events are a cross-framework compatibility requirement: native widgets
// react to click while intercepted-event frameworks listen on the pointer
// phases.
func (x *Executor) click(p *page.Page, el *dom.Element) schemas.ActionResult {
	if !p.InViewport(el) {
		p.ScrollIntoView(el)
	}
	el.Focus()

	cx, cy := elementCenter(p, el)
	el.Dispatch(&dom.Event{Type: dom.EventPointerDown, Bubbles: true, Cancelable: true, ClientX: cx, ClientY: cy})
	el.Dispatch(&dom.Event{Type: dom.EventPointerUp, Bubbles: true, Cancelable: true, ClientX: cx, ClientY: cy})
	el.Dispatch(&dom.Event{Type: dom.EventClick, Bubbles: true, Cancelable: true, ClientX: cx, ClientY: cy})

	name := AccessibleName(el, x.cfg.MaxNameLength)
	return success(fmt.Sprintf("Clicked %q.", name), true)
}

// typeText writes the value through the native setter, bypassing any
// framework-installed accessor, then fires input, change and a
// data-carrying textinput event so the framework's change detection
// observes the update anyway. Content-editable regions take the text
// directly.
func (x *Executor) typeText(p *page.Page, el *dom.Element, value string) schemas.ActionResult {
	switch {
	case isTextCapable(el):
		el.Focus()
		el.SetValueBypassingHooks(value)
		el.Dispatch(&dom.Event{Type: dom.EventInput, Bubbles: true})
		el.Dispatch(&dom.Event{Type: dom.EventChange, Bubbles: true})
		el.Dispatch(&dom.Event{Type: dom.EventTextInput, Bubbles: true, Data: value})
	case el.ContentEditable():
		el.Focus()
		el.SetText(value)
		p.Invalidate()
		el.Dispatch(&dom.Event{Type: dom.EventInput, Bubbles: true, Data: value})
	default:
		return failure(fmt.Sprintf("%s: cannot type into <%s>", ErrWrongElementKind, el.Tag()))
	}

	if value == "" {
		return success("Cleared field.", true)
	}
	return success(fmt.Sprintf("Typed %q.", truncate(value, x.cfg.ValuePreviewLength)), true)
}

// optionMatcher is one strategy in the select matching chain. Strategies
// run in order over all options; the first hit wins.
type optionMatcher struct {
	name  string
	match func(opt *dom.Element, want string) bool
}

var optionMatchers = []optionMatcher{
	{"exact-value", func(opt *dom.Element, want string) bool {
		return opt.OptionValue() == want
	}},
	{"exact-text", func(opt *dom.Element, want string) bool {
		return opt.Text() == want
	}},
	{"substring-text", func(opt *dom.Element, want string) bool {
		return strings.Contains(strings.ToLower(opt.Text()), strings.ToLower(want))
	}},
}

func (x *Executor) selectOption(p *page.Page, el *dom.Element, value string) schemas.ActionResult {
	if el.Tag() != "select" {
		return failure(fmt.Sprintf("%s: cannot select an option on <%s>", ErrWrongElementKind, el.Tag()))
	}

	opts := el.Options()
	for _, m := range optionMatchers {
		for i, opt := range opts {
			if !m.match(opt, value) {
				continue
			}
			el.Focus()
			el.SetSelectedIndex(i)
			el.Dispatch(&dom.Event{Type: dom.EventChange, Bubbles: true})
			el.Dispatch(&dom.Event{Type: dom.EventInput, Bubbles: true})
			return success(fmt.Sprintf("Selected %q.", opt.Text()), true)
		}
	}
	return failure(fmt.Sprintf("%s: no option matched %q", ErrOptionNotFound, value))
}

// hover dispatches the mouse-enter, mouse-over, mouse-move sequence at the
// element's center point.
func (x *Executor) hover(p *page.Page, el *dom.Element) schemas.ActionResult {
	cx, cy := elementCenter(p, el)
	el.Dispatch(&dom.Event{Type: dom.EventMouseEnter, ClientX: cx, ClientY: cy})
	el.Dispatch(&dom.Event{Type: dom.EventMouseOver, Bubbles: true, ClientX: cx, ClientY: cy})
	el.Dispatch(&dom.Event{Type: dom.EventMouseMove, Bubbles: true, ClientX: cx, ClientY: cy})
	return success(fmt.Sprintf("Hovering over %q.", AccessibleName(el, x.cfg.MaxNameLength)), false)
}

// pressKey synthesizes a keydown, keypress, keyup triple for one of the
// named keys, targeting the resolved element or whatever holds focus.
// Enter inside a form additionally attempts a submit, preferring an
// explicit submit button over a bare submit event.
func (x *Executor) pressKey(p *page.Page, el *dom.Element, keyName string) schemas.ActionResult {
	key, ok := namedKeys[strings.ToLower(strings.TrimSpace(keyName))]
	if !ok {
		return failure(fmt.Sprintf("unsupported key %q", keyName))
	}

	target := el
	if target == nil {
		target = p.Document().ActiveElement()
	}
	if target == nil {
		return failure(fmt.Sprintf("%s: no element holds focus for key press", ErrNotFound))
	}

	target.Dispatch(&dom.Event{Type: dom.EventKeyDown, Bubbles: true, Cancelable: true, Key: key.Key, KeyCode: key.Code})
	target.Dispatch(&dom.Event{Type: dom.EventKeyPress, Bubbles: true, Cancelable: true, Key: key.Key, KeyCode: key.Code})
	target.Dispatch(&dom.Event{Type: dom.EventKeyUp, Bubbles: true, Key: key.Key, KeyCode: key.Code})

	if key.Code == 32 && target.Tag() == "input" {
		switch target.Type() {
		case "checkbox", "radio":
			target.Dispatch(&dom.Event{Type: dom.EventClick, Bubbles: true, Cancelable: true})
		}
	}

	if key.Code == 13 && isFormField(target) {
		if form := target.ClosestForm(); form != nil {
			x.submitForm(p, form)
		}
	}
	return success(fmt.Sprintf("Pressed %s.", key.Key), true)
}

// submitForm clicks the form's explicit submit control when one exists,
// falling back to dispatching submit on the form itself.
func (x *Executor) submitForm(p *page.Page, form *dom.Element) {
	for _, el := range formControls(form) {
		if isSubmitControl(el) {
			x.click(p, el)
			return
		}
	}
	if form.Dispatch(&dom.Event{Type: dom.EventSubmit, Bubbles: true, Cancelable: true}) {
		p.RecordNavigation(form.AttrOr("action", p.URL()))
	}
}

func formControls(form *dom.Element) []*dom.Element {
	var out []*dom.Element
	doc := form.Document()
	for _, el := range doc.QueryAll("//button | //input") {
		if el.ClosestForm() == form {
			out = append(out, el)
		}
	}
	return out
}

func isSubmitControl(el *dom.Element) bool {
	switch el.Tag() {
	case "button":
		t := strings.ToLower(el.AttrOr("type", "submit"))
		return t == "submit" || t == ""
	case "input":
		return el.Type() == "submit"
	}
	return false
}

// scrollPage moves the viewport by a fraction of its height. When the page
// is already at the requested boundary it says so instead of performing a
// meaningless scroll.
func (x *Executor) scrollPage(p *page.Page, direction string) schemas.ActionResult {
	dir := strings.ToLower(strings.TrimSpace(direction))
	if dir == "" {
		dir = "down"
	}

	delta := x.cfg.ScrollFraction * p.Viewport().Height
	switch dir {
	case "down":
		if p.ScrollY() >= p.MaxScroll() {
			return success("Already at the bottom of the page.", false)
		}
		p.ScrollBy(delta)
	case "up":
		if p.ScrollY() <= 0 {
			return success("Already at the top of the page.", false)
		}
		p.ScrollBy(-delta)
	default:
		return failure(fmt.Sprintf("unsupported scroll direction %q", direction))
	}

	progress := 100.0
	if max := p.MaxScroll(); max > 0 {
		progress = p.ScrollY() / max * 100
	}
	return success(fmt.Sprintf("Scrolled %s; now at %.0f%% of the page.", dir, progress), true)
}

func elementCenter(p *page.Page, el *dom.Element) (float64, float64) {
	r, ok := p.ViewportRectOf(el)
	if !ok {
		return 0, 0
	}
	return r.Center()
}

func success(msg string, changed bool) schemas.ActionResult {
	return schemas.ActionResult{Success: true, Message: msg, Changed: changed}
}

func failure(msg string) schemas.ActionResult {
	return schemas.ActionResult{Success: false, Message: msg}
}
