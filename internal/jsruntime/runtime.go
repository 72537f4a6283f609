// internal/jsruntime/runtime.go

// Package jsruntime hosts a Goja VM bound to the engine's document model.
// Its main job is letting tests and host scripts behave like the reactive
// UI frameworks the executor has to satisfy: installing value hooks over
// form fields, listening for synthetic events and reading engine state.
package jsruntime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/api/schemas"
	"github.com/xkilldash9x/pagepilot/internal/dom"
	"github.com/xkilldash9x/pagepilot/internal/engine"
)

// DefaultTimeout bounds script execution when the context has no deadline.
const DefaultTimeout = 30 * time.Second

// Runtime is one VM bound to one automation session.
type Runtime struct {
	vm      *goja.Runtime
	session *engine.Session
	log     *zap.Logger

	execMutex sync.Mutex
}

// NewRuntime builds a VM with document and automation bindings installed.
func NewRuntime(session *engine.Session, log *zap.Logger) (*Runtime, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runtime{
		vm:      goja.New(),
		session: session,
		log:     log.Named("jsruntime"),
	}
	if err := r.install(); err != nil {
		return nil, fmt.Errorf("installing bindings: %w", err)
	}
	return r, nil
}

// ExecuteScript runs a snippet in the VM, honoring context cancellation
// through Goja's interrupt mechanism. Only one script runs at a time.
func (r *Runtime) ExecuteScript(ctx context.Context, script string) (interface{}, error) {
	r.execMutex.Lock()
	defer r.execMutex.Unlock()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	// A watcher interrupts the VM when the context ends; RunString then
	// returns an InterruptedError. ClearInterrupt only runs once the
	// watcher has exited, so a late Interrupt cannot poison the next run.
	done := make(chan struct{})
	watcherExited := make(chan struct{})
	go func() {
		defer close(watcherExited)
		select {
		case <-ctx.Done():
			r.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	result, err := r.vm.RunString(script)
	close(done)
	<-watcherExited
	r.vm.ClearInterrupt()
	if err != nil {
		if _, ok := err.(*goja.InterruptedError); ok {
			return nil, fmt.Errorf("script interrupted: %w", ctx.Err())
		}
		if jsErr, ok := err.(*goja.Exception); ok {
			return nil, fmt.Errorf("script exception: %s", jsErr.String())
		}
		return nil, fmt.Errorf("script error: %w", err)
	}
	return result.Export(), nil
}

// install wires the global objects scripts see.
func (r *Runtime) install() error {
	doc := r.session.Page().Document()

	documentObj := r.vm.NewObject()
	if err := documentObj.Set("getElementById", func(id string) goja.Value {
		el := doc.GetElementByID(id)
		if el == nil {
			return goja.Null()
		}
		return r.wrapElement(el)
	}); err != nil {
		return err
	}
	if err := documentObj.Set("title", doc.Title()); err != nil {
		return err
	}
	if err := r.vm.Set("document", documentObj); err != nil {
		return err
	}

	// __installValueHook simulates a framework patching a field's value
	// property descriptor: subsequent normal writes route through the
	// given setter instead of the base storage.
	if err := r.vm.Set("__installValueHook", func(id string, setter goja.Callable) bool {
		el := doc.GetElementByID(id)
		if el == nil {
			return false
		}
		el.InstallValueHook(&dom.ValueHook{
			Set: func(target *dom.Element, v string) {
				if _, err := setter(goja.Undefined(), r.vm.ToValue(v)); err != nil {
					r.log.Warn("value hook setter failed", zap.Error(err))
				}
			},
		})
		return true
	}); err != nil {
		return err
	}

	automation := r.vm.NewObject()
	if err := automation.Set("getAccessibilityTree", func() map[string]interface{} {
		tr := r.session.GetAccessibilityTree()
		return map[string]interface{}{"tree": tr.Tree, "url": tr.URL, "title": tr.Title}
	}); err != nil {
		return err
	}
	if err := automation.Set("webAgentAction", func(handle, actionType, value string) map[string]interface{} {
		res := r.session.WebAgentAction(schemas.ActionRequest{
			Handle: handle, ActionType: actionType, Value: value,
		})
		return map[string]interface{}{
			"success": res.Success, "message": res.Message, "changed": res.Changed,
		}
	}); err != nil {
		return err
	}
	if err := automation.Set("findAndHighlight", func(text string) map[string]interface{} {
		res := r.session.FindAndHighlight(text)
		return map[string]interface{}{"found": res.Found, "matchCount": res.MatchCount}
	}); err != nil {
		return err
	}
	return r.vm.Set("automation", automation)
}

// wrapElement exposes one element to scripts with the accessors a
// framework would touch: value (through hooks), checked, textContent,
// attributes, focus and event listeners.
func (r *Runtime) wrapElement(el *dom.Element) goja.Value {
	obj := r.vm.NewObject()

	_ = obj.DefineAccessorProperty("value",
		r.vm.ToValue(func() string { return el.Value() }),
		r.vm.ToValue(func(v string) { el.SetValue(v) }),
		goja.FLAG_FALSE, goja.FLAG_TRUE)

	_ = obj.DefineAccessorProperty("checked",
		r.vm.ToValue(func() bool { return el.Checked() }),
		r.vm.ToValue(func(v bool) { el.SetChecked(v) }),
		goja.FLAG_FALSE, goja.FLAG_TRUE)

	_ = obj.DefineAccessorProperty("textContent",
		r.vm.ToValue(func() string { return el.Text() }),
		r.vm.ToValue(func(v string) { el.SetText(v) }),
		goja.FLAG_FALSE, goja.FLAG_TRUE)

	_ = obj.Set("tagName", strings.ToUpper(el.Tag()))
	_ = obj.Set("getAttribute", func(name string) goja.Value {
		v, ok := el.Attr(name)
		if !ok {
			return goja.Null()
		}
		return r.vm.ToValue(v)
	})
	_ = obj.Set("setAttribute", func(name, value string) { el.SetAttr(name, value) })
	_ = obj.Set("focus", func() { el.Focus() })
	_ = obj.Set("blur", func() { el.Blur() })

	_ = obj.Set("addEventListener", func(typ string, fn goja.Callable) {
		el.AddEventListener(typ, func(ev *dom.Event) {
			evObj := r.vm.NewObject()
			_ = evObj.Set("type", ev.Type)
			_ = evObj.Set("data", ev.Data)
			_ = evObj.Set("key", ev.Key)
			_ = evObj.Set("keyCode", ev.KeyCode)
			_ = evObj.Set("clientX", ev.ClientX)
			_ = evObj.Set("clientY", ev.ClientY)
			_ = evObj.Set("preventDefault", ev.PreventDefault)
			_ = evObj.Set("stopPropagation", ev.StopPropagation)
			if _, err := fn(obj, evObj); err != nil {
				r.log.Warn("event listener failed",
					zap.String("type", typ), zap.Error(err))
			}
		})
	})

	return obj
}
