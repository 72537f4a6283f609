// internal/jsruntime/runtime_test.go
package jsruntime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/api/schemas"
	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/internal/engine"
	"github.com/xkilldash9x/pagepilot/internal/page"
)

func newRuntime(t *testing.T, src string) (*Runtime, *engine.Session) {
	t.Helper()
	p, err := page.Load(src, "https://example.test", config.DefaultViewport())
	require.NoError(t, err)
	sess := engine.NewSession(p, config.DefaultEngine(), zap.NewNop())
	rt, err := NewRuntime(sess, zap.NewNop())
	require.NoError(t, err)
	return rt, sess
}

func TestScriptReadsAndWritesElements(t *testing.T) {
	rt, _ := newRuntime(t, `<html><body><input id="f" value="start"></body></html>`)

	out, err := rt.ExecuteScript(context.Background(), `
		var el = document.getElementById('f');
		var before = el.value;
		el.value = 'changed';
		before + ':' + el.value;
	`)
	require.NoError(t, err)
	assert.Equal(t, "start:changed", out)
}

func TestScriptDrivesAutomation(t *testing.T) {
	rt, _ := newRuntime(t, `<html><body><button>Go</button></body></html>`)

	out, err := rt.ExecuteScript(context.Background(), `
		automation.getAccessibilityTree();
		var res = automation.webAgentAction('e0', 'click', '');
		res.success;
	`)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestScriptExceptionIsWrapped(t *testing.T) {
	rt, _ := newRuntime(t, `<html><body></body></html>`)

	_, err := rt.ExecuteScript(context.Background(), `throw new Error("boom");`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script exception")
	assert.Contains(t, err.Error(), "boom")
}

func TestScriptInterruptedByContext(t *testing.T) {
	rt, _ := newRuntime(t, `<html><body></body></html>`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := rt.ExecuteScript(ctx, `for(;;){}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
}

func TestRuntimeUsableAfterInterrupt(t *testing.T) {
	rt, _ := newRuntime(t, `<html><body></body></html>`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := rt.ExecuteScript(ctx, `for(;;){}`)
	require.Error(t, err)

	// The interrupt must be fully cleared before the next run.
	v, err := rt.ExecuteScript(context.Background(), `1 + 1`)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v)
}

// TestFrameworkSimulationStaysConsistent is the compatibility story end to
// end: a script installs a framework-style value hook plus event listeners
// over a field, the executor types through the native setter, and the
// framework still observes the final value via the dispatched events.
func TestFrameworkSimulationStaysConsistent(t *testing.T) {
	rt, sess := newRuntime(t, `<html><body><input id="f"></body></html>`)

	_, err := rt.ExecuteScript(context.Background(), `
		var state = { hookWrites: 0, observed: null };
		__installValueHook('f', function(v) { state.hookWrites++; });
		var el = document.getElementById('f');
		el.addEventListener('textinput', function(ev) { state.observed = ev.data; });
	`)
	require.NoError(t, err)

	sess.GetAccessibilityTree()
	res := sess.WebAgentAction(schemas.ActionRequest{
		Handle: "e0", ActionType: "type", Value: "framework-safe",
	})
	require.True(t, res.Success, res.Message)

	out, err := rt.ExecuteScript(context.Background(),
		`state.hookWrites + ':' + state.observed;`)
	require.NoError(t, err)
	assert.Equal(t, "0:framework-safe", out,
		"typing bypassed the hook but the event carried the value")

	// A normal scripted write still routes through the hook.
	_, err = rt.ExecuteScript(context.Background(),
		`document.getElementById('f').value = 'scripted';`)
	require.NoError(t, err)
	out, err = rt.ExecuteScript(context.Background(), `state.hookWrites;`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), out)
}

func TestMissingElementIsNull(t *testing.T) {
	rt, _ := newRuntime(t, `<html><body></body></html>`)
	out, err := rt.ExecuteScript(context.Background(),
		`document.getElementById('nope') === null;`)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}
