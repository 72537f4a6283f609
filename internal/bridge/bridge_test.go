// File: internal/bridge/bridge_test.go
package bridge

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/xkilldash9x/pagepilot/api/schemas"
	"github.com/xkilldash9x/pagepilot/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const loginPage = `<html><head><title>Login</title></head><body>
<input type="text" aria-label="Username">
<button>Sign in</button>
</body></html>`

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	return NewRouter(config.NewDefaultConfig(), nil)
}

func rawParams(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func openSession(t *testing.T, r *Router) string {
	t.Helper()
	resp := r.Dispatch(CommandRequest{
		Command: "open_session",
		Params:  rawParams(t, OpenParams{HTML: loginPage, URL: "https://example.test/login"}),
	})
	require.Equal(t, "success", resp.Status, resp.Error)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestOpenSessionAssignsID(t *testing.T) {
	r := newTestRouter(t)

	first := openSession(t, r)
	second := openSession(t, r)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, r.SessionCount())
}

func TestOpenSessionRequiresHTML(t *testing.T) {
	r := newTestRouter(t)

	resp := r.Dispatch(CommandRequest{
		Command: "open_session",
		Params:  rawParams(t, OpenParams{URL: "https://example.test/"}),
	})

	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "html parameter is required")
}

func TestGetAccessibilityTree(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	resp := r.Dispatch(CommandRequest{ID: "req-1", SessionID: id, Command: "get_accessibility_tree"})

	require.Equal(t, "success", resp.Status, resp.Error)
	assert.Equal(t, "req-1", resp.ID)

	tree, ok := resp.Data.(schemas.TreeResult)
	require.True(t, ok)
	assert.Contains(t, tree.Tree, `button <button> [`)
	assert.Contains(t, tree.Tree, `"Sign in"`)
	assert.Equal(t, "Login", tree.Title)
	assert.Equal(t, "https://example.test/login", tree.URL)
}

func TestActionThroughBridge(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	// A snapshot must precede any handle-addressed action.
	tree := r.Dispatch(CommandRequest{SessionID: id, Command: "get_accessibility_tree"})
	require.Equal(t, "success", tree.Status)

	resp := r.Dispatch(CommandRequest{
		SessionID: id,
		Command:   "web_agent_action",
		Params:    rawParams(t, schemas.ActionRequest{Handle: "e1", ActionType: "click"}),
	})

	require.Equal(t, "success", resp.Status, resp.Error)
	result, ok := resp.Data.(schemas.ActionResult)
	require.True(t, ok)
	assert.True(t, result.Success, result.Message)
	assert.Contains(t, result.Message, "Clicked")
}

func TestActionWithoutSnapshotFails(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	resp := r.Dispatch(CommandRequest{
		SessionID: id,
		Command:   "web_agent_action",
		Params:    rawParams(t, schemas.ActionRequest{Handle: "e0", ActionType: "click"}),
	})

	require.Equal(t, "success", resp.Status)
	result, ok := resp.Data.(schemas.ActionResult)
	require.True(t, ok)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "NotFound")
}

func TestFindAndHighlight(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	resp := r.Dispatch(CommandRequest{
		SessionID: id,
		Command:   "find_and_highlight",
		Params:    rawParams(t, schemas.FindRequest{SearchText: "Sign in"}),
	})

	require.Equal(t, "success", resp.Status, resp.Error)
	result, ok := resp.Data.(schemas.LocateResult)
	require.True(t, ok)
	assert.True(t, result.Found)
	assert.Equal(t, 1, result.MatchCount)
}

func TestMarksLifecycle(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	tree := r.Dispatch(CommandRequest{SessionID: id, Command: "get_accessibility_tree"})
	require.Equal(t, "success", tree.Status)

	draw := r.Dispatch(CommandRequest{SessionID: id, Command: "draw_set_of_marks"})
	require.Equal(t, "success", draw.Status)
	drawn, ok := draw.Data.(MarksData)
	require.True(t, ok)
	assert.Equal(t, 2, drawn.Count)

	clear := r.Dispatch(CommandRequest{SessionID: id, Command: "clear_set_of_marks"})
	require.Equal(t, "success", clear.Status)
	cleared, ok := clear.Data.(MarksData)
	require.True(t, ok)
	assert.Equal(t, 2, cleared.Count)
}

func TestCamelCaseCommandNames(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	resp := r.Dispatch(CommandRequest{SessionID: id, Command: "getAccessibilityTree"})
	require.Equal(t, "success", resp.Status, resp.Error)

	resp = r.Dispatch(CommandRequest{
		SessionID: id,
		Command:   "findAndHighlight",
		Params:    rawParams(t, schemas.FindRequest{SearchText: "Sign in"}),
	})
	require.Equal(t, "success", resp.Status, resp.Error)
}

func TestExecuteScript(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	resp := r.Dispatch(CommandRequest{
		SessionID: id,
		Command:   "execute_script",
		Params:    rawParams(t, ScriptParams{Script: `document.title`}),
	})

	require.Equal(t, "success", resp.Status, resp.Error)
	data, ok := resp.Data.(ScriptData)
	require.True(t, ok)
	assert.Equal(t, "Login", data.Value)
}

func TestExecuteScriptKeepsStateAcrossCalls(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	first := r.Dispatch(CommandRequest{
		SessionID: id,
		Command:   "execute_script",
		Params:    rawParams(t, ScriptParams{Script: `var counter = 41; counter`}),
	})
	require.Equal(t, "success", first.Status, first.Error)

	second := r.Dispatch(CommandRequest{
		SessionID: id,
		Command:   "execute_script",
		Params:    rawParams(t, ScriptParams{Script: `counter + 1`}),
	})
	require.Equal(t, "success", second.Status, second.Error)
	data, ok := second.Data.(ScriptData)
	require.True(t, ok)
	assert.EqualValues(t, 42, data.Value)
}

func TestExecuteScriptErrors(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	resp := r.Dispatch(CommandRequest{
		SessionID: id,
		Command:   "execute_script",
		Params:    rawParams(t, ScriptParams{Script: `nosuchthing.at.all`}),
	})
	assert.Equal(t, "error", resp.Status)

	resp = r.Dispatch(CommandRequest{SessionID: id, Command: "execute_script"})
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "script parameter is required")
}

func TestUnknownSessionAndCommand(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name    string
		req     CommandRequest
		wantErr string
	}{
		{
			name:    "unknown session",
			req:     CommandRequest{SessionID: "nope", Command: "get_accessibility_tree"},
			wantErr: "unknown session",
		},
		{
			name:    "unknown command",
			req:     CommandRequest{Command: "frobnicate"},
			wantErr: "Unknown command",
		},
		{
			name:    "close unknown session",
			req:     CommandRequest{SessionID: "nope", Command: "close_session"},
			wantErr: "unknown session",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := r.Dispatch(tc.req)
			assert.Equal(t, "error", resp.Status)
			assert.Contains(t, resp.Error, tc.wantErr)
		})
	}
}

func TestCloseSessionInvalidatesIt(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	resp := r.Dispatch(CommandRequest{SessionID: id, Command: "close_session"})
	require.Equal(t, "success", resp.Status)
	assert.Equal(t, 0, r.SessionCount())

	resp = r.Dispatch(CommandRequest{SessionID: id, Command: "get_accessibility_tree"})
	assert.Equal(t, "error", resp.Status)
}

func TestMalformedParams(t *testing.T) {
	r := newTestRouter(t)
	id := openSession(t, r)

	resp := r.Dispatch(CommandRequest{
		SessionID: id,
		Command:   "web_agent_action",
		Params:    json.RawMessage(`{"actionType": 42}`),
	})

	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "invalid parameters")
}

func TestSessionsAreIndependent(t *testing.T) {
	r := newTestRouter(t)
	first := openSession(t, r)
	second := openSession(t, r)

	tree := r.Dispatch(CommandRequest{SessionID: first, Command: "get_accessibility_tree"})
	require.Equal(t, "success", tree.Status)

	// The second session never took a snapshot; handles from the first
	// must not resolve there.
	resp := r.Dispatch(CommandRequest{
		SessionID: second,
		Command:   "web_agent_action",
		Params:    rawParams(t, schemas.ActionRequest{Handle: "e0", ActionType: "click"}),
	})
	require.Equal(t, "success", resp.Status)
	result, ok := resp.Data.(schemas.ActionResult)
	require.True(t, ok)
	assert.False(t, result.Success)
}

func TestServeLineProtocol(t *testing.T) {
	r := newTestRouter(t)

	open, err := json.Marshal(CommandRequest{
		ID:      "a",
		Command: "open_session",
		Params:  rawParams(t, OpenParams{HTML: loginPage}),
	})
	require.NoError(t, err)

	input := `{"id":"p","command":"ping"}` + "\n" + string(open) + "\n" +
		`this is not json` + "\n"

	var out bytes.Buffer
	err = r.Serve(context.Background(), strings.NewReader(input), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var pong CommandResponse
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &pong))
	assert.Equal(t, "p", pong.ID)
	assert.Equal(t, "success", pong.Status)

	var opened CommandResponse
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &opened))
	assert.Equal(t, "a", opened.ID)
	assert.Equal(t, "success", opened.Status)
	assert.NotEmpty(t, opened.SessionID)
	assert.Equal(t, 1, r.SessionCount())

	var malformed CommandResponse
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &malformed))
	assert.Equal(t, "error", malformed.Status)
	assert.Contains(t, malformed.Error, "invalid request")
}

func TestServeStopsOnContextCancel(t *testing.T) {
	r := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A pipe keeps the reader blocked so only the cancelled context can
	// end the loop. Closing the writer lets the reader goroutine exit.
	pr, pw := io.Pipe()
	defer pw.Close()

	var out bytes.Buffer
	err := r.Serve(ctx, pr, &out)
	assert.ErrorIs(t, err, context.Canceled)
}
