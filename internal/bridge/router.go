// File: internal/bridge/router.go
package bridge

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagepilot/api/schemas"
	"github.com/xkilldash9x/pagepilot/internal/config"
	"github.com/xkilldash9x/pagepilot/internal/engine"
	"github.com/xkilldash9x/pagepilot/internal/jsruntime"
	"github.com/xkilldash9x/pagepilot/internal/page"
)

// Router owns the set of open sessions and dispatches agent commands to
// them. Each session is independent; handles from one are meaningless in
// another.
type Router struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	cfg      *config.Config
	log      *zap.Logger
}

// sessionEntry pairs a session with its lazily created script runtime.
type sessionEntry struct {
	session *engine.Session
	runtime *jsruntime.Runtime
}

// NewRouter creates a Router with no open sessions.
func NewRouter(cfg *config.Config, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		sessions: make(map[string]*sessionEntry),
		cfg:      cfg,
		log:      logger.Named("bridge"),
	}
}

// OpenSession parses the document and registers a new session for it,
// returning the generated session ID.
func (r *Router) OpenSession(src, url string) (string, error) {
	p, err := page.Load(src, url, r.cfg.Viewport)
	if err != nil {
		return "", fmt.Errorf("failed to load document: %w", err)
	}
	sess := engine.NewSession(p, r.cfg.Engine, r.log)
	id := uuid.New().String()

	r.mu.Lock()
	r.sessions[id] = &sessionEntry{session: sess}
	r.mu.Unlock()

	r.log.Info("Session opened", zap.String("session_id", id), zap.String("url", url))
	return id, nil
}

// CloseSession removes a session. Closing an unknown ID is an error.
func (r *Router) CloseSession(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return fmt.Errorf("unknown session: %s", id)
	}
	delete(r.sessions, id)
	r.log.Info("Session closed", zap.String("session_id", id))
	return nil
}

// Session returns the session registered under id, if any.
func (r *Router) Session(id string) (*engine.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// runtimeFor returns the script runtime for a session, creating it on
// first use so sessions that never run scripts pay nothing.
func (r *Router) runtimeFor(id string) (*jsruntime.Runtime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", id)
	}
	if e.runtime == nil {
		rt, err := jsruntime.NewRuntime(e.session, r.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create script runtime: %w", err)
		}
		e.runtime = rt
	}
	return e.runtime, nil
}

// SessionCount reports how many sessions are currently open.
func (r *Router) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Dispatch routes one command to its handler and returns the response
// envelope. It never returns an error; failures arrive as Status "error".
func (r *Router) Dispatch(req CommandRequest) CommandResponse {
	r.log.Debug("Dispatching command",
		zap.String("command", req.Command),
		zap.String("session_id", req.SessionID))

	// Commands are matched case-insensitively, so both snake_case and
	// camelCase operation names resolve to the same handler.
	switch strings.ToLower(req.Command) {
	case "ping":
		return r.success(req, map[string]string{"message": "pong"})

	case "open_session", "opensession", "open":
		return r.handleOpen(req)

	case "close_session", "closesession", "close":
		if err := r.CloseSession(req.SessionID); err != nil {
			return r.failure(req, err.Error())
		}
		return r.success(req, nil)

	case "get_accessibility_tree", "getaccessibilitytree", "tree":
		return r.withSession(req, func(s *engine.Session) (interface{}, error) {
			return s.GetAccessibilityTree(), nil
		})

	case "draw_set_of_marks", "drawsetofmarks", "marks":
		return r.withSession(req, func(s *engine.Session) (interface{}, error) {
			return MarksData{Count: s.DrawSetOfMarks()}, nil
		})

	case "clear_set_of_marks", "clearsetofmarks", "unmark":
		return r.withSession(req, func(s *engine.Session) (interface{}, error) {
			return MarksData{Count: s.ClearSetOfMarks()}, nil
		})

	case "web_agent_action", "webagentaction", "act":
		return r.withSession(req, func(s *engine.Session) (interface{}, error) {
			var params schemas.ActionRequest
			if err := decodeParams(req.Params, &params); err != nil {
				return nil, err
			}
			return s.WebAgentAction(params), nil
		})

	case "execute_script", "executescript", "script":
		return r.handleScript(req)

	case "find_and_highlight", "findandhighlight", "find":
		return r.withSession(req, func(s *engine.Session) (interface{}, error) {
			var params schemas.FindRequest
			if err := decodeParams(req.Params, &params); err != nil {
				return nil, err
			}
			return s.FindAndHighlight(params.SearchText), nil
		})

	default:
		return r.failure(req, fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (r *Router) handleOpen(req CommandRequest) CommandResponse {
	var params OpenParams
	if err := decodeParams(req.Params, &params); err != nil {
		return r.failure(req, err.Error())
	}
	if params.HTML == "" {
		return r.failure(req, "html parameter is required")
	}
	id, err := r.OpenSession(params.HTML, params.URL)
	if err != nil {
		return r.failure(req, err.Error())
	}
	resp := r.success(req, map[string]string{"session_id": id})
	resp.SessionID = id
	return resp
}

// handleScript runs a script in the session's JS runtime. The runtime
// applies its own execution timeout.
func (r *Router) handleScript(req CommandRequest) CommandResponse {
	var params ScriptParams
	if err := decodeParams(req.Params, &params); err != nil {
		return r.failure(req, err.Error())
	}
	if params.Script == "" {
		return r.failure(req, "script parameter is required")
	}

	rt, err := r.runtimeFor(req.SessionID)
	if err != nil {
		return r.failure(req, err.Error())
	}

	value, err := rt.ExecuteScript(context.Background(), params.Script)
	if err != nil {
		return r.failure(req, err.Error())
	}
	return r.success(req, ScriptData{Value: value})
}

// withSession resolves the session addressed by the request and runs fn
// against it.
func (r *Router) withSession(req CommandRequest, fn func(*engine.Session) (interface{}, error)) CommandResponse {
	sess, ok := r.Session(req.SessionID)
	if !ok {
		return r.failure(req, fmt.Sprintf("unknown session: %s", req.SessionID))
	}
	data, err := fn(sess)
	if err != nil {
		return r.failure(req, err.Error())
	}
	return r.success(req, data)
}

func (r *Router) success(req CommandRequest, data interface{}) CommandResponse {
	return CommandResponse{
		ID:        req.ID,
		SessionID: req.SessionID,
		Status:    "success",
		Data:      data,
	}
}

func (r *Router) failure(req CommandRequest, message string) CommandResponse {
	return CommandResponse{
		ID:        req.ID,
		SessionID: req.SessionID,
		Status:    "error",
		Error:     message,
	}
}

// decodeParams unmarshals raw params into the command-specific struct.
// A nil params block decodes to the zero value.
func decodeParams(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid parameters: %w", err)
	}
	return nil
}
