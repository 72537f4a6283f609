// File: internal/bridge/types.go
package bridge

import (
	json "github.com/json-iterator/go"
)

// CommandRequest defines the structure of one incoming JSON command from
// the driving agent.
type CommandRequest struct {
	// ID correlates a response with its request; echoed back verbatim.
	ID string `json:"id,omitempty"`
	// SessionID addresses an open session. Required for every command
	// except open_session and ping.
	SessionID string `json:"session_id,omitempty"`
	Command   string `json:"command"`
	// Params is decoded per command into the matching params struct.
	Params json.RawMessage `json:"params,omitempty"`
}

// CommandResponse defines the structure of the outgoing JSON response.
type CommandResponse struct {
	ID        string      `json:"id,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
	Status    string      `json:"status"` // "success" or "error"
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// OpenParams defines parameters for the "open_session" command.
type OpenParams struct {
	// HTML is the document source the session operates on.
	HTML string `json:"html"`
	// URL is reported in tree headers; informational only.
	URL string `json:"url,omitempty"`
}

// MarksData is the payload returned by the mark drawing commands.
type MarksData struct {
	Count int `json:"count"`
}

// ScriptParams defines parameters for the "execute_script" command.
type ScriptParams struct {
	Script string `json:"script"`
}

// ScriptData carries the exported result of a script execution.
type ScriptData struct {
	Value interface{} `json:"value"`
}
