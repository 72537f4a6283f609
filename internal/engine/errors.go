// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy the executor reports. They are
// matched with errors.Is and never escape the executor boundary; callers
// only ever see them folded into an ActionResult message.
var (
	// ErrNotFound means the handle is absent from the current registry
	// generation, most commonly because a new snapshot invalidated it.
	ErrNotFound = errors.New("NotFound")

	// ErrWrongElementKind means the resolved element's type does not
	// support the requested action.
	ErrWrongElementKind = errors.New("WrongElementKind")

	// ErrOptionNotFound means a select action matched no option.
	ErrOptionNotFound = errors.New("OptionNotFound")

	// ErrUnknownAction means the request named an action kind the engine
	// does not implement.
	ErrUnknownAction = errors.New("unknown action")
)

// ExecutionError wraps any other failure raised during low-level
// interaction, carrying the action and handle for diagnosability.
type ExecutionError struct {
	Action string
	Handle string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Handle == "" {
		return fmt.Sprintf("ExecutionError during %s: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("ExecutionError during %s on %s: %v", e.Action, e.Handle, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
