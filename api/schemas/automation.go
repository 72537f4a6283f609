package schemas

// -- Automation Engine Schemas --

// Region is a viewport-relative bounding rectangle.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ElementSnapshot is one interactive element as reported in an
// accessibility tree snapshot.
type ElementSnapshot struct {
	Handle         string   `json:"handle"`
	Role           string   `json:"role"`
	AccessibleName string   `json:"accessibleName"`
	TagHint        string   `json:"tagHint"`
	StateFlags     []string `json:"stateFlags,omitempty"`
	BoundingRegion Region   `json:"boundingRegion"`
}

// ActionRequest asks for one primitive action. Handle is omitted for
// page-level actions and for key presses that target the focused element.
// Value carries the text to type, the option to select, the key name to
// press or the scroll direction.
type ActionRequest struct {
	Handle     string `json:"handle,omitempty"`
	ActionType string `json:"actionType"`
	Value      string `json:"value,omitempty"`
}

// ActionResult is the uniform outcome of every action. Errors never
// propagate past the engine boundary; they arrive here as Success false
// with a diagnostic message.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Changed bool   `json:"changed,omitempty"`
}

// TreeResult is the response to an accessibility tree request.
type TreeResult struct {
	Tree  string `json:"tree"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// LocateResult is the response to a find-and-highlight request.
type LocateResult struct {
	Found      bool `json:"found"`
	MatchCount int  `json:"matchCount"`
}

// FindRequest asks the locator to find and highlight a text snippet.
type FindRequest struct {
	SearchText string `json:"searchText"`
}
