package boarddto

// CreateSessionRequest opens a board. RestoreID takes precedence over
// Notation; an empty request starts from the configured position.
type CreateSessionRequest struct {
	Notation  string   `json:"notation,omitempty"`
	History   []string `json:"history,omitempty"`
	RestoreID string   `json:"restore_id,omitempty"`
}

type CreateSessionResponse struct {
	State *SessionState `json:"state"`
	// Restored is false when a saved board was requested but could not be
	// used and the standard start was loaded instead.
	Restored bool   `json:"restored"`
	Notice   string `json:"notice,omitempty"`
}

const (
	PointerPress   = "press"
	PointerDrag    = "drag"
	PointerRelease = "release"
	PointerCancel  = "cancel"
)

// PointerRequest carries one pointer event in pieces-zone pixels. Drag uses
// X/Y as a delta; release uses them as the drop point when HasPoint is set.
type PointerRequest struct {
	Action   string  `json:"action"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	HasPoint bool    `json:"has_point,omitempty"`
}

type PointerResponse struct {
	State     *SessionState `json:"state"`
	Started   bool          `json:"started,omitempty"`
	Submitted bool          `json:"submitted,omitempty"`
	Accepted  bool          `json:"accepted,omitempty"`
	Move      string        `json:"move,omitempty"`
	Message   string        `json:"message,omitempty"`
}

type SaveResponse struct {
	ID       string   `json:"id"`
	Revision int64    `json:"revision"`
	Entries  []string `json:"entries"`
}
