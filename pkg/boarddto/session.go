package boarddto

import "time"

// PieceView describes one occupant for clients and screen readers.
type PieceView struct {
	Square      string `json:"square"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
}

type SessionState struct {
	ID         string      `json:"id"`
	Notation   string      `json:"notation"`
	Side       string      `json:"side"`
	TurnText   string      `json:"turn_text"`
	Rows       []string    `json:"rows"`
	Pieces     []PieceView `json:"pieces"`
	HistoryLen int         `json:"history_len"`
	Dragging   bool        `json:"dragging"`
	DragOrigin string      `json:"drag_origin,omitempty"`
	BoardSize  float64     `json:"board_size"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
