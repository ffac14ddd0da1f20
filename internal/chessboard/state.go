package chessboard

import (
	"errors"
	"fmt"
)

var ErrNilEngine = errors.New("rules engine is required")

// Snapshot is what observers of a State receive after each accepted move.
type Snapshot struct {
	Notation   string
	Grid       Grid
	Side       Side
	HistoryLen int
	LastMove   MoveRequest
}

// State holds the current position and its history. SubmitMove is the only
// way to change the position. State is not safe for concurrent use.
type State struct {
	engine   Engine
	handle   Handle
	notation string
	history  []string

	grid Grid
	side Side

	observers  map[int]func(Snapshot)
	observerID int
}

// NewState loads notation into engine. history holds prior notations, oldest
// first, and is copied; every entry must decode.
func NewState(engine Engine, notation string, history []string) (*State, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	grid, side, err := Decode(notation)
	if err != nil {
		return nil, err
	}
	for i, entry := range history {
		if _, _, err := Decode(entry); err != nil {
			return nil, fmt.Errorf("history entry %d: %w", i, err)
		}
	}
	handle, err := engine.Load(notation)
	if err != nil {
		return nil, err
	}
	return &State{
		engine:    engine,
		handle:    handle,
		notation:  notation,
		history:   append([]string(nil), history...),
		grid:      grid,
		side:      side,
		observers: make(map[int]func(Snapshot)),
	}, nil
}

func (s *State) Grid() Grid       { return s.grid }
func (s *State) SideToMove() Side { return s.side }
func (s *State) Notation() string { return s.notation }

// History returns a copy of the prior notations, oldest first.
func (s *State) History() []string {
	return append([]string(nil), s.history...)
}

// SubmitMove asks the rules engine to play from -> to. It returns false and
// leaves the state untouched when the engine rejects the move.
func (s *State) SubmitMove(from, to Square) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if !s.handle.AttemptMove(from, to) {
		return false
	}
	next := s.handle.Notation()
	grid, side, err := Decode(next)
	if err != nil {
		// the engine accepted a move but produced unreadable output; resync
		// the handle to the last known position so both views agree
		if h, lerr := s.engine.Load(s.notation); lerr == nil {
			s.handle = h
		}
		return false
	}

	s.history = append(s.history, s.notation)
	s.notation = next
	s.grid = grid
	s.side = side
	s.notify(MoveRequest{From: from, To: to})
	return true
}

// Subscribe registers fn to run after every accepted move. The returned
// function removes it.
func (s *State) Subscribe(fn func(Snapshot)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	s.observerID++
	id := s.observerID
	s.observers[id] = fn
	return func() { delete(s.observers, id) }
}

func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Notation:   s.notation,
		Grid:       s.grid,
		Side:       s.side,
		HistoryLen: len(s.history),
	}
}

func (s *State) notify(last MoveRequest) {
	if len(s.observers) == 0 {
		return
	}
	snap := s.Snapshot()
	snap.LastMove = last
	for _, fn := range s.observers {
		fn(snap)
	}
}

func (s *State) String() string {
	return fmt.Sprintf("%s (%d prior)", s.notation, len(s.history))
}
