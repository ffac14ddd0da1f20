package trainer

import (
	"sync"
	"time"

	"github.com/park285/endgame-trainer/internal/chessboard"
)

// Session is one board with its gesture machine. All access goes through
// the owning Service, which holds mu for the duration of each operation.
type Session struct {
	ID string

	mu       sync.Mutex
	params   chessboard.Parameters
	state    *chessboard.State
	gesture  *chessboard.Gesture
	frame    chessboard.Frame
	revision int64
	updated  time.Time
	cancels  []func()
}

func newSession(id string, params chessboard.Parameters, state *chessboard.State, now time.Time) *Session {
	s := &Session{
		ID:      id,
		params:  params,
		state:   state,
		gesture: chessboard.NewGesture(state, params.CellSize()),
		updated: now,
	}
	// both holders feed the same projection
	s.cancels = append(s.cancels,
		state.Subscribe(func(chessboard.Snapshot) { s.refresh() }),
		s.gesture.Subscribe(func(chessboard.DragSession) { s.refresh() }),
	)
	s.refresh()
	return s
}

func (s *Session) refresh() {
	s.frame = chessboard.Project(s.params, s.state.Grid(), s.state.SideToMove(), s.gesture.Session())
}

func (s *Session) detach() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}
