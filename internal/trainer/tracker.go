package trainer

import (
	"github.com/park285/endgame-trainer/internal/chessboard"
	"github.com/park285/endgame-trainer/pkg/boarddto"
)

// Tracker turns polled mouse samples in widget pixels into pointer
// requests. Hosts that only expose button state and cursor position (a
// game loop, a terminal) feed it once per tick.
type Tracker struct {
	origin float64
	down   bool
	// set by Cancel; swallows samples until the button goes up
	cancelled bool
	lastX     float64
	lastY     float64
}

func NewTracker(params chessboard.Parameters) *Tracker {
	return &Tracker{origin: params.InnerOffset()}
}

// Sample returns the requests implied by the new sample, in order.
func (t *Tracker) Sample(x, y float64, down bool) []boarddto.PointerRequest {
	px, py := x-t.origin, y-t.origin
	var out []boarddto.PointerRequest
	switch {
	case t.cancelled:
		if !down {
			t.cancelled = false
		}
	case down && !t.down:
		out = append(out, boarddto.PointerRequest{Action: boarddto.PointerPress, X: px, Y: py})
	case down && t.down:
		if dx, dy := px-t.lastX, py-t.lastY; dx != 0 || dy != 0 {
			out = append(out, boarddto.PointerRequest{Action: boarddto.PointerDrag, X: dx, Y: dy})
		}
	case !down && t.down:
		out = append(out, boarddto.PointerRequest{Action: boarddto.PointerRelease})
	}
	t.down = down
	t.lastX, t.lastY = px, py
	return out
}

// Cancel abandons the current drag, e.g. when the window loses focus. The
// held button is ignored until it is released.
func (t *Tracker) Cancel() []boarddto.PointerRequest {
	if !t.down || t.cancelled {
		return nil
	}
	t.cancelled = true
	return []boarddto.PointerRequest{{Action: boarddto.PointerCancel}}
}
