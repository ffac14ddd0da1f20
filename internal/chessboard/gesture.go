package chessboard

// Board is what the gesture machine needs from the board state.
type Board interface {
	Grid() Grid
	SideToMove() Side
	SubmitMove(from, to Square) bool
}

// DragSession is the transient state of one pointer interaction.
type DragSession struct {
	Active bool
	Origin Square
	Offset Point
}

// Result reports what a release did. Accepted is only meaningful when
// Submitted is true.
type Result struct {
	Submitted bool
	Accepted  bool
	Move      MoveRequest
}

// Gesture turns pointer events into move requests. It has two states: idle
// and dragging. Only one pointer session is tracked at a time; a press while
// dragging is ignored.
type Gesture struct {
	board    Board
	cellSize float64
	session  DragSession

	observers  map[int]func(DragSession)
	observerID int
}

func NewGesture(board Board, cellSize float64) *Gesture {
	return &Gesture{
		board:     board,
		cellSize:  cellSize,
		observers: make(map[int]func(DragSession)),
	}
}

func (g *Gesture) Session() DragSession { return g.session }
func (g *Gesture) Dragging() bool       { return g.session.Active }

// Press starts a drag when p lies on a piece of the side to move. It reports
// whether a drag started.
func (g *Gesture) Press(p Point) bool {
	if g.session.Active || g.board == nil {
		return false
	}
	sq := PixelToCell(p, g.cellSize)
	if !sq.Valid() {
		return false
	}
	side, ok := SideOf(g.board.Grid().At(sq))
	if !ok || side != g.board.SideToMove() {
		return false
	}
	g.session = DragSession{Active: true, Origin: sq, Offset: p}
	g.notify()
	return true
}

// Drag moves the dragged piece by delta. Cells are not resolved mid-drag.
func (g *Gesture) Drag(delta Point) {
	if !g.session.Active {
		return
	}
	g.session.Offset = g.session.Offset.Add(delta)
	g.notify()
}

// Release ends the drag at the tracked pointer offset.
func (g *Gesture) Release() Result {
	return g.ReleaseAt(g.session.Offset)
}

// ReleaseAt ends the drag at p. A destination off the board submits nothing.
// The machine returns to idle whatever the engine decides.
func (g *Gesture) ReleaseAt(p Point) Result {
	if !g.session.Active {
		return Result{}
	}
	origin := g.session.Origin
	g.session = DragSession{}

	var res Result
	dest := PixelToCell(p, g.cellSize)
	if dest.Valid() {
		res.Move = MoveRequest{From: origin, To: dest}
		res.Submitted = true
		res.Accepted = g.board.SubmitMove(origin, dest)
	}
	g.notify()
	return res
}

// Cancel drops the drag without submitting anything.
func (g *Gesture) Cancel() {
	if !g.session.Active {
		return
	}
	g.session = DragSession{}
	g.notify()
}

func (g *Gesture) Subscribe(fn func(DragSession)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	g.observerID++
	id := g.observerID
	g.observers[id] = fn
	return func() { delete(g.observers, id) }
}

func (g *Gesture) notify() {
	for _, fn := range g.observers {
		fn(g.session)
	}
}
