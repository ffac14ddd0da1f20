package chessboard

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

// Engine loads positions into the external rules library.
type Engine interface {
	Load(notation string) (Handle, error)
}

// Handle is a loaded position owned by the rules library. AttemptMove
// mutates the handle only when the move is legal.
type Handle interface {
	Notation() string
	AttemptMove(from, to Square) bool
}

type chessEngine struct{}

// NewEngine returns an Engine backed by github.com/corentings/chess/v2.
func NewEngine() Engine { return chessEngine{} }

func (chessEngine) Load(notation string) (Handle, error) {
	opt, err := nchess.FEN(notation)
	if err != nil {
		return nil, fmt.Errorf("load position: %w", err)
	}
	return &gameHandle{game: nchess.NewGame(opt)}, nil
}

type gameHandle struct {
	game *nchess.Game
}

func (h *gameHandle) Notation() string { return h.game.FEN() }

func (h *gameHandle) AttemptMove(from, to Square) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	pos := h.game.Position()
	text := MoveRequest{From: from, To: to}.UCI()
	if promotes(pos, from, to) {
		// the board has no promotion picker; pawns always become queens
		text += "q"
	}
	mv, err := nchess.UCINotation{}.Decode(pos, text)
	if err != nil {
		return false
	}
	if err := h.game.Move(mv, nil); err != nil {
		return false
	}
	return true
}

func promotes(pos *nchess.Position, from, to Square) bool {
	if pos == nil || pos.Board() == nil {
		return false
	}
	piece := pos.Board().Piece(toEngineSquare(from))
	if piece == nchess.NoPiece || piece.Type() != nchess.Pawn {
		return false
	}
	switch piece.Color() {
	case nchess.White:
		return to.Rank == 7
	case nchess.Black:
		return to.Rank == 0
	default:
		return false
	}
}

func toEngineSquare(sq Square) nchess.Square {
	return nchess.NewSquare(nchess.File(sq.File), nchess.Rank(sq.Rank))
}
