package chessboard

import (
	"fmt"
	"strings"
)

// Side identifies the player to move.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

func (s Side) Opponent() Side {
	if s == White {
		return Black
	}
	return White
}

// Grid holds occupant symbols rank-major: row 0 is rank 8, column 0 is file a.
// The zero rune marks an empty cell.
type Grid [8][8]rune

// At returns the occupant of sq, or 0 when sq is empty or off the board.
func (g Grid) At(sq Square) rune {
	if !sq.Valid() {
		return 0
	}
	return g[7-sq.Rank][sq.File]
}

// Rows renders each rank as an 8-character string, '.' for empties.
func (g Grid) Rows() []string {
	out := make([]string, 0, 8)
	for _, row := range g {
		var b strings.Builder
		for _, r := range row {
			if r == 0 {
				b.WriteByte('.')
				continue
			}
			b.WriteRune(r)
		}
		out = append(out, b.String())
	}
	return out
}

// Square is a 0-based (file, rank) pair; file 0 is a, rank 0 is rank 1.
type Square struct {
	File int
	Rank int
}

func (s Square) Valid() bool {
	return s.File >= 0 && s.File <= 7 && s.Rank >= 0 && s.Rank <= 7
}

func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.File, s.Rank)
	}
	return fmt.Sprintf("%c%c", 'a'+rune(s.File), '1'+rune(s.Rank))
}

// ParseSquare reads algebraic coordinates such as "e2".
func ParseSquare(raw string) (Square, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if len(v) != 2 || v[0] < 'a' || v[0] > 'h' || v[1] < '1' || v[1] > '8' {
		return Square{}, fmt.Errorf("invalid square %q", raw)
	}
	return Square{File: int(v[0] - 'a'), Rank: int(v[1] - '1')}, nil
}

// MoveRequest is built once per completed drag and discarded after submission.
type MoveRequest struct {
	From Square
	To   Square
}

func (m MoveRequest) UCI() string {
	return m.From.String() + m.To.String()
}

// Point is a pixel offset inside the pieces zone.
type Point struct {
	X float64
	Y float64
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}
