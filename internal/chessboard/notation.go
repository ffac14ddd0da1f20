package chessboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StandardStart is the standard initial position.
const StandardStart = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var defaultAuxFields = []string{"-", "-", "0", "1"}

var ErrMalformedNotation = errors.New("malformed position notation")

// NotationError describes why a notation string was rejected.
// It matches ErrMalformedNotation with errors.Is.
type NotationError struct {
	Notation string
	Field    string
	Reason   string
}

func (e *NotationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrMalformedNotation, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrMalformedNotation, e.Field, e.Reason)
}

func (e *NotationError) Unwrap() error { return ErrMalformedNotation }

func malformed(notation, field, format string, args ...any) error {
	return &NotationError{Notation: notation, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Decode parses the piece-placement and side-to-move fields of notation.
func Decode(notation string) (Grid, Side, error) {
	var grid Grid
	fields := strings.Fields(notation)
	if len(fields) == 0 {
		return grid, "", malformed(notation, "", "empty notation")
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return grid, "", malformed(notation, "placement", "expected 8 ranks, got %d", len(ranks))
	}
	for row, rank := range ranks {
		col := 0
		for _, ch := range rank {
			switch {
			case ch >= '1' && ch <= '8':
				col += int(ch - '0')
			case isPieceSymbol(ch):
				if col >= 8 {
					return grid, "", malformed(notation, "placement", "rank %d overflows 8 columns", 8-row)
				}
				grid[row][col] = ch
				col++
			default:
				return grid, "", malformed(notation, "placement", "unexpected character %q in rank %d", ch, 8-row)
			}
			if col > 8 {
				return grid, "", malformed(notation, "placement", "rank %d overflows 8 columns", 8-row)
			}
		}
		if col != 8 {
			return grid, "", malformed(notation, "placement", "rank %d has %d columns", 8-row, col)
		}
	}

	if len(fields) < 2 {
		return grid, "", malformed(notation, "side", "missing side to move")
	}
	switch fields[1] {
	case "w":
		return grid, White, nil
	case "b":
		return grid, Black, nil
	default:
		return grid, "", malformed(notation, "side", "expected w or b, got %q", fields[1])
	}
}

// Encode is the inverse of Decode. aux carries castling, en-passant and move
// counters verbatim; when empty a neutral "- - 0 1" tail is written.
func Encode(grid Grid, side Side, aux ...string) string {
	var b strings.Builder
	for row := 0; row < 8; row++ {
		if row > 0 {
			b.WriteByte('/')
		}
		empty := 0
		for col := 0; col < 8; col++ {
			ch := grid[row][col]
			if ch == 0 {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			b.WriteRune(ch)
		}
		if empty > 0 {
			b.WriteString(strconv.Itoa(empty))
		}
	}

	b.WriteByte(' ')
	if side == Black {
		b.WriteByte('b')
	} else {
		b.WriteByte('w')
	}

	if len(aux) == 0 {
		aux = defaultAuxFields
	}
	for _, f := range aux {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	return b.String()
}

// AuxFields returns everything after the side-to-move field.
func AuxFields(notation string) []string {
	fields := strings.Fields(notation)
	if len(fields) <= 2 {
		return nil
	}
	return append([]string(nil), fields[2:]...)
}
