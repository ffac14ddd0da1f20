package chessboard

import "image/color"

type Rect struct {
	X, Y, W, H float64
}

type CellFill struct {
	Square Square
	Rect   Rect
	Color  color.RGBA
	Light  bool
}

// Sprite places one occupant. At is the sprite's top-left corner.
type Sprite struct {
	Symbol  rune
	Key     string
	Square  Square
	At      Point
	Size    float64
	Dragged bool
}

type TurnIndicator struct {
	Side Side
	At   Point
	Size float64
}

// Frame is everything a host needs to draw the board. Cells, sprites and
// the highlight are relative to Origin (the pieces zone); the turn indicator
// and Size are relative to the whole widget.
type Frame struct {
	Size       float64
	Background color.RGBA
	Origin     Point
	CellSize   float64
	Cells      []CellFill
	Sprites    []Sprite
	Highlight  *Square
	Turn       TurnIndicator
}

// Project computes the frame for the given board and drag. The dragged
// sprite, if any, is last so it is drawn on top.
func Project(params Parameters, grid Grid, side Side, drag DragSession) Frame {
	cell := params.CellSize()
	inner := params.InnerOffset()
	frame := Frame{
		Size:       params.TotalSize,
		Background: params.BackgroundColor,
		Origin:     Point{X: inner, Y: inner},
		CellSize:   cell,
		Cells:      make([]CellFill, 0, 64),
		Turn: TurnIndicator{
			Side: side,
			At:   params.TurnPosition(),
			Size: params.TurnSize(),
		},
	}

	var dragged *Sprite
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq := Square{File: col, Rank: 7 - row}
			at := CellToPixel(sq, cell)
			light := (sq.File+sq.Rank)%2 == 1
			fill := params.BlackCellsColor
			if light {
				fill = params.WhiteCellsColor
			}
			frame.Cells = append(frame.Cells, CellFill{
				Square: sq,
				Rect:   Rect{X: at.X, Y: at.Y, W: cell, H: cell},
				Color:  fill,
				Light:  light,
			})

			symbol := grid[row][col]
			if symbol == 0 {
				continue
			}
			sp := Sprite{Symbol: symbol, Key: PieceKey(symbol), Square: sq, At: at, Size: cell}
			if drag.Active && drag.Origin == sq {
				sp.At = drag.Offset
				sp.Dragged = true
				dragged = &sp
				continue
			}
			frame.Sprites = append(frame.Sprites, sp)
		}
	}
	if dragged != nil {
		frame.Sprites = append(frame.Sprites, *dragged)
	}
	if drag.Active {
		origin := drag.Origin
		frame.Highlight = &origin
	}
	return frame
}
