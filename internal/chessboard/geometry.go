package chessboard

import "math"

// PixelToCell maps a pixel inside the pieces zone to a board square. Rank 8
// is the top row. Points outside the zone give squares that fail Valid.
func PixelToCell(p Point, cellSize float64) Square {
	if cellSize <= 0 {
		return Square{File: -1, Rank: -1}
	}
	file := int(math.Floor(p.X / cellSize))
	row := int(math.Floor(p.Y / cellSize))
	return Square{File: file, Rank: 7 - row}
}

// CellToPixel returns the top-left corner of sq, where its sprite rests.
func CellToPixel(sq Square, cellSize float64) Point {
	return Point{
		X: float64(sq.File) * cellSize,
		Y: float64(7-sq.Rank) * cellSize,
	}
}

func CellCenter(sq Square, cellSize float64) Point {
	return CellToPixel(sq, cellSize).Add(Point{X: cellSize / 2, Y: cellSize / 2})
}
