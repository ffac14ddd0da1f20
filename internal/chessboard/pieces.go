package chessboard

const pieceSymbols = "PNBRQKpnbrqk"

func isPieceSymbol(r rune) bool {
	for _, s := range pieceSymbols {
		if s == r {
			return true
		}
	}
	return false
}

// SideOf reports which side owns the occupant symbol.
func SideOf(symbol rune) (Side, bool) {
	switch symbol {
	case 'P', 'N', 'B', 'R', 'Q', 'K':
		return White, true
	case 'p', 'n', 'b', 'r', 'q', 'k':
		return Black, true
	default:
		return "", false
	}
}

// PieceKey returns the catalog key describing symbol, e.g. "piece.white_knight".
func PieceKey(symbol rune) string {
	side, ok := SideOf(symbol)
	if !ok {
		return "piece.unknown"
	}
	var name string
	switch symbol {
	case 'P', 'p':
		name = "pawn"
	case 'N', 'n':
		name = "knight"
	case 'B', 'b':
		name = "bishop"
	case 'R', 'r':
		name = "rook"
	case 'Q', 'q':
		name = "queen"
	case 'K', 'k':
		name = "king"
	}
	return "piece." + string(side) + "_" + name
}
