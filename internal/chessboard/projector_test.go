package chessboard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProjectIdle(t *testing.T) {
	params := NewParametersBuilder().SetTotalSizeTo(1000).Build()
	grid, side, err := Decode(StandardStart)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	f := Project(params, grid, side, DragSession{})

	if len(f.Cells) != 64 {
		t.Fatalf("cells: want 64, got %d", len(f.Cells))
	}
	if len(f.Sprites) != 32 {
		t.Fatalf("sprites: want 32, got %d", len(f.Sprites))
	}
	if f.Highlight != nil {
		t.Fatalf("unexpected highlight %v", *f.Highlight)
	}
	if f.CellSize != params.CellSize() || f.Origin != (Point{X: params.InnerOffset(), Y: params.InnerOffset()}) {
		t.Fatalf("unexpected geometry: cell=%v origin=%v", f.CellSize, f.Origin)
	}
	if f.Turn.Side != White || f.Turn.Size != params.TurnSize() {
		t.Fatalf("unexpected turn indicator %+v", f.Turn)
	}

	// a8 is light, a1 is dark
	a8, a1 := f.Cells[0], f.Cells[56]
	if a8.Square != (Square{File: 0, Rank: 7}) || !a8.Light || a8.Color != params.WhiteCellsColor {
		t.Fatalf("a8 cell: %+v", a8)
	}
	if a1.Square != (Square{File: 0, Rank: 0}) || a1.Light || a1.Color != params.BlackCellsColor {
		t.Fatalf("a1 cell: %+v", a1)
	}

	first := f.Sprites[0]
	want := Sprite{Symbol: 'r', Key: "piece.black_rook", Square: Square{File: 0, Rank: 7}, At: Point{}, Size: params.CellSize()}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("first sprite mismatch (-want +got):\n%s", diff)
	}
}

func TestProjectDraggedSpriteLast(t *testing.T) {
	params := DefaultParameters()
	grid, side, err := Decode(StandardStart)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	drag := DragSession{Active: true, Origin: Square{File: 4, Rank: 1}, Offset: Point{X: 12.5, Y: 30}}
	f := Project(params, grid, side, drag)

	if len(f.Sprites) != 32 {
		t.Fatalf("sprites: want 32, got %d", len(f.Sprites))
	}
	last := f.Sprites[len(f.Sprites)-1]
	if !last.Dragged || last.Symbol != 'P' || last.Square != drag.Origin || last.At != drag.Offset {
		t.Fatalf("dragged sprite: %+v", last)
	}
	for _, sp := range f.Sprites[:len(f.Sprites)-1] {
		if sp.Dragged {
			t.Fatalf("more than one dragged sprite: %+v", sp)
		}
	}
	if f.Highlight == nil || *f.Highlight != drag.Origin {
		t.Fatalf("highlight: want %v, got %v", drag.Origin, f.Highlight)
	}
}

func TestProjectIsPure(t *testing.T) {
	params := DefaultParameters()
	grid, side, _ := Decode(StandardStart)
	drag := DragSession{Active: true, Origin: Square{File: 6, Rank: 0}, Offset: Point{X: 1, Y: 2}}
	a := Project(params, grid, side, drag)
	b := Project(params, grid, side, drag)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("projection not deterministic (-a +b):\n%s", diff)
	}
}
