package chessboard

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sq(t *testing.T, raw string) Square {
	t.Helper()
	s, err := ParseSquare(raw)
	if err != nil {
		t.Fatalf("ParseSquare(%q): %v", raw, err)
	}
	return s
}

func newStartState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(NewEngine(), StandardStart, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s
}

func TestSubmitMoveLegal(t *testing.T) {
	s := newStartState(t)
	if !s.SubmitMove(sq(t, "e2"), sq(t, "e4")) {
		t.Fatalf("e2e4 rejected")
	}
	g := s.Grid()
	if g.At(sq(t, "e2")) != 0 {
		t.Fatalf("e2 still occupied by %q", g.At(sq(t, "e2")))
	}
	if g.At(sq(t, "e4")) != 'P' {
		t.Fatalf("e4: want P, got %q", g.At(sq(t, "e4")))
	}
	if s.SideToMove() != Black {
		t.Fatalf("side: want black, got %s", s.SideToMove())
	}
	if diff := cmp.Diff([]string{StandardStart}, s.History()); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitMoveIllegal(t *testing.T) {
	s := newStartState(t)
	before := s.Snapshot()
	if s.SubmitMove(sq(t, "e2"), sq(t, "e5")) {
		t.Fatalf("e2e5 accepted")
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Fatalf("state changed after rejected move (-want +got):\n%s", diff)
	}
	if s.SubmitMove(Square{File: 4, Rank: 1}, Square{File: 9, Rank: 1}) {
		t.Fatalf("off-board destination accepted")
	}
}

func TestSubmitMoveAutoQueen(t *testing.T) {
	s, err := NewState(NewEngine(), "8/P6k/8/8/8/8/8/K7 w - - 0 1", nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if !s.SubmitMove(sq(t, "a7"), sq(t, "a8")) {
		t.Fatalf("a7a8 rejected")
	}
	if got := s.Grid().At(sq(t, "a8")); got != 'Q' {
		t.Fatalf("a8: want Q, got %q", got)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	s := newStartState(t)
	var got []Snapshot
	cancel := s.Subscribe(func(snap Snapshot) { got = append(got, snap) })

	s.SubmitMove(sq(t, "e2"), sq(t, "e5"))
	s.SubmitMove(sq(t, "e2"), sq(t, "e4"))
	if len(got) != 1 {
		t.Fatalf("want 1 notification, got %d", len(got))
	}
	if got[0].Side != Black || got[0].HistoryLen != 1 || got[0].LastMove.UCI() != "e2e4" {
		t.Fatalf("unexpected snapshot %+v", got[0])
	}

	cancel()
	s.SubmitMove(sq(t, "e7"), sq(t, "e5"))
	if len(got) != 1 {
		t.Fatalf("cancelled observer still notified")
	}
}

func TestNewStateErrors(t *testing.T) {
	if _, err := NewState(nil, StandardStart, nil); !errors.Is(err, ErrNilEngine) {
		t.Fatalf("want ErrNilEngine, got %v", err)
	}
	if _, err := NewState(NewEngine(), "garbage", nil); !errors.Is(err, ErrMalformedNotation) {
		t.Fatalf("want ErrMalformedNotation, got %v", err)
	}
}

func TestNewStateRejectsMalformedHistory(t *testing.T) {
	history := []string{StandardStart, "garbage"}
	_, err := NewState(NewEngine(), StandardStart, history)
	if !errors.Is(err, ErrMalformedNotation) {
		t.Fatalf("want ErrMalformedNotation, got %v", err)
	}

	s, err := NewState(NewEngine(), StandardStart, []string{StandardStart})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	s.SubmitMove(sq(t, "e2"), sq(t, "e4"))
	restored, err := Restore(NewEngine(), Save(s))
	if err != nil {
		t.Fatalf("Restore of accepted state: %v", err)
	}
	if restored.Notation() != s.Notation() || len(restored.History()) != 2 {
		t.Fatalf("restored %s, want %s", restored, s)
	}
}

// garbledEngine accepts every move and then reports an unreadable position.
type garbledEngine struct{ loads int }

func (e *garbledEngine) Load(notation string) (Handle, error) {
	e.loads++
	return &garbledHandle{}, nil
}

type garbledHandle struct{}

func (garbledHandle) Notation() string            { return "not a position" }
func (garbledHandle) AttemptMove(_, _ Square) bool { return true }

func TestSubmitMoveResyncsOnUnreadableEngineOutput(t *testing.T) {
	eng := &garbledEngine{}
	s, err := NewState(eng, StandardStart, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if s.SubmitMove(sq(t, "e2"), sq(t, "e4")) {
		t.Fatalf("move with unreadable result reported as accepted")
	}
	if s.Notation() != StandardStart || len(s.History()) != 0 {
		t.Fatalf("state changed: %s", s)
	}
	if eng.loads != 2 {
		t.Fatalf("want handle reloaded once, loads=%d", eng.loads)
	}
}
