package trainer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/park285/endgame-trainer/internal/chessboard"
	"github.com/park285/endgame-trainer/internal/msgcat"
	"github.com/park285/endgame-trainer/internal/render"
	"github.com/park285/endgame-trainer/internal/savedstate"
	"github.com/park285/endgame-trainer/pkg/boarddto"
)

func newTestService(t *testing.T, store savedstate.Store) *Service {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	cfg := Config{Board: chessboard.NewParametersBuilder().SetTotalSizeTo(400).Build()}
	svc, err := NewService(chessboard.NewEngine(), store, render.New(nil), cat, cfg, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func centerOf(t *testing.T, svc *Service, raw string) (float64, float64) {
	t.Helper()
	sq, err := chessboard.ParseSquare(raw)
	if err != nil {
		t.Fatalf("ParseSquare: %v", err)
	}
	p := chessboard.CellCenter(sq, svc.Parameters().CellSize())
	return p.X, p.Y
}

func drag(t *testing.T, svc *Service, id, from, to string) *boarddto.PointerResponse {
	t.Helper()
	ctx := context.Background()
	fx, fy := centerOf(t, svc, from)
	tx, ty := centerOf(t, svc, to)
	if _, err := svc.Pointer(ctx, id, boarddto.PointerRequest{Action: boarddto.PointerPress, X: fx, Y: fy}); err != nil {
		t.Fatalf("press: %v", err)
	}
	if _, err := svc.Pointer(ctx, id, boarddto.PointerRequest{Action: boarddto.PointerDrag, X: tx - fx, Y: ty - fy}); err != nil {
		t.Fatalf("drag: %v", err)
	}
	resp, err := svc.Pointer(ctx, id, boarddto.PointerRequest{Action: boarddto.PointerRelease})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	return resp
}

func TestCreateDefault(t *testing.T) {
	svc := newTestService(t, savedstate.NewMemoryStore(time.Hour))
	resp, err := svc.Create(context.Background(), boarddto.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	st := resp.State
	if st.ID == "" || st.Notation != chessboard.StandardStart || st.Side != "white" {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.TurnText != "White to move" || len(st.Pieces) != 32 {
		t.Fatalf("unexpected view: turn=%q pieces=%d", st.TurnText, len(st.Pieces))
	}
	want := boarddto.PieceView{Square: "a8", Symbol: "r", Description: "Black rook"}
	if diff := cmp.Diff(want, st.Pieces[0]); diff != "" {
		t.Fatalf("first piece mismatch (-want +got):\n%s", diff)
	}
}

func TestPointerLegalAndIllegal(t *testing.T) {
	svc := newTestService(t, savedstate.NewMemoryStore(time.Hour))
	created, err := svc.Create(context.Background(), boarddto.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := created.State.ID

	bad := drag(t, svc, id, "e2", "e5")
	if !bad.Submitted || bad.Accepted || bad.Message != "e2 to e5 is not a legal move" {
		t.Fatalf("illegal move response %+v", bad)
	}
	if bad.State.Notation != chessboard.StandardStart || bad.State.Dragging {
		t.Fatalf("state changed after illegal move: %+v", bad.State)
	}

	good := drag(t, svc, id, "e2", "e4")
	if !good.Accepted || good.Move != "e2e4" {
		t.Fatalf("legal move response %+v", good)
	}
	if good.State.Side != "black" || good.State.HistoryLen != 1 {
		t.Fatalf("unexpected state %+v", good.State)
	}

	f, err := svc.Frame(id)
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if f.Turn.Side != chessboard.Black || f.Highlight != nil {
		t.Fatalf("frame not refreshed: turn=%s highlight=%v", f.Turn.Side, f.Highlight)
	}
}

func TestPointerWrongSideAndOffBoard(t *testing.T) {
	svc := newTestService(t, savedstate.NewMemoryStore(time.Hour))
	ctx := context.Background()
	created, _ := svc.Create(ctx, boarddto.CreateSessionRequest{})
	id := created.State.ID

	x, y := centerOf(t, svc, "b8")
	resp, err := svc.Pointer(ctx, id, boarddto.PointerRequest{Action: boarddto.PointerPress, X: x, Y: y})
	if err != nil {
		t.Fatalf("press: %v", err)
	}
	if resp.Started || resp.State.Dragging {
		t.Fatalf("black piece drag started with white to move")
	}

	x, y = centerOf(t, svc, "e2")
	resp, _ = svc.Pointer(ctx, id, boarddto.PointerRequest{Action: boarddto.PointerPress, X: x, Y: y})
	if !resp.Started || resp.State.DragOrigin != "e2" {
		t.Fatalf("press on e2: %+v", resp)
	}
	cell := svc.Parameters().CellSize()
	resp, err = svc.Pointer(ctx, id, boarddto.PointerRequest{Action: boarddto.PointerRelease, X: 9*cell + 1, Y: y, HasPoint: true})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if resp.Submitted || resp.State.Dragging || resp.State.Notation != chessboard.StandardStart {
		t.Fatalf("off-board release: %+v", resp)
	}
	if resp.Message != "Dropped outside the board" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestPointerErrors(t *testing.T) {
	svc := newTestService(t, savedstate.NewMemoryStore(time.Hour))
	ctx := context.Background()
	if _, err := svc.Pointer(ctx, "missing", boarddto.PointerRequest{Action: "press"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
	created, _ := svc.Create(ctx, boarddto.CreateSessionRequest{})
	if _, err := svc.Pointer(ctx, created.State.ID, boarddto.PointerRequest{Action: "wiggle"}); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("want ErrUnknownAction, got %v", err)
	}
}

func TestCreateFromNotation(t *testing.T) {
	svc := newTestService(t, savedstate.NewMemoryStore(time.Hour))
	ctx := context.Background()
	resp, err := svc.Create(ctx, boarddto.CreateSessionRequest{Notation: "8/P6k/8/8/8/8/8/K7 w - - 0 1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(resp.State.Pieces) != 3 {
		t.Fatalf("pieces: want 3, got %d", len(resp.State.Pieces))
	}
	promo := drag(t, svc, resp.State.ID, "a7", "a8")
	if !promo.Accepted || promo.State.Rows[0][0] != 'Q' {
		t.Fatalf("promotion: %+v", promo)
	}

	if _, err := svc.Create(ctx, boarddto.CreateSessionRequest{Notation: "8/8 w"}); !errors.Is(err, chessboard.ErrMalformedNotation) {
		t.Fatalf("want ErrMalformedNotation, got %v", err)
	}
}

func TestCreateRejectsMalformedHistory(t *testing.T) {
	store := savedstate.NewMemoryStore(time.Hour)
	svc := newTestService(t, store)
	ctx := context.Background()
	_, err := svc.Create(ctx, boarddto.CreateSessionRequest{
		Notation: chessboard.StandardStart,
		History:  []string{"garbage"},
	})
	if !errors.Is(err, chessboard.ErrMalformedNotation) {
		t.Fatalf("want ErrMalformedNotation, got %v", err)
	}

	created, err := svc.Create(ctx, boarddto.CreateSessionRequest{
		Notation: chessboard.StandardStart,
		History:  []string{chessboard.StandardStart},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := created.State.ID
	drag(t, svc, id, "e2", "e4")
	if err := svc.Close(ctx, id); err != nil {
		t.Fatalf("Close: %v", err)
	}
	restored, err := svc.Create(ctx, boarddto.CreateSessionRequest{RestoreID: id})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.Restored || restored.Notice != "" || restored.State.HistoryLen != 2 || restored.State.Side != "black" {
		t.Fatalf("board lost on restore: %+v notice=%q", restored.State, restored.Notice)
	}
}

func TestSaveCloseRestore(t *testing.T) {
	store := savedstate.NewMemoryStore(time.Hour)
	svc := newTestService(t, store)
	ctx := context.Background()
	created, _ := svc.Create(ctx, boarddto.CreateSessionRequest{})
	id := created.State.ID

	drag(t, svc, id, "e2", "e4")
	drag(t, svc, id, "e7", "e5")
	drag(t, svc, id, "g1", "f3")
	before, _ := svc.Get(ctx, id)

	if err := svc.Close(ctx, id); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := svc.Get(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("session still open after Close: %v", err)
	}

	restored, err := svc.Create(ctx, boarddto.CreateSessionRequest{RestoreID: id})
	if err != nil {
		t.Fatalf("Create(restore): %v", err)
	}
	if !restored.Restored || restored.Notice != "" {
		t.Fatalf("restore flags: %+v", restored)
	}
	if restored.State.Notation != before.Notation || restored.State.HistoryLen != 3 {
		t.Fatalf("restored state: want %q/3, got %q/%d", before.Notation, restored.State.Notation, restored.State.HistoryLen)
	}

	if _, err := svc.Create(ctx, boarddto.CreateSessionRequest{RestoreID: id}); err == nil {
		t.Fatalf("expected conflict for an already open session")
	}

	saved, err := svc.Save(ctx, id)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Revision != 2 || len(saved.Entries) != 4 {
		t.Fatalf("save response %+v", saved)
	}
}

func TestRestoreCorruptFallsBack(t *testing.T) {
	store := savedstate.NewMemoryStore(time.Hour)
	ctx := context.Background()
	if err := store.Put(ctx, &savedstate.Record{SessionID: "corrupt", Entries: []string{"garbage"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := newTestService(t, store)

	resp, err := svc.Create(ctx, boarddto.CreateSessionRequest{RestoreID: "corrupt"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Restored || resp.Notice == "" {
		t.Fatalf("expected fallback notice: %+v", resp)
	}
	if resp.State.ID != "corrupt" || resp.State.Notation != chessboard.StandardStart || resp.State.HistoryLen != 0 {
		t.Fatalf("fallback state %+v", resp.State)
	}
	// the fallback board may overwrite the corrupt record
	if _, err := svc.Save(ctx, "corrupt"); err != nil {
		t.Fatalf("Save after fallback: %v", err)
	}
}

func TestRestoreMissingStartsFresh(t *testing.T) {
	svc := newTestService(t, savedstate.NewMemoryStore(time.Hour))
	resp, err := svc.Create(context.Background(), boarddto.CreateSessionRequest{RestoreID: "nobody"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Restored || resp.State.Notation != chessboard.StandardStart {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestSaveConflictAcrossHosts(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	ctx := context.Background()
	url := fmt.Sprintf("redis://%s/0", mr.Addr())
	storeA, err := savedstate.NewRedisStore(ctx, url, time.Hour)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer storeA.Close()
	storeB, err := savedstate.NewRedisStore(ctx, url, time.Hour)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer storeB.Close()

	a := newTestService(t, storeA)
	created, _ := a.Create(ctx, boarddto.CreateSessionRequest{})
	id := created.State.ID
	if _, err := a.Save(ctx, id); err != nil {
		t.Fatalf("first save: %v", err)
	}

	b := newTestService(t, storeB)
	if _, err := b.Create(ctx, boarddto.CreateSessionRequest{RestoreID: id}); err != nil {
		t.Fatalf("restore on second host: %v", err)
	}
	drag(t, b, id, "d2", "d4")
	if _, err := b.Save(ctx, id); err != nil {
		t.Fatalf("second host save: %v", err)
	}

	drag(t, a, id, "e2", "e4")
	if _, err := a.Save(ctx, id); !errors.Is(err, ErrSaveConflict) {
		t.Fatalf("want ErrSaveConflict, got %v", err)
	}
}

func TestPNGAndShutdown(t *testing.T) {
	store := savedstate.NewMemoryStore(time.Hour)
	svc := newTestService(t, store)
	ctx := context.Background()
	created, _ := svc.Create(ctx, boarddto.CreateSessionRequest{})

	data, err := svc.PNG(ctx, created.State.ID)
	if err != nil {
		t.Fatalf("PNG: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("not a png")
	}

	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := store.Get(ctx, created.State.ID); err != nil {
		t.Fatalf("board not saved on shutdown: %v", err)
	}
}

func TestDiscard(t *testing.T) {
	store := savedstate.NewMemoryStore(time.Hour)
	svc := newTestService(t, store)
	ctx := context.Background()
	created, _ := svc.Create(ctx, boarddto.CreateSessionRequest{})
	id := created.State.ID
	if _, err := svc.Save(ctx, id); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := svc.Discard(ctx, id); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, savedstate.ErrNotFound) {
		t.Fatalf("saved board survived discard: %v", err)
	}
	if err := svc.Discard(ctx, id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

func TestConcurrentRestoreOpensOnce(t *testing.T) {
	svc := newTestService(t, savedstate.NewMemoryStore(time.Hour))
	ctx := context.Background()
	created, err := svc.Create(ctx, boarddto.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := created.State.ID
	if err := svc.Close(ctx, id); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for round := 0; round < 50; round++ {
		const callers = 4
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			opened    int
			conflicts int
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Create(ctx, boarddto.CreateSessionRequest{RestoreID: id})
				mu.Lock()
				defer mu.Unlock()
				var de boarddto.DomainError
				switch {
				case err == nil:
					opened++
				case errors.As(err, &de) && de.Code == boarddto.CodeConflict:
					conflicts++
				default:
					t.Errorf("round %d: unexpected error %v", round, err)
				}
			}()
		}
		wg.Wait()
		if opened != 1 || conflicts != callers-1 {
			t.Fatalf("round %d: opened=%d conflicts=%d", round, opened, conflicts)
		}
		if err := svc.Close(ctx, id); err != nil {
			t.Fatalf("round %d: Close: %v", round, err)
		}
	}
}
