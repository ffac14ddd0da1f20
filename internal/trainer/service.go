package trainer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/endgame-trainer/internal/chessboard"
	"github.com/park285/endgame-trainer/internal/msgcat"
	"github.com/park285/endgame-trainer/internal/savedstate"
	"github.com/park285/endgame-trainer/pkg/boarddto"
)

var (
	ErrSessionNotFound = errors.New("board session not found")
	ErrUnknownAction   = errors.New("unknown pointer action")
	ErrSaveConflict    = errors.New("board was saved by another host")
)

// FrameRenderer turns a projected frame into PNG bytes.
type FrameRenderer interface {
	PNG(ctx context.Context, frame chessboard.Frame) ([]byte, error)
}

type Config struct {
	Board    chessboard.Parameters
	StartFEN string
}

type Service struct {
	engine   chessboard.Engine
	store    savedstate.Store
	renderer FrameRenderer
	catalog  *msgcat.Catalog
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	// ids being restored; guarded by mu
	pending map[string]struct{}
}

func NewService(engine chessboard.Engine, store savedstate.Store, renderer FrameRenderer, catalog *msgcat.Catalog, cfg Config, logger *zap.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("rules engine is required")
	}
	if store == nil {
		return nil, fmt.Errorf("saved state store is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("frame renderer is required")
	}
	if cfg.Board.TotalSize <= 0 {
		return nil, fmt.Errorf("board size must be greater than 0")
	}
	if strings.TrimSpace(cfg.StartFEN) == "" {
		cfg.StartFEN = chessboard.StandardStart
	}
	if _, _, err := chessboard.Decode(cfg.StartFEN); err != nil {
		return nil, fmt.Errorf("start position: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:   engine,
		store:    store,
		renderer: renderer,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
		pending:  make(map[string]struct{}),
	}, nil
}

func (s *Service) Parameters() chessboard.Parameters { return s.cfg.Board }

// Messages is the catalog the service renders user-facing text with.
func (s *Service) Messages() *msgcat.Catalog { return s.catalog }

// Create opens a board. A RestoreID loads the saved board under that id; a
// saved board that cannot be restored is replaced by the standard start and
// reported through Restored=false and a notice.
func (s *Service) Create(ctx context.Context, req boarddto.CreateSessionRequest) (*boarddto.CreateSessionResponse, error) {
	resp := &boarddto.CreateSessionResponse{}
	var (
		id       string
		state    *chessboard.State
		revision int64
		err      error
	)

	switch {
	case strings.TrimSpace(req.RestoreID) != "":
		id = strings.TrimSpace(req.RestoreID)
		if err := s.reserve(id); err != nil {
			return nil, err
		}
		defer s.release(id)
		state, revision, resp.Restored, err = s.restore(ctx, id)
		if err != nil {
			return nil, err
		}
		if !resp.Restored {
			resp.Notice = s.catalog.Text("restore.fallback", nil)
		}
	case strings.TrimSpace(req.Notation) != "":
		id = uuid.NewString()
		state, err = chessboard.NewState(s.engine, strings.TrimSpace(req.Notation), req.History)
		if err != nil {
			return nil, fmt.Errorf("open board: %w", err)
		}
	default:
		id = uuid.NewString()
		state, err = chessboard.NewState(s.engine, s.cfg.StartFEN, nil)
		if err != nil {
			return nil, fmt.Errorf("open board: %w", err)
		}
	}

	sess := newSession(id, s.cfg.Board, state, s.now())
	sess.revision = revision
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.logger.Info("board_open",
		zap.String("session_id", id),
		zap.String("notation", state.Notation()),
		zap.Int("history_len", len(state.History())),
		zap.Bool("restored", resp.Restored),
	)

	sess.mu.Lock()
	resp.State = s.view(sess)
	sess.mu.Unlock()
	return resp, nil
}

func (s *Service) restore(ctx context.Context, id string) (*chessboard.State, int64, bool, error) {
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, savedstate.ErrNotFound) {
		s.logger.Info("board_restore_missing", zap.String("session_id", id))
		state, serr := chessboard.NewState(s.engine, chessboard.StandardStart, nil)
		return state, 0, false, serr
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("load saved board: %w", err)
	}

	state, rerr := chessboard.RestoreOrDefault(s.engine, rec.Entries)
	if state == nil {
		return nil, 0, false, rerr
	}
	if rerr != nil {
		s.logger.Warn("board_restore_fallback",
			zap.String("session_id", id),
			zap.Int("entries", len(rec.Entries)),
			zap.Error(rerr),
		)
		return state, rec.Revision, false, nil
	}
	return state, rec.Revision, true, nil
}

// reserve claims id for a restore so two callers cannot open the same saved
// board. The claim ends with release, after the session is registered.
func (s *Service) reserve(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, open := s.sessions[id]; open {
		return boarddto.DomainError{Code: boarddto.CodeConflict, Message: fmt.Sprintf("session %s is already open", id)}
	}
	if _, busy := s.pending[id]; busy {
		return boarddto.DomainError{Code: boarddto.CodeConflict, Message: fmt.Sprintf("session %s is being restored", id)}
	}
	s.pending[id] = struct{}{}
	return nil
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *Service) lookup(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[strings.TrimSpace(id)]
}

// with runs fn holding the session lock.
func (s *Service) with(id string, fn func(*Session) error) error {
	sess := s.lookup(id)
	if sess == nil {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess)
}

func (s *Service) Get(ctx context.Context, id string) (*boarddto.SessionState, error) {
	var out *boarddto.SessionState
	err := s.with(id, func(sess *Session) error {
		out = s.view(sess)
		return nil
	})
	return out, err
}

// Frame returns the current projection of the board.
func (s *Service) Frame(id string) (chessboard.Frame, error) {
	var f chessboard.Frame
	err := s.with(id, func(sess *Session) error {
		f = sess.frame
		return nil
	})
	return f, err
}

func (s *Service) PNG(ctx context.Context, id string) ([]byte, error) {
	f, err := s.Frame(id)
	if err != nil {
		return nil, err
	}
	return s.renderer.PNG(ctx, f)
}

// Pointer feeds one pointer event into the session's gesture machine.
func (s *Service) Pointer(ctx context.Context, id string, req boarddto.PointerRequest) (*boarddto.PointerResponse, error) {
	resp := &boarddto.PointerResponse{}
	err := s.with(id, func(sess *Session) error {
		p := chessboard.Point{X: req.X, Y: req.Y}
		switch strings.ToLower(strings.TrimSpace(req.Action)) {
		case boarddto.PointerPress:
			resp.Started = sess.gesture.Press(p)
		case boarddto.PointerDrag:
			sess.gesture.Drag(p)
		case boarddto.PointerRelease:
			wasDragging := sess.gesture.Dragging()
			var res chessboard.Result
			if req.HasPoint {
				res = sess.gesture.ReleaseAt(p)
			} else {
				res = sess.gesture.Release()
			}
			s.describe(sess, wasDragging, res, resp)
		case boarddto.PointerCancel:
			sess.gesture.Cancel()
		default:
			return fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
		}
		sess.updated = s.now()
		resp.State = s.view(sess)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) describe(sess *Session, wasDragging bool, res chessboard.Result, resp *boarddto.PointerResponse) {
	resp.Submitted = res.Submitted
	resp.Accepted = res.Accepted
	if !res.Submitted {
		if wasDragging {
			resp.Message = s.catalog.Text("move.discarded", nil)
		}
		return
	}
	resp.Move = res.Move.UCI()
	data := map[string]string{"From": res.Move.From.String(), "To": res.Move.To.String()}
	if !res.Accepted {
		resp.Message = s.catalog.Text("move.rejected", data)
		s.logger.Debug("board_move_rejected", zap.String("session_id", sess.ID), zap.String("move", resp.Move))
		return
	}
	resp.Message = s.catalog.Text("move.accepted", data)
	s.logger.Info("board_move",
		zap.String("session_id", sess.ID),
		zap.String("move", resp.Move),
		zap.String("notation", sess.state.Notation()),
		zap.Int("history_len", len(sess.state.History())),
	)
}

// Save persists the board. Saves are optimistic: a board saved elsewhere
// since this session loaded it yields ErrSaveConflict.
func (s *Service) Save(ctx context.Context, id string) (*boarddto.SaveResponse, error) {
	var out *boarddto.SaveResponse
	err := s.with(id, func(sess *Session) error {
		rec, err := s.saveLocked(ctx, sess)
		if err != nil {
			return err
		}
		out = &boarddto.SaveResponse{ID: sess.ID, Revision: rec.Revision, Entries: rec.Entries}
		return nil
	})
	return out, err
}

func (s *Service) saveLocked(ctx context.Context, sess *Session) (*savedstate.Record, error) {
	rec := &savedstate.Record{
		SessionID: sess.ID,
		Entries:   chessboard.Save(sess.state),
		Revision:  sess.revision,
	}
	if err := s.store.Put(ctx, rec); err != nil {
		if errors.Is(err, savedstate.ErrStale) {
			return nil, fmt.Errorf("%w: %s", ErrSaveConflict, sess.ID)
		}
		return nil, fmt.Errorf("save board: %w", err)
	}
	sess.revision = rec.Revision
	s.logger.Debug("board_saved", zap.String("session_id", sess.ID), zap.Int64("revision", rec.Revision))
	return rec, nil
}

// Close saves the board and drops it from memory, the way a host saves
// widget state before it is torn down.
func (s *Service) Close(ctx context.Context, id string) error {
	if err := s.with(id, func(sess *Session) error {
		if _, err := s.saveLocked(ctx, sess); err != nil {
			return err
		}
		sess.detach()
		return nil
	}); err != nil {
		return err
	}
	s.drop(id)
	return nil
}

// Discard drops the board and its saved state.
func (s *Service) Discard(ctx context.Context, id string) error {
	if err := s.with(id, func(sess *Session) error {
		if err := s.store.Delete(ctx, sess.ID); err != nil {
			return fmt.Errorf("delete saved board: %w", err)
		}
		sess.detach()
		return nil
	}); err != nil {
		return err
	}
	s.drop(id)
	return nil
}

func (s *Service) drop(id string) {
	s.mu.Lock()
	delete(s.sessions, strings.TrimSpace(id))
	s.mu.Unlock()
	s.logger.Info("board_close", zap.String("session_id", id))
}

// Shutdown closes every open board, saving each one.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if err := s.Close(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) view(sess *Session) *boarddto.SessionState {
	st := sess.state
	grid := st.Grid()
	out := &boarddto.SessionState{
		ID:         sess.ID,
		Notation:   st.Notation(),
		Side:       string(st.SideToMove()),
		TurnText:   s.catalog.Text("turn."+string(st.SideToMove()), nil),
		Rows:       grid.Rows(),
		HistoryLen: len(st.History()),
		BoardSize:  sess.params.TotalSize,
		UpdatedAt:  sess.updated,
	}
	for rank := 7; rank >= 0; rank-- {
		for file := 0; file < 8; file++ {
			sq := chessboard.Square{File: file, Rank: rank}
			sym := grid.At(sq)
			if sym == 0 {
				continue
			}
			out.Pieces = append(out.Pieces, boarddto.PieceView{
				Square:      sq.String(),
				Symbol:      string(sym),
				Description: s.catalog.Text(chessboard.PieceKey(sym), nil),
			})
		}
	}
	if drag := sess.gesture.Session(); drag.Active {
		out.Dragging = true
		out.DragOrigin = drag.Origin.String()
	}
	return out
}
