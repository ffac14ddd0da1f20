// Package desktop hosts one board session in a native window.
package desktop

import (
	"context"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/park285/endgame-trainer/internal/render"
	"github.com/park285/endgame-trainer/internal/trainer"
)

type Window struct {
	svc      *trainer.Service
	renderer *render.Renderer
	logger   *zap.Logger
	id       string
	size     int

	tracker *trainer.Tracker
	board   *ebiten.Image
	dirty   bool
	status  string
}

func NewWindow(svc *trainer.Service, renderer *render.Renderer, id string, logger *zap.Logger) *Window {
	if logger == nil {
		logger = zap.NewNop()
	}
	params := svc.Parameters()
	return &Window{
		svc:      svc,
		renderer: renderer,
		logger:   logger,
		id:       id,
		size:     int(params.TotalSize),
		tracker:  trainer.NewTracker(params),
		dirty:    true,
	}
}

// Run blocks until the window is closed.
func (w *Window) Run(title string) error {
	ebiten.SetWindowSize(w.size, w.size)
	ebiten.SetWindowTitle(title)
	return ebiten.RunGame(w)
}

func (w *Window) Update() error {
	ctx := context.Background()
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || !ebiten.IsFocused() {
		for _, req := range w.tracker.Cancel() {
			if _, err := w.svc.Pointer(ctx, w.id, req); err != nil {
				return err
			}
			w.dirty = true
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		if rec, err := w.svc.Save(ctx, w.id); err != nil {
			w.status = err.Error()
			w.logger.Warn("desktop_save_failed", zap.String("session_id", w.id), zap.Error(err))
		} else {
			w.status = fmt.Sprintf("saved rev %d", rec.Revision)
		}
	}

	mx, my := ebiten.CursorPosition()
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	for _, req := range w.tracker.Sample(float64(mx), float64(my), down) {
		resp, err := w.svc.Pointer(ctx, w.id, req)
		if err != nil {
			return err
		}
		if resp.Message != "" {
			w.status = resp.Message
		}
		w.dirty = true
	}
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	if w.dirty || w.board == nil {
		if err := w.redraw(); err != nil {
			w.logger.Error("desktop_render_failed", zap.String("session_id", w.id), zap.Error(err))
		}
	}
	if w.board != nil {
		screen.DrawImage(w.board, nil)
	}
	if w.status != "" {
		ebitenutil.DebugPrint(screen, w.status)
	}
}

func (w *Window) redraw() error {
	frame, err := w.svc.Frame(w.id)
	if err != nil {
		return err
	}
	img, err := w.renderer.Image(context.Background(), frame)
	if err != nil {
		return err
	}
	if w.board != nil {
		w.board.Deallocate()
	}
	w.board = ebiten.NewImageFromImage(img)
	w.dirty = false
	return nil
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.size, w.size
}
