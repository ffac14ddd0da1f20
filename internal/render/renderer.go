package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/park285/endgame-trainer/internal/chessboard"
)

var (
	highlightColor = color.NRGBA{R: 182, G: 184, B: 190, A: 130}
	coordinateText = color.NRGBA{R: 255, G: 255, B: 255, A: 220}
	turnOutline    = color.NRGBA{R: 0x42, G: 0x42, B: 0x42, A: 0xff}
)

// labels need at least this many pixels of margin to stay legible
const minLabelMargin = 14

// Renderer draws chessboard frames into images.
type Renderer struct {
	pieces      *PieceSet
	coordinates bool
}

type Option func(*Renderer)

// WithCoordinates draws file and rank labels in the margin when it is large
// enough.
func WithCoordinates(on bool) Option {
	return func(r *Renderer) { r.coordinates = on }
}

func New(pieces *PieceSet, opts ...Option) *Renderer {
	if pieces == nil {
		pieces, _ = NewPieceSet("")
	}
	r := &Renderer{pieces: pieces, coordinates: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Image draws frame at its own size, rounded to whole pixels.
func (r *Renderer) Image(ctx context.Context, frame chessboard.Frame) (image.Image, error) {
	dc, err := r.draw(ctx, frame)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

func (r *Renderer) PNG(ctx context.Context, frame chessboard.Frame) ([]byte, error) {
	dc, err := r.draw(ctx, frame)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) draw(ctx context.Context, frame chessboard.Frame) (*gg.Context, error) {
	size := int(math.Round(frame.Size))
	if size <= 0 {
		return nil, errors.New("frame size must be positive")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dc := gg.NewContext(size, size)
	dc.SetColor(frame.Background)
	dc.Clear()

	ox, oy := frame.Origin.X, frame.Origin.Y
	for _, cell := range frame.Cells {
		dc.SetColor(cell.Color)
		dc.DrawRectangle(ox+cell.Rect.X, oy+cell.Rect.Y, cell.Rect.W, cell.Rect.H)
		dc.Fill()
	}
	if frame.Highlight != nil {
		at := chessboard.CellToPixel(*frame.Highlight, frame.CellSize)
		dc.SetColor(highlightColor)
		dc.DrawRectangle(ox+at.X, oy+at.Y, frame.CellSize, frame.CellSize)
		dc.Fill()
	}
	if r.coordinates {
		r.drawCoordinates(dc, frame)
	}

	for _, sp := range frame.Sprites {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := r.pieces.Sprite(sp.Symbol, int(math.Round(sp.Size)))
		if err != nil {
			return nil, err
		}
		dc.DrawImage(img, int(math.Round(ox+sp.At.X)), int(math.Round(oy+sp.At.Y)))
	}

	drawTurn(dc, frame.Turn)
	return dc, nil
}

func (r *Renderer) drawCoordinates(dc *gg.Context, frame chessboard.Frame) {
	margin := frame.Origin.X
	if margin < minLabelMargin {
		return
	}
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(coordinateText)
	zone := frame.CellSize * 8
	for i := 0; i < 8; i++ {
		mid := float64(i)*frame.CellSize + frame.CellSize/2
		dc.DrawStringAnchored(string(rune('8'-i)), margin/2, frame.Origin.Y+mid, 0.5, 0.5)
		dc.DrawStringAnchored(string(rune('a'+i)), frame.Origin.X+mid, frame.Origin.Y+zone+margin/2, 0.5, 0.5)
	}
}

func drawTurn(dc *gg.Context, turn chessboard.TurnIndicator) {
	if turn.Size <= 0 {
		return
	}
	radius := turn.Size / 2
	cx, cy := turn.At.X+radius, turn.At.Y+radius
	if turn.Side == chessboard.Black {
		dc.SetRGBA255(0, 0, 0, 255)
	} else {
		dc.SetRGBA255(255, 255, 255, 255)
	}
	dc.DrawCircle(cx, cy, radius)
	dc.FillPreserve()
	dc.SetColor(turnOutline)
	dc.SetLineWidth(math.Max(1, turn.Size/12))
	dc.Stroke()
}
