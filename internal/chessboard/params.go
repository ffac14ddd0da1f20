package chessboard

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Layout ratios of the board widget, relative to its total size.
const (
	innerZoneRatio   = 0.0555
	cellRatio        = 0.111
	piecesZoneRatio  = 0.8888
	turnOffsetRatio  = 0.4675
	turnSizeRatio    = 0.0555
	defaultTotalSize = 100
)

var (
	DefaultBackgroundColor = color.RGBA{R: 0x79, G: 0x55, B: 0x48, A: 0xff}
	DefaultWhiteCellsColor = color.RGBA{R: 0xff, G: 0xf1, B: 0x76, A: 0xff}
	DefaultBlackCellsColor = color.RGBA{R: 0xe6, G: 0x51, B: 0x00, A: 0xff}
)

// Parameters configures the board's appearance. Values are immutable once
// built; replace the whole value to change appearance.
type Parameters struct {
	TotalSize       float64
	BackgroundColor color.RGBA
	WhiteCellsColor color.RGBA
	BlackCellsColor color.RGBA
}

func DefaultParameters() Parameters {
	return NewParametersBuilder().Build()
}

func (p Parameters) InnerOffset() float64 { return p.TotalSize * innerZoneRatio }
func (p Parameters) CellSize() float64    { return p.TotalSize * cellRatio }
func (p Parameters) PiecesZone() float64  { return p.TotalSize * piecesZoneRatio }
func (p Parameters) TurnOffset() float64  { return p.TotalSize * turnOffsetRatio }
func (p Parameters) TurnSize() float64    { return p.TotalSize * turnSizeRatio }

// TurnPosition is the top-left corner of the turn indicator. The indicator is
// centred in the widget and then shifted by TurnOffset on both axes, which
// puts it in the bottom-right corner of the frame.
func (p Parameters) TurnPosition() Point {
	v := (p.TotalSize-p.TurnSize())/2 + p.TurnOffset()
	return Point{X: v, Y: v}
}

// ParametersBuilder assembles Parameters fluently.
type ParametersBuilder struct {
	p Parameters
}

func NewParametersBuilder() *ParametersBuilder {
	return &ParametersBuilder{p: Parameters{
		TotalSize:       defaultTotalSize,
		BackgroundColor: DefaultBackgroundColor,
		WhiteCellsColor: DefaultWhiteCellsColor,
		BlackCellsColor: DefaultBlackCellsColor,
	}}
}

func (b *ParametersBuilder) SetTotalSizeTo(size float64) *ParametersBuilder {
	b.p.TotalSize = size
	return b
}

func (b *ParametersBuilder) SetBackgroundColorTo(c color.RGBA) *ParametersBuilder {
	b.p.BackgroundColor = c
	return b
}

func (b *ParametersBuilder) SetWhiteCellsColorTo(c color.RGBA) *ParametersBuilder {
	b.p.WhiteCellsColor = c
	return b
}

func (b *ParametersBuilder) SetBlackCellsColorTo(c color.RGBA) *ParametersBuilder {
	b.p.BlackCellsColor = c
	return b
}

func (b *ParametersBuilder) Build() Parameters {
	return b.p
}

// ParseColor accepts "#RRGGBB", "#AARRGGBB" and the same forms prefixed
// with "0x" instead of "#".
func ParseColor(raw string) (color.RGBA, error) {
	v := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(v, "#"):
		v = v[1:]
	case strings.HasPrefix(strings.ToLower(v), "0x"):
		v = v[2:]
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", raw, err)
	}
	switch len(v) {
	case 6:
		return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
	case 8:
		return color.RGBA{A: uint8(n >> 24), R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
	default:
		return color.RGBA{}, fmt.Errorf("parse color %q: expected 6 or 8 hex digits", raw)
	}
}

// FormatColor renders c as "#AARRGGBB".
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.A, c.R, c.G, c.B)
}
