package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

var ErrUnknownPiece = errors.New("unknown piece symbol")

type spriteKey struct {
	symbol rune
	size   int
}

// PieceSet rasterizes piece sprites, caching one image per symbol and size.
// Sprites come from the built-in outlines unless an override file exists.
type PieceSet struct {
	overrides map[rune][]byte

	mu    sync.RWMutex
	cache map[spriteKey]image.Image
}

// NewPieceSet loads overrides from dir when it is non-empty. Files are named
// like wK.svg or bP.svg; missing files fall back to the built-in sprite.
func NewPieceSet(dir string) (*PieceSet, error) {
	ps := &PieceSet{overrides: make(map[rune][]byte), cache: make(map[spriteKey]image.Image)}
	if strings.TrimSpace(dir) == "" {
		return ps, nil
	}
	for _, symbol := range "PNBRQKpnbrqk" {
		path := filepath.Join(dir, assetName(symbol))
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read piece asset %s: %w", path, err)
		}
		data = sanitizeSVG(data)
		if _, err := oksvg.ReadIconStream(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parse piece asset %s: %w", path, err)
		}
		ps.overrides[symbol] = data
	}
	return ps, nil
}

// Overridden reports whether symbol uses a file from the overrides dir.
func (ps *PieceSet) Overridden(symbol rune) bool {
	_, ok := ps.overrides[symbol]
	return ok
}

// Sprite returns the sprite for symbol at size x size pixels.
func (ps *PieceSet) Sprite(symbol rune, size int) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid sprite size %d", size)
	}
	key := spriteKey{symbol: symbol, size: size}

	ps.mu.RLock()
	if img, ok := ps.cache[key]; ok {
		ps.mu.RUnlock()
		return img, nil
	}
	ps.mu.RUnlock()

	data, ok := ps.overrides[symbol]
	if !ok {
		data, ok = builtinSVG(symbol)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPiece, symbol)
		}
	}
	img, err := rasterize(data, size)
	if err != nil {
		return nil, fmt.Errorf("sprite %q: %w", symbol, err)
	}

	ps.mu.Lock()
	ps.cache[key] = img
	ps.mu.Unlock()
	return img, nil
}

func rasterize(data []byte, size int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	if icon.ViewBox.W <= 0 {
		icon.ViewBox.W = float64(size)
	}
	if icon.ViewBox.H <= 0 {
		icon.ViewBox.H = float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

func assetName(symbol rune) string {
	prefix := "w"
	upper := symbol
	if symbol >= 'a' && symbol <= 'z' {
		prefix = "b"
		upper = symbol - 'a' + 'A'
	}
	return prefix + string(upper) + ".svg"
}
