package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/endgame-trainer/internal/chessboard"
)

const (
	defaultListenAddr    = "127.0.0.1:2888"
	defaultBoardSize     = 480
	defaultSavedStateTTL = 86400
)

var ErrInvalidConfig = errors.New("invalid configuration")

type AppConfig struct {
	ListenAddr string
	RedisURL   string
	StartFEN   string

	Board chessboard.Parameters

	PiecesDir   string
	MessagesDir string

	SavedStateTTLSec int
}

// Theme is the YAML shape of BOARD_THEME_FILE. Empty fields keep the value
// taken from the environment.
type Theme struct {
	TotalSize       float64 `yaml:"total_size"`
	BackgroundColor string  `yaml:"background_color"`
	WhiteCellsColor string  `yaml:"white_cells_color"`
	BlackCellsColor string  `yaml:"black_cells_color"`
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:       defaultListenAddr,
		StartFEN:         chessboard.StandardStart,
		SavedStateTTLSec: defaultSavedStateTTL,
	}

	if v := strings.TrimSpace(os.Getenv("TRAINER_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	if v := strings.TrimSpace(os.Getenv("TRAINER_START_FEN")); v != "" {
		cfg.StartFEN = v
	}
	cfg.PiecesDir = strings.TrimSpace(os.Getenv("PIECES_DIR"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))
	if v := strings.TrimSpace(os.Getenv("SAVED_STATE_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SavedStateTTLSec = n
		}
	}

	b := chessboard.NewParametersBuilder().SetTotalSizeTo(defaultBoardSize)
	if v := strings.TrimSpace(os.Getenv("BOARD_TOTAL_SIZE")); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: BOARD_TOTAL_SIZE %q", ErrInvalidConfig, v)
		}
		b.SetTotalSizeTo(n)
	}
	colors := []struct {
		env string
		set func(c color.RGBA) *chessboard.ParametersBuilder
	}{
		{"BOARD_BACKGROUND_COLOR", b.SetBackgroundColorTo},
		{"BOARD_WHITE_CELLS_COLOR", b.SetWhiteCellsColorTo},
		{"BOARD_BLACK_CELLS_COLOR", b.SetBlackCellsColorTo},
	}
	for _, c := range colors {
		v := strings.TrimSpace(os.Getenv(c.env))
		if v == "" {
			continue
		}
		parsed, err := chessboard.ParseColor(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, c.env, err)
		}
		c.set(parsed)
	}
	cfg.Board = b.Build()

	if path := strings.TrimSpace(os.Getenv("BOARD_THEME_FILE")); path != "" {
		theme, err := LoadTheme(path)
		if err != nil {
			return nil, err
		}
		board, err := theme.Apply(cfg.Board)
		if err != nil {
			return nil, err
		}
		cfg.Board = board
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks fields that flags may have overridden after Load.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("%w: listen address is required", ErrInvalidConfig)
	}
	if _, _, err := chessboard.Decode(c.StartFEN); err != nil {
		return fmt.Errorf("%w: start position: %w", ErrInvalidConfig, err)
	}
	if c.Board.TotalSize <= 0 {
		return fmt.Errorf("%w: board size must be positive", ErrInvalidConfig)
	}
	return nil
}

func LoadTheme(path string) (*Theme, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme file: %w", err)
	}
	var t Theme
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%w: parse theme file %s: %w", ErrInvalidConfig, path, err)
	}
	return &t, nil
}

// Apply overlays the non-empty theme fields on base.
func (t *Theme) Apply(base chessboard.Parameters) (chessboard.Parameters, error) {
	if t == nil {
		return base, nil
	}
	b := chessboard.NewParametersBuilder().
		SetTotalSizeTo(base.TotalSize).
		SetBackgroundColorTo(base.BackgroundColor).
		SetWhiteCellsColorTo(base.WhiteCellsColor).
		SetBlackCellsColorTo(base.BlackCellsColor)
	if t.TotalSize < 0 {
		return base, fmt.Errorf("%w: theme total_size %v", ErrInvalidConfig, t.TotalSize)
	}
	if t.TotalSize > 0 {
		b.SetTotalSizeTo(t.TotalSize)
	}
	overlays := []struct {
		name string
		raw  string
		set  func(c color.RGBA) *chessboard.ParametersBuilder
	}{
		{"background_color", t.BackgroundColor, b.SetBackgroundColorTo},
		{"white_cells_color", t.WhiteCellsColor, b.SetWhiteCellsColorTo},
		{"black_cells_color", t.BlackCellsColor, b.SetBlackCellsColorTo},
	}
	for _, o := range overlays {
		if strings.TrimSpace(o.raw) == "" {
			continue
		}
		c, err := chessboard.ParseColor(o.raw)
		if err != nil {
			return base, fmt.Errorf("%w: theme %s: %w", ErrInvalidConfig, o.name, err)
		}
		o.set(c)
	}
	return b.Build(), nil
}
