package config

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/park285/endgame-trainer/internal/chessboard"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TRAINER_LISTEN_ADDR", "REDIS_URL", "TRAINER_START_FEN", "BOARD_TOTAL_SIZE",
		"BOARD_BACKGROUND_COLOR", "BOARD_WHITE_CELLS_COLOR", "BOARD_BLACK_CELLS_COLOR",
		"BOARD_THEME_FILE", "PIECES_DIR", "MESSAGES_DIR", "SAVED_STATE_TTL_SEC",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:2888" || cfg.StartFEN != chessboard.StandardStart {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SavedStateTTLSec != 86400 || cfg.RedisURL != "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.Board.TotalSize != 480 || cfg.Board.BackgroundColor != chessboard.DefaultBackgroundColor {
		t.Fatalf("unexpected board %+v", cfg.Board)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TRAINER_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("TRAINER_START_FEN", "8/P6k/8/8/8/8/8/K7 w - - 0 1")
	t.Setenv("BOARD_TOTAL_SIZE", "720")
	t.Setenv("BOARD_WHITE_CELLS_COLOR", "#EEEEEE")
	t.Setenv("SAVED_STATE_TTL_SEC", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9000" || cfg.RedisURL != "redis://localhost:6379/1" || cfg.SavedStateTTLSec != 60 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Board.TotalSize != 720 || cfg.Board.WhiteCellsColor != (color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}) {
		t.Fatalf("unexpected board %+v", cfg.Board)
	}
	if cfg.Board.BlackCellsColor != chessboard.DefaultBlackCellsColor {
		t.Fatalf("unset color changed: %+v", cfg.Board)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"TRAINER_START_FEN":      "not a position",
		"BOARD_TOTAL_SIZE":       "-3",
		"BOARD_BACKGROUND_COLOR": "brown",
	}
	for k, v := range cases {
		clearEnv(t)
		t.Setenv(k, v)
		if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s=%q: want ErrInvalidConfig, got %v", k, v, err)
		}
	}
}

func TestLoadThemeFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "theme.yaml")
	theme := "total_size: 300\nbackground_color: \"#000000\"\nblack_cells_color: \"0x80112233\"\n"
	if err := os.WriteFile(path, []byte(theme), 0o644); err != nil {
		t.Fatalf("write theme: %v", err)
	}
	t.Setenv("BOARD_THEME_FILE", path)
	t.Setenv("BOARD_WHITE_CELLS_COLOR", "#FFFFFF")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := chessboard.Parameters{
		TotalSize:       300,
		BackgroundColor: color.RGBA{A: 0xff},
		WhiteCellsColor: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		BlackCellsColor: color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x80},
	}
	if cfg.Board != want {
		t.Fatalf("board: want %+v, got %+v", want, cfg.Board)
	}
}

func TestThemeApplyBadColor(t *testing.T) {
	th := &Theme{WhiteCellsColor: "#XYZ"}
	base := chessboard.DefaultParameters()
	got, err := th.Apply(base)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
	if got != base {
		t.Fatalf("base changed on error")
	}
}
