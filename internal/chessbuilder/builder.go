package chessbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/endgame-trainer/internal/chessboard"
	"github.com/park285/endgame-trainer/internal/config"
	"github.com/park285/endgame-trainer/internal/msgcat"
	"github.com/park285/endgame-trainer/internal/render"
	"github.com/park285/endgame-trainer/internal/savedstate"
	"github.com/park285/endgame-trainer/internal/trainer"
)

type Deps struct {
	Service  *trainer.Service
	Renderer *render.Renderer
	Store    savedstate.Store
	Catalog  *msgcat.Catalog
}

// Close releases the saved state store. Call Service.Shutdown first.
func (d *Deps) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}

// New wires a trainer service from cfg. Saved boards go to Redis when
// REDIS_URL is set and stay in process otherwise.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pieces, err := render.NewPieceSet(cfg.PiecesDir)
	if err != nil {
		return nil, fmt.Errorf("load pieces: %w", err)
	}
	renderer := render.New(pieces, render.WithCoordinates(true))
	if dir := strings.TrimSpace(cfg.PiecesDir); dir != "" {
		var overridden []string
		for _, symbol := range "PNBRQKpnbrqk" {
			if pieces.Overridden(symbol) {
				overridden = append(overridden, string(symbol))
			}
		}
		logger.Info("piece_overrides", zap.String("dir", dir), zap.Strings("symbols", overridden))
	}

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	ttl := time.Duration(cfg.SavedStateTTLSec) * time.Second
	var store savedstate.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rs, rerr := savedstate.NewRedisStore(pctx, cfg.RedisURL, ttl)
		if rerr != nil {
			return nil, fmt.Errorf("init saved state store: %w", rerr)
		}
		store = rs
		logger.Info("saved_state_store", zap.String("kind", "redis"), zap.Duration("ttl", ttl))
	} else {
		store = savedstate.NewMemoryStore(ttl)
		logger.Info("saved_state_store", zap.String("kind", "memory"), zap.Duration("ttl", ttl))
	}

	svc, err := trainer.NewService(chessboard.NewEngine(), store, renderer, catalog, trainer.Config{
		Board:    cfg.Board,
		StartFEN: cfg.StartFEN,
	}, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Deps{Service: svc, Renderer: renderer, Store: store, Catalog: catalog}, nil
}
