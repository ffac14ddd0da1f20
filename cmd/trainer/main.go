package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/park285/endgame-trainer/internal/chessbuilder"
	appcfg "github.com/park285/endgame-trainer/internal/config"
	"github.com/park285/endgame-trainer/internal/desktop"
	"github.com/park285/endgame-trainer/internal/httpapi"
	"github.com/park285/endgame-trainer/internal/obslog"
	"github.com/park285/endgame-trainer/pkg/boarddto"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = obslog.L().Sync() }()

	fenFlag := &cli.StringFlag{Name: "fen", Usage: "start position in FEN"}
	restoreFlag := &cli.StringFlag{Name: "restore", Usage: "saved board id to reopen"}

	cmd := &cli.Command{
		Name:  "trainer",
		Usage: "chess endgame trainer board",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "serve boards over loopback HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "listen", Usage: "listen address (overrides TRAINER_LISTEN_ADDR)"},
					fenFlag,
				},
				Action: runServe,
			},
			{
				Name:   "desktop",
				Usage:  "open a board in a window",
				Flags:  []cli.Flag{fenFlag, restoreFlag},
				Action: runDesktop,
			},
			{
				Name:  "render",
				Usage: "write a position as PNG",
				Flags: []cli.Flag{
					fenFlag,
					&cli.StringFlag{Name: "out", Value: "board.png", Usage: "output file"},
				},
				Action: runRender,
			},
			{
				Name:  "snapshot",
				Usage: "fetch a board PNG from a running server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: "http://127.0.0.1:2888", Usage: "server base URL"},
					&cli.StringFlag{Name: "id", Required: true, Usage: "session id"},
					&cli.StringFlag{Name: "out", Value: "board.png", Usage: "output file"},
				},
				Action: runSnapshot,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		obslog.L().Error("trainer_exit", zap.Error(err))
		_ = obslog.L().Sync()
		os.Exit(1)
	}
}

func loadConfig(c *cli.Command) (*appcfg.AppConfig, error) {
	cfg, err := appcfg.Load()
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(c.String("fen")); v != "" {
		cfg.StartFEN = v
	}
	if v := strings.TrimSpace(c.String("listen")); v != "" {
		cfg.ListenAddr = v
	}
	return cfg, cfg.Validate()
}

func runServe(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := obslog.L()
	deps, err := chessbuilder.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv := httpapi.NewServer(deps.Service, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.ListenAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutdown_signal", zap.String("signal", sig.String()))
	}

	_ = srv.Shutdown()
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return deps.Service.Shutdown(sctx)
}

func runDesktop(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := obslog.L()
	deps, err := chessbuilder.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	resp, err := deps.Service.Create(ctx, boarddto.CreateSessionRequest{RestoreID: c.String("restore")})
	if err != nil {
		return err
	}
	if resp.Notice != "" {
		fmt.Fprintln(os.Stderr, resp.Notice)
	}
	fmt.Fprintf(os.Stderr, "board %s\n", resp.State.ID)

	win := desktop.NewWindow(deps.Service, deps.Renderer, resp.State.ID, logger)
	runErr := win.Run(resp.State.TurnText)
	if err := deps.Service.Shutdown(context.Background()); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func runRender(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	deps, err := chessbuilder.New(ctx, cfg, obslog.L())
	if err != nil {
		return err
	}
	defer deps.Close()

	resp, err := deps.Service.Create(ctx, boarddto.CreateSessionRequest{Notation: cfg.StartFEN})
	if err != nil {
		return err
	}
	data, err := deps.Service.PNG(ctx, resp.State.ID)
	if err != nil {
		return err
	}
	if err := deps.Service.Discard(ctx, resp.State.ID); err != nil {
		return err
	}
	return os.WriteFile(c.String("out"), data, 0o644)
}

func runSnapshot(ctx context.Context, c *cli.Command) error {
	client := httpapi.NewClient(c.String("addr"))
	data, err := client.BoardPNG(ctx, c.String("id"))
	if err != nil {
		return err
	}
	return os.WriteFile(c.String("out"), data, 0o644)
}
