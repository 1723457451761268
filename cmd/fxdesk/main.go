package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fxdesk/fxdesk/config"
	"github.com/fxdesk/fxdesk/internal/board"
	"github.com/fxdesk/fxdesk/internal/domain"
	"github.com/fxdesk/fxdesk/internal/services/desk"
	"github.com/fxdesk/fxdesk/internal/services/feed"
	"github.com/fxdesk/fxdesk/internal/services/quoter"
	"github.com/fxdesk/fxdesk/internal/services/spreads"
	"github.com/fxdesk/fxdesk/internal/services/synth"
	"github.com/fxdesk/fxdesk/internal/setup"
	"github.com/fxdesk/fxdesk/internal/storage/settings"
	"github.com/fxdesk/fxdesk/internal/web"
)

const (
	staleThreshold = 5 * time.Second
	staleCheck     = 2 * time.Second
	renderInterval = 200 * time.Millisecond
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI(); err != nil {
			logger.Fatal("setup wizard failed", zap.Error(err))
		}
		return
	}

	cfg, err := config.Get()
	if err != nil {
		logger.Fatal("failed to get configuration", zap.Error(err))
	}

	store, err := settings.NewStore(cfg.SettingsDir)
	if err != nil {
		logger.Fatal("failed to open settings store", zap.Error(err))
	}
	defer store.Close()

	conventions := domain.NewConventionTable()
	precisions, err := store.Precisions()
	if err != nil {
		logger.Fatal("failed to replay settings", zap.Error(err))
	}
	for code, dp := range precisions {
		pair, err := domain.ParsePair(code)
		if err != nil {
			logger.Warn("skipping bad pair in settings", zap.String("pair", code))
			continue
		}
		conventions.SetRoundDPOverride(pair, dp)
	}

	spreadSet, err := spreads.LoadDir(cfg.SpreadsDir, logger)
	if err != nil {
		logger.Fatal("failed to load spread matrices", zap.Error(err))
	}

	book := domain.NewRateBook()
	engine := quoter.NewEngine(conventions, spreadSet, logger)
	synthesizer := synth.NewSynthesizer(conventions, spreadSet, logger)
	d := desk.New(book, engine, synthesizer, conventions, spreadSet, cfg.OrderSize, cfg.Variant, store, logger)

	sim := feed.NewSim(time.Now().UnixNano(), logger)

	// prime the book so the first frames carry data
	for _, tk := range sim.Step() {
		d.OnTick(tk.Pair, tk.Bid, tk.Offer, tk.High, tk.Low)
	}
	if err := d.SetActivePair(cfg.Pair); err != nil {
		logger.Fatal("failed to activate pair", zap.String("pair", cfg.Pair.String()), zap.Error(err))
	}
	logger.Info("started",
		zap.String("pair", cfg.Pair.String()),
		zap.Float64("order_size", cfg.OrderSize),
		zap.String("variant", string(cfg.Variant)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := feed.NewStaleWatcher(staleThreshold, logger)
	sink := feed.Watched(d, watcher)
	server := web.NewServer(cfg.ListenAddr, d, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sim.Run(ctx, sink, cfg.TickInterval)
	})
	g.Go(func() error {
		return watcher.Run(ctx, staleCheck)
	})
	g.Go(func() error {
		return server.Start(ctx)
	})
	g.Go(func() error {
		return renderLoop(ctx, d)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("terminal stopped", zap.Error(err))
	}
}

func renderLoop(ctx context.Context, d *desk.Desk) error {
	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pv, _ := d.PipValue()
			frame := board.Render(board.View{
				Quote:     d.CurrentQuote(),
				Inverse:   d.CurrentInverse(),
				PipValue:  pv,
				OrderSize: d.OrderSize(),
				Variant:   d.Variant(),
			})
			fmt.Print("\033[H\033[2J" + frame + "\n")
		}
	}
}
