package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stadtaev/cityquest/internal/config"
	"github.com/stadtaev/cityquest/internal/database"
	"github.com/stadtaev/cityquest/internal/quest"
	"github.com/stadtaev/cityquest/internal/server"
	"github.com/stadtaev/cityquest/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	docs, err := store.NewDocStore(ctx, db)
	if err != nil {
		return fmt.Errorf("preparing document store: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Catalog ---
	catalog, err := quest.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	logger.Info("catalog loaded", "points", catalog.TotalPoints())

	// --- Engine ---
	rules := quest.DefaultRules()
	rules.MinAnswerInterval = cfg.MinAnswerInterval
	if len(cfg.PrizeThresholds) > 0 {
		rules.PrizeThresholds = cfg.PrizeThresholds
	}

	engine := quest.NewEngine(logger, catalog, docs, docs, docs, rules)

	// --- HTTP Server ---
	api := server.NewAPI(logger, engine, db, cfg.AdminIDs, cfg.AdminKeyHash)
	srv := server.New(cfg.HTTPAddr, logger, api)

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
