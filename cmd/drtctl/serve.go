package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"drtManager/internal/api"
	"drtManager/internal/catalog"
	"drtManager/internal/config"
	"drtManager/internal/storage/postgres"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a, err := openApp(cfg.Config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	server := api.NewServer(a.ledger, logger)
	g.Go(func() error {
		return server.ListenAndServe(ctx, cfg.Listen)
	})

	if cfg.Sync.CatalogDSN != "" {
		runner, closeCatalog, err := newCatalogRunner(ctx, a, cfg.Sync, logger)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer closeCatalog()
		g.Go(func() error {
			return runner.Run(ctx)
		})
	}

	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.String("store", cfg.Store),
		zap.String("program_id", a.ledger.ProgramID().String()),
		zap.Bool("catalog", cfg.Sync.CatalogDSN != ""),
		zap.Bool("faucet", cfg.FaucetEnabled),
	)

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Sync.CatalogDSN == "" {
		return fmt.Errorf("catalog dsn is required")
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a, err := openApp(cfg.Config, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, closeCatalog, err := newCatalogRunner(ctx, a, cfg.Sync, logger)
	if err != nil {
		return err
	}
	defer closeCatalog()

	if follow, _ := cmd.Flags().GetBool("follow"); follow {
		if err := runner.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	}
	last, err := runner.SyncOnce(ctx)
	if err != nil {
		return err
	}
	logger.Info("sync complete", zap.Uint64("last_slot", last))
	return nil
}

func newCatalogRunner(ctx context.Context, a *app, cfg config.SyncConfig, logger *zap.Logger) (*catalog.Runner, func(), error) {
	pools, err := catalog.ParsePools(cfg.Pools)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, cfg.CatalogDSN, logger); err != nil {
		return nil, nil, err
	}
	store, err := postgres.NewStore(ctx, cfg.CatalogDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	var state catalog.StateStore
	if cfg.Checkpoint != "" {
		state = &catalog.FileStateStore{Path: cfg.Checkpoint}
	} else {
		state = &catalog.DBStateStore{Store: store, Name: cfg.StateName}
	}

	runner := catalog.NewRunner(catalog.RunConfig{
		BatchSize:    cfg.BatchSize,
		Interval:     cfg.Interval,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Pools:        pools,
	}, a.ledger, store, state, nil, logger)
	return runner, store.Close, nil
}
