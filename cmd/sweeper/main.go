package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"entitlement/internal/adapter/repo"
	"entitlement/internal/catalog"
	"entitlement/internal/feed"
	"entitlement/internal/infra"
	"entitlement/internal/store"
	"entitlement/internal/sweeper"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "sweeper")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	subs := repo.NewSubscriptionRepository(runner)
	ledger := repo.NewTrialLedgerRepository(runner)

	pushFeed := feed.New()
	defer pushFeed.Shutdown()

	st := store.New(subs, ledger, catalog.Default(), pushFeed, logger)
	sw := sweeper.New(subs, ledger, st, logger, cfg.SweepInterval)

	if err := sw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("sweeper: stopped with error")
	}
	logger.Info().Msg("sweeper: stopped")
}
