package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"entitlement/internal/adapter/repo"
	"entitlement/internal/catalog"
	"entitlement/internal/evaluator"
	"entitlement/internal/feed"
	"entitlement/internal/gate"
	"entitlement/internal/http/handlers"
	httpapi "entitlement/internal/http/httpapi"
	"entitlement/internal/infra"
	"entitlement/internal/infra/geoip"
	"entitlement/internal/middleware"
	"entitlement/internal/store"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open geoip database")
	}
	var countryLookup middleware.CountryLookup
	if resolver != nil {
		defer resolver.Close()
		countryLookup = resolver.CountryCode
	}

	runner := infra.NewSQLRunner(dbpool, logger)
	subs := repo.NewSubscriptionRepository(runner)
	ledger := repo.NewTrialLedgerRepository(runner)

	cat := catalog.Default()
	pushFeed := feed.New()
	defer pushFeed.Shutdown()

	st := store.New(subs, ledger, cat, pushFeed, logger)
	eval := evaluator.NewService(subs, ledger, st, logger)

	app := &handlers.App{
		Store:     st,
		Evaluator: eval,
		Gate:      gate.New(cat),
		Catalog:   cat,
		Subs:      subs,
		Feed:      pushFeed,
		Logger:    logger,
	}

	router := httpapi.NewRouter(app, cfg, logger, countryLookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
