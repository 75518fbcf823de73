package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"dcf_builder/pkg/api/config"
	"dcf_builder/pkg/api/middleware"
	"dcf_builder/pkg/api/valuation"
	coreConfig "dcf_builder/pkg/core/config"
	"dcf_builder/pkg/core/engine/loader"
	"dcf_builder/pkg/core/logging"
	"dcf_builder/pkg/core/store"
)

func main() {
	// 1. Configuration and logging
	cfg, err := coreConfig.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Console)

	ctx := context.Background()

	// 2. Numeric engine
	kind, err := loader.ParseKind(cfg.Engine.Kind)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid engine kind")
	}
	loadOpts := loader.Options{
		Preferred:     kind,
		AllowFallback: cfg.Engine.AllowFallback,
		SkipSelfCheck: cfg.Engine.SkipSelfCheck,
	}
	eng, err := loader.Load(ctx, loadOpts)
	if err != nil {
		log.Fatal().Err(err).Msg("no numeric engine could be loaded")
	}
	engines := loader.NewActive(eng, loadOpts)

	// 3. Case store: postgres when configured, files otherwise
	if cfg.Store.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.Store.DatabaseURL); err != nil {
			log.Warn().Err(err).Msg("database unavailable, falling back to file case store")
		} else {
			defer store.Close()
		}
	}
	cases := store.NewCaseStore(store.GetPool(), cfg.Store.CaseDir)

	// 4. Handlers
	memo := cache.New(cfg.Cache.TTL, cfg.Cache.Cleanup)
	valuationHandler := valuation.NewHandler(engines, cases, memo, valuation.Options{
		Workers:      cfg.MonteCarlo.Workers,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	configHandler := config.NewHandler(engines, cases.Backend())

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.CORS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter))
		valuationHandler.Routes(r)
		r.Get("/config", configHandler.HandleConfig)
		r.Post("/config/engine", configHandler.HandleSwitch)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().
		Str("port", cfg.Server.Port).
		Str("engine", eng.Name()).
		Str("case_store", cases.Backend()).
		Msg("Starting DCF API server")

	// 5. Serve until interrupted
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatal().Err(err).Msg("server failed")
	case <-quit:
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
