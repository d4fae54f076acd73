package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posagent/internal/config"
	"posagent/internal/infra"
	"posagent/internal/router"
	"posagent/internal/upstream"
	"posagent/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// The journal DB is optional: without it submissions still work, but
	// the attempt trail only lives until restart.
	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open journal database")
		}
	} else {
		log.Warn().Msg("DATABASE_URL empty — submission journal is in-memory only")
	}

	breaker := upstream.NewBreaker(upstream.DefaultBreakerConfig())
	client := upstream.NewClient(cfg.UpstreamURL, cfg.StoreID, breaker)
	client.SetToken(cfg.UpstreamToken)
	if cfg.UpstreamToken != "" {
		if exp, err := upstream.SessionExpiry(cfg.UpstreamToken); err == nil {
			log.Info().Time("expires", exp).Msg("backend session token loaded")
		} else {
			log.Warn().Err(err).Msg("backend session token is not a readable JWT")
		}
	}

	app := router.New(cfg, db, rdb, client)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := app.Catalog.Refresh(startupCtx); err != nil {
		// the agent still starts; scans will miss until the backend is back
		log.Warn().Err(err).Msg("initial catalog refresh failed")
	} else {
		log.Info().Int("products", app.Catalog.Size()).Msg("catalog loaded")
	}
	app.Manager.RestoreAll(startupCtx)
	startupCancel()

	scheduler := worker.Start(worker.Config{
		CatalogRefreshEvery: time.Duration(cfg.CatalogRefreshMinutes) * time.Minute,
		JournalRetention:    time.Duration(cfg.JournalRetentionDays) * 24 * time.Hour,
	}, app.Catalog, app.Journal)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      app.Engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("register agent listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down…")
	scheduler.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("agent exited")
}
