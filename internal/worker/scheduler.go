// Package worker runs the agent's background maintenance: periodic catalog
// refreshes and journal retention.
package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"posagent/internal/catalog"
	"posagent/internal/journal"
)

// Config carries the maintenance intervals.
type Config struct {
	CatalogRefreshEvery time.Duration
	JournalRetention    time.Duration
}

// Start schedules the maintenance jobs and runs them until Stop. The first
// catalog refresh already happened synchronously at startup, so the
// scheduler only keeps the cache from going stale.
func Start(cfg Config, cat *catalog.Service, repo journal.Repository) *gocron.Scheduler {
	s := gocron.NewScheduler(time.Local)

	if cfg.CatalogRefreshEvery > 0 {
		_, err := s.Every(cfg.CatalogRefreshEvery).Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := cat.Refresh(ctx); err != nil {
				log.Warn().Err(err).Msg("scheduled catalog refresh failed")
				return
			}
			log.Debug().Int("products", cat.Size()).Msg("catalog refreshed")
		})
		if err != nil {
			log.Error().Err(err).Msg("catalog refresh job not scheduled")
		}
	}

	if cfg.JournalRetention > 0 {
		_, err := s.Every(1).Day().At("03:30").Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			purged, err := repo.PurgeOlderThan(ctx, cfg.JournalRetention)
			if err != nil {
				log.Warn().Err(err).Msg("journal purge failed")
				return
			}
			if purged > 0 {
				log.Info().Int64("entries", purged).Msg("journal purged")
			}
		})
		if err != nil {
			log.Error().Err(err).Msg("journal purge job not scheduled")
		}
	}

	s.StartAsync()
	return s
}
