package sched

import (
	"context"
	"time"

	"telegram-tiktok-checker/internal/domain/ports/repository"
	"telegram-tiktok-checker/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// RetentionWorker periodically purges check history older than the configured
// retention window. Reports are kept, only per-name history rows age out.
type RetentionWorker struct {
	interval time.Duration
	keepDays int
	checks   repository.CheckRepository
	log      *zerolog.Logger
}

func NewRetentionWorker(interval time.Duration, keepDays int, checks repository.CheckRepository, logger *zerolog.Logger) *RetentionWorker {
	retLog := logger.With().Str("component", "RetentionWorker").Logger()
	return &RetentionWorker{
		interval: interval,
		keepDays: keepDays,
		checks:   checks,
		log:      &retLog,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info().Int("keep_days", w.keepDays).Msg("Starting retention worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -w.keepDays)
	n, err := w.checks.DeleteOlderThan(ctx, repository.NoTX, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("retention sweep error")
		return
	}
	if n > 0 {
		metrics.AddHistoryPurged(n)
		w.log.Info().Int64("count", n).Time("cutoff", cutoff).Msg("old check history purged")
	}
}
