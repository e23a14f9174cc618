package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"grounded-chat/internal/domain/ports/repository"
	"grounded-chat/internal/infra/metrics"
)

// RetentionWorker periodically deletes messages older than the
// configured retention period.
type RetentionWorker struct {
	interval  time.Duration
	retention time.Duration
	history   repository.ChatHistoryRepository
	log       *zerolog.Logger
}

func NewRetentionWorker(interval time.Duration, retentionDays int, history repository.ChatHistoryRepository, logger *zerolog.Logger) *RetentionWorker {
	retLog := logger.With().Str("component", "RetentionWorker").Logger()
	return &RetentionWorker{
		interval:  interval,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		history:   history,
		log:       &retLog,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting retention worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			cutoff := time.Now().Add(-w.retention)
			n, err := w.history.DeleteMessagesBefore(ctx, cutoff)
			if err != nil {
				w.log.Error().Err(err).Msg("retention sweep error")
			}
			if n > 0 {
				metrics.AddMessagesSwept(n)
				w.log.Info().Int64("count", n).Time("cutoff", cutoff).Msg("old messages swept")
			}
		}
	}
}
