package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"grounded-chat/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Totals(ctx context.Context) (threads int, messages int64, err error)
}

type statsUC struct {
	history repository.ChatHistoryRepository
	log     *zerolog.Logger
}

func NewStatsUseCase(history repository.ChatHistoryRepository, logger *zerolog.Logger) *statsUC {
	return &statsUC{history: history, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (int, int64, error) {
	return s.history.Totals(ctx)
}
