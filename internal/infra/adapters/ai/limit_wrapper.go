package ai

import (
	"context"

	"grounded-chat/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.CompletionAdapter = (*limitedAI)(nil)

// limitedAI caps concurrent in-flight provider calls with a semaphore.
type limitedAI struct {
	inner adapter.CompletionAdapter
	sem   chan struct{}
}

func NewLimitedAI(inner adapter.CompletionAdapter, maxConcurrent int) adapter.CompletionAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) ListModels(ctx context.Context) ([]string, error) {
	return l.inner.ListModels(ctx)
}

func (l *limitedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return l.inner.CountTokens(ctx, model, messages)
}

func (l *limitedAI) ChatStream(ctx context.Context, model string, messages []adapter.Message, emit adapter.StreamFunc) (string, adapter.Usage, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.ChatStream(ctx, model, messages, emit)
}
