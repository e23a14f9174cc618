package ai

import (
	"context"
	"strings"
	"time"

	"grounded-chat/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.CompletionAdapter for local/dev runs.
// It echoes a canned reply in a few deltas instead of calling a provider.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{"noop-model"}, nil
}

// CountTokens approximates one token per whitespace-separated word.
func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	total := 0
	for _, m := range messages {
		total += len(strings.Fields(m.Content))
	}
	return total, nil
}

func (a *NoopAIAdapter) ChatStream(ctx context.Context, model string, messages []adapter.Message, emit adapter.StreamFunc) (string, adapter.Usage, error) {
	reply := "This is a canned development response."
	words := strings.SplitAfter(reply, " ")
	for _, w := range words {
		select {
		case <-time.After(20 * time.Millisecond):
		case <-ctx.Done():
			return "", adapter.Usage{}, ctx.Err()
		}
		if emit != nil {
			if err := emit(w); err != nil {
				return "", adapter.Usage{}, err
			}
		}
	}
	in, _ := a.CountTokens(ctx, model, messages)
	out := len(words)
	return reply, adapter.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}, nil
}
