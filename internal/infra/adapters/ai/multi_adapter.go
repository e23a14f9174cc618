// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"errors"
	"strings"

	"grounded-chat/internal/domain/ports/adapter"
)

var _ adapter.CompletionAdapter = (*MultiAdapter)(nil)

// MultiAdapter routes each call to a provider adapter by model name.
type MultiAdapter struct {
	defaultProvider string // e.g., "openai" or "gemini"
	byProvider      map[string]adapter.CompletionAdapter
	modelToProvider map[string]string // model -> provider ("openai" | "gemini")
}

// NewMultiAdapter does not inject any default model; it only knows a default
// provider. Each provider adapter is responsible for its own default model.
func NewMultiAdapter(
	defaultProvider string,
	byProvider map[string]adapter.CompletionAdapter,
	modelToProvider map[string]string,
) *MultiAdapter {
	return &MultiAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		modelToProvider: modelToProvider,
	}
}

func (m *MultiAdapter) resolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.HasPrefix(l, "gpt"):
		return "openai"
	default:
		return m.defaultProvider
	}
}

func (m *MultiAdapter) pick(model string) adapter.CompletionAdapter {
	prov := m.resolveProvider(model)
	if a := m.byProvider[prov]; a != nil {
		return a
	}
	// last resort: first available
	for _, a := range m.byProvider {
		if a != nil {
			return a
		}
	}
	return nil
}

func (m *MultiAdapter) ListModels(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(m.modelToProvider)+4)

	// 1) models explicitly mapped in config
	for model := range m.modelToProvider {
		if _, ok := seen[model]; !ok {
			seen[model] = struct{}{}
			out = append(out, model)
		}
	}

	// 2) union of each provider's ListModels (often returns their default)
	for _, a := range m.byProvider {
		list, _ := a.ListModels(ctx)
		for _, name := range list {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
	}
	return out, nil
}

func (m *MultiAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	a := m.pick(model)
	if a == nil {
		return 0, nil
	}
	return a.CountTokens(ctx, model, messages)
}

func (m *MultiAdapter) ChatStream(ctx context.Context, model string, messages []adapter.Message, emit adapter.StreamFunc) (string, adapter.Usage, error) {
	a := m.pick(model)
	if a == nil {
		return "", adapter.Usage{}, errors.New("no provider configured for model " + model)
	}
	return a.ChatStream(ctx, model, messages, emit)
}
