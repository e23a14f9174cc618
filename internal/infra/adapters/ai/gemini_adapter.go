// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"grounded-chat/internal/domain/ports/adapter"
	"grounded-chat/internal/infra/metrics"
)

var _ adapter.CompletionAdapter = (*GeminiAdapter)(nil)

type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
	maxOut       int
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string, maxOut int) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel, maxOut: maxOut}, nil
}

func (g *GeminiAdapter) ListModels(ctx context.Context) ([]string, error) {
	models := g.client.Models.All(ctx)
	var out []string
	for m := range models {
		if m.Name != "" {
			out = append(out, m.Name)
		}
	}
	if len(out) == 0 && g.defaultModel != "" {
		out = []string{g.defaultModel}
	}
	return out, nil
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	contents := toGenAIHistory(messages)
	// Per docs, CountTokens takes []*genai.Content. (NOT []genai.Part)
	// https://ai.google.dev/gemini-api/docs/tokens?hl=en#go
	resp, err := g.client.Models.CountTokens(ctx, modelOrDefault(model, g.defaultModel), contents, nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

func (g *GeminiAdapter) ChatStream(ctx context.Context, model string, messages []adapter.Message, emit adapter.StreamFunc) (string, adapter.Usage, error) {
	if len(messages) == 0 {
		return "", adapter.Usage{}, errors.New("gemini: no messages")
	}
	last := messages[len(messages)-1]
	if strings.ToLower(last.Role) != "user" {
		return "", adapter.Usage{}, errors.New("gemini: last message must be from user")
	}
	history := toGenAIHistory(messages[:len(messages)-1])

	chat, err := g.client.Chats.Create(
		ctx,
		modelOrDefault(model, g.defaultModel),
		&genai.GenerateContentConfig{
			MaxOutputTokens: int32(g.maxOut),
		},
		history,
	)
	if err != nil {
		return "", adapter.Usage{}, err
	}

	start := time.Now()
	var sb strings.Builder
	u := adapter.Usage{}
	for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: last.Content}) {
		if err != nil {
			metrics.ObserveCompletion("gemini", model, 0, 0, 0, int(time.Since(start).Milliseconds()), false)
			return "", adapter.Usage{}, err
		}
		text := ""
		if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			for _, p := range resp.Candidates[0].Content.Parts {
				text += p.Text
			}
		}
		// Usage arrives cumulatively; the last chunk wins.
		if resp != nil && resp.UsageMetadata != nil {
			u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
			u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
		}
		if text == "" {
			continue
		}
		sb.WriteString(text)
		metrics.IncStreamDelta("gemini", model)
		if emit != nil {
			if err := emit(text); err != nil {
				metrics.ObserveCompletion("gemini", model, 0, 0, 0, int(time.Since(start).Milliseconds()), false)
				return "", adapter.Usage{}, err
			}
		}
	}
	metrics.ObserveCompletion("gemini", model, u.PromptTokens, u.CompletionTokens, u.TotalTokens, int(time.Since(start).Milliseconds()), true)
	return sb.String(), u, nil
}

func toGenAIHistory(msgs []adapter.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		switch strings.ToLower(m.Role) {
		case "assistant", "model":
			role = genai.RoleModel
		case "system":
			// Gemini has no separate "system" role in history;
			// treat as a user instruction here.
			role = genai.RoleUser
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return out
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
