// File: internal/infra/adapters/ai/openai_adapter.go
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"grounded-chat/internal/domain/ports/adapter"
	"grounded-chat/internal/infra/metrics"
)

// Compile-time check
var _ adapter.CompletionAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.CompletionAdapter with the official
// SDK. A non-empty base URL points it at any OpenAI-compatible gateway.
type OpenAIAdapter struct {
	client openai.Client
	model  string
	maxOut int
}

func NewOpenAIAdapter(apiKey, baseURL, model string, maxOut int) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	return &OpenAIAdapter{
		client: openai.NewClient(opts...),
		model:  model,
		maxOut: maxOut,
	}, nil
}

func (o *OpenAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	page, err := o.client.Models.List(ctx)
	if err != nil {
		return []string{o.model}, nil
	}
	out := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		out = append(out, m.ID)
	}
	if len(out) == 0 {
		out = []string{o.model}
	}
	return out, nil
}

// CountTokens encodes locally with tiktoken. Counts omit the per-message
// framing overhead, which is close enough for window accounting.
func (o *OpenAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	if model == "" {
		model = o.model
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0, err
		}
	}
	total := 0
	for _, m := range messages {
		total += len(enc.Encode(m.Content, nil, nil))
	}
	return total, nil
}

func (o *OpenAIAdapter) ChatStream(ctx context.Context, model string, messages []adapter.Message, emit adapter.StreamFunc) (string, adapter.Usage, error) {
	if model == "" {
		model = o.model
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(messages),
	}
	if o.maxOut > 0 {
		params.MaxTokens = openai.Int(int64(o.maxOut))
	}

	start := time.Now()
	stream := o.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		metrics.IncStreamDelta("openai", model)
		if emit != nil {
			if err := emit(delta); err != nil {
				metrics.ObserveCompletion("openai", model, 0, 0, 0, int(time.Since(start).Milliseconds()), false)
				return "", adapter.Usage{}, err
			}
		}
	}
	if err := stream.Err(); err != nil {
		metrics.ObserveCompletion("openai", model, 0, 0, 0, int(time.Since(start).Milliseconds()), false)
		return "", adapter.Usage{}, err
	}

	text := ""
	if len(acc.Choices) > 0 {
		text = acc.Choices[0].Message.Content
	}
	u := adapter.Usage{
		PromptTokens:     int(acc.Usage.PromptTokens),
		CompletionTokens: int(acc.Usage.CompletionTokens),
		TotalTokens:      int(acc.Usage.TotalTokens),
	}
	metrics.ObserveCompletion("openai", model, u.PromptTokens, u.CompletionTokens, u.TotalTokens, int(time.Since(start).Milliseconds()), true)
	return text, u, nil
}

func toOpenAIMessages(messages []adapter.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, m := range messages {
		switch strings.ToLower(m.Role) {
		case "system":
			out[i] = openai.SystemMessage(m.Content)
		case "assistant":
			out[i] = openai.AssistantMessage(m.Content)
		default:
			out[i] = openai.UserMessage(m.Content)
		}
	}
	return out
}
