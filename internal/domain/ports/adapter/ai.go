package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamFunc receives output deltas in generation order. Returning an
// error aborts the stream (e.g. the client went away).
type StreamFunc func(delta string) error

// CompletionAdapter is the port for streaming LLM chat.
type CompletionAdapter interface {
	ListModels(ctx context.Context) ([]string, error)

	// CountTokens must return prompt tokens for the provided messages
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	// ChatStream invokes the model in streaming mode, forwarding each
	// delta to emit as it arrives, and returns the full joined text once
	// the stream completes. emit may be nil when the caller only wants
	// the final text.
	ChatStream(ctx context.Context, model string, messages []Message, emit StreamFunc) (string, Usage, error)
}
