// File: internal/usecase/prompt.go
package usecase

import (
	"fmt"
	"strings"

	"grounded-chat/internal/domain/model"
	"grounded-chat/internal/domain/ports/adapter"
)

// composeMessages builds the full model request: one system message
// (persona + behavioral instructions + grounding block) followed by the
// truncated history in original chronological order. History messages
// are copied, never mutated.
func composeMessages(assistantName string, grounding []model.SearchResult, history []model.ChatMessage) []adapter.Message {
	out := make([]adapter.Message, 0, len(history)+1)
	out = append(out, adapter.Message{
		Role:    model.RoleSystem,
		Content: systemPrompt(assistantName, grounding),
	})
	for _, m := range history {
		out = append(out, adapter.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func systemPrompt(assistantName string, grounding []model.SearchResult) string {
	return fmt.Sprintf(`- You are %s, a helpful AI assistant.
- You give clear and concise answers in a polite, professional tone.
- You answer questions truthfully and accurately.
- Use the sources below to answer the question. If a source contains
  information that is not relevant to the user's question, do not carry
  that information into your answer; convey only what is relevant.
  Here are the sources: {%s}`, assistantName, formatGrounding(grounding))
}

// formatGrounding renders search results as newline-joined
// "name/url/content" records, the shape the model is instructed to read.
func formatGrounding(results []model.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("name: %s\nurl: %s\ncontent: %s", r.Name, r.URL, r.Snippet))
	}
	return strings.Join(parts, "\n")
}
