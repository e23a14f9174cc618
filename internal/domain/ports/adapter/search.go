package adapter

import (
	"context"

	"grounded-chat/internal/domain/model"
)

// SearchAdapter is the port for the web-search grounding call.
// Implementations return a bounded result set and MUST treat "no
// results" as an empty slice, not an error.
type SearchAdapter interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}
