package search

import (
	"context"

	"grounded-chat/internal/domain/model"
	"grounded-chat/internal/domain/ports/adapter"
)

var _ adapter.SearchAdapter = (*NoopSearchAdapter)(nil)

// NoopSearchAdapter returns no results, so turns run ungrounded.
// Used for local/dev runs without a search key.
type NoopSearchAdapter struct{}

func NewNoopSearchAdapter() *NoopSearchAdapter {
	return &NoopSearchAdapter{}
}

func (a *NoopSearchAdapter) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	return nil, nil
}
