// File: internal/infra/adapters/search/bing_search.go
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"grounded-chat/internal/domain/model"
	"grounded-chat/internal/domain/ports/adapter"
	"grounded-chat/internal/infra/metrics"
)

// Compile-time check
var _ adapter.SearchAdapter = (*BingAdapter)(nil)

// BingAdapter implements adapter.SearchAdapter against the Bing Web
// Search v7 API. Responses with no webPages block are a valid empty
// result, not a failure.
type BingAdapter struct {
	key        string
	endpoint   string // e.g., https://api.bing.microsoft.com
	market     string
	maxResults int
	client     *http.Client
}

func NewBingAdapter(key, endpoint, market string, maxResults int, timeout time.Duration) (*BingAdapter, error) {
	if key == "" {
		return nil, errors.New("bing search key empty")
	}
	if endpoint == "" {
		endpoint = "https://api.bing.microsoft.com"
	}
	if market == "" {
		market = "en-US"
	}
	if maxResults <= 0 {
		maxResults = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BingAdapter{
		key:        key,
		endpoint:   strings.TrimRight(endpoint, "/"),
		market:     market,
		maxResults: maxResults,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (b *BingAdapter) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	start := time.Now()
	results, err := b.search(ctx, query)
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		metrics.ObserveSearch("error", latency, 0)
		return nil, err
	}
	if len(results) == 0 {
		metrics.ObserveSearch("empty", latency, 0)
	} else {
		metrics.ObserveSearch("ok", latency, len(results))
	}
	return results, nil
}

func (b *BingAdapter) search(ctx context.Context, query string) ([]model.SearchResult, error) {
	u := fmt.Sprintf("%s/v7.0/search?q=%s&mkt=%s&count=%d",
		b.endpoint, url.QueryEscape(query), url.QueryEscape(b.market), b.maxResults)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.key)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bing http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("bing response parse: %w", err)
	}

	out := make([]model.SearchResult, 0, b.maxResults)
	for _, v := range payload.WebPages.Value {
		out = append(out, model.SearchResult{
			Name:    v.Name,
			URL:     v.URL,
			Snippet: v.Snippet,
		})
		if len(out) >= b.maxResults {
			break
		}
	}
	return out, nil
}
