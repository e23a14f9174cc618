package redis

import (
	"context"
	"encoding/json"
	"time"

	"grounded-chat/internal/domain/model"
	"grounded-chat/internal/infra/metrics"
)

// HistoryCache keeps the full message log of recently active threads so
// the per-turn history fetch usually skips Postgres. The store remains
// the source of truth; cache entries are dropped on every append and
// repopulated on the next read.
type HistoryCache struct {
	client *Client
	ttl    time.Duration
}

func NewHistoryCache(client *Client, ttl time.Duration) *HistoryCache {
	return &HistoryCache{
		client: client,
		ttl:    ttl,
	}
}

func key(threadID string) string { return "thread_msgs:" + threadID }

func (c *HistoryCache) StoreMessages(ctx context.Context, threadID string, msgs []model.ChatMessage) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(threadID), data, c.ttl)
}

func (c *HistoryCache) GetMessages(ctx context.Context, threadID string) ([]model.ChatMessage, bool) {
	data, err := c.client.Get(ctx, key(threadID))
	if err != nil {
		metrics.IncCacheRequest("history", "miss")
		return nil, false
	}

	var msgs []model.ChatMessage
	if err := json.Unmarshal([]byte(data), &msgs); err != nil {
		metrics.IncCacheRequest("history", "miss")
		return nil, false
	}
	metrics.IncCacheRequest("history", "hit")
	return msgs, true
}

func (c *HistoryCache) Invalidate(ctx context.Context, threadID string) error {
	return c.client.Del(ctx, key(threadID))
}
