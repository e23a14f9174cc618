package repository

import (
	"context"
	"time"

	"grounded-chat/internal/domain/model"
)

// -----------------------------
// Chat history
// -----------------------------

// ChatHistoryRepository is the port for the durable, per-thread,
// append-only message log. Implementations own ordering and durability;
// callers never mutate or delete individual messages.
type ChatHistoryRepository interface {
	SaveThread(ctx context.Context, thread *model.ChatThread) error
	FindThread(ctx context.Context, id string) (*model.ChatThread, error)
	FindThreadsByUser(ctx context.Context, userID string) ([]*model.ChatThread, error)

	// AppendMessage adds one message to a thread's log.
	AppendMessage(ctx context.Context, msg *model.ChatMessage) error
	// Messages returns the full log of a thread in chronological order.
	Messages(ctx context.Context, threadID, userID string) ([]model.ChatMessage, error)

	// Totals reports thread and message counts for the admin surface.
	Totals(ctx context.Context) (threads int, messages int64, err error)
	// DeleteMessagesBefore removes messages older than cutoff; used by the
	// retention sweeper only, never by the turn pipeline.
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
