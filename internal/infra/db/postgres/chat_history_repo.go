// File: internal/infra/db/postgres/chat_history_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"grounded-chat/internal/domain"
	"grounded-chat/internal/domain/model"
	"grounded-chat/internal/domain/ports/repository"
	"grounded-chat/internal/infra/metrics"
	"grounded-chat/internal/infra/redis"
	"grounded-chat/internal/infra/security"
)

// Compile-time check
var _ repository.ChatHistoryRepository = (*ChatHistoryRepo)(nil)

// ChatHistoryRepo is the default (and only) chat history repository.
// Message bodies are encrypted at rest when an EncryptionService is
// configured; the cache only ever holds plaintext.
type ChatHistoryRepo struct {
	pool          *pgxpool.Pool
	cache         *redis.HistoryCache
	encryptionSvc *security.EncryptionService
}

func NewChatHistoryRepo(pool *pgxpool.Pool, cache *redis.HistoryCache, encryptionSvc *security.EncryptionService) *ChatHistoryRepo {
	return &ChatHistoryRepo{pool: pool, cache: cache, encryptionSvc: encryptionSvc}
}

func (r *ChatHistoryRepo) SaveThread(ctx context.Context, t *model.ChatThread) error {
	const q = `
INSERT INTO chat_threads (id, user_id, title, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,COALESCE($5,NOW()),NOW())
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  status = EXCLUDED.status,
  updated_at = NOW();`
	if _, err := r.pool.Exec(ctx, q, t.ID, t.UserID, t.Title, string(t.Status), t.CreatedAt); err != nil {
		return fmt.Errorf("save thread: %w", err)
	}
	return nil
}

func (r *ChatHistoryRepo) FindThread(ctx context.Context, id string) (*model.ChatThread, error) {
	const q = `SELECT id, user_id, title, status, created_at, updated_at FROM chat_threads WHERE id=$1;`
	var t model.ChatThread
	var status string
	if err := r.pool.QueryRow(ctx, q, id).Scan(&t.ID, &t.UserID, &t.Title, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan thread: %w", err)
	}
	t.Status = model.ThreadStatus(status)
	return &t, nil
}

func (r *ChatHistoryRepo) FindThreadsByUser(ctx context.Context, userID string) ([]*model.ChatThread, error) {
	const q = `SELECT id, user_id, title, status, created_at, updated_at FROM chat_threads WHERE user_id=$1 ORDER BY updated_at DESC;`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	defer rows.Close()
	var out []*model.ChatThread
	for rows.Next() {
		var t model.ChatThread
		var status string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		t.Status = model.ThreadStatus(status)
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *ChatHistoryRepo) AppendMessage(ctx context.Context, m *model.ChatMessage) error {
	payload := m.Content
	encFlag := false
	if r.encryptionSvc != nil {
		enc, err := r.encryptionSvc.Encrypt(m.Content)
		if err != nil {
			return fmt.Errorf("encrypt msg: %w", err)
		}
		payload = enc
		encFlag = true
	}

	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	const q = `
INSERT INTO chat_messages (id, thread_id, user_id, role, content, tokens, encrypted, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	if _, err := r.pool.Exec(ctx, q, m.ID, m.ThreadID, m.UserID, m.Role, payload, m.Tokens, encFlag, created); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("append message: %w", err)
	}
	metrics.IncHistoryAppend(m.Role)

	// The cached log is now stale; the next read repopulates it.
	if r.cache != nil {
		_ = r.cache.Invalidate(ctx, m.ThreadID)
	}
	return nil
}

func (r *ChatHistoryRepo) Messages(ctx context.Context, threadID, userID string) ([]model.ChatMessage, error) {
	if r.cache != nil {
		if msgs, ok := r.cache.GetMessages(ctx, threadID); ok {
			return msgs, nil
		}
	}

	// ULIDs sort lexicographically by creation time, so ordering by id
	// keeps same-timestamp messages in append order.
	const q = `SELECT id, user_id, role, content, tokens, encrypted, created_at
FROM chat_messages WHERE thread_id=$1 AND user_id=$2 ORDER BY id ASC;`
	rows, err := r.pool.Query(ctx, q, threadID, userID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		var enc bool
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Content, &m.Tokens, &enc, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan msg: %w", err)
		}
		if enc {
			if r.encryptionSvc == nil {
				return nil, fmt.Errorf("message %s encrypted but no key configured", m.ID)
			}
			plain, err := r.encryptionSvc.Decrypt(m.Content)
			if err != nil {
				return nil, fmt.Errorf("decrypt msg: %w", err)
			}
			m.Content = plain
		}
		m.ThreadID = threadID
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}

	if r.cache != nil && len(out) > 0 {
		_ = r.cache.StoreMessages(ctx, threadID, out)
	}
	return out, nil
}

func (r *ChatHistoryRepo) Totals(ctx context.Context) (int, int64, error) {
	const q = `SELECT (SELECT COUNT(*) FROM chat_threads), (SELECT COUNT(*) FROM chat_messages);`
	var threads int
	var messages int64
	if err := r.pool.QueryRow(ctx, q).Scan(&threads, &messages); err != nil {
		return 0, 0, fmt.Errorf("totals: %w", err)
	}
	return threads, messages, nil
}

func (r *ChatHistoryRepo) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `DELETE FROM chat_messages WHERE created_at < $1;`
	tag, err := r.pool.Exec(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
