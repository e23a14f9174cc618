// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"grounded-chat/internal/domain"
	"grounded-chat/internal/domain/model"
	"grounded-chat/internal/domain/ports/adapter"
)

// memHistoryRepo is a small in-memory implementation used by unit tests.
type memHistoryRepo struct {
	mu        sync.RWMutex
	threads   map[string]*model.ChatThread
	messages  map[string][]model.ChatMessage // by thread id, append order
	appendErr error                          // used by tests to simulate append failures
	readErr   error
}

func newMemHistoryRepo() *memHistoryRepo {
	return &memHistoryRepo{
		threads:  make(map[string]*model.ChatThread),
		messages: make(map[string][]model.ChatMessage),
	}
}

func (m *memHistoryRepo) SaveThread(ctx context.Context, t *model.ChatThread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.threads[t.ID] = &cp
	return nil
}

func (m *memHistoryRepo) FindThread(ctx context.Context, id string) (*model.ChatThread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.threads[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memHistoryRepo) FindThreadsByUser(ctx context.Context, userID string) ([]*model.ChatThread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.ChatThread
	for _, t := range m.threads {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memHistoryRepo) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[msg.ThreadID] = append(m.messages[msg.ThreadID], *msg)
	return nil
}

func (m *memHistoryRepo) Messages(ctx context.Context, threadID, userID string) ([]model.ChatMessage, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ChatMessage
	for _, msg := range m.messages[threadID] {
		if msg.UserID == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memHistoryRepo) Totals(ctx context.Context) (int, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var msgs int64
	for _, v := range m.messages {
		msgs += int64(len(v))
	}
	return len(m.threads), msgs, nil
}

func (m *memHistoryRepo) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, msgs := range m.messages {
		kept := msgs[:0]
		for _, msg := range msgs {
			if msg.CreatedAt.Before(cutoff) {
				n++
				continue
			}
			kept = append(kept, msg)
		}
		m.messages[id] = kept
	}
	return n, nil
}

// fakeLocker scripts the per-thread turn lock.
type fakeLocker struct {
	lockErr error
	locks   int
	unlocks int
	lastKey string
}

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.locks++
	f.lastKey = key
	if f.lockErr != nil {
		return "", f.lockErr
	}
	return "token", nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	f.unlocks++
	return nil
}

// fakeSearch scripts the grounding call.
type fakeSearch struct {
	results   []model.SearchResult
	err       error
	lastQuery string
	calls     int
}

func (f *fakeSearch) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	f.calls++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeStreamAI scripts the completion call and records the prompt it saw.
type fakeStreamAI struct {
	deltas     []string
	err        error
	usage      adapter.Usage
	lastPrompt []adapter.Message
	calls      int
}

func (f *fakeStreamAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake-model"}, nil
}

func (f *fakeStreamAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n, nil
}

func (f *fakeStreamAI) ChatStream(ctx context.Context, model string, messages []adapter.Message, emit adapter.StreamFunc) (string, adapter.Usage, error) {
	f.calls++
	f.lastPrompt = messages
	var full string
	for _, d := range f.deltas {
		full += d
		if emit != nil {
			if err := emit(d); err != nil {
				return "", adapter.Usage{}, err
			}
		}
	}
	if f.err != nil {
		return "", adapter.Usage{}, f.err
	}
	return full, f.usage, nil
}
