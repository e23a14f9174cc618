//go:build !integration

package web

import (
	"context"

	"grounded-chat/internal/domain/model"
	"grounded-chat/internal/domain/ports/adapter"
)

// mockTurnUC scripts the turn pipeline for handler tests.
type mockTurnUC struct {
	startErr error
	turnErr  error
	deltas   []string
	reply    string

	lastThreadID string
	lastUserID   string
	lastText     string

	transcript    []model.ChatMessage
	transcriptErr error
	threads       []*model.ChatThread
}

func (m *mockTurnUC) StartThread(ctx context.Context, userID string) (*model.ChatThread, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return model.NewChatThread("thread-new", userID), nil
}

func (m *mockTurnUC) SendTurn(ctx context.Context, threadID, userID, text string, emit adapter.StreamFunc) (string, error) {
	m.lastThreadID = threadID
	m.lastUserID = userID
	m.lastText = text
	for _, d := range m.deltas {
		if emit != nil {
			if err := emit(d); err != nil {
				return "", err
			}
		}
	}
	if m.turnErr != nil {
		return "", m.turnErr
	}
	return m.reply, nil
}

func (m *mockTurnUC) Transcript(ctx context.Context, threadID, userID string) ([]model.ChatMessage, error) {
	if m.transcriptErr != nil {
		return nil, m.transcriptErr
	}
	return m.transcript, nil
}

func (m *mockTurnUC) ListThreads(ctx context.Context, userID string) ([]*model.ChatThread, error) {
	return m.threads, nil
}

type mockStatsUC struct {
	threads  int
	messages int64
	err      error
}

func (m *mockStatsUC) Totals(ctx context.Context) (int, int64, error) {
	return m.threads, m.messages, m.err
}
