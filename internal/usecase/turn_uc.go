// File: internal/usecase/turn_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"grounded-chat/internal/domain"
	"grounded-chat/internal/domain/model"
	"grounded-chat/internal/domain/ports/adapter"
	"grounded-chat/internal/domain/ports/repository"
	"grounded-chat/internal/infra/logging"
	"grounded-chat/internal/infra/redis"
)

// Compile-time check
var _ TurnUseCase = (*turnUC)(nil)

type TurnUseCase interface {
	StartThread(ctx context.Context, userID string) (*model.ChatThread, error)
	// SendTurn runs one grounded chat turn: persist the user message,
	// search, compose, stream the completion through emit, then persist
	// the assistant message. It returns only after the assistant message
	// is durably appended, so the caller may close its stream safely.
	SendTurn(ctx context.Context, threadID, userID, text string, emit adapter.StreamFunc) (string, error)
	Transcript(ctx context.Context, threadID, userID string) ([]model.ChatMessage, error)
	ListThreads(ctx context.Context, userID string) ([]*model.ChatThread, error)
}

type turnUC struct {
	history       repository.ChatHistoryRepository
	search        adapter.SearchAdapter
	ai            adapter.CompletionAdapter
	locker        redis.Locker // nil disables per-thread serialization
	model         string
	assistantName string
	window        int
	log           *zerolog.Logger
}

func NewTurnUseCase(
	history repository.ChatHistoryRepository,
	search adapter.SearchAdapter,
	ai adapter.CompletionAdapter,
	locker redis.Locker,
	model, assistantName string,
	window int,
	logger *zerolog.Logger,
) *turnUC {
	if window <= 0 {
		window = 30
	}
	return &turnUC{
		history:       history,
		search:        search,
		ai:            ai,
		locker:        locker,
		model:         model,
		assistantName: assistantName,
		window:        window,
		log:           logger,
	}
}

func (u *turnUC) StartThread(ctx context.Context, userID string) (*model.ChatThread, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	t := model.NewChatThread(uuid.NewString(), userID)
	if err := u.history.SaveThread(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (u *turnUC) SendTurn(ctx context.Context, threadID, userID, text string, emit adapter.StreamFunc) (string, error) {
	defer logging.TraceDuration(u.log, "TurnUC.SendTurn")()

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrInvalidArgument
	}
	t, err := u.history.FindThread(ctx, threadID)
	if err != nil {
		return "", err
	}
	if t.UserID != userID {
		return "", domain.ErrNotThreadOwner
	}
	if t.Status != model.ThreadActive {
		return "", domain.ErrThreadFinished
	}

	// One in-flight turn per thread keeps the log strictly ordered.
	if u.locker != nil {
		token, err := u.locker.TryLock(ctx, redis.ThreadTurnKey(t.ID), 2*time.Minute)
		if err != nil {
			return "", err
		}
		defer func() { _ = u.locker.Unlock(ctx, redis.ThreadTurnKey(t.ID), token) }()
	}

	// Persist the user message before any model call so history reflects
	// the turn even if generation fails later.
	userTokens, _ := u.ai.CountTokens(ctx, u.model, []adapter.Message{{Role: model.RoleUser, Content: text}})
	um := &model.ChatMessage{
		ID:        ulid.Make().String(),
		ThreadID:  t.ID,
		UserID:    userID,
		Role:      model.RoleUser,
		Content:   text,
		Tokens:    userTokens,
		CreatedAt: time.Now(),
	}
	if err := u.history.AppendMessage(ctx, um); err != nil {
		return "", domain.HistoryErr(err)
	}

	msgs, err := u.history.Messages(ctx, t.ID, userID)
	if err != nil {
		return "", domain.HistoryErr(err)
	}
	window := model.RecentWindow(msgs, u.window)

	results, err := u.search.Search(ctx, text)
	if err != nil {
		return "", domain.SearchErr(err)
	}

	prompt := composeMessages(u.assistantName, results, window)

	reply, usage, err := u.ai.ChatStream(ctx, u.model, prompt, emit)
	if err != nil {
		return "", domain.CompletionErr(err)
	}

	am := &model.ChatMessage{
		ID:        ulid.Make().String(),
		ThreadID:  t.ID,
		UserID:    userID,
		Role:      model.RoleAssistant,
		Content:   reply,
		Tokens:    usage.CompletionTokens,
		CreatedAt: time.Now(),
	}
	if err := u.history.AppendMessage(ctx, am); err != nil {
		return "", domain.HistoryErr(err)
	}

	if t.Title == "" {
		t.Title = threadTitle(text)
	}
	t.UpdatedAt = time.Now()
	_ = u.history.SaveThread(ctx, t)
	return reply, nil
}

func (u *turnUC) Transcript(ctx context.Context, threadID, userID string) ([]model.ChatMessage, error) {
	t, err := u.history.FindThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, domain.ErrNotThreadOwner
	}
	return u.history.Messages(ctx, threadID, userID)
}

func (u *turnUC) ListThreads(ctx context.Context, userID string) ([]*model.ChatThread, error) {
	return u.history.FindThreadsByUser(ctx, userID)
}

func threadTitle(firstMessage string) string {
	const max = 64
	if len(firstMessage) <= max {
		return firstMessage
	}
	return firstMessage[:max]
}
