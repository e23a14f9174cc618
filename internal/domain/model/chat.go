package model

import (
	"time"
)

type ThreadStatus string

const (
	ThreadActive   ThreadStatus = "active"
	ThreadFinished ThreadStatus = "finished"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in a thread's append-only history.
// Messages are never mutated or deleted by the turn pipeline.
type ChatMessage struct {
	ID        string
	ThreadID  string
	UserID    string
	Role      string // "user" | "assistant" | "system"
	Content   string
	Tokens    int
	CreatedAt time.Time
}

// ChatThread groups all messages of one conversation for one user.
type ChatThread struct {
	ID        string
	UserID    string
	Title     string
	Status    ThreadStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewChatThread(id, userID string) *ChatThread {
	now := time.Now()
	return &ChatThread{
		ID:        id,
		UserID:    userID,
		Status:    ThreadActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RecentWindow returns the last n messages, oldest first. It returns the
// input slice unchanged when it already fits.
func RecentWindow(msgs []ChatMessage, n int) []ChatMessage {
	if n <= 0 || len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
