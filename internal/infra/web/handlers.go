package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"grounded-chat/internal/domain"
	"grounded-chat/internal/infra/logging"
	"grounded-chat/internal/infra/metrics"
	"grounded-chat/internal/usecase"
)

type chatRequest struct {
	ThreadID string `json:"thread_id"`
	Message  string `json:"message"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Tokens    int       `json:"tokens"`
	CreatedAt time.Time `json:"created_at"`
}

type threadResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// chatHandler runs one grounded turn and streams the reply as plain
// text. The response status is committed by the first delta, so errors
// surfacing after that point are logged, not sent.
func chatHandler(turnUC usecase.TurnUseCase, logger *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := logging.UserID(ctx)

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		threadID := req.ThreadID
		if threadID == "" {
			t, err := turnUC.StartThread(ctx, userID)
			if err != nil {
				logging.With(ctx, logger).Error().Err(err).Msg("thread bootstrap failed")
				http.Error(w, "Unknown Error", http.StatusInternalServerError)
				return
			}
			threadID = t.ID
		}
		ctx = logging.WithThreadID(ctx, threadID)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Thread-ID", threadID)

		flusher, _ := w.(http.Flusher)
		started := false
		emit := func(delta string) error {
			if _, err := w.Write([]byte(delta)); err != nil {
				return err
			}
			started = true
			if flusher != nil {
				flusher.Flush()
			}
			return nil
		}

		_, err := turnUC.SendTurn(ctx, threadID, userID, req.Message, emit)
		if err != nil {
			l := logging.With(ctx, logger)
			l.Error().Err(err).Msg("chat turn failed")
			metrics.IncTurn(turnOutcome(err))
			if started {
				// Too late to change the status line.
				return
			}
			writeTurnError(w, err)
			return
		}
		metrics.IncTurn("ok")
	}
}

func turnOutcome(err error) string {
	if kind := domain.TurnKind(err); kind != "" {
		return string(kind)
	}
	return "error"
}

func writeTurnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Message is required", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotThreadOwner):
		// Non-owners get the same answer as a missing thread.
		http.Error(w, "Thread not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrThreadFinished):
		http.Error(w, "Thread is finished", http.StatusConflict)
	case errors.Is(err, domain.ErrTurnInProgress):
		http.Error(w, "A turn is already running on this thread", http.StatusConflict)
	default:
		switch domain.TurnKind(err) {
		case domain.TurnSearch, domain.TurnCompletion:
			http.Error(w, "Upstream provider error", http.StatusBadGateway)
		case domain.TurnHistory:
			http.Error(w, "Storage error", http.StatusInternalServerError)
		default:
			http.Error(w, "Unknown Error", http.StatusInternalServerError)
		}
	}
}

// transcriptHandler returns the full message log of a thread.
func transcriptHandler(turnUC usecase.TurnUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := logging.UserID(ctx)
		threadID := chi.URLParam(r, "threadID")

		msgs, err := turnUC.Transcript(ctx, threadID, userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNotThreadOwner) {
				http.Error(w, "Thread not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load messages", http.StatusInternalServerError)
			return
		}

		data := make([]messageResponse, 0, len(msgs))
		for _, m := range msgs {
			data = append(data, messageResponse{
				ID:        m.ID,
				Role:      m.Role,
				Content:   m.Content,
				Tokens:    m.Tokens,
				CreatedAt: m.CreatedAt,
			})
		}
		response := struct {
			Data []messageResponse `json:"data"`
		}{Data: data}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// threadsHandler lists the caller's threads, most recently active first.
func threadsHandler(turnUC usecase.TurnUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := logging.UserID(ctx)

		threads, err := turnUC.ListThreads(ctx, userID)
		if err != nil {
			http.Error(w, "Failed to list threads", http.StatusInternalServerError)
			return
		}

		data := make([]threadResponse, 0, len(threads))
		for _, t := range threads {
			data = append(data, threadResponse{
				ID:        t.ID,
				Title:     t.Title,
				Status:    string(t.Status),
				CreatedAt: t.CreatedAt,
				UpdatedAt: t.UpdatedAt,
			})
		}
		response := struct {
			Data []threadResponse `json:"data"`
		}{Data: data}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// statsHandler serves service totals for the admin surface.
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		threads, messages, err := statsUC.Totals(ctx)
		if err != nil {
			http.Error(w, "Failed to get totals", http.StatusInternalServerError)
			return
		}

		response := struct {
			TotalThreads  int   `json:"total_threads"`
			TotalMessages int64 `json:"total_messages"`
		}{
			TotalThreads:  threads,
			TotalMessages: messages,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
