//go:build !integration

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grounded-chat/internal/domain"
	"grounded-chat/internal/domain/model"
)

func doChat(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer caller-token")
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestChatHandler(t *testing.T) {
	t.Run("streams deltas and returns 200", func(t *testing.T) {
		uc := &mockTurnUC{deltas: []string{"The capital ", "is Paris."}, reply: "The capital is Paris."}
		rr := doChat(t, newTestServer(uc, &mockStatsUC{}).Router(), `{"thread_id":"t1","message":"capital of France?"}`)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if got := rr.Body.String(); got != "The capital is Paris." {
			t.Errorf("body = %q", got)
		}
		if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("content type = %q", ct)
		}
		if rr.Header().Get("X-Thread-ID") != "t1" {
			t.Errorf("X-Thread-ID = %q", rr.Header().Get("X-Thread-ID"))
		}
		if uc.lastText != "capital of France?" {
			t.Errorf("message forwarded as %q", uc.lastText)
		}
	})

	t.Run("empty thread_id bootstraps a thread", func(t *testing.T) {
		uc := &mockTurnUC{deltas: []string{"hi"}, reply: "hi"}
		rr := doChat(t, newTestServer(uc, &mockStatsUC{}).Router(), `{"message":"hello"}`)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if rr.Header().Get("X-Thread-ID") != "thread-new" {
			t.Errorf("X-Thread-ID = %q", rr.Header().Get("X-Thread-ID"))
		}
		if uc.lastThreadID != "thread-new" {
			t.Errorf("turn ran on thread %q", uc.lastThreadID)
		}
	})

	t.Run("invalid body -> 400", func(t *testing.T) {
		rr := doChat(t, newTestServer(&mockTurnUC{}, &mockStatsUC{}).Router(), `{not json`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("empty message -> 400", func(t *testing.T) {
		uc := &mockTurnUC{turnErr: domain.ErrInvalidArgument}
		rr := doChat(t, newTestServer(uc, &mockStatsUC{}).Router(), `{"thread_id":"t1","message":"  "}`)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rr.Code)
		}
	})

	t.Run("unknown thread -> 404", func(t *testing.T) {
		uc := &mockTurnUC{turnErr: domain.ErrNotFound}
		rr := doChat(t, newTestServer(uc, &mockStatsUC{}).Router(), `{"thread_id":"nope","message":"hi"}`)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("someone else's thread -> 404", func(t *testing.T) {
		uc := &mockTurnUC{turnErr: domain.ErrNotThreadOwner}
		rr := doChat(t, newTestServer(uc, &mockStatsUC{}).Router(), `{"thread_id":"t1","message":"hi"}`)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})

	t.Run("search failure -> 502", func(t *testing.T) {
		uc := &mockTurnUC{turnErr: domain.SearchErr(errors.New("bing down"))}
		rr := doChat(t, newTestServer(uc, &mockStatsUC{}).Router(), `{"thread_id":"t1","message":"hi"}`)
		if rr.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rr.Code)
		}
	})

	t.Run("completion failure -> 502", func(t *testing.T) {
		uc := &mockTurnUC{turnErr: domain.CompletionErr(errors.New("model down"))}
		rr := doChat(t, newTestServer(uc, &mockStatsUC{}).Router(), `{"thread_id":"t1","message":"hi"}`)
		if rr.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rr.Code)
		}
	})

	t.Run("history failure -> 500", func(t *testing.T) {
		uc := &mockTurnUC{turnErr: domain.HistoryErr(errors.New("pg down"))}
		rr := doChat(t, newTestServer(uc, &mockStatsUC{}).Router(), `{"thread_id":"t1","message":"hi"}`)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
	})

	t.Run("untagged failure -> 500 Unknown Error", func(t *testing.T) {
		uc := &mockTurnUC{turnErr: errors.New("boom")}
		rr := doChat(t, newTestServer(uc, &mockStatsUC{}).Router(), `{"thread_id":"t1","message":"hi"}`)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rr.Code)
		}
		if got := strings.TrimSpace(rr.Body.String()); got != "Unknown Error" {
			t.Errorf("body = %q", got)
		}
	})

	t.Run("failure after first delta keeps the 200 stream", func(t *testing.T) {
		uc := &mockTurnUC{deltas: []string{"partial "}, turnErr: domain.CompletionErr(errors.New("cut off"))}
		rr := doChat(t, newTestServer(uc, &mockStatsUC{}).Router(), `{"thread_id":"t1","message":"hi"}`)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected committed 200, got %d", rr.Code)
		}
		if got := rr.Body.String(); got != "partial " {
			t.Errorf("body = %q, want only the emitted prefix", got)
		}
	})
}

func TestTranscriptHandler(t *testing.T) {
	now := time.Now()
	uc := &mockTurnUC{transcript: []model.ChatMessage{
		{ID: "m1", Role: model.RoleUser, Content: "hi", CreatedAt: now},
		{ID: "m2", Role: model.RoleAssistant, Content: "hello", CreatedAt: now},
	}}
	router := newTestServer(uc, &mockStatsUC{}).Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/t1/messages", nil)
	req.Header.Set("Authorization", "Bearer caller-token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Data []messageResponse `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0].ID != "m1" || resp.Data[1].Role != model.RoleAssistant {
		t.Errorf("unexpected transcript: %+v", resp.Data)
	}
}

func TestTranscriptHandler_NotFound(t *testing.T) {
	uc := &mockTurnUC{transcriptErr: domain.ErrNotFound}
	router := newTestServer(uc, &mockStatsUC{}).Router()

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/missing/messages", nil)
	req.Header.Set("Authorization", "Bearer caller-token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	server := newTestServer(&mockTurnUC{}, &mockStatsUC{threads: 3, messages: 42})
	router := server.Router()

	login := httptest.NewRequest(http.MethodPost, "/api/v1/login", nil)
	login.Header.Set("Authorization", "Bearer test-admin-secret")
	lr := httptest.NewRecorder()
	router.ServeHTTP(lr, login)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	for _, c := range lr.Result().Cookies() {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		TotalThreads  int   `json:"total_threads"`
		TotalMessages int64 `json:"total_messages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if resp.TotalThreads != 3 || resp.TotalMessages != 42 {
		t.Errorf("totals = %+v", resp)
	}
}
