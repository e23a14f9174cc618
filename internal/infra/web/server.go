package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"grounded-chat/internal/config"
	"grounded-chat/internal/infra/logging"
	"grounded-chat/internal/infra/redis"
	"grounded-chat/internal/usecase"
)

type Server struct {
	turnUC  usecase.TurnUseCase
	statsUC usecase.StatsUseCase
	auth    *AuthManager
	limiter *redis.RateLimiter

	cfg    config.ServerConfig
	secret string // admin secret exchanged for a session
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(
	cfg config.ServerConfig,
	turnUC usecase.TurnUseCase,
	statsUC usecase.StatsUseCase,
	auth *AuthManager,
	limiter *redis.RateLimiter,
	adminSecret string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		turnUC:  turnUC,
		statsUC: statsUC,
		auth:    auth,
		limiter: limiter,
		cfg:     cfg,
		secret:  adminSecret,
		log:     logger,
	}
}

// Router builds the full route tree. Split from Start so tests can
// drive it with httptest.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(traceID)
	r.Use(requestLog(s.log))
	r.Use(recoverer(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(chatAuth)
		r.With(s.rateLimit).Post("/chat", chatHandler(s.turnUC, s.log))
		r.Get("/chat/{threadID}/messages", transcriptHandler(s.turnUC))
		r.Get("/threads", threadsHandler(s.turnUC))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.loginHandler)
		r.With(s.adminAuth).Get("/stats", statsHandler(s.statsUC))
	})

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Port).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// rateLimit caps chat turns per caller over a rolling window.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		userID := logging.UserID(r.Context())
		ok, err := s.limiter.Allow(r.Context(), redis.UserTurnKey(userID), s.cfg.RateLimit, s.cfg.RateWindow)
		if err != nil {
			// Rate limiting is advisory; a broken limiter must not take
			// the chat path down with it.
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loginHandler exchanges the shared admin secret for a short session.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if s.secret == "" {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if bearerToken(r) != s.secret {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	tok, err := s.auth.Mint(w)
	if err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"token":%q}`, tok)
}

func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
