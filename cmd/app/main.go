// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grounded-chat/internal/config"
	"grounded-chat/internal/domain/ports/adapter"
	aiAdapters "grounded-chat/internal/infra/adapters/ai"
	searchAdapters "grounded-chat/internal/infra/adapters/search"
	pg "grounded-chat/internal/infra/db/postgres"
	"grounded-chat/internal/infra/logging"
	"grounded-chat/internal/infra/metrics"
	red "grounded-chat/internal/infra/redis"
	"grounded-chat/internal/infra/sched"
	"grounded-chat/internal/infra/security"
	"grounded-chat/internal/infra/web"
	"grounded-chat/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop providers when keys are missing)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	historyCache := red.NewHistoryCache(redisClient, cfg.Redis.TTL)
	turnLocker := red.NewLocker(redisClient)

	// ---- Encryption (optional) ----
	var encSvc *security.EncryptionService
	if key := cfg.Security.EncryptionKey; key != "" {
		encSvc, err = security.NewEncryptionService(key)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption")
		}
	} else {
		logger.Warn().Msg("security.encryption_key not set; messages stored in plaintext")
	}

	// ---- Repositories ----
	historyRepo := pg.NewChatHistoryRepo(pool, historyCache, encSvc)

	// ---- Search adapter ----
	var searcher adapter.SearchAdapter
	if cfg.Search.Key != "" {
		searcher, err = searchAdapters.NewBingAdapter(cfg.Search.Key, cfg.Search.Endpoint, cfg.Search.Market, cfg.Search.MaxResults, cfg.Search.Timeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("search adapter")
		}
		logger.Info().Str("endpoint", cfg.Search.Endpoint).Int("max_results", cfg.Search.MaxResults).Msg("search adapter: bing")
	} else if cfg.Runtime.Dev {
		searcher = searchAdapters.NewNoopSearchAdapter()
		logger.Warn().Msg("search adapter: noop (no key configured)")
	} else {
		logger.Fatal().Msg("search.key is required outside dev mode")
	}

	// ---- Completion adapters ----
	byProvider := map[string]adapter.CompletionAdapter{}
	if cfg.AI.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		byProvider["openai"] = oa
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("completion adapter: openai")
	}
	if cfg.AI.GeminiKey != "" {
		ga, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		byProvider["gemini"] = ga
		logger.Info().Msg("completion adapter: gemini")
	}
	if len(byProvider) == 0 {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("no completion provider configured: set ai.openai_key or ai.gemini_key")
		}
		byProvider["noop"] = aiAdapters.NewNoopAIAdapter()
		logger.Warn().Msg("completion adapter: noop (no key configured)")
	}
	var ai adapter.CompletionAdapter = aiAdapters.NewMultiAdapter("openai", byProvider, nil)
	ai = aiAdapters.NewLimitedAI(ai, 32)

	// ---- Use cases ----
	turnUC := usecase.NewTurnUseCase(historyRepo, searcher, ai, turnLocker, cfg.AI.DefaultModel, cfg.AI.AssistantName, cfg.History.ContextWindow, logger)
	statsUC := usecase.NewStatsUseCase(historyRepo, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Security.AdminSecret, !cfg.Runtime.Dev, "", 30*time.Minute)
	srv := web.NewServer(cfg.Server, turnUC, statsUC, auth, rateLimiter, cfg.Security.AdminSecret, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Retention worker ----
	if cfg.History.RetentionDays > 0 {
		worker := sched.NewRetentionWorker(cfg.History.SweepInterval, cfg.History.RetentionDays, historyRepo, logger)
		go func() { _ = worker.Run(ctx) }()
	}

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}
