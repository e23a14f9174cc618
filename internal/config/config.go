// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// RateLimit is the max chat turns per user per RateWindow.
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type SearchConfig struct {
	Key      string `yaml:"key"`
	Endpoint string `yaml:"endpoint"` // base URL; the /v7.0/search path is appended
	Market   string `yaml:"market"`
	// MaxResults bounds how many web results are kept for grounding.
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
}

type AIConfig struct {
	OpenAIKey       string `yaml:"openai_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	DefaultModel    string `yaml:"default_model"`
	AssistantName   string `yaml:"assistant_name"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

type HistoryConfig struct {
	// ContextWindow is the max number of recent messages sent to the model per turn.
	ContextWindow int           `yaml:"context_window"`
	RetentionDays int           `yaml:"retention_days"` // 0 disables the sweeper
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"` // 16/24/32 bytes; empty disables at-rest encryption
	AdminSecret   string `yaml:"admin_secret"`   // HMAC secret for the admin session cookie
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Search   SearchConfig   `yaml:"search"`
	AI       AIConfig       `yaml:"ai"`
	History  HistoryConfig  `yaml:"history"`
	Security SecurityConfig `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimit <= 0 {
		cfg.Server.RateLimit = 30
	}
	if cfg.Server.RateWindow <= 0 {
		cfg.Server.RateWindow = time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Search.Market == "" {
		cfg.Search.Market = "en-US"
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 1
	}
	if cfg.Search.Timeout <= 0 {
		cfg.Search.Timeout = 10 * time.Second
	}
	if cfg.AI.DefaultModel == "" {
		cfg.AI.DefaultModel = "gpt-4o-mini"
	}
	if cfg.AI.AssistantName == "" {
		cfg.AI.AssistantName = "Aria"
	}
	if cfg.AI.MaxOutputTokens <= 0 {
		cfg.AI.MaxOutputTokens = 2048
	}
	if cfg.History.ContextWindow <= 0 {
		cfg.History.ContextWindow = 30
	}
	if cfg.History.SweepInterval <= 0 {
		cfg.History.SweepInterval = time.Hour
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
