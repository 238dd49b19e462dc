// Package config replaces the module-level singletons and lazy
// initialization the source relies on (spec §9 Design Notes) with an
// explicit Config loaded once at startup and an AppContext constructed
// from it and passed down to every component.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds every externally-tunable setting, loaded from environment
// variables with CLI flags (in cmd/maverick-mcp) taking precedence,
// mirroring the teacher's "CLI option, then envvar" precedence in
// cmd/dbn-go-mcp/main.go.
type Config struct {
	// Provider credentials (spec §6 External Interfaces).
	TiingoAPIKey         string `validate:"required"`
	OpenRouterAPIKey     string
	OpenAIAPIKey         string
	AnthropicAPIKey      string
	ExaAPIKey            string
	TavilyAPIKey         string
	FREDAPIKey           string
	ExchangeRateAPIKey   string

	// Persistence (spec §4.3).
	DatabaseURL        string
	SQLiteFallbackPath string `validate:"required"`
	DBPoolSize         int32  `validate:"min=1"`
	DBPoolOverflow     int32  `validate:"min=0"`
	DBConnRecycle      time.Duration

	// Cache tier (spec §4.2).
	RedisURL        string
	RedisHost       string
	RedisPort       int
	CacheEnabled    bool
	CacheTTLSeconds int `validate:"min=0"`
	L1Capacity      int `validate:"min=1"`

	// Ambient (spec §9, §10.1).
	LogLevel    string `validate:"oneof=debug info warn error"`
	Environment string `validate:"oneof=development staging production"`
	LogJSON     bool

	// IR mappings (spec §3 IRMapping, §6).
	IRMappingsPath string

	// ExchangeFilingBaseURL is the templated base URL the
	// exchange-filing/PDF-aggregator transcript provider builds concall
	// PDF URLs from (spec §4.6 cascade step 2).
	ExchangeFilingBaseURL string

	// Circuit-breaker tuning overrides; zero value means "use
	// resilience.DefaultBreakerConfig()".
	BreakerFailureThreshold int
	BreakerRecoveryTimeout  time.Duration

	// RateLimits holds the token-bucket rate and burst each provider
	// client is gated by (spec §5 "Rate limiting"), keyed by provider
	// name. Populated from defaultRateLimits() with per-provider env
	// overrides applied in Load.
	RateLimits map[string]RateLimitConfig
}

// RateLimitConfig is one provider's token-bucket parameters: RPS
// requests per second sustained, Burst the bucket capacity.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// defaultRateLimits gives every provider client a conservative, publicly
// documented or reasonably-guessed rate ceiling so a fresh deployment
// with no RATE_LIMIT_* overrides still behaves per spec §5 rather than
// hammering an upstream unbounded.
func defaultRateLimits() map[string]RateLimitConfig {
	return map[string]RateLimitConfig{
		"TIINGO":              {RPS: 5, Burst: 10},
		"STOOQ":               {RPS: 2, Burst: 4},
		"EXCHANGE_RATE_API":   {RPS: 5, Burst: 10},
		"FRANKFURTER":         {RPS: 5, Burst: 10},
		"IR_WEBSITE":          {RPS: 1, Burst: 2},
		"EXCHANGE_FILING_PDF": {RPS: 1, Burst: 2},
		"ANTHROPIC":           {RPS: 2, Burst: 4},
		"EXA":                 {RPS: 3, Burst: 6},
		"TAVILY":              {RPS: 3, Burst: 6},
		"OPENAI":              {RPS: 5, Burst: 10},
	}
}

// loadRateLimits applies RATE_LIMIT_<PROVIDER>_RPS / RATE_LIMIT_<PROVIDER>_BURST
// overrides on top of defaultRateLimits, e.g. RATE_LIMIT_TIINGO_RPS=10.
func loadRateLimits() map[string]RateLimitConfig {
	limits := defaultRateLimits()
	for name, rl := range limits {
		if v := os.Getenv("RATE_LIMIT_" + name + "_RPS"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				rl.RPS = f
			}
		}
		if v := os.Getenv("RATE_LIMIT_" + name + "_BURST"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				rl.Burst = n
			}
		}
		limits[name] = rl
	}
	return limits
}

// Load reads Config from the process environment, applying the same
// defaults the teacher's flag definitions use (e.g. defaultSSEHostPort in
// cmd/dbn-go-mcp/main.go), then validates it with go-playground/validator
// so a missing required credential or malformed tuning value fails fast
// at startup rather than surfacing as a confusing runtime error.
func Load() (Config, error) {
	cfg := Config{
		TiingoAPIKey:       os.Getenv("TIINGO_API_KEY"),
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		ExaAPIKey:          os.Getenv("EXA_API_KEY"),
		TavilyAPIKey:       os.Getenv("TAVILY_API_KEY"),
		FREDAPIKey:         os.Getenv("FRED_API_KEY"),
		ExchangeRateAPIKey: os.Getenv("EXCHANGE_RATE_API_KEY"),

		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLiteFallbackPath: envOrDefault("SQLITE_PATH", "maverick-mcp.db"),
		DBPoolSize:         int32(envIntOrDefault("DB_POOL_SIZE", 20)),
		DBPoolOverflow:     int32(envIntOrDefault("DB_POOL_OVERFLOW", 10)),
		DBConnRecycle:      time.Duration(envIntOrDefault("DB_CONN_RECYCLE_SECONDS", 3600)) * time.Second,

		RedisURL:        os.Getenv("REDIS_URL"),
		RedisHost:       envOrDefault("REDIS_HOST", ""),
		RedisPort:       envIntOrDefault("REDIS_PORT", 6379),
		CacheEnabled:    envBoolOrDefault("CACHE_ENABLED", true),
		CacheTTLSeconds: envIntOrDefault("CACHE_TTL_SECONDS", 900),
		L1Capacity:      envIntOrDefault("L1_CAPACITY", 4096),

		LogLevel:    strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		Environment: strings.ToLower(envOrDefault("ENVIRONMENT", "development")),
		LogJSON:     envBoolOrDefault("LOG_JSON", false),

		IRMappingsPath:        os.Getenv("IR_MAPPINGS_PATH"),
		ExchangeFilingBaseURL: envOrDefault("EXCHANGE_FILING_BASE_URL", "https://www.bseindia.com/xml-data/corpfiling/AttachLive"),

		BreakerFailureThreshold: envIntOrDefault("BREAKER_FAILURE_THRESHOLD", 0),
		BreakerRecoveryTimeout:  time.Duration(envIntOrDefault("BREAKER_RECOVERY_TIMEOUT_SECONDS", 0)) * time.Second,

		RateLimits: loadRateLimits(),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBoolOrDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
