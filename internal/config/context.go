package config

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/maverick-mcp/maverick-mcp-go/internal/cache"
	"github.com/maverick-mcp/maverick-mcp-go/internal/provider"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resolver"
	"github.com/maverick-mcp/maverick-mcp-go/internal/store"
)

// AppContext bundles every shared, long-lived dependency constructed once
// at startup: the source's module-level singletons and lazily-initialized
// globals are replaced with this explicit struct, threaded down to every
// handler (spec §9 Design Notes: "explicit application context
// constructed at startup and passed down; teardown is deterministic").
type AppContext struct {
	Config     Config
	Logger     *slog.Logger
	Store      store.Gateway
	Cache      *cache.Tier
	Breakers   *resilience.Registry
	Dedup      *resilience.Dedup
	Providers  *provider.Registry
	Resolver   *resolver.Resolver
	HTTPClient *http.Client
}

// NewLogger builds the process-wide slog.Logger per cfg, matching the
// teacher's text/JSON handler switch in cmd/dbn-go-mcp/main.go but reading
// level and format from Config instead of pflag-only fields.
func NewLogger(cfg Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// NewAppContext wires every component in dependency order: store gateway
// first (everything else can write through to it), then cache tiers, then
// resilience primitives, then the empty provider registry (callers
// register concrete clients afterward via Providers.Register), then the
// resolver on top of all of it.
func NewAppContext(ctx context.Context, cfg Config) (*AppContext, error) {
	logger := NewLogger(cfg)

	gw, err := store.Open(ctx, cfg.DatabaseURL, cfg.SQLiteFallbackPath, cfg.DBPoolSize, cfg.DBPoolOverflow, cfg.DBConnRecycle)
	if err != nil {
		return nil, fmt.Errorf("opening store gateway: %w", err)
	}

	l1 := cache.NewL1(cfg.L1Capacity)
	var l1p *cache.L1Prime
	if cfg.CacheEnabled && (cfg.RedisURL != "" || cfg.RedisHost != "") {
		opts := &redis.Options{}
		if cfg.RedisURL != "" {
			parsed, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				gw.Close()
				return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
			}
			opts = parsed
		} else {
			opts.Addr = fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)
		}
		l1p = cache.NewL1Prime(redis.NewClient(opts))
	}
	tier := cache.NewTier(l1, l1p, logger)

	breakerCfg := resilience.DefaultBreakerConfig()
	if cfg.BreakerFailureThreshold > 0 {
		breakerCfg.FailureThreshold = cfg.BreakerFailureThreshold
	}
	if cfg.BreakerRecoveryTimeout > 0 {
		breakerCfg.RecoveryTimeout = cfg.BreakerRecoveryTimeout
	}
	breakers := resilience.NewRegistry(breakerCfg, logger)
	dedup := resilience.NewDedup()
	providers := provider.NewRegistry(breakers)

	r := resolver.New(tier, gw, breakers, dedup, providers, logger, resolver.DefaultConfig())

	// Every HTTP-backed provider client shares one retryablehttp-backed
	// client so backoff/retry tuning stays centralized (spec §4.4.2).
	httpClient := resilience.NewHTTPClient(resilience.DefaultRetryConfig(), logger)

	return &AppContext{
		Config:     cfg,
		Logger:     logger,
		Store:      gw,
		Cache:      tier,
		Breakers:   breakers,
		Dedup:      dedup,
		Providers:  providers,
		Resolver:   r,
		HTTPClient: httpClient,
	}, nil
}

// Close closes the store gateway. It is the only resource torn down here:
// the Redis client behind the L1' cache tier is not closed.
func (a *AppContext) Close() {
	if a.Store != nil {
		a.Store.Close()
	}
}
