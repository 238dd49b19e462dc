package resilience

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// RetryConfig controls exponential backoff with jitter (spec §4.4.2).
type RetryConfig struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryConfig is adapted from the teacher's own retry tuning
// (internal/tui/download_manager.go used RetryMax = 10; this spec's
// provider calls are latency-sensitive request/response calls rather
// than bulk downloads, so the ceiling is lower).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 4,
		MinWait:    250 * time.Millisecond,
		MaxWait:    8 * time.Second,
	}
}

// NewHTTPClient builds a *http.Client backed by retryablehttp with
// exponential backoff and jitter, matching the teacher's
// retryablehttp.NewClient() usage pattern.
func NewHTTPClient(cfg RetryConfig, logger *slog.Logger) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.MinWait
	rc.RetryWaitMax = cfg.MaxWait
	rc.Logger = nil
	if logger != nil {
		rc.Logger = slogAdapter{logger: logger}
	}
	rc.CheckRetry = retryablehttp.DefaultRetryPolicy
	return rc.StandardClient()
}

// slogAdapter satisfies retryablehttp.LeveledLogger using slog, so retry
// attempts show up in the same structured log stream as the rest of the
// service (spec §10.1 ambient logging).
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Error(msg string, keysAndValues ...any) {
	a.logger.Error(msg, keysAndValues...)
}

func (a slogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Info(msg, keysAndValues...)
}

func (a slogAdapter) Debug(msg string, keysAndValues ...any) {
	a.logger.Debug(msg, keysAndValues...)
}

func (a slogAdapter) Warn(msg string, keysAndValues ...any) {
	a.logger.Warn(msg, keysAndValues...)
}
