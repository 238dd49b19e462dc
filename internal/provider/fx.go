package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
)

// ExchangeRateAPIClient is the primary RateProvider (spec §6
// EXCHANGE_RATE_API_KEY).
type ExchangeRateAPIClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *resilience.RateLimiter
}

func NewExchangeRateAPIClient(apiKey string, httpClient *http.Client, limiter *resilience.RateLimiter) *ExchangeRateAPIClient {
	return &ExchangeRateAPIClient{apiKey: apiKey, baseURL: "https://v6.exchangerate-api.com/v6", http: httpClient, limiter: limiter}
}

func (c *ExchangeRateAPIClient) Name() string { return "EXCHANGE_RATE_API" }

type exchangeRateAPIResp struct {
	Result         string             `json:"result"`
	ConversionRate float64            `json:"conversion_rate"`
}

func (c *ExchangeRateAPIClient) GetRate(ctx context.Context, from, to string, asOf *time.Time) (float64, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, "", errs.Wrap(errs.Transient, c.Name(), err)
	}

	url := fmt.Sprintf("%s/%s/pair/%s/%s", c.baseURL, c.apiKey, from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", errs.Wrap(errs.InvalidInput, c.Name(), err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", errs.Wrap(errs.Transient, c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return 0, "", errs.New(errs.QuotaExceeded, "exchange-rate-api quota exceeded").WithRetryAfter(30)
	}
	if resp.StatusCode >= 500 {
		return 0, "", errs.Newf(errs.Transient, "exchange-rate-api upstream error: %d", resp.StatusCode)
	}

	var body exchangeRateAPIResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, "", errs.Wrap(errs.Transient, c.Name(), err)
	}
	if body.Result != "success" {
		return 0, "", errs.Newf(errs.Permanent, "exchange-rate-api rejected pair %s/%s", from, to)
	}
	return body.ConversionRate, c.Name(), nil
}

// FrankfurterClient is the secondary FX provider (spec §4.6: "public
// market quote"), backed by the free ECB-sourced Frankfurter API.
type FrankfurterClient struct {
	baseURL string
	http    *http.Client
	limiter *resilience.RateLimiter
}

func NewFrankfurterClient(httpClient *http.Client, limiter *resilience.RateLimiter) *FrankfurterClient {
	return &FrankfurterClient{baseURL: "https://api.frankfurter.app", http: httpClient, limiter: limiter}
}

func (c *FrankfurterClient) Name() string { return "FRANKFURTER" }

type frankfurterResp struct {
	Rates map[string]float64 `json:"rates"`
}

func (c *FrankfurterClient) GetRate(ctx context.Context, from, to string, asOf *time.Time) (float64, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, "", errs.Wrap(errs.Transient, c.Name(), err)
	}

	url := fmt.Sprintf("%s/latest?from=%s&to=%s", c.baseURL, from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", errs.Wrap(errs.InvalidInput, c.Name(), err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", errs.Wrap(errs.Transient, c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return 0, "", errs.Newf(errs.Transient, "frankfurter upstream error: %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return 0, "", errs.Newf(errs.Permanent, "frankfurter rejected pair %s/%s", from, to)
	}

	var body frankfurterResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, "", errs.Wrap(errs.Transient, c.Name(), err)
	}
	rate, ok := body.Rates[to]
	if !ok {
		return 0, "", errs.Newf(errs.NotFound, "no rate for %s/%s", from, to)
	}
	return rate, c.Name(), nil
}

// ApproximateTable is the last-resort fallback named in spec §4.6
// ("Approximate-table fallback"): a small, hand-maintained table of
// rough rates used only when every live FX provider has failed. Values
// are intentionally coarse; a rate sourced here is identified only by its
// APPROXIMATE_TABLE source tag, not by an error kind.
type ApproximateTable struct {
	rates map[string]float64 // "FROM:TO" -> rate
}

func NewApproximateTable(rates map[string]float64) *ApproximateTable {
	if rates == nil {
		rates = defaultApproximateRates()
	}
	return &ApproximateTable{rates: rates}
}

func defaultApproximateRates() map[string]float64 {
	return map[string]float64{
		"USD:INR": 83.0,
		"USD:EUR": 0.92,
		"USD:GBP": 0.79,
		"USD:JPY": 155.0,
		"USD:HKD": 7.8,
		"USD:AUD": 1.52,
		"USD:CAD": 1.37,
	}
}

func (c *ApproximateTable) Name() string { return "APPROXIMATE_TABLE" }

func (c *ApproximateTable) GetRate(ctx context.Context, from, to string, asOf *time.Time) (float64, string, error) {
	if rate, ok := c.rates[from+":"+to]; ok {
		return rate, c.Name(), nil
	}
	if rate, ok := c.rates[to+":"+from]; ok && rate != 0 {
		return 1 / rate, c.Name(), nil
	}
	return 0, "", errs.Newf(errs.NotFound, "no approximate rate for %s/%s", from, to)
}
