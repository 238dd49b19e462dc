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

// TiingoClient is the primary BarsProvider (spec §6 TIINGO_API_KEY),
// shaped after the teacher's hist.go GET-then-decode request pattern
// (databentoGetRequest), with the API key sent as Tiingo's `token` query
// parameter in place of Databento's basic auth.
type TiingoClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *resilience.RateLimiter
}

func NewTiingoClient(apiKey string, httpClient *http.Client, limiter *resilience.RateLimiter) *TiingoClient {
	return &TiingoClient{apiKey: apiKey, baseURL: "https://api.tiingo.com", http: httpClient, limiter: limiter}
}

func (c *TiingoClient) Name() string { return "TIINGO" }

type tiingoBar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func (c *TiingoClient) GetBars(ctx context.Context, symbol string, from, to time.Time, interval string) ([]Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}

	url := fmt.Sprintf("%s/tiingo/daily/%s/prices?startDate=%s&endDate=%s&resampleFreq=%s&token=%s",
		c.baseURL, symbol, from.Format("2006-01-02"), to.Format("2006-01-02"), interval, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, c.Name(), err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errs.New(errs.NotFound, "no bars for "+symbol).WithHint("check symbol spelling or listing date")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errs.New(errs.QuotaExceeded, "tiingo rate limit exceeded").WithRetryAfter(60)
	case resp.StatusCode >= 500:
		return nil, errs.Newf(errs.Transient, "tiingo upstream error: %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, errs.Newf(errs.Permanent, "tiingo rejected request: %d", resp.StatusCode)
	}

	var raw []tiingoBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}

	out := make([]Bar, 0, len(raw))
	for _, b := range raw {
		d, err := time.Parse("2006-01-02", b.Date[:10])
		if err != nil {
			continue
		}
		out = append(out, Bar{Date: d, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume})
	}
	return out, nil
}
