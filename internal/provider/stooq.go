package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
)

// StooqClient is the secondary BarsProvider (spec §4.6 "Secondary
// vendor"), a free no-key CSV feed used when Tiingo is unavailable or a
// symbol isn't covered there.
type StooqClient struct {
	baseURL string
	http    *http.Client
	limiter *resilience.RateLimiter
}

func NewStooqClient(httpClient *http.Client, limiter *resilience.RateLimiter) *StooqClient {
	return &StooqClient{baseURL: "https://stooq.com", http: httpClient, limiter: limiter}
}

func (c *StooqClient) Name() string { return "STOOQ" }

func (c *StooqClient) GetBars(ctx context.Context, symbol string, from, to time.Time, interval string) ([]Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}

	url := fmt.Sprintf("%s/q/d/l/?s=%s&d1=%s&d2=%s&i=d", c.baseURL, symbol, from.Format("20060102"), to.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, c.Name(), err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, errs.Newf(errs.Transient, "stooq upstream error: %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, errs.Newf(errs.Permanent, "stooq rejected request: %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}
	if len(rows) <= 1 {
		return nil, errs.New(errs.NotFound, "no bars for "+symbol)
	}

	out := make([]Bar, 0, len(rows)-1)
	for _, row := range rows[1:] { // header: Date,Open,High,Low,Close,Volume
		if len(row) < 6 {
			continue
		}
		d, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			continue
		}
		open, _ := strconv.ParseFloat(row[1], 64)
		high, _ := strconv.ParseFloat(row[2], 64)
		low, _ := strconv.ParseFloat(row[3], 64)
		closeP, _ := strconv.ParseFloat(row[4], 64)
		vol, _ := strconv.ParseInt(row[5], 10, 64)
		out = append(out, Bar{Date: d, Open: open, High: high, Low: low, Close: closeP, Volume: vol})
	}
	return out, nil
}
