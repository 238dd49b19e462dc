package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
)

// ExaClient is a NewsProvider over Exa's semantic search API (spec §6
// EXA_API_KEY).
type ExaClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *resilience.RateLimiter
}

func NewExaClient(apiKey string, httpClient *http.Client, limiter *resilience.RateLimiter) *ExaClient {
	return &ExaClient{apiKey: apiKey, baseURL: "https://api.exa.ai", http: httpClient, limiter: limiter}
}

func (c *ExaClient) Name() string { return "EXA" }

type exaSearchRequest struct {
	Query      string `json:"query"`
	NumResults int    `json:"numResults"`
	StartPublishedDate string `json:"startPublishedDate,omitempty"`
}

type exaResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedDate string `json:"publishedDate"`
	Text        string `json:"text"`
}

type exaSearchResponse struct {
	Results []exaResult `json:"results"`
}

func (c *ExaClient) GetArticles(ctx context.Context, query string, windowDays int, limit int) ([]Article, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}

	body, _ := json.Marshal(exaSearchRequest{
		Query:              query,
		NumResults:         limit,
		StartPublishedDate: time.Now().AddDate(0, 0, -windowDays).Format("2006-01-02"),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, c.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errs.New(errs.QuotaExceeded, "exa rate limit exceeded").WithRetryAfter(30)
	}
	if resp.StatusCode >= 500 {
		return nil, errs.Newf(errs.Transient, "exa upstream error: %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, errs.Newf(errs.Permanent, "exa rejected request: %d", resp.StatusCode)
	}

	var parsed exaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}

	out := make([]Article, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		published, _ := time.Parse(time.RFC3339, r.PublishedDate)
		out = append(out, Article{Title: r.Title, URL: r.URL, Source: c.Name(), PublishedAt: published, Summary: r.Text})
	}
	return out, nil
}

// TavilyClient is a NewsProvider over Tavily's search API (spec §6
// TAVILY_API_KEY), used as the secondary news source.
type TavilyClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *resilience.RateLimiter
}

func NewTavilyClient(apiKey string, httpClient *http.Client, limiter *resilience.RateLimiter) *TavilyClient {
	return &TavilyClient{apiKey: apiKey, baseURL: "https://api.tavily.com", http: httpClient, limiter: limiter}
}

func (c *TavilyClient) Name() string { return "TAVILY" }

type tavilySearchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	Topic      string `json:"topic"`
}

type tavilyResult struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Content      string `json:"content"`
	PublishedDate string `json:"published_date"`
}

type tavilySearchResponse struct {
	Results []tavilyResult `json:"results"`
}

func (c *TavilyClient) GetArticles(ctx context.Context, query string, windowDays int, limit int) ([]Article, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}

	body, _ := json.Marshal(tavilySearchRequest{APIKey: c.apiKey, Query: query, MaxResults: limit, Topic: "news"})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, c.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errs.New(errs.QuotaExceeded, "tavily rate limit exceeded").WithRetryAfter(30)
	}
	if resp.StatusCode >= 500 {
		return nil, errs.Newf(errs.Transient, "tavily upstream error: %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, errs.Newf(errs.Permanent, "tavily rejected request: %d", resp.StatusCode)
	}

	var parsed tavilySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}

	out := make([]Article, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		published, _ := time.Parse("2006-01-02", r.PublishedDate)
		out = append(out, Article{Title: r.Title, URL: r.URL, Source: c.Name(), PublishedAt: published, Summary: r.Content})
	}
	return out, nil
}

// CanonicalURLHash produces the dedup key used by the resolver's News
// capability (spec §4.6: "deduplicated by canonical URL hash").
func CanonicalURLHash(rawURL string) string {
	sum := sha256.Sum256([]byte(normalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

func normalizeURL(rawURL string) string {
	// Strip a trailing slash and any query string; tracking params are
	// the most common source of false-distinct duplicates between news
	// providers describing the same article.
	if i := bytes.IndexByte([]byte(rawURL), '?'); i >= 0 {
		rawURL = rawURL[:i]
	}
	for len(rawURL) > 0 && rawURL[len(rawURL)-1] == '/' {
		rawURL = rawURL[:len(rawURL)-1]
	}
	return rawURL
}
