package provider

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
)

// AnthropicClient backs both SummaryProvider and SentimentProvider (spec
// §4.6 "AI Summary" and "Sentiment" capabilities) with a single Claude
// client, per spec §6 ANTHROPIC_API_KEY.
type AnthropicClient struct {
	client  anthropic.Client
	model   anthropic.Model
	limiter *resilience.RateLimiter
}

func NewAnthropicClient(apiKey string, model anthropic.Model, limiter *resilience.RateLimiter, opts ...option.RequestOption) *AnthropicClient {
	if model == "" {
		model = anthropic.ModelClaude3_5HaikuLatest
	}
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicClient{
		client:  anthropic.NewClient(clientOpts...),
		model:   model,
		limiter: limiter,
	}
}

func (c *AnthropicClient) Name() string { return "ANTHROPIC" }

var summaryInstructions = map[SummaryMode]string{
	SummaryModeExecutive: "Write a two-sentence executive summary of this earnings call transcript.",
	SummaryModeDetailed:  "Write a detailed multi-paragraph summary of this earnings call transcript, covering guidance, segment performance, and management tone.",
	SummaryModeBullets:   "Summarize this earnings call transcript as 5-8 bullet points, one fact per bullet.",
}

func (c *AnthropicClient) Summarize(ctx context.Context, text string, mode SummaryMode) (Summary, error) {
	instruction, ok := summaryInstructions[mode]
	if !ok {
		return Summary{}, errs.Newf(errs.InvalidInput, "unknown summary mode %q", mode)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Summary{}, errs.Wrap(errs.Transient, c.Name(), err)
	}

	prompt := instruction + "\n\nRespond as JSON: {\"headline\": string, \"bullets\": [string]}.\n\nTranscript:\n" + text

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Summary{}, classifyAnthropicError(c.Name(), err)
	}

	raw := messageText(msg)
	var parsed struct {
		Headline string   `json:"headline"`
		Bullets  []string `json:"bullets"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return Summary{Mode: mode, Headline: strings.TrimSpace(raw), ModelTag: string(c.model)}, nil
	}

	return Summary{Mode: mode, Headline: parsed.Headline, Bullets: parsed.Bullets, ModelTag: string(c.model)}, nil
}

func (c *AnthropicClient) Score(ctx context.Context, text string) (Sentiment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Sentiment{}, errs.Wrap(errs.Transient, c.Name(), err)
	}

	prompt := "Analyze the management tone of this earnings call transcript. Respond as JSON: " +
		`{"overall": int (1 to 5), "tone": string, "outlook": string, "risk": string, "confidence": float (0-1), "signals": [string]}.` +
		"\n\nTranscript:\n" + text

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 512,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Sentiment{}, classifyAnthropicError(c.Name(), err)
	}

	raw := messageText(msg)
	var parsed Sentiment
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return Sentiment{}, errs.Wrap(errs.Permanent, c.Name(), err)
	}
	return parsed, nil
}

func messageText(msg *anthropic.Message) string {
	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String()
}

// extractJSONObject trims narration the model may add around the JSON
// object it was asked to emit.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return "{}"
	}
	return s[start : end+1]
}

// classifyAnthropicError maps SDK errors into the shared taxonomy. The SDK
// surfaces HTTP failures as *anthropic.Error, which carries the upstream
// status code.
func classifyAnthropicError(provider string, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 429:
			return errs.New(errs.QuotaExceeded, "anthropic rate limit exceeded").WithRetryAfter(30)
		case apiErr.StatusCode >= 500:
			return errs.Newf(errs.Transient, "anthropic upstream error: %d", apiErr.StatusCode)
		case apiErr.StatusCode >= 400:
			return errs.Newf(errs.Permanent, "anthropic rejected request: %d", apiErr.StatusCode)
		}
	}
	return errs.Wrap(errs.Transient, provider, err)
}
