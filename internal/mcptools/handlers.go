package mcptools

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/keys"
	"github.com/maverick-mcp/maverick-mcp-go/internal/provider"
)

// toolErrorResult renders a typed errs.Error (or any error) as an MCP
// tool error, preserving its Kind and Hint so the caller sees the same
// taxonomy the resolver returns (spec §7).
func toolErrorResult(err error) *mcp.CallToolResult {
	if e, ok := err.(*errs.Error); ok {
		msg := string(e.Kind) + ": " + e.Message
		if e.Hint != "" {
			msg += " (" + e.Hint + ")"
		}
		return mcp.NewToolResultError(msg)
	}
	return mcp.NewToolResultErrorf("%s", err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal result: %s", err), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

const isoDateLayout = "2006-01-02"

// boolArg reads an optional boolean tool argument, defaulting to def on
// absence or malformed input (mcp-go's typed CallToolRequest arg getters
// are a moving target across versions; RequireString plus strconv keeps
// this on the one accessor the teacher's handlers already rely on).
func boolArg(request mcp.CallToolRequest, name string, def bool) bool {
	v, err := request.RequireString(name)
	if err != nil || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// stringArg reads an optional string tool argument, defaulting to def on
// absence.
func stringArg(request mcp.CallToolRequest, name, def string) string {
	v, err := request.RequireString(name)
	if err != nil || v == "" {
		return def
	}
	return v
}

func (s *Server) getBarsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := request.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError("symbol must be set"), nil
	}
	fromStr, err := request.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError("from must be set"), nil
	}
	toStr, err := request.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to must be set"), nil
	}
	interval := "daily"
	if v, err := request.RequireString("interval"); err == nil && v != "" {
		interval = v
	}

	from, err := time.Parse(isoDateLayout, fromStr)
	if err != nil {
		return mcp.NewToolResultErrorf("invalid from date: %s", err), nil
	}
	to, err := time.Parse(isoDateLayout, toStr)
	if err != nil {
		return mcp.NewToolResultErrorf("invalid to date: %s", err), nil
	}

	bars, source, err := s.Resolver.GetBars(ctx, symbol, from, to, interval)
	if err != nil {
		return toolErrorResult(err), nil
	}
	return jsonResult(struct {
		Bars   []provider.Bar `json:"bars"`
		Source string         `json:"source"`
	}{bars, source})
}

func (s *Server) getRateHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := request.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError("from must be set"), nil
	}
	to, err := request.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to must be set"), nil
	}

	rate, source, err := s.Resolver.GetRate(ctx, from, to)
	if err != nil {
		return toolErrorResult(err), nil
	}
	return jsonResult(struct {
		Rate   float64 `json:"rate"`
		Source string  `json:"source"`
	}{rate, source})
}

// parseTranscriptArgs extracts and normalizes the (symbol, quarter,
// fiscal year) triple shared by the transcript, summary, and sentiment
// tools.
func parseTranscriptArgs(request mcp.CallToolRequest) (symbol string, quarter keys.Quarter, fiscalYear int, errResult *mcp.CallToolResult) {
	symbol, err := request.RequireString("symbol")
	if err != nil {
		return "", "", 0, mcp.NewToolResultError("symbol must be set")
	}
	quarterStr, err := request.RequireString("quarter")
	if err != nil {
		return "", "", 0, mcp.NewToolResultError("quarter must be set")
	}
	fyStr, err := request.RequireString("fiscal_year")
	if err != nil {
		return "", "", 0, mcp.NewToolResultError("fiscal_year must be set")
	}

	quarter, err = keys.NormalizeQuarter(quarterStr)
	if err != nil {
		return "", "", 0, toolErrorResult(err)
	}
	fiscalYear, err = strconv.Atoi(fyStr)
	if err != nil {
		return "", "", 0, mcp.NewToolResultErrorf("fiscal_year must be an integer: %s", err)
	}
	return symbol, quarter, fiscalYear, nil
}

func (s *Server) getTranscriptHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, quarter, fiscalYear, errResult := parseTranscriptArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	forceRefresh := boolArg(request, "force_refresh", false)

	result, err := s.Resolver.GetTranscript(ctx, symbol, quarter, fiscalYear, forceRefresh)
	if err != nil {
		return toolErrorResult(err), nil
	}
	return jsonResult(result)
}

func (s *Server) getSummaryHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, quarter, fiscalYear, errResult := parseTranscriptArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	forceRegenerate := boolArg(request, "force_regenerate", false)
	mode := provider.SummaryMode(stringArg(request, "mode", string(provider.SummaryModeExecutive)))

	summary, err := s.Resolver.Summarize(ctx, symbol, quarter, fiscalYear, mode, forceRegenerate)
	if err != nil {
		return toolErrorResult(err), nil
	}
	return jsonResult(summary)
}

func (s *Server) getSentimentHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, quarter, fiscalYear, errResult := parseTranscriptArgs(request)
	if errResult != nil {
		return errResult, nil
	}
	forceRegenerate := boolArg(request, "force_regenerate", false)

	sentiment, err := s.Resolver.Sentiment(ctx, symbol, quarter, fiscalYear, forceRegenerate)
	if err != nil {
		return toolErrorResult(err), nil
	}
	return jsonResult(sentiment)
}

func (s *Server) getNewsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query must be set"), nil
	}
	windowDays := 7
	if v, err := request.RequireString("window_days"); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			windowDays = n
		}
	}
	limit := 20
	if v, err := request.RequireString("limit"); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	articles, err := s.Resolver.GetNews(ctx, query, windowDays, limit)
	if err != nil {
		return toolErrorResult(err), nil
	}
	return jsonResult(articles)
}

func (s *Server) getRAGHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	corpusID, err := request.RequireString("corpus_id")
	if err != nil {
		return mcp.NewToolResultError("corpus_id must be set"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question must be set"), nil
	}
	topK := 5
	if v, err := request.RequireString("top_k"); err == nil && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			topK = n
		}
	}

	answer, err := s.Resolver.Query(ctx, corpusID, question, topK)
	if err != nil && errs.KindOf(err) != errs.Partial {
		return toolErrorResult(err), nil
	}
	return jsonResult(answer)
}
