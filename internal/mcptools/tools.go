package mcptools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcp_server "github.com/mark3labs/mcp-go/server"
)

func (s *Server) registerBarsTool(mcpServer *mcp_server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("get_bars",
			mcp.WithDescription("Fetches OHLCV price bars for a symbol over a date range, cascading across price vendors and the persistent store. Symbol suffixes (.NS, .BO, .L, ...) select the market; no suffix is US."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol, optionally with a market suffix (e.g. AAPL, RELIANCE.NS)")),
			mcp.WithString("from", mcp.Required(), mcp.Description("Start date, YYYY-MM-DD")),
			mcp.WithString("to", mcp.Required(), mcp.Description("End date, YYYY-MM-DD")),
			mcp.WithString("interval", mcp.Description("Bar interval (default: daily)")),
		),
		s.getBarsHandler,
	)
}

func (s *Server) registerRateTool(mcpServer *mcp_server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("get_rate",
			mcp.WithDescription("Fetches a currency conversion rate, cascading across FX APIs down to a static approximate-rate table if every live source fails."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithString("from", mcp.Required(), mcp.Description("Source currency, ISO 4217 (e.g. USD)")),
			mcp.WithString("to", mcp.Required(), mcp.Description("Target currency, ISO 4217 (e.g. INR)")),
		),
		s.getRateHandler,
	)
}

func (s *Server) registerTranscriptTool(mcpServer *mcp_server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("get_transcript",
			mcp.WithDescription("Fetches an earnings-call transcript for (symbol, quarter, fiscal year), scraping the company's IR site, exchange filings, or an aggregator if not already stored. Once fetched, a transcript never changes unless force_refresh is set."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol, optionally with a market suffix")),
			mcp.WithString("quarter", mcp.Required(), mcp.Description("Fiscal quarter: Q1, Q2, Q3, or Q4")),
			mcp.WithString("fiscal_year", mcp.Required(), mcp.Description("Fiscal year as an integer, e.g. 2025")),
			mcp.WithString("force_refresh", mcp.Description("Bypass the stored transcript and re-scrape (default: false)")),
		),
		s.getTranscriptHandler,
	)
}

func (s *Server) registerSummaryTool(mcpServer *mcp_server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("summarize_transcript",
			mcp.WithDescription("Produces an LLM-generated summary of a stored earnings-call transcript. Requires get_transcript to have been called for the same (symbol, quarter, fiscal year) first."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol, optionally with a market suffix")),
			mcp.WithString("quarter", mcp.Required(), mcp.Description("Fiscal quarter: Q1, Q2, Q3, or Q4")),
			mcp.WithString("fiscal_year", mcp.Required(), mcp.Description("Fiscal year as an integer, e.g. 2025")),
			mcp.WithString("mode", mcp.Description("Summary shape: executive, detailed, or bullets (default: executive)")),
			mcp.WithString("force_regenerate", mcp.Description("Regenerate even if a stored summary exists (default: false)")),
		),
		s.getSummaryHandler,
	)
}

func (s *Server) registerSentimentTool(mcpServer *mcp_server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("score_transcript_sentiment",
			mcp.WithDescription("Scores the sentiment of a stored earnings-call transcript (overall tone, outlook, risk signals). Requires get_transcript to have been called for the same (symbol, quarter, fiscal year) first."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("symbol", mcp.Required(), mcp.Description("Ticker symbol, optionally with a market suffix")),
			mcp.WithString("quarter", mcp.Required(), mcp.Description("Fiscal quarter: Q1, Q2, Q3, or Q4")),
			mcp.WithString("fiscal_year", mcp.Required(), mcp.Description("Fiscal year as an integer, e.g. 2025")),
			mcp.WithString("force_regenerate", mcp.Description("Regenerate even if a stored score exists (default: false)")),
		),
		s.getSentimentHandler,
	)
}

func (s *Server) registerNewsTool(mcpServer *mcp_server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("get_news",
			mcp.WithDescription("Fetches recent news articles matching a query, merged and deduplicated across every configured news provider."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("query", mcp.Required(), mcp.Description("Search query, e.g. a company name or ticker")),
			mcp.WithString("window_days", mcp.Description("Recency window in days (default: 7)")),
			mcp.WithString("limit", mcp.Description("Maximum articles to return (default: 20)")),
		),
		s.getNewsHandler,
	)
}

func (s *Server) registerRAGTool(mcpServer *mcp_server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("query_transcript_corpus",
			mcp.WithDescription("Answers a question over a pre-indexed corpus of transcript chunks using semantic search plus LLM synthesis. Returns the retrieved chunks even if synthesis is unavailable."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("corpus_id", mcp.Required(), mcp.Description("Identifier of the pre-built semantic index to search")),
			mcp.WithString("question", mcp.Required(), mcp.Description("Natural-language question")),
			mcp.WithString("top_k", mcp.Description("Number of chunks to retrieve (default: 5)")),
		),
		s.getRAGHandler,
	)
}
