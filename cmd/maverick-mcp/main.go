// Command maverick-mcp is a Model Context Protocol server that aggregates
// price bars, FX rates, earnings-call transcripts, AI summaries and
// sentiment, and news across a cascade of market-data vendors, scrapers,
// and LLM providers, persisting everything it resolves to a durable store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	mcp_server "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/pflag"

	"github.com/maverick-mcp/maverick-mcp-go/internal/config"
	"github.com/maverick-mcp/maverick-mcp-go/internal/mcptools"
	"github.com/maverick-mcp/maverick-mcp-go/internal/provider"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
)

const (
	serverName    = "maverick-mcp"
	serverVersion = "0.1.0"
)

func main() {
	var useSSE bool
	var sseHostPort string
	var irMappingsPath string
	var showHelp bool

	pflag.BoolVarP(&useSSE, "sse", "", false, "Use SSE transport (default is STDIO)")
	pflag.StringVarP(&sseHostPort, "port", "p", ":8890", "host:port to listen on for SSE connections")
	pflag.StringVarP(&irMappingsPath, "ir-mappings", "m", "", "Path to IR mappings JSON (overrides IR_MAPPINGS_PATH envvar)")
	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s [opts]\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %s\n", err)
		os.Exit(1)
	}
	if irMappingsPath != "" {
		cfg.IRMappingsPath = irMappingsPath
	}

	ctx := context.Background()
	appCtx, err := config.NewAppContext(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %s\n", err)
		os.Exit(1)
	}
	defer appCtx.Close()

	if err := registerProviders(appCtx); err != nil {
		appCtx.Logger.Error("failed to register providers", "error", err)
		os.Exit(1)
	}

	if n, err := config.LoadIRMappings(ctx, appCtx.Store, cfg.IRMappingsPath, appCtx.Logger); err != nil {
		appCtx.Logger.Error("failed to load IR mappings", "error", err)
	} else if n > 0 {
		appCtx.Logger.Info("loaded IR mappings", "count", n)
	}

	mcpServer := mcp_server.NewMCPServer(serverName, serverVersion)
	mcptools.New(appCtx.Resolver, appCtx.Logger).Register(mcpServer)

	if useSSE {
		sseServer := mcp_server.NewSSEServer(mcpServer)
		appCtx.Logger.Info("MCP SSE server started", "hostPort", sseHostPort)
		if err := sseServer.Start(sseHostPort); err != nil {
			appCtx.Logger.Error("MCP SSE server error", "error", err)
			os.Exit(1)
		}
		return
	}

	appCtx.Logger.Info("MCP STDIO server started")
	if err := mcp_server.ServeStdio(mcpServer); err != nil {
		appCtx.Logger.Error("MCP STDIO server error", "error", err)
		os.Exit(1)
	}
}

// registerProviders wires every concrete provider client into the
// capability registry, priority-ordered per capability the way spec §4.5
// lays out each cascade (live vendors before scrapers before static
// fallbacks). A provider whose API key is unset is skipped rather than
// registered half-broken.
func registerProviders(appCtx *config.AppContext) error {
	cfg := appCtx.Config
	reg := appCtx.Providers
	httpClient := appCtx.HTTPClient

	limiterFor := func(name string) *resilience.RateLimiter {
		rl := cfg.RateLimits[name]
		return resilience.NewRateLimiter(rl.RPS, rl.Burst)
	}

	if cfg.TiingoAPIKey != "" {
		if err := reg.Register(provider.CapabilityBars, "TIINGO", 0, provider.NewTiingoClient(cfg.TiingoAPIKey, httpClient, limiterFor("TIINGO"))); err != nil {
			return err
		}
	}
	if err := reg.Register(provider.CapabilityBars, "STOOQ", 1, provider.NewStooqClient(httpClient, limiterFor("STOOQ"))); err != nil {
		return err
	}

	if cfg.ExchangeRateAPIKey != "" {
		if err := reg.Register(provider.CapabilityRate, "EXCHANGE_RATE_API", 0, provider.NewExchangeRateAPIClient(cfg.ExchangeRateAPIKey, httpClient, limiterFor("EXCHANGE_RATE_API"))); err != nil {
			return err
		}
	}
	if err := reg.Register(provider.CapabilityRate, "FRANKFURTER", 1, provider.NewFrankfurterClient(httpClient, limiterFor("FRANKFURTER"))); err != nil {
		return err
	}
	if err := reg.Register(provider.CapabilityRate, "APPROXIMATE_TABLE", 2, provider.NewApproximateTable(nil)); err != nil {
		return err
	}

	if err := reg.Register(provider.CapabilityTranscript, "IR_WEBSITE", 0, provider.NewIRWebsiteScraper(appCtx.Store.IRMappings(), httpClient, limiterFor("IR_WEBSITE"))); err != nil {
		return err
	}
	if err := reg.Register(provider.CapabilityTranscript, "EXCHANGE_FILING_PDF", 1, provider.NewAggregatorPDFScraper(cfg.ExchangeFilingBaseURL, httpClient, limiterFor("EXCHANGE_FILING_PDF"))); err != nil {
		return err
	}

	if cfg.AnthropicAPIKey != "" {
		llm := provider.NewAnthropicClient(cfg.AnthropicAPIKey, anthropic.ModelClaude3_5HaikuLatest, limiterFor("ANTHROPIC"))
		if err := reg.Register(provider.CapabilitySummary, "ANTHROPIC", 0, llm); err != nil {
			return err
		}
		if err := reg.Register(provider.CapabilitySentiment, "ANTHROPIC", 0, llm); err != nil {
			return err
		}
	}

	if cfg.ExaAPIKey != "" {
		if err := reg.Register(provider.CapabilityNews, "EXA", 0, provider.NewExaClient(cfg.ExaAPIKey, httpClient, limiterFor("EXA"))); err != nil {
			return err
		}
	}
	if cfg.TavilyAPIKey != "" {
		if err := reg.Register(provider.CapabilityNews, "TAVILY", 1, provider.NewTavilyClient(cfg.TavilyAPIKey, httpClient, limiterFor("TAVILY"))); err != nil {
			return err
		}
	}

	if cfg.OpenAIAPIKey != "" {
		embedder := provider.NewOpenAICompatibleEmbedder("OPENAI", cfg.OpenAIAPIKey, "https://api.openai.com/v1", "text-embedding-3-small", httpClient, limiterFor("OPENAI"))
		if err := reg.Register(provider.CapabilityEmbed, "OPENAI", 0, embedder); err != nil {
			return err
		}
		if err := reg.Register(provider.CapabilitySearch, "SEMANTIC_SEARCH", 0, provider.NewSemanticSearchEngine(embedder)); err != nil {
			return err
		}
	}

	return nil
}
