package resolver

import (
	"context"
	"strings"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/keys"
	"github.com/maverick-mcp/maverick-mcp-go/internal/provider"
)

// RAGAnswer is the synthesized result of a RAG query: the retrieved
// chunks plus the LLM's answer over them.
type RAGAnswer struct {
	Chunks []provider.ScoredChunk
	Answer string
}

// Query implements the RAG query priority table (spec §4.6): L1
// (per-question) → semantic search over pre-indexed chunks →
// LLM gateway synthesis. The per-question answer is cached through the
// cache tier (L1 and L1′); there is no L2 step. Nothing in this
// repository builds, stores or loads a corpus index: the semantic
// searcher knows only the indexes handed to its LoadIndex, and any other
// corpus yields NotFound.
func (r *Resolver) Query(ctx context.Context, corpusID, question string, topK int) (RAGAnswer, error) {
	key := keys.Key{Namespace: keys.NamespaceRAG, Kind: keys.KindChunks, Fields: []string{corpusID, strings.TrimSpace(question)}, Version: 1}.String()

	var cached RAGAnswer
	if r.getCached(ctx, key, &cached) {
		return cached, nil
	}

	corrID := newCorrelationID()

	searchInst, ok := firstInstance(r.providers, provider.CapabilitySearch)
	if !ok {
		return RAGAnswer{}, errs.New(errs.UpstreamUnavailable, "no semantic search provider configured")
	}
	searcher := searchInst.(provider.SemanticSearcher)

	chunksRaw, err := r.breakers.Execute(ctx, endpointKey(provider.CapabilitySearch, "primary"), func(ctx context.Context) (any, error) {
		return searcher.TopK(ctx, question, topK, corpusID)
	})
	if err != nil {
		r.logAttemptFailure(string(provider.CapabilitySearch), corrID, attempt{provider: "primary", err: err})
		return RAGAnswer{}, err
	}
	chunks := chunksRaw.([]provider.ScoredChunk)
	if len(chunks) == 0 {
		return RAGAnswer{}, errs.New(errs.NotFound, "no indexed chunks matched the question")
	}

	summaryInst, ok := firstInstance(r.providers, provider.CapabilitySummary)
	if !ok {
		result := RAGAnswer{Chunks: chunks, Answer: ""}
		r.setCached(ctx, key, result, r.cfg.DefaultTTL, "search-only")
		return result, errs.New(errs.Partial, "retrieved chunks but no LLM gateway is configured to synthesize an answer")
	}
	synthesizer := summaryInst.(provider.SummaryProvider)

	var excerpts strings.Builder
	for _, c := range chunks {
		excerpts.WriteString(c.Chunk)
		excerpts.WriteString("\n\n")
	}
	prompt := "Question: " + question + "\n\nRelevant excerpts:\n" + excerpts.String()

	summaryRaw, err := r.breakers.Execute(ctx, endpointKey(provider.CapabilitySummary, "rag-synthesis"), func(ctx context.Context) (any, error) {
		return synthesizer.Summarize(ctx, prompt, provider.SummaryModeExecutive)
	})
	if err != nil {
		r.logAttemptFailure(string(provider.CapabilitySummary), corrID, attempt{provider: "rag-synthesis", err: err})
		result := RAGAnswer{Chunks: chunks}
		return result, errs.New(errs.Partial, "retrieved chunks but synthesis failed: "+err.Error())
	}

	result := RAGAnswer{Chunks: chunks, Answer: summaryRaw.(provider.Summary).Headline}
	r.setCached(ctx, key, result, r.cfg.DefaultTTL, "rag")
	return result, nil
}

// firstInstance returns the highest-priority registered instance for a
// capability, if any.
func firstInstance(registry *provider.Registry, cap provider.Capability) (any, bool) {
	ordered := registry.Ordered(cap)
	if len(ordered) == 0 {
		return nil, false
	}
	return registry.Instance(cap, ordered[0].Name)
}
