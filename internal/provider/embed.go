package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
)

// OpenAICompatibleEmbedder is the Embedder backing the RAG query
// capability (spec §4.6 "Embedder / SemanticSearcher"). OpenRouter and
// OpenAI both expose the same `/embeddings` request/response shape, so
// this one client type can target either; cmd/maverick-mcp registers it
// only for OPENAI_API_KEY.
type OpenAICompatibleEmbedder struct {
	name    string
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	limiter *resilience.RateLimiter
}

func NewOpenAICompatibleEmbedder(name, apiKey, baseURL, model string, httpClient *http.Client, limiter *resilience.RateLimiter) *OpenAICompatibleEmbedder {
	return &OpenAICompatibleEmbedder{name: name, apiKey: apiKey, baseURL: baseURL, model: model, http: httpClient, limiter: limiter}
}

func (c *OpenAICompatibleEmbedder) Name() string { return c.name }

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingDatum struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Data []embeddingDatum `json:"data"`
}

func (c *OpenAICompatibleEmbedder) Embed(ctx context.Context, chunks []string) ([][]float64, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}

	body, _ := json.Marshal(embeddingRequest{Model: c.model, Input: chunks})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, c.Name(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errs.New(errs.QuotaExceeded, c.Name()+" rate limit exceeded").WithRetryAfter(30)
	}
	if resp.StatusCode >= 500 {
		return nil, errs.Newf(errs.Transient, "%s upstream error: %d", c.Name(), resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return nil, errs.Newf(errs.Permanent, "%s rejected request: %d", c.Name(), resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errs.Wrap(errs.Transient, c.Name(), err)
	}

	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
	out := make([][]float64, len(parsed.Data))
	for i, d := range parsed.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// CorpusIndex is an in-memory nearest-neighbor index over one corpus's
// embedding vectors. It lives only in memory: it is not persisted to or
// loaded from the store, and reaches a SemanticSearchEngine only through
// LoadIndex.
// Cosine similarity is computed with gonum's vector primitives rather
// than a hand-rolled dot-product loop.
type CorpusIndex struct {
	corpusID string
	chunks   []string
	vectors  *mat.Dense // rows = chunks, cols = embedding dims
}

// NewCorpusIndex builds an index from parallel chunk/vector slices. All
// vectors must share the same dimensionality.
func NewCorpusIndex(corpusID string, chunks []string, vectors [][]float64) (*CorpusIndex, error) {
	if len(chunks) != len(vectors) {
		return nil, errs.New(errs.InvalidInput, "chunks and vectors must be the same length")
	}
	if len(vectors) == 0 {
		return &CorpusIndex{corpusID: corpusID}, nil
	}
	dim := len(vectors[0])
	flat := make([]float64, 0, len(vectors)*dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, errs.New(errs.InvalidInput, "embedding vectors have inconsistent dimensionality")
		}
		flat = append(flat, v...)
	}
	return &CorpusIndex{corpusID: corpusID, chunks: chunks, vectors: mat.NewDense(len(vectors), dim, flat)}, nil
}

// SemanticSearchEngine implements SemanticSearcher by embedding the query
// with the same Embedder used to build a corpus's index, then ranking by
// cosine similarity.
type SemanticSearchEngine struct {
	embedder Embedder
	indexes  map[string]*CorpusIndex
}

func NewSemanticSearchEngine(embedder Embedder) *SemanticSearchEngine {
	return &SemanticSearchEngine{embedder: embedder, indexes: map[string]*CorpusIndex{}}
}

func (e *SemanticSearchEngine) Name() string { return "SEMANTIC_SEARCH" }

// LoadIndex registers a corpus's index, replacing any previous index for
// the same corpusID.
func (e *SemanticSearchEngine) LoadIndex(idx *CorpusIndex) {
	e.indexes[idx.corpusID] = idx
}

func (e *SemanticSearchEngine) TopK(ctx context.Context, query string, k int, corpusID string) ([]ScoredChunk, error) {
	idx, ok := e.indexes[corpusID]
	if !ok || idx.vectors == nil {
		return nil, errs.New(errs.NotFound, "no RAG index loaded for corpus "+corpusID)
	}

	queryVecs, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(queryVecs) == 0 {
		return nil, errs.New(errs.Permanent, "embedder returned no vector for query")
	}
	q := mat.NewVecDense(len(queryVecs[0]), queryVecs[0])

	rows, _ := idx.vectors.Dims()
	scored := make([]ScoredChunk, rows)
	for i := 0; i < rows; i++ {
		row := idx.vectors.RowView(i)
		scored[i] = ScoredChunk{Chunk: idx.chunks[i], Score: cosineSimilarity(q, row)}
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func cosineSimilarity(a mat.Vector, b mat.Vector) float64 {
	n := a.Len()
	av := make([]float64, n)
	bv := make([]float64, n)
	for i := 0; i < n; i++ {
		av[i] = a.AtVec(i)
		bv[i] = b.AtVec(i)
	}
	dot := floats.Dot(av, bv)
	normA := floats.Norm(av, 2)
	normB := floats.Norm(bv, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (normA * normB)
}
