package provider

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
)

// AggregatorPDFScraper is the exchange-filing / aggregator-site
// TranscriptProvider (spec §4.6 cascade step 2: "Exchange filing / PDF
// aggregator"). It fetches a concall PDF from a templated URL and
// extracts its text, applying the same parser invariant as the HTML
// scraper.
type AggregatorPDFScraper struct {
	baseURL string
	http    *http.Client
	limiter *resilience.RateLimiter
}

func NewAggregatorPDFScraper(baseURL string, httpClient *http.Client, limiter *resilience.RateLimiter) *AggregatorPDFScraper {
	return &AggregatorPDFScraper{baseURL: baseURL, http: httpClient, limiter: limiter}
}

func (s *AggregatorPDFScraper) Name() string { return "EXCHANGE_FILING_PDF" }

func (s *AggregatorPDFScraper) GetTranscript(ctx context.Context, symbol, quarter string, fiscalYear int) (TranscriptResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return TranscriptResult{}, errs.Wrap(errs.Transient, s.Name(), err)
	}

	url := fmt.Sprintf("%s/%s/%s-%d-concall.pdf", strings.TrimRight(s.baseURL, "/"), symbol, quarter, fiscalYear)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return TranscriptResult{}, errs.Wrap(errs.InvalidInput, s.Name(), err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return TranscriptResult{}, errs.Wrap(errs.Transient, s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return TranscriptResult{}, errs.New(errs.NotFound, "no filing PDF at "+url)
	}
	if resp.StatusCode >= 500 {
		return TranscriptResult{}, errs.Newf(errs.Transient, "%s upstream error: %d", s.Name(), resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return TranscriptResult{}, errs.Newf(errs.Permanent, "%s rejected request: %d", s.Name(), resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return TranscriptResult{}, errs.Wrap(errs.Transient, s.Name(), err)
	}

	text, err := extractPDFText(raw)
	if err != nil {
		return TranscriptResult{}, errs.Wrap(errs.Permanent, s.Name(), err)
	}

	if err := validateParse(text, symbol, ""); err != nil {
		return TranscriptResult{}, err
	}

	return TranscriptResult{Text: text, SourceURL: url, SourceTag: s.Name(), WordCount: wordCount(text)}, nil
}

// textShowingOperator matches the literal-string operand of a PDF content
// stream's Tj/TJ text-showing operators, e.g. "(Good morning) Tj".
var textShowingOperator = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*T[Jj]`)

var pdfEscape = strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, " ")

// extractPDFText validates the document structure with pdfcpu (the pack's
// PDF processing library has no plain-text extraction API of its own —
// ExtractContent dumps raw, undecoded content-stream operators rather than
// readable prose) and then scrapes the literal strings passed to Tj/TJ
// text-showing operators out of each decompressed content stream.
func extractPDFText(raw []byte) (string, error) {
	tmp, err := os.CreateTemp("", "transcript-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	if err := api.ValidateFile(tmp.Name(), nil); err != nil {
		return "", fmt.Errorf("invalid pdf: %w", err)
	}

	var out strings.Builder
	for _, stream := range decompressedStreams(raw) {
		for _, m := range textShowingOperator.FindAllSubmatch(stream, -1) {
			out.WriteString(pdfEscape.Replace(string(m[1])))
			out.WriteString(" ")
		}
	}

	text := out.String()
	if strings.TrimSpace(text) == "" {
		return "", errs.New(errs.Permanent, "pdf contained no extractable text")
	}
	return text, nil
}

var streamBounds = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)

// decompressedStreams pulls every PDF stream object out of raw and, where
// it looks Flate-compressed, inflates it; streams that aren't zlib (images,
// fonts) are returned inflate-as-is and will simply fail to match any
// text-showing operator.
func decompressedStreams(raw []byte) [][]byte {
	matches := streamBounds.FindAllSubmatch(raw, -1)
	out := make([][]byte, 0, len(matches))
	for _, m := range matches {
		body := bytes.TrimSpace(m[1])
		if r, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			if inflated, err := io.ReadAll(r); err == nil {
				out = append(out, inflated)
				r.Close()
				continue
			}
			r.Close()
		}
		out = append(out, body)
	}
	return out
}
