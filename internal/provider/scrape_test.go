package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/store"
)

func longTranscriptText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = "word"
	}
	return strings.Join(words, " ") + " our Chief Executive Officer discussed guidance today"
}

func TestValidateParseRejectsShortText(t *testing.T) {
	err := validateParse("too short", "AAPL", "Apple Inc")
	require.Error(t, err)
	assert.Equal(t, errs.Permanent, errs.KindOf(err))
}

func TestValidateParseRejectsMissingSymbolOrCompany(t *testing.T) {
	text := strings.Repeat("word ", 600) + "CEO"
	err := validateParse(text, "AAPL", "Apple Inc")
	require.Error(t, err)
}

func TestValidateParseRejectsMissingRoleMarker(t *testing.T) {
	text := strings.Repeat("word ", 600) + "AAPL"
	err := validateParse(text, "AAPL", "Apple Inc")
	require.Error(t, err)
}

func TestValidateParseAcceptsCompleteTranscript(t *testing.T) {
	text := longTranscriptText(600) + " AAPL Apple Inc"
	err := validateParse(text, "AAPL", "Apple Inc")
	assert.NoError(t, err)
}

func TestExtractSectionByCSS(t *testing.T) {
	html := `<html><body><div class="transcript">hello world</div></body></html>`
	text, err := extractSection([]byte(html), ".transcript", "")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtractSectionByXPath(t *testing.T) {
	html := `<html><body><div id="transcript">hello xpath</div></body></html>`
	text, err := extractSection([]byte(html), "", "//div[@id='transcript']")
	require.NoError(t, err)
	assert.Equal(t, "hello xpath", text)
}

func TestExtractSectionNoSelectorMatches(t *testing.T) {
	html := `<html><body><div>nothing here</div></body></html>`
	_, err := extractSection([]byte(html), ".missing", "//span")
	assert.Error(t, err)
}

func TestExpandURLPatternSubstitutesTokens(t *testing.T) {
	url := expandURLPattern("/investors/{ticker}-{quarter}-{fy}.html", "https://ir.example.com", "TCS.NS", "Q1", 2026)
	assert.Equal(t, "https://ir.example.com/investors/TCS-Q1-2026.html", url)
}

func TestExpandURLPatternAbsoluteOverridesBase(t *testing.T) {
	url := expandURLPattern("https://other.example.com/{ticker}.html", "https://ir.example.com", "TCS", "Q1", 2026)
	assert.Equal(t, "https://other.example.com/TCS.html", url)
}

func TestIRWebsiteScraperServesConfiguredSelector(t *testing.T) {
	body := `<html><body><div class="transcript">` + longTranscriptText(600) + ` TCS Tata Consultancy</div></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	mappings := &stubIRMappings{mapping: store.IRMapping{
		Ticker: "TCS", CompanyName: "Tata Consultancy", IRBaseURL: srv.URL,
		ConcallURLPattern: "/", ConcallSectionCSS: ".transcript", Active: true,
	}}
	scraper := NewIRWebsiteScraper(mappings, srv.Client(), nil)

	result, err := scraper.GetTranscript(t.Context(), "TCS", "Q1", 2026)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "Tata Consultancy")
	assert.Equal(t, "IR_WEBSITE", result.SourceTag)
}

func TestIRWebsiteScraperInactiveMappingIsNotFound(t *testing.T) {
	mappings := &stubIRMappings{mapping: store.IRMapping{Ticker: "TCS", Active: false}}
	scraper := NewIRWebsiteScraper(mappings, http.DefaultClient, nil)

	_, err := scraper.GetTranscript(t.Context(), "TCS", "Q1", 2026)
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

type stubIRMappings struct {
	mapping store.IRMapping
	err     error
}

func (s *stubIRMappings) GetByTicker(ctx context.Context, ticker string) (store.IRMapping, error) {
	if s.err != nil {
		return store.IRMapping{}, s.err
	}
	return s.mapping, nil
}

func (s *stubIRMappings) Upsert(ctx context.Context, m store.IRMapping) error { return nil }
func (s *stubIRMappings) BulkUpsert(ctx context.Context, rows []store.IRMapping) error { return nil }
func (s *stubIRMappings) QueryBy(ctx context.Context, activeOnly bool) ([]store.IRMapping, error) {
	return nil, nil
}
