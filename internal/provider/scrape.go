package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
	"github.com/maverick-mcp/maverick-mcp-go/internal/resilience"
	"github.com/maverick-mcp/maverick-mcp-go/internal/store"
)

var roleTokens = []string{"CEO", "CFO", "MD", "Managing Director", "Chief Executive", "Chief Financial"}

// managementMarkerPresent implements the parser invariant's role-token
// check (spec §4.5): "at least one role token among {CEO, CFO, MD} or an
// equivalent management marker".
func managementMarkerPresent(text string) bool {
	for _, tok := range roleTokens {
		if strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

var wordSplitter = regexp.MustCompile(`\s+`)

func wordCount(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	return len(wordSplitter.Split(trimmed, -1))
}

func symbolOrCompanyMentioned(text, symbol, companyName string) bool {
	if symbol != "" && strings.Contains(strings.ToUpper(text), strings.ToUpper(stripSuffix(symbol))) {
		return true
	}
	if companyName != "" && strings.Contains(text, companyName) {
		return true
	}
	return false
}

func stripSuffix(symbol string) string {
	if i := strings.IndexByte(symbol, '.'); i >= 0 {
		return symbol[:i]
	}
	return symbol
}

// validateParse applies the three-part parser invariant from spec §4.5.
// A parse that fails any part is rejected as a Permanent error so the
// resolver falls through to the next provider in the cascade.
func validateParse(text, symbol, companyName string) error {
	wc := wordCount(text)
	if wc < 500 {
		return errs.Newf(errs.Permanent, "parsed transcript too short (%d words)", wc)
	}
	if !symbolOrCompanyMentioned(text, symbol, companyName) {
		return errs.New(errs.Permanent, "parsed transcript does not mention symbol or company name")
	}
	if !managementMarkerPresent(text) {
		return errs.New(errs.Permanent, "parsed transcript has no management role marker")
	}
	return nil
}

// IRWebsiteScraper is the company-IR-site TranscriptProvider (spec §4.6
// cascade step 1: "Company IR scrape"), driven entirely by declarative
// CSS/XPath selectors from an IRMapping row — no code change needed when
// a company's HTML shifts (spec §9 "a config push, not a code change").
type IRWebsiteScraper struct {
	mappings store.IRMappingRepository
	http     *http.Client
	limiter  *resilience.RateLimiter
}

func NewIRWebsiteScraper(mappings store.IRMappingRepository, httpClient *http.Client, limiter *resilience.RateLimiter) *IRWebsiteScraper {
	return &IRWebsiteScraper{mappings: mappings, http: httpClient, limiter: limiter}
}

func (s *IRWebsiteScraper) Name() string { return "IR_WEBSITE" }

func (s *IRWebsiteScraper) GetTranscript(ctx context.Context, symbol, quarter string, fiscalYear int) (TranscriptResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return TranscriptResult{}, errs.Wrap(errs.Transient, s.Name(), err)
	}

	mapping, err := s.mappings.GetByTicker(ctx, symbol)
	if err != nil {
		return TranscriptResult{}, errs.Wrap(errs.NotFound, s.Name(), err)
	}
	if !mapping.Active {
		return TranscriptResult{}, errs.New(errs.NotFound, "IR mapping for "+symbol+" is inactive")
	}

	url := expandURLPattern(mapping.ConcallURLPattern, mapping.IRBaseURL, symbol, quarter, fiscalYear)
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
		return TranscriptResult{}, errs.New(errs.NotFound, "no transcript page at "+url)
	}
	if resp.StatusCode >= 500 {
		return TranscriptResult{}, errs.Newf(errs.Transient, "%s upstream error: %d", s.Name(), resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return TranscriptResult{}, errs.Wrap(errs.Transient, s.Name(), err)
	}

	text, err := extractSection(raw, mapping.ConcallSectionCSS, mapping.ConcallSectionXPath)
	if err != nil {
		return TranscriptResult{}, errs.Wrap(errs.Permanent, s.Name(), err)
	}

	if err := validateParse(text, symbol, mapping.CompanyName); err != nil {
		return TranscriptResult{}, err
	}

	return TranscriptResult{Text: text, SourceURL: url, SourceTag: s.Name(), WordCount: wordCount(text)}, nil
}

// extractSection pulls the transcript body out of raw HTML using the
// CSS selector if present (goquery, grounded on the
// PuerkitoBio/goquery + antchfx scraping pair used in
// ternarybob-quaero), falling back to the XPath selector via
// antchfx/htmlquery when no CSS selector is configured or the CSS
// selector matches nothing.
func extractSection(raw []byte, css, xpath string) (string, error) {
	if css != "" {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
		if err != nil {
			return "", err
		}
		sel := doc.Find(css)
		if sel.Length() > 0 {
			return strings.TrimSpace(sel.Text()), nil
		}
	}
	if xpath != "" {
		doc, err := htmlquery.Parse(bytes.NewReader(raw))
		if err != nil {
			return "", err
		}
		node := htmlquery.FindOne(doc, xpath)
		if node != nil {
			return strings.TrimSpace(htmlquery.InnerText(node)), nil
		}
	}
	return "", errs.New(errs.Permanent, "neither CSS nor XPath selector matched any content")
}

func expandURLPattern(pattern, baseURL, symbol, quarter string, fiscalYear int) string {
	if pattern == "" {
		return baseURL
	}
	r := strings.NewReplacer(
		"{ticker}", stripSuffix(symbol),
		"{quarter}", quarter,
		"{fy}", strconv.Itoa(fiscalYear),
	)
	expanded := r.Replace(pattern)
	if strings.HasPrefix(expanded, "http") {
		return expanded
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(expanded, "/")
}
