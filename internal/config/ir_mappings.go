package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/maverick-mcp/maverick-mcp-go/internal/store"
)

// irMappingsFile mirrors the declarative IR-scrape config file shape
// (spec §3 IRMapping, §6 "IR mappings file"): a config push, not a code
// change, fixes a selector when a site's HTML changes (spec §9).
type irMappingsFile struct {
	Companies []irMappingEntry `json:"companies"`
}

type irMappingEntry struct {
	Ticker              string `json:"ticker" validate:"required"`
	CompanyName         string `json:"company_name" validate:"required"`
	IRBaseURL           string `json:"ir_base_url" validate:"required,url"`
	ConcallURLPattern   string `json:"concall_url_pattern"`
	ConcallSectionXPath string `json:"concall_section_xpath"`
	ConcallSectionCSS   string `json:"concall_section_css"`
	Market              string `json:"market"`
	Country             string `json:"country"`
	IsActive            bool   `json:"is_active"`
	Notes               string `json:"notes"`
}

// LoadIRMappings reads the declarative IR-scrape config at path, skips
// and logs any entry that fails validation, and idempotently upserts the
// rest into the store's IRMappingRepository, so repeated startups
// converge on the file's contents rather than accumulating duplicate or
// stale rows.
func LoadIRMappings(ctx context.Context, gw store.Gateway, path string, logger *slog.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading IR mappings file %s: %w", path, err)
	}

	var file irMappingsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return 0, fmt.Errorf("parsing IR mappings file %s: %w", path, err)
	}

	validate := validator.New()
	rows := make([]store.IRMapping, 0, len(file.Companies))
	for _, c := range file.Companies {
		if err := validate.Struct(c); err != nil {
			if logger != nil {
				logger.Warn("skipping invalid IR mapping entry", "ticker", c.Ticker, "error", err)
			}
			continue
		}
		rows = append(rows, store.IRMapping{
			Ticker:              c.Ticker,
			CompanyName:         c.CompanyName,
			IRBaseURL:           c.IRBaseURL,
			ConcallURLPattern:   c.ConcallURLPattern,
			ConcallSectionXPath: c.ConcallSectionXPath,
			ConcallSectionCSS:   c.ConcallSectionCSS,
			Market:              c.Market,
			Country:             c.Country,
			Active:              c.IsActive,
			Notes:               c.Notes,
		})
	}

	if len(rows) == 0 {
		return 0, nil
	}
	if err := gw.IRMappings().BulkUpsert(ctx, rows); err != nil {
		return 0, fmt.Errorf("bulk-upserting IR mappings: %w", err)
	}
	return len(rows), nil
}
