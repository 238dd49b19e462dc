package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maverick-mcp/maverick-mcp-go/internal/store"
)

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	t.Setenv("TIINGO_API_KEY", "test-key")
	for _, k := range []string{"SQLITE_PATH", "LOG_LEVEL", "ENVIRONMENT", "CACHE_TTL_SECONDS"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.TiingoAPIKey)
	assert.Equal(t, "maverick-mcp.db", cfg.SQLiteFallbackPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 900, cfg.CacheTTLSeconds)
	assert.True(t, cfg.CacheEnabled)
}

func TestLoadRejectsMissingRequiredCredential(t *testing.T) {
	t.Setenv("TIINGO_API_KEY", "")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("TIINGO_API_KEY", "test-key")
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := Load()
	require.Error(t, err)
}

func newTestGateway(t *testing.T) store.Gateway {
	gw, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, gw.Migrate(t.Context()))
	t.Cleanup(gw.Close)
	return gw
}

func TestLoadIRMappingsUpsertsFromFile(t *testing.T) {
	gw := newTestGateway(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "ir_mappings.json")
	content := `{
		"companies": [
			{
				"ticker": "RELIANCE.NS",
				"company_name": "Reliance Industries",
				"ir_base_url": "https://www.ril.com/investors",
				"concall_url_pattern": "https://www.ril.com/ir/{quarter}-{fy}.html",
				"concall_section_css": "#transcript",
				"market": "NSE",
				"country": "IN",
				"is_active": true
			}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	n, err := LoadIRMappings(t.Context(), gw, path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	row, err := gw.IRMappings().GetByTicker(t.Context(), "RELIANCE.NS")
	require.NoError(t, err)
	assert.Equal(t, "Reliance Industries", row.CompanyName)
	assert.True(t, row.Active)
}

func TestLoadIRMappingsEmptyPathIsNoop(t *testing.T) {
	gw := newTestGateway(t)
	n, err := LoadIRMappings(t.Context(), gw, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLoadIRMappingsSkipsIncompleteEntries(t *testing.T) {
	gw := newTestGateway(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "ir_mappings.json")
	content := `{"companies": [{"ticker": "", "ir_base_url": "https://example.com"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	n, err := LoadIRMappings(t.Context(), gw, path, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
