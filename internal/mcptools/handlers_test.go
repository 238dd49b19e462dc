package mcptools

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func requestWithArgs(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Arguments: args},
	}
}

func TestBoolArgDefaultsWhenAbsent(t *testing.T) {
	req := requestWithArgs(map[string]any{})
	assert.False(t, boolArg(req, "force_refresh", false))
	assert.True(t, boolArg(req, "force_refresh", true))
}

func TestBoolArgParsesPresentValue(t *testing.T) {
	req := requestWithArgs(map[string]any{"force_refresh": "true"})
	assert.True(t, boolArg(req, "force_refresh", false))
}

func TestBoolArgFallsBackOnMalformedValue(t *testing.T) {
	req := requestWithArgs(map[string]any{"force_refresh": "not-a-bool"})
	assert.False(t, boolArg(req, "force_refresh", false))
}

func TestStringArgDefaultsWhenAbsent(t *testing.T) {
	req := requestWithArgs(map[string]any{})
	assert.Equal(t, "executive", stringArg(req, "mode", "executive"))
}

func TestStringArgReturnsPresentValue(t *testing.T) {
	req := requestWithArgs(map[string]any{"mode": "detailed"})
	assert.Equal(t, "detailed", stringArg(req, "mode", "executive"))
}

func TestParseTranscriptArgsNormalizesQuarter(t *testing.T) {
	req := requestWithArgs(map[string]any{
		"symbol":      "AAPL",
		"quarter":     "q1",
		"fiscal_year": "2025",
	})
	symbol, quarter, fy, errResult := parseTranscriptArgs(req)
	assert.Nil(t, errResult)
	assert.Equal(t, "AAPL", symbol)
	assert.Equal(t, "Q1", string(quarter))
	assert.Equal(t, 2025, fy)
}

func TestParseTranscriptArgsRejectsInvalidFiscalYear(t *testing.T) {
	req := requestWithArgs(map[string]any{
		"symbol":      "AAPL",
		"quarter":     "Q1",
		"fiscal_year": "not-a-year",
	})
	_, _, _, errResult := parseTranscriptArgs(req)
	assert.NotNil(t, errResult)
}
