package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

func TestApproximateTableDirectLookup(t *testing.T) {
	tbl := NewApproximateTable(nil)
	rate, tag, err := tbl.GetRate(t.Context(), "USD", "INR", nil)
	require.NoError(t, err)
	assert.Equal(t, "APPROXIMATE_TABLE", tag)
	assert.Equal(t, 83.0, rate)
}

func TestApproximateTableInverseLookup(t *testing.T) {
	tbl := NewApproximateTable(map[string]float64{"USD:EUR": 0.92})
	rate, _, err := tbl.GetRate(t.Context(), "EUR", "USD", nil)
	require.NoError(t, err)
	assert.InDelta(t, 1/0.92, rate, 1e-9)
}

func TestApproximateTableMissingPairIsNotFound(t *testing.T) {
	tbl := NewApproximateTable(map[string]float64{"USD:EUR": 0.92})
	_, _, err := tbl.GetRate(t.Context(), "JPY", "CHF", nil)
	assert.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}
