package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

func TestSymbolToMarketTotality(t *testing.T) {
	// invariant 2: every configured suffix resolves to its market.
	for _, m := range All() {
		if m.Suffix == "" {
			continue
		}
		cs, err := SymbolToMarket("ANY" + m.Suffix)
		require.NoError(t, err)
		assert.Equal(t, m.Code, cs.Market.Code)
		assert.Equal(t, "ANY", cs.Raw)
	}
}

func TestSymbolToMarketDefaultsToUS(t *testing.T) {
	cs, err := SymbolToMarket("AAPL")
	require.NoError(t, err)
	assert.Equal(t, "US", cs.Market.Code)
	assert.Equal(t, "AAPL", cs.Raw)
}

func TestSymbolToMarketLowercaseAndSuffix(t *testing.T) {
	cs, err := SymbolToMarket("reliance.ns")
	require.NoError(t, err)
	assert.Equal(t, "NSE", cs.Market.Code)
	assert.Equal(t, "RELIANCE", cs.Raw)
	assert.Equal(t, "RELIANCE.NS", cs.WithSuffix())
}

func TestSymbolToMarketRejectsEmpty(t *testing.T) {
	_, err := SymbolToMarket("")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidInput, errs.KindOf(err))
}

func TestSymbolToMarketRejectsInvalidCharacters(t *testing.T) {
	_, err := SymbolToMarket("AAPL$")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidInput, errs.KindOf(err))
}
