package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

func TestKeyDeterminism(t *testing.T) {
	k1 := Transcript("RELIANCE.NS", Q1, 2025, 1)
	k2 := Transcript("RELIANCE.NS", Q1, 2025, 1)
	assert.Equal(t, k1.String(), k2.String())
	assert.Equal(t, "concall:transcript:RELIANCE.NS:Q1:2025:v1", k1.String())
}

func TestKeyChangesWithAnyField(t *testing.T) {
	base := Transcript("RELIANCE.NS", Q1, 2025, 1).String()
	assert.NotEqual(t, base, Transcript("RELIANCE.NS", Q2, 2025, 1).String())
	assert.NotEqual(t, base, Transcript("RELIANCE.NS", Q1, 2026, 1).String())
	assert.NotEqual(t, base, Transcript("TCS.NS", Q1, 2025, 1).String())
	assert.NotEqual(t, base, Transcript("RELIANCE.NS", Q1, 2025, 2).String())
}

func TestFXKeyUppercasesCurrencies(t *testing.T) {
	k := FXRate("usd", "inr", 1)
	assert.Equal(t, "fx:rate:USD:INR:v1", k.String())
}

func TestParseRoundTrip(t *testing.T) {
	original := Bars("AAPL", "1d", "2024-01-01", "2024-12-31", 2)
	parsed, err := Parse(original.String())
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestParseRejectsMalformed(t *testing.T) {
	_, err := Parse("not-a-key")
	require.Error(t, err)
	assert.Equal(t, errs.InvalidInput, errs.KindOf(err))

	_, err = Parse("ns:kind:field")
	require.Error(t, err)
}

func TestNormalizeQuarterAccepted(t *testing.T) {
	cases := map[string]Quarter{
		"q1":        Q1,
		"1":         Q1,
		"Quarter 1": Q1,
		"Q1":        Q1,
		"Q4":        Q4,
	}
	for input, want := range cases {
		got, err := NormalizeQuarter(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestNormalizeQuarterRejected(t *testing.T) {
	for _, bad := range []string{"5", "Q5", "quarter", "", "H1"} {
		_, err := NormalizeQuarter(bad)
		require.Error(t, err, bad)
		assert.Equal(t, errs.InvalidInput, errs.KindOf(err))
	}
}

func TestValidateFiscalYear(t *testing.T) {
	require.NoError(t, ValidateFiscalYear(2024))
	require.Error(t, ValidateFiscalYear(1999))
	require.Error(t, ValidateFiscalYear(3000))
}
