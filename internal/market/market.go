// Package market holds the Market registry (§3 Market) and canonical
// symbol normalization used by C1's symbolToMarket operation.
package market

import (
	"regexp"
	"strings"

	"github.com/maverick-mcp/maverick-mcp-go/internal/errs"
)

// Market is an immutable, configured trading venue identity.
type Market struct {
	Code               string // e.g. "US", "NSE", "BSE"
	Country            string // ISO country code
	Currency           string // ISO currency code
	Timezone           string // IANA timezone name
	Suffix             string // symbol suffix, e.g. ".NS"; empty for US
	CircuitBreakerPct  float64
	SettlementCycle    string // e.g. "T+1"
	CalendarName       string
}

// Registry is the configured, immutable set of known markets, keyed by
// symbol suffix. US has no suffix and is the default.
var registry = []Market{
	{Code: "US", Country: "US", Currency: "USD", Timezone: "America/New_York", Suffix: "", CircuitBreakerPct: 0, SettlementCycle: "T+1", CalendarName: "XNYS"},
	{Code: "NSE", Country: "IN", Currency: "INR", Timezone: "Asia/Kolkata", Suffix: ".NS", CircuitBreakerPct: 0.10, SettlementCycle: "T+1", CalendarName: "XNSE"},
	{Code: "BSE", Country: "IN", Currency: "INR", Timezone: "Asia/Kolkata", Suffix: ".BO", CircuitBreakerPct: 0.10, SettlementCycle: "T+1", CalendarName: "XBOM"},
	{Code: "LSE", Country: "GB", Currency: "GBP", Timezone: "Europe/London", Suffix: ".L", CircuitBreakerPct: 0, SettlementCycle: "T+2", CalendarName: "XLON"},
	{Code: "TSE", Country: "JP", Currency: "JPY", Timezone: "Asia/Tokyo", Suffix: ".T", CircuitBreakerPct: 0, SettlementCycle: "T+2", CalendarName: "XTKS"},
	{Code: "HKEX", Country: "HK", Currency: "HKD", Timezone: "Asia/Hong_Kong", Suffix: ".HK", CircuitBreakerPct: 0.10, SettlementCycle: "T+2", CalendarName: "XHKG"},
	{Code: "ASX", Country: "AU", Currency: "AUD", Timezone: "Australia/Sydney", Suffix: ".AX", CircuitBreakerPct: 0, SettlementCycle: "T+2", CalendarName: "XASX"},
	{Code: "TSX", Country: "CA", Currency: "CAD", Timezone: "America/Toronto", Suffix: ".TO", CircuitBreakerPct: 0, SettlementCycle: "T+1", CalendarName: "XTSE"},
}

var usMarket = registry[0]

// rawSymbolPattern matches the allowed character set for a raw symbol
// after upcasing: letters, digits, dot, hyphen (§4.1).
var rawSymbolPattern = regexp.MustCompile(`^[A-Z0-9.\-]+$`)

// CanonicalSymbol is a (market, rawSymbol) pair after normalization:
// uppercased, and with the market's suffix stripped internally.
type CanonicalSymbol struct {
	Market Market
	Raw    string // suffix-stripped, uppercased
}

// WithSuffix returns the wire-format symbol, the canonical symbol with
// its market's suffix appended, e.g. "RELIANCE" + ".NS" for NSE.
func (c CanonicalSymbol) WithSuffix() string {
	return c.Raw + c.Market.Suffix
}

// SymbolToMarket resolves a raw ticker (possibly suffixed) to its Market
// and canonical (suffix-stripped, uppercased) symbol. A symbol without a
// known suffix resolves to US (spec §8 invariant 2: totality).
func SymbolToMarket(raw string) (CanonicalSymbol, error) {
	if strings.TrimSpace(raw) == "" {
		return CanonicalSymbol{}, errs.New(errs.InvalidInput, "symbol must not be empty")
	}

	upper := strings.ToUpper(strings.TrimSpace(raw))
	if !rawSymbolPattern.MatchString(upper) {
		return CanonicalSymbol{}, errs.Newf(errs.InvalidInput, "symbol %q contains invalid characters", raw)
	}

	for _, m := range registry {
		if m.Suffix == "" {
			continue
		}
		if strings.HasSuffix(upper, m.Suffix) {
			stripped := strings.TrimSuffix(upper, m.Suffix)
			if stripped == "" {
				return CanonicalSymbol{}, errs.Newf(errs.InvalidInput, "symbol %q is only a suffix", raw)
			}
			return CanonicalSymbol{Market: m, Raw: stripped}, nil
		}
	}

	return CanonicalSymbol{Market: usMarket, Raw: upper}, nil
}

// ByCode looks up a configured Market by its code (e.g. "NSE"). Used by
// IRMapping and configuration loading to validate declared markets.
func ByCode(code string) (Market, bool) {
	for _, m := range registry {
		if m.Code == code {
			return m, true
		}
	}
	return Market{}, false
}

// All returns the configured markets, in registry order, for totality
// tests and diagnostics.
func All() []Market {
	out := make([]Market, len(registry))
	copy(out, registry)
	return out
}
