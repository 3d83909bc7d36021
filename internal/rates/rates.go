// Package rates provides the exchange-rate table used for wallet valuations
// and currency conversions. A Table is immutable after construction and is
// injected into the portfolio service, so tests can substitute rates without
// touching global state.
package rates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "valutatrade/internal/errors"
)

// Table maps currency codes to their rate against an implicit common
// reference unit (USD = 1.0).
type Table struct {
	rates map[string]decimal.Decimal
}

// New creates a Table from the given rates. The map is copied, so later
// mutations of the argument do not affect the table.
func New(rates map[string]decimal.Decimal) Table {
	copied := make(map[string]decimal.Decimal, len(rates))
	for code, rate := range rates {
		copied[strings.ToUpper(code)] = rate
	}
	return Table{rates: copied}
}

// Default returns the built-in rate table.
func Default() Table {
	return New(map[string]decimal.Decimal{
		"USD": decimal.NewFromFloat(1.0),
		"EUR": decimal.NewFromFloat(1.1),
		"BTC": decimal.NewFromFloat(40000.0),
		"RUB": decimal.NewFromFloat(0.012),
	})
}

// Parse builds a Table from a comma-separated "CODE=rate" spec,
// e.g. "USD=1.0,EUR=1.1,BTC=40000". Used for configuration overrides.
func Parse(spec string) (Table, error) {
	rates := make(map[string]decimal.Decimal)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return Table{}, fmt.Errorf("invalid rate entry %q, expected CODE=rate", entry)
		}
		code := strings.ToUpper(strings.TrimSpace(parts[0]))
		if code == "" {
			return Table{}, fmt.Errorf("invalid rate entry %q, empty currency code", entry)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
		if err != nil {
			return Table{}, fmt.Errorf("invalid rate for %s: %w", code, err)
		}
		if rate.LessThanOrEqual(decimal.Zero) {
			return Table{}, fmt.Errorf("rate for %s must be positive", code)
		}
		rates[code] = rate
	}
	if len(rates) == 0 {
		return Table{}, fmt.Errorf("rate spec %q contains no entries", spec)
	}
	return New(rates), nil
}

// Has reports whether the table knows the given currency code.
func (t Table) Has(code string) bool {
	_, ok := t.rates[strings.ToUpper(code)]
	return ok
}

// Rate returns the reference-unit rate for a currency code.
func (t Table) Rate(code string) (decimal.Decimal, bool) {
	rate, ok := t.rates[strings.ToUpper(code)]
	return rate, ok
}

// Convert converts an amount from one currency to another using
// amount * rate[from] / rate[to]. Returns UNKNOWN_CURRENCY if either
// code is absent from the table.
func (t Table) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	fromRate, ok := t.Rate(from)
	if !ok {
		return decimal.Decimal{}, apperrors.WithMessage(apperrors.ErrUnknownCurrency, "Unknown currency code "+strings.ToUpper(from))
	}
	toRate, ok := t.Rate(to)
	if !ok {
		return decimal.Decimal{}, apperrors.WithMessage(apperrors.ErrUnknownCurrency, "Unknown currency code "+strings.ToUpper(to))
	}
	return amount.Mul(fromRate).Div(toRate), nil
}

// Codes returns the known currency codes in sorted order.
func (t Table) Codes() []string {
	codes := make([]string, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
