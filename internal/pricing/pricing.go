package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Tolerance is the largest claimed-vs-expected difference that is still an
// exact match. The comparison is strict.
var Tolerance = decimal.RequireFromString("0.01")

// Table maps product codes to their canonical price. A Table is never
// modified after construction.
type Table struct {
	prices map[string]decimal.Decimal
}

// Default returns the built-in catalogue.
func Default() *Table {
	t, _ := FromStrings(map[string]string{
		"WA-01": "1499.00",
		"WA-02": "2499.00",
		"WA-03": "6499.00",
		"WA-04": "899.00",
		"WA-05": "800.00",
		"WA-06": "3999.00",
		"WA-07": "1800.00",
		"WA-08": "999.00",
		"WA-09": "1009.00",
		"WA-10": "1299.00",
		"WA-11": "5499.00",
	})
	return t
}

// FromStrings parses a code→price map. Prices must be positive.
func FromStrings(raw map[string]string) (*Table, error) {
	prices := make(map[string]decimal.Decimal, len(raw))
	for code, s := range raw {
		if code == "" {
			return nil, fmt.Errorf("pricing: empty product code")
		}
		p, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("pricing: parse price for %s: %w", code, err)
		}
		if !p.IsPositive() {
			return nil, fmt.Errorf("pricing: price for %s must be positive", code)
		}
		prices[code] = p.Round(2)
	}
	return &Table{prices: prices}, nil
}

// PriceOf looks up code. Callers must treat !ok as a rejection.
func (t *Table) PriceOf(code string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	p, ok := t.prices[code]
	return p, ok
}

// Codes returns the known product codes in sorted order.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.prices))
	for c := range t.prices {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Matches reports whether claimed is within Tolerance of expected.
// claimed that does not parse counts as zero.
func Matches(claimed string, expected decimal.Decimal) bool {
	c, err := decimal.NewFromString(claimed)
	if err != nil {
		c = decimal.Zero
	}
	return c.Sub(expected).Abs().LessThan(Tolerance)
}

// Format renders an amount with two decimals behind a currency prefix.
func Format(prefix string, amount decimal.Decimal) string {
	if prefix == "" {
		return amount.StringFixed(2)
	}
	return prefix + " " + amount.StringFixed(2)
}
