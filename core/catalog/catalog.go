// Package catalog - Authoritative voucher fee catalog
// Maps every billable feature selector to its instruction fee, plus the
// fixed settlement rail fees. This is the single source of truth for fees.
package catalog

import (
	"slices"

	"github.com/shopspring/decimal"

	"billing-fixtures/internal/errors"
)

// DefaultCurrency is the currency fees are denominated in
const DefaultCurrency = "PHP"

// Entry is a catalog entry for one feature
type Entry struct {
	Feature Feature
	Group   Group
	Fee     decimal.Decimal
}

// Catalog is the immutable fee catalog. Construct it with New, Load or Default.
type Catalog struct {
	currency string
	fees     map[Feature]decimal.Decimal
	rails    map[Rail]decimal.Decimal
}

// New creates a catalog from fee tables. The maps are copied; construction
// fails unless every feature and every rail has exactly one non-negative fee.
func New(currency string, fees map[Feature]decimal.Decimal, rails map[Rail]decimal.Decimal) (*Catalog, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	c := &Catalog{
		currency: currency,
		fees:     make(map[Feature]decimal.Decimal, len(fees)),
		rails:    make(map[Rail]decimal.Decimal, len(rails)),
	}
	for f, fee := range fees {
		c.fees[f] = fee
	}
	for r, fee := range rails {
		c.rails[r] = fee
	}
	if _, ok := c.rails[RailNone]; !ok {
		c.rails[RailNone] = decimal.Zero
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Lookup returns the instruction fee for a feature.
// A missing entry is a configuration defect and is never defaulted to zero.
func (c *Catalog) Lookup(f Feature) (decimal.Decimal, error) {
	fee, ok := c.fees[f]
	if !ok {
		return decimal.Zero, errors.UnknownFeature(string(f))
	}
	return fee, nil
}

// RailFee returns the fixed fee for a settlement rail (zero for NONE)
func (c *Catalog) RailFee(r Rail) (decimal.Decimal, error) {
	fee, ok := c.rails[r]
	if !ok {
		return decimal.Zero, errors.Newf(errors.TypeInvalidScenario, "unknown settlement rail %q", r)
	}
	return fee, nil
}

// Sum adds the fees of the given features in canonical order
func (c *Catalog) Sum(fs []Feature) (decimal.Decimal, error) {
	ordered := slices.Clone(fs)
	slices.SortStableFunc(ordered, Compare)

	total := decimal.Zero
	for _, f := range ordered {
		fee, err := c.Lookup(f)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(fee)
	}
	return total, nil
}

// Selectors lists every feature with an entry, in canonical order
func (c *Catalog) Selectors() []Feature {
	out := make([]Feature, 0, len(c.fees))
	for _, f := range features {
		if _, ok := c.fees[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Entries lists every fee entry in canonical order
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.fees))
	for _, f := range c.Selectors() {
		out = append(out, Entry{Feature: f, Group: f.Group(), Fee: c.fees[f]})
	}
	return out
}

// Currency returns the currency code
func (c *Catalog) Currency() string {
	return c.currency
}

// Stats returns catalog statistics
func (c *Catalog) Stats() Stats {
	stats := Stats{
		ByGroup: make(map[Group]GroupStats),
	}
	for f, fee := range c.fees {
		stats.Total++
		g := stats.ByGroup[f.Group()]
		g.Count++
		g.Sum = g.Sum.Add(fee)
		if g.Max.LessThan(fee) {
			g.Max = fee
		}
		stats.ByGroup[f.Group()] = g
	}
	return stats
}

// Stats holds catalog statistics
type Stats struct {
	Total   int
	ByGroup map[Group]GroupStats
}

// GroupStats holds per-group statistics
type GroupStats struct {
	Count int
	Sum   decimal.Decimal
	Max   decimal.Decimal
}
