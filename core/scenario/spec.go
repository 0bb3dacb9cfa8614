// Package scenario defines the declarative description of one voucher
// generation test scenario and its validated constructor.
package scenario

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"billing-fixtures/core/catalog"
	"billing-fixtures/core/determinism"
	"billing-fixtures/internal/errors"
)

// Strategy decides who bears the settlement rail fee
type Strategy string

const (
	// Absorb charges the rail fee to the issuer on top of escrow
	Absorb Strategy = "absorb"
	// Include deducts the rail fee from the escrow; the redeemer receives less
	Include Strategy = "include"
)

// ParseStrategy parses a strategy case-insensitively; empty means absorb
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Absorb):
		return Absorb, nil
	case string(Include):
		return Include, nil
	}
	return "", errors.InvalidScenario(fmt.Sprintf("unknown fee strategy %q", s))
}

// ParseRail parses a settlement rail case-insensitively; empty means NONE
func ParseRail(s string) (catalog.Rail, error) {
	r, ok := catalog.ParseRail(s)
	if !ok {
		return "", errors.InvalidScenario(fmt.Sprintf("unknown settlement rail %q", s))
	}
	return r, nil
}

// ParseFeatures resolves selector names; unknown names fail with an
// unknown-feature error. Duplicates are left for Build to reject.
func ParseFeatures(names []string) ([]catalog.Feature, error) {
	out := make([]catalog.Feature, 0, len(names))
	for _, name := range names {
		f, ok := catalog.ParseFeature(name)
		if !ok {
			return nil, errors.UnknownFeature(name)
		}
		out = append(out, f)
	}
	return out, nil
}

// Extras are presentation settings carried verbatim into the request body
type Extras struct {
	Prefix  string
	Mask    string
	TTLDays int
}

// Spec describes one scenario. Build it with Build; the zero value is not valid.
type Spec struct {
	// Title names the scenario folder, e.g. "03 - Input Fields - Email"
	Title string

	BaseAmount decimal.Decimal
	Count      int

	// Features are unique and in canonical order
	Features []catalog.Feature

	Rail     catalog.Rail
	Strategy Strategy
	Extras   Extras
}

// Option configures optional Spec fields
type Option func(*Spec)

// WithTitle sets the scenario title
func WithTitle(title string) Option {
	return func(s *Spec) { s.Title = strings.TrimSpace(title) }
}

// WithExtras sets the presentation extras
func WithExtras(e Extras) Option {
	return func(s *Spec) { s.Extras = e }
}

// Build validates inputs and returns a normalized Spec
func Build(baseAmount decimal.Decimal, count int, features []catalog.Feature, rail catalog.Rail, strategy Strategy, opts ...Option) (Spec, error) {
	if rail == "" {
		rail = catalog.RailNone
	}
	if strategy == "" {
		strategy = Absorb
	}

	switch {
	case !baseAmount.IsPositive():
		return Spec{}, errors.InvalidScenario(fmt.Sprintf("base amount must be positive, got %s", baseAmount))
	case determinism.HasSubCents(baseAmount):
		return Spec{}, errors.InvalidScenario(fmt.Sprintf("base amount %s has sub-cent precision", baseAmount))
	case count < 1:
		return Spec{}, errors.InvalidScenario(fmt.Sprintf("count must be at least 1, got %d", count))
	case !rail.Valid():
		return Spec{}, errors.InvalidScenario(fmt.Sprintf("unknown settlement rail %q", rail))
	case strategy != Absorb && strategy != Include:
		return Spec{}, errors.InvalidScenario(fmt.Sprintf("unknown fee strategy %q", strategy))
	case strategy == Include && rail == catalog.RailNone:
		return Spec{}, errors.InvalidScenario("include strategy requires a settlement rail")
	}

	normalized := slices.Clone(features)
	slices.SortFunc(normalized, catalog.Compare)
	for i, f := range normalized {
		if !f.Valid() {
			return Spec{}, errors.UnknownFeature(string(f))
		}
		if i > 0 && normalized[i-1] == f {
			return Spec{}, errors.InvalidScenario(fmt.Sprintf("feature %s selected twice", f))
		}
	}

	s := Spec{
		BaseAmount: baseAmount,
		Count:      count,
		Features:   normalized,
		Rail:       rail,
		Strategy:   strategy,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.Extras.TTLDays < 0 {
		return Spec{}, errors.InvalidScenario(fmt.Sprintf("ttl_days must not be negative, got %d", s.Extras.TTLDays))
	}
	return s, nil
}

// Has reports whether the feature is selected
func (s Spec) Has(f catalog.Feature) bool {
	_, found := slices.BinarySearchFunc(s.Features, f, catalog.Compare)
	return found
}

// InGroup returns the selected features of one group, in canonical order
func (s Spec) InGroup(g catalog.Group) []catalog.Feature {
	var out []catalog.Feature
	for _, f := range s.Features {
		if f.Group() == g {
			out = append(out, f)
		}
	}
	return out
}

// TotalEscrow is the face value of all vouchers in the generation
func (s Spec) TotalEscrow() decimal.Decimal {
	return s.BaseAmount.Mul(decimal.NewFromInt(int64(s.Count)))
}

// Key is a canonical string identifying the ledger-relevant inputs
func (s Spec) Key() string {
	names := make([]string, len(s.Features))
	for i, f := range s.Features {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s×%d[%s]%s/%s", s.BaseAmount.StringFixed(2), s.Count, strings.Join(names, ","), s.Rail, s.Strategy)
}
