// Package suite reads scenario suites: HCL files with one scenario block
// per generated folder.
//
//	insert_after = "01 "
//
//	scenario "03 - Input Fields - Email" {
//	  amount   = 100
//	  count    = 1
//	  features = ["inputs.fields.email"]
//	  rail     = "none"
//	  strategy = "absorb"
//	}
package suite

import (
	_ "embed"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/shopspring/decimal"

	"billing-fixtures/core/scenario"
	"billing-fixtures/internal/errors"
)

//go:embed default.hcl
var defaultSuite []byte

// DefaultFilename is the name reported for the embedded suite
const DefaultFilename = "default.hcl"

// Suite is an ordered list of scenario definitions
type Suite struct {
	InsertAfter string       `hcl:"insert_after,optional"`
	Scenarios   []Definition `hcl:"scenario,block"`
}

// Definition is one scenario block as written in the file
type Definition struct {
	Title    string   `hcl:"title,label"`
	Amount   string   `hcl:"amount"`
	Count    *int     `hcl:"count,optional"`
	Features []string `hcl:"features,optional"`
	Rail     string   `hcl:"rail,optional"`
	Strategy string   `hcl:"strategy,optional"`
	Prefix   string   `hcl:"prefix,optional"`
	Mask     string   `hcl:"mask,optional"`
	TTLDays  int      `hcl:"ttl_days,optional"`
}

// Default returns the embedded suite
func Default() (*Suite, error) {
	return Load(DefaultFilename, defaultSuite)
}

// LoadFile reads a suite from disk
func LoadFile(path string) (*Suite, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("suite file", path)
		}
		return nil, errors.Wrapf(errors.TypeInput, err, "failed to read suite %s", path)
	}
	return Load(filepath.Base(path), src)
}

// Load parses suite source. The filename selects the syntax and appears in
// diagnostics. Titles must be unique.
func Load(filename string, src []byte) (*Suite, error) {
	if !strings.HasSuffix(filename, ".hcl") {
		filename += ".hcl"
	}

	var s Suite
	if err := hclsimple.Decode(filename, src, nil, &s); err != nil {
		return nil, errors.Parsing(fmt.Sprintf("invalid suite %s", filename), err)
	}

	seen := make(map[string]bool, len(s.Scenarios))
	for _, d := range s.Scenarios {
		title := strings.TrimSpace(d.Title)
		if title == "" {
			return nil, errors.InvalidScenario("scenario title must not be empty")
		}
		if seen[title] {
			return nil, errors.InvalidScenario(fmt.Sprintf("scenario %q defined twice", title))
		}
		seen[title] = true
	}
	return &s, nil
}

// Build converts the definition into a validated scenario. Errors keep their
// type and name the scenario.
func (d Definition) Build() (scenario.Spec, error) {
	spec, err := d.build()
	if err != nil {
		return scenario.Spec{}, errors.Wrapf(errors.TypeOf(err), err, "scenario %q", d.Title).
			WithContext("scenario", d.Title)
	}
	return spec, nil
}

func (d Definition) build() (scenario.Spec, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(d.Amount))
	if err != nil {
		return scenario.Spec{}, errors.InvalidScenario(fmt.Sprintf("amount %q is not a number", d.Amount))
	}
	count := 1
	if d.Count != nil {
		count = *d.Count
	}
	features, err := scenario.ParseFeatures(d.Features)
	if err != nil {
		return scenario.Spec{}, err
	}
	rail, err := scenario.ParseRail(d.Rail)
	if err != nil {
		return scenario.Spec{}, err
	}
	strategy, err := scenario.ParseStrategy(d.Strategy)
	if err != nil {
		return scenario.Spec{}, err
	}

	return scenario.Build(amount, count, features, rail, strategy,
		scenario.WithTitle(d.Title),
		scenario.WithExtras(scenario.Extras{Prefix: d.Prefix, Mask: d.Mask, TTLDays: d.TTLDays}),
	)
}

// Specs builds every scenario in file order. All failures are returned
// together and no specs are returned when any scenario is invalid.
func (s *Suite) Specs() ([]scenario.Spec, error) {
	specs := make([]scenario.Spec, 0, len(s.Scenarios))
	var errs []error
	for _, d := range s.Scenarios {
		spec, err := d.Build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, spec)
	}
	if len(errs) > 0 {
		return nil, stderrors.Join(errs...)
	}
	return specs, nil
}

// Titles lists scenario titles in file order
func (s *Suite) Titles() []string {
	out := make([]string, len(s.Scenarios))
	for i, d := range s.Scenarios {
		out[i] = d.Title
	}
	return out
}
