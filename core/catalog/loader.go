package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"billing-fixtures/core/determinism"
	"billing-fixtures/internal/errors"
)

//go:embed fees.yaml
var defaultFees []byte

// document is the on-disk fee catalog format
type document struct {
	Currency string            `yaml:"currency"`
	Rails    map[string]string `yaml:"rails"`
	Fees     map[string]string `yaml:"fees"`
}

// Default returns the embedded reference catalog
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultFees))
}

// MustDefault returns the embedded catalog and panics if it is invalid
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded fee catalog: %v", err))
	}
	return c
}

// LoadFile loads a catalog from a YAML file
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Config("failed to open fee catalog", err).WithContext("path", path)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes a YAML catalog. Selector keys must be exact dotted selectors;
// amounts are decimal strings.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Parsing("failed to decode fee catalog", err)
	}

	fees := make(map[Feature]decimal.Decimal, len(doc.Fees))
	for _, key := range determinism.SortedKeys(doc.Fees) {
		raw := doc.Fees[key]
		f := Feature(key)
		if !f.Valid() {
			return nil, errors.UnknownFeature(key)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.Parsing(fmt.Sprintf("fee for %s is not a decimal", key), err)
		}
		fees[f] = amount
	}

	rails := make(map[Rail]decimal.Decimal, len(doc.Rails))
	for _, key := range determinism.SortedKeys(doc.Rails) {
		raw := doc.Rails[key]
		r, ok := ParseRail(key)
		if !ok {
			return nil, errors.Newf(errors.TypeConfig, "unknown settlement rail %q", key)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.Parsing(fmt.Sprintf("fee for rail %s is not a decimal", key), err)
		}
		rails[r] = amount
	}

	return New(doc.Currency, fees, rails)
}
