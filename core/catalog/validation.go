// Package catalog - Catalog validation
// Ensures catalog integrity and enforces completeness at construction.
package catalog

import (
	stderrors "errors"
	"fmt"

	"billing-fixtures/core/determinism"
	"billing-fixtures/internal/errors"
)

// ValidationRule is a catalog validation rule
type ValidationRule func(*Catalog) []error

// DefaultValidationRules returns the standard validation rules
func DefaultValidationRules() []ValidationRule {
	return []ValidationRule{
		validateKnownSelectors,
		validateCompleteness,
		validateNonNegative,
		validateRails,
		validateCentPrecision,
	}
}

// Validate checks the catalog against the default rules and joins every violation
func (c *Catalog) Validate() error {
	var errs []error
	for _, rule := range DefaultValidationRules() {
		errs = append(errs, rule(c)...)
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Config(fmt.Sprintf("fee catalog has %d validation errors", len(errs)), stderrors.Join(errs...))
}

// validateKnownSelectors rejects entries for selectors that are not feature variants
func validateKnownSelectors(c *Catalog) []error {
	var errs []error
	for _, f := range determinism.SortedKeys(c.fees) {
		if !f.Valid() {
			errs = append(errs, errors.UnknownFeature(string(f)))
		}
	}
	return errs
}

// validateCompleteness requires an entry for every feature variant
func validateCompleteness(c *Catalog) []error {
	var errs []error
	for _, f := range features {
		if _, ok := c.fees[f]; !ok {
			errs = append(errs, errors.UnknownFeature(string(f)))
		}
	}
	return errs
}

// validateNonNegative rejects negative fees
func validateNonNegative(c *Catalog) []error {
	var errs []error
	for _, f := range determinism.SortedKeys(c.fees) {
		if c.fees[f].IsNegative() {
			errs = append(errs, fmt.Errorf("%s: negative fee %s", f, c.fees[f]))
		}
	}
	for _, r := range determinism.SortedKeys(c.rails) {
		if c.rails[r].IsNegative() {
			errs = append(errs, fmt.Errorf("rail %s: negative fee %s", r, c.rails[r]))
		}
	}
	return errs
}

// validateRails requires a fee for every rail and a zero fee for NONE
func validateRails(c *Catalog) []error {
	var errs []error
	for _, r := range Rails() {
		if _, ok := c.rails[r]; !ok {
			errs = append(errs, fmt.Errorf("rail %s: missing fee", r))
		}
	}
	for _, r := range determinism.SortedKeys(c.rails) {
		if !r.Valid() {
			errs = append(errs, fmt.Errorf("rail %s: unknown rail", r))
		}
	}
	if fee := c.rails[RailNone]; !fee.IsZero() {
		errs = append(errs, fmt.Errorf("rail NONE must be free, got %s", fee))
	}
	return errs
}

// validateCentPrecision rejects fees finer than one cent
func validateCentPrecision(c *Catalog) []error {
	var errs []error
	for _, f := range determinism.SortedKeys(c.fees) {
		if determinism.HasSubCents(c.fees[f]) {
			errs = append(errs, fmt.Errorf("%s: fee %s has sub-cent precision", f, c.fees[f]))
		}
	}
	return errs
}
