// Package determinism provides primitives for guaranteeing deterministic output.
// Fixture generation must be reproducible bit-for-bit, so IDs, ordering and
// money rounding all go through here.
package determinism

import (
	"cmp"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// IDGenerator generates stable, name-based IDs
type IDGenerator struct {
	namespace uuid.UUID
}

// NewIDGenerator creates an ID generator with a namespace
func NewIDGenerator(namespace string) *IDGenerator {
	return &IDGenerator{namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace))}
}

// Generate creates a stable UUID (version 5) from inputs.
// Parts are NFC-normalized before hashing.
func (g *IDGenerator) Generate(parts ...string) string {
	name := norm.NFC.String(strings.Join(parts, "\x00"))
	return uuid.NewSHA1(g.namespace, []byte(name)).String()
}

// cents is the number of decimal places money is kept at
const cents = 2

// RoundCents rounds to cent precision, half away from zero
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(cents)
}

// ToCents converts an amount to integer minor units
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(cents).Round(0).IntPart()
}

// FromCents converts integer minor units back to an amount
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -cents)
}

// HasSubCents reports whether an amount carries precision below one cent
func HasSubCents(d decimal.Decimal) bool {
	return !d.Equal(d.Round(cents))
}

// Peso formats an amount with cent precision: "₱1234.50", "-₱10.00"
func Peso(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-₱" + d.Neg().StringFixed(cents)
	}
	return "₱" + d.StringFixed(cents)
}

// PesoShort drops the cents for whole amounts: "₱100", "₱2.20"
func PesoShort(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		if d.IsNegative() {
			return "-₱" + d.Neg().String()
		}
		return "₱" + d.String()
	}
	return Peso(d)
}

// SortSlice sorts a slice in a stable, deterministic manner
func SortSlice[T any](slice []T, less func(a, b T) bool) {
	sort.SliceStable(slice, func(i, j int) bool {
		return less(slice[i], slice[j])
	})
}

// SortedKeys returns the keys of a map in ascending order
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}
