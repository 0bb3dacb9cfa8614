// Package invariant turns a ledger outcome into named, delta-based balance
// checks and voucher feature checks. Checks are structured values; rendering
// them into a test script dialect happens elsewhere.
package invariant

import (
	"github.com/shopspring/decimal"

	"billing-fixtures/core/ledger"
)

// DefaultTolerance is the comparison band for balance checks, in pesos
var DefaultTolerance = decimal.New(1, -2)

// Kind is the comparison an invariant performs
type Kind string

const (
	ApproximatelyEquals Kind = "approximatelyEquals"
	AtLeast             Kind = "atLeast"
	IsNonNegative       Kind = "isNonNegative"
	ExistsAndPositive   Kind = "existsAndPositive"
)

// Measure is the quantity an invariant observes
type Measure string

const (
	// Increase is after minus before, summed over the accounts
	Increase Measure = "increase"
	// Decrease is before minus after, summed over the accounts
	Decrease Measure = "decrease"
	// FeeCharged is the decrease beyond voucher_amount × voucher_count
	FeeCharged Measure = "feeCharged"
	// After is the post-scenario balance itself
	After Measure = "after"
)

// Step is the scenario step an invariant is attached to
type Step string

const (
	StepUserAfter   Step = "user_after"
	StepSystemAfter Step = "system_after"
)

// Invariant is one named balance check
type Invariant struct {
	Name      string
	Accounts  []ledger.Account
	Measure   Measure
	Kind      Kind
	Expected  decimal.Decimal
	Tolerance decimal.Decimal

	// Product names the pool entry for ExistsAndPositive
	Product string

	// Standing invariants hold for every scenario regardless of its spec
	Standing bool
}

// Step returns where the invariant is evaluated. Checks on the user wallet
// alone run right after the user balance is read; everything else runs once
// system balances are known.
func (i Invariant) Step() Step {
	if len(i.Accounts) == 1 && i.Accounts[0] == ledger.User {
		return StepUserAfter
	}
	return StepSystemAfter
}

// ForStep filters invariants by step, keeping their order
func ForStep(invs []Invariant, step Step) []Invariant {
	var out []Invariant
	for _, inv := range invs {
		if inv.Step() == step {
			out = append(out, inv)
		}
	}
	return out
}

// Involves reports whether the invariant reads the given account
func (i Invariant) Involves(a ledger.Account) bool {
	for _, acc := range i.Accounts {
		if acc == a {
			return true
		}
	}
	return false
}
