package invariant

import (
	"fmt"

	"github.com/shopspring/decimal"

	"billing-fixtures/core/ledger"
)

// Observation is what a test run sees: balances captured before and after
// the scenario, the products pool after it, and the conventional variables.
type Observation struct {
	Before   map[ledger.Account]decimal.Decimal
	After    map[ledger.Account]decimal.Decimal
	Products map[string]decimal.Decimal

	VoucherAmount decimal.Decimal
	VoucherCount  int
}

// Result is the outcome of evaluating one invariant
type Result struct {
	Invariant Invariant
	Actual    decimal.Decimal
	Passed    bool
	Detail    string
}

// String renders a one-line summary
func (r Result) String() string {
	status := "ok"
	if !r.Passed {
		status = "FAIL"
	}
	if r.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", status, r.Invariant.Name, r.Detail)
	}
	return fmt.Sprintf("%s: %s", status, r.Invariant.Name)
}

// Evaluate checks one invariant against an observation
func Evaluate(inv Invariant, obs Observation) Result {
	r := Result{Invariant: inv}

	switch inv.Kind {
	case ExistsAndPositive:
		balance, ok := obs.Products[inv.Product]
		r.Actual = balance
		r.Passed = ok && balance.IsPositive()
		if !ok {
			r.Detail = fmt.Sprintf("product %s missing", inv.Product)
		}
		return r
	case IsNonNegative:
		r.Actual = lowest(inv, obs)
		r.Passed = !r.Actual.IsNegative()
		if !r.Passed {
			r.Detail = fmt.Sprintf("balance %s", r.Actual.StringFixed(2))
		}
		return r
	}

	r.Actual = measure(inv, obs)
	switch inv.Kind {
	case ApproximatelyEquals:
		r.Passed = r.Actual.Sub(inv.Expected).Abs().LessThanOrEqual(inv.Tolerance)
	case AtLeast:
		r.Passed = r.Actual.GreaterThanOrEqual(inv.Expected.Sub(inv.Tolerance))
	default:
		r.Detail = fmt.Sprintf("unknown comparison %q", inv.Kind)
		return r
	}
	if !r.Passed {
		r.Detail = fmt.Sprintf("expected %s ± %s, got %s", inv.Expected.StringFixed(2), inv.Tolerance.StringFixed(2), r.Actual.StringFixed(2))
	}
	return r
}

// EvaluateAll evaluates invariants in order
func EvaluateAll(invs []Invariant, obs Observation) []Result {
	results := make([]Result, len(invs))
	for i, inv := range invs {
		results[i] = Evaluate(inv, obs)
	}
	return results
}

// Failed filters the failing results
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

func measure(inv Invariant, obs Observation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range inv.Accounts {
		before, after := obs.Before[a], obs.After[a]
		switch inv.Measure {
		case Increase:
			total = total.Add(after.Sub(before))
		case Decrease, FeeCharged:
			total = total.Add(before.Sub(after))
		case After:
			total = total.Add(after)
		}
	}
	if inv.Measure == FeeCharged {
		voucherTotal := obs.VoucherAmount.Mul(decimal.NewFromInt(int64(obs.VoucherCount)))
		total = total.Sub(voucherTotal)
	}
	return total
}

// lowest returns the smallest after balance the invariant covers; for the
// products account every pool entry counts as well as the total.
func lowest(inv Invariant, obs Observation) decimal.Decimal {
	var min *decimal.Decimal
	consider := func(d decimal.Decimal) {
		if min == nil || d.LessThan(*min) {
			min = &d
		}
	}
	for _, a := range inv.Accounts {
		consider(obs.After[a])
		if a == ledger.Products {
			for _, balance := range obs.Products {
				consider(balance)
			}
		}
	}
	if min == nil {
		return decimal.Zero
	}
	return *min
}
