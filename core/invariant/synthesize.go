package invariant

import (
	"fmt"

	"github.com/shopspring/decimal"

	"billing-fixtures/core/catalog"
	"billing-fixtures/core/ledger"
	"billing-fixtures/core/scenario"
)

// Synthesizer derives invariants from ledger outcomes
type Synthesizer struct {
	tolerance decimal.Decimal
}

// NewSynthesizer creates a synthesizer; a non-positive tolerance means DefaultTolerance
func NewSynthesizer(tolerance decimal.Decimal) *Synthesizer {
	if !tolerance.IsPositive() {
		tolerance = DefaultTolerance
	}
	return &Synthesizer{tolerance: tolerance}
}

// Tolerance returns the comparison band
func (s *Synthesizer) Tolerance() decimal.Decimal {
	return s.tolerance
}

// Synthesize returns the balance invariants for a scenario. Every invariant
// compares a captured before value with an after value, so the set holds on
// a ledger that already carries unrelated balances.
func (s *Synthesizer) Synthesize(spec scenario.Spec, out ledger.Outcome) []Invariant {
	user := []ledger.Account{ledger.User}
	system := []ledger.Account{ledger.System}
	products := []ledger.Account{ledger.Products}

	invs := []Invariant{
		{
			Name:     "User charged escrow plus fees",
			Accounts: user,
			Measure:  Decrease,
			Kind:     ApproximatelyEquals,
			Expected: out.TotalCharge,
		},
		{
			Name:     feeChargedName(spec, out),
			Accounts: user,
			Measure:  FeeCharged,
			Kind:     ApproximatelyEquals,
			Expected: out.FeeCharged,
		},
		{
			Name:     "User charged at least the escrow",
			Accounts: user,
			Measure:  Decrease,
			Kind:     AtLeast,
			Expected: out.TotalEscrow,
		},
		{
			Name:     "System wallet unchanged (closed system)",
			Accounts: system,
			Measure:  Increase,
			Kind:     ApproximatelyEquals,
			Expected: out.System,
		},
		{
			Name:     productsName(spec),
			Accounts: products,
			Measure:  Increase,
			Kind:     ApproximatelyEquals,
			Expected: out.Products,
		},
		{
			Name:     conservationName(spec),
			Accounts: ledger.Monitored(),
			Measure:  Increase,
			Kind:     ApproximatelyEquals,
			Expected: out.RailSettlement.Neg(),
		},
	}
	invs = append(invs, Standing()...)

	for i := range invs {
		invs[i].Tolerance = s.tolerance
	}
	return invs
}

// Standing returns the invariants that hold after every scenario
func Standing() []Invariant {
	return []Invariant{
		{
			Name:     "User balance not negative",
			Accounts: []ledger.Account{ledger.User},
			Measure:  After,
			Kind:     IsNonNegative,
			Standing: true,
		},
		{
			Name:     "System balance not negative",
			Accounts: []ledger.Account{ledger.System},
			Measure:  After,
			Kind:     IsNonNegative,
			Standing: true,
		},
		{
			Name:     "No negative product balances",
			Accounts: []ledger.Account{ledger.Products},
			Measure:  After,
			Kind:     IsNonNegative,
			Standing: true,
		},
		{
			Name:     ledger.CashProduct + " product exists and has balance",
			Accounts: []ledger.Account{ledger.Products},
			Measure:  After,
			Kind:     ExistsAndPositive,
			Product:  ledger.CashProduct,
			Standing: true,
		},
	}
}

func feeChargedName(spec scenario.Spec, out ledger.Outcome) string {
	switch {
	case out.FeeCharged.IsZero():
		return "No fees charged on top of escrow"
	case spec.Rail != catalog.RailNone && spec.Strategy == scenario.Absorb:
		return fmt.Sprintf("Instruction and %s fees charged", spec.Rail)
	default:
		return "Instruction fees charged"
	}
}

func productsName(spec scenario.Spec) string {
	if spec.Rail != catalog.RailNone && spec.Strategy == scenario.Include {
		return fmt.Sprintf("Products received escrow less %s fee plus instruction fees", spec.Rail)
	}
	return "Products received escrow plus instruction fees"
}

func conservationName(spec scenario.Spec) string {
	if spec.Rail == catalog.RailNone {
		return "Closed loop conserves value"
	}
	return fmt.Sprintf("Closed loop leaks only the %s fee to rail settlement", spec.Rail)
}
