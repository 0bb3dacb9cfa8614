// Package ledger projects a scenario onto the expected balance movements of
// the closed-loop wallet ledger: user wallet, system wallet, products pool,
// plus the rail settlement account that receives settlement rail fees.
package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"billing-fixtures/core/catalog"
	"billing-fixtures/core/determinism"
	"billing-fixtures/core/scenario"
	"billing-fixtures/internal/errors"
)

// Account names a ledger account
type Account string

const (
	User           Account = "user"
	System         Account = "system"
	Products       Account = "products"
	RailSettlement Account = "rail_settlement"
)

// Monitored returns the accounts visible to the test runner
func Monitored() []Account {
	return []Account{User, System, Products}
}

// Accounts returns every account, monitored ones first
func Accounts() []Account {
	return []Account{User, System, Products, RailSettlement}
}

// CashProduct is the products-pool entry that holds voucher escrow
const CashProduct = "cash.amount"

// Basis decides how often the instruction fee is charged per generation
type Basis string

const (
	// PerGeneration charges instruction fees once per generation event
	PerGeneration Basis = "per_generation"
	// PerVoucher charges instruction fees once per generated voucher
	PerVoucher Basis = "per_voucher"
)

// ParseBasis parses a fee basis; empty means per_generation
func ParseBasis(s string) (Basis, error) {
	switch Basis(strings.ToLower(strings.TrimSpace(s))) {
	case "", PerGeneration:
		return PerGeneration, nil
	case PerVoucher:
		return PerVoucher, nil
	}
	return "", errors.Newf(errors.TypeConfig, "unknown fee basis %q", s)
}

// Credit is one products-pool entry credited by a generation
type Credit struct {
	Index  string
	Amount decimal.Decimal
}

// Outcome is the derived ledger movement of one scenario.
// All amounts are rounded to cents. Deltas are signed balance changes.
type Outcome struct {
	InstructionFee decimal.Decimal
	RailFee        decimal.Decimal
	TotalEscrow    decimal.Decimal

	// TotalCharge is what leaves the user wallet
	TotalCharge decimal.Decimal

	// FeeCharged is TotalCharge beyond the escrow
	FeeCharged decimal.Decimal

	User           decimal.Decimal
	System         decimal.Decimal
	Products       decimal.Decimal
	RailSettlement decimal.Decimal

	// Credits break Products down by pool entry, escrow first
	Credits []Credit
}

// Delta returns the signed change of an account
func (o Outcome) Delta(a Account) decimal.Decimal {
	switch a {
	case User:
		return o.User
	case System:
		return o.System
	case Products:
		return o.Products
	case RailSettlement:
		return o.RailSettlement
	}
	return decimal.Zero
}

// MonitoredSum is the net change across the monitored accounts.
// It equals minus the rail settlement credit.
func (o Outcome) MonitoredSum() decimal.Decimal {
	return o.User.Add(o.System).Add(o.Products)
}

// Leak is the amount that left the monitored accounts for the rail
func (o Outcome) Leak() decimal.Decimal {
	return o.MonitoredSum().Neg()
}

// Conserved reports whether all four accounts net to zero within tolerance
func (o Outcome) Conserved(tolerance decimal.Decimal) bool {
	return o.MonitoredSum().Add(o.RailSettlement).Abs().LessThanOrEqual(tolerance)
}

// Model computes outcomes from a fee catalog
type Model struct {
	catalog *catalog.Catalog
	basis   Basis
}

// NewModel creates a ledger model
func NewModel(c *catalog.Catalog, basis Basis) (*Model, error) {
	if c == nil {
		return nil, errors.New(errors.TypeConfig, "ledger model requires a fee catalog")
	}
	if basis == "" {
		basis = PerGeneration
	}
	if basis != PerGeneration && basis != PerVoucher {
		return nil, errors.Newf(errors.TypeConfig, "unknown fee basis %q", basis)
	}
	return &Model{catalog: c, basis: basis}, nil
}

// Catalog returns the fee catalog the model prices with
func (m *Model) Catalog() *catalog.Catalog {
	return m.catalog
}

// Basis returns the instruction fee basis
func (m *Model) Basis() Basis {
	return m.basis
}

// Compute projects a spec onto the ledger. It is pure: the same spec always
// yields the same outcome.
func (m *Model) Compute(spec scenario.Spec) (Outcome, error) {
	multiplier := decimal.NewFromInt(1)
	if m.basis == PerVoucher {
		multiplier = decimal.NewFromInt(int64(spec.Count))
	}

	credits := make([]Credit, 0, len(spec.Features)+1)
	credits = append(credits, Credit{Index: CashProduct})

	instructionFee := decimal.Zero
	for _, f := range spec.Features {
		fee, err := m.catalog.Lookup(f)
		if err != nil {
			return Outcome{}, err
		}
		charged := determinism.RoundCents(fee.Mul(multiplier))
		instructionFee = instructionFee.Add(charged)
		credits = append(credits, Credit{Index: string(f), Amount: charged})
	}

	railFee, err := m.catalog.RailFee(spec.Rail)
	if err != nil {
		return Outcome{}, err
	}
	railFee = determinism.RoundCents(railFee)

	escrow := determinism.RoundCents(spec.TotalEscrow())
	var charge, cash decimal.Decimal
	switch spec.Strategy {
	case scenario.Absorb:
		charge = escrow.Add(instructionFee).Add(railFee)
		cash = escrow
	case scenario.Include:
		if railFee.GreaterThan(escrow) {
			return Outcome{}, errors.InvalidScenario(fmt.Sprintf(
				"rail fee %s exceeds escrow %s under include strategy", railFee.StringFixed(2), escrow.StringFixed(2)))
		}
		charge = escrow.Add(instructionFee)
		cash = escrow.Sub(railFee)
	default:
		return Outcome{}, errors.InvalidScenario(fmt.Sprintf("unknown fee strategy %q", spec.Strategy))
	}
	credits[0].Amount = cash
	products := cash.Add(instructionFee)

	return Outcome{
		InstructionFee: instructionFee,
		RailFee:        railFee,
		TotalEscrow:    escrow,
		TotalCharge:    charge,
		FeeCharged:     charge.Sub(escrow),
		User:           charge.Neg(),
		System:         decimal.Zero,
		Products:       products,
		RailSettlement: railFee,
		Credits:        credits,
	}, nil
}
