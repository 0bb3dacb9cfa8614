package ledger

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-fixtures/core/catalog"
	"billing-fixtures/core/scenario"
	"billing-fixtures/internal/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newModel(t *testing.T, basis Basis) *Model {
	t.Helper()
	m, err := NewModel(catalog.MustDefault(), basis)
	require.NoError(t, err)
	return m
}

func spec(t *testing.T, amount string, count int, features []catalog.Feature, rail catalog.Rail, strategy scenario.Strategy) scenario.Spec {
	t.Helper()
	s, err := scenario.Build(d(amount), count, features, rail, strategy)
	require.NoError(t, err)
	return s
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func TestReferenceScenarios(t *testing.T) {
	m := newModel(t, PerGeneration)

	tests := []struct {
		name      string
		spec      scenario.Spec
		instr     string
		rail      string
		user      string
		products  string
		leak      string
		escrow    string
		feeCharge string
	}{
		{
			name:  "A no features",
			spec:  spec(t, "100", 1, nil, catalog.RailNone, scenario.Absorb),
			instr: "0", rail: "0", user: "-100", products: "100", leak: "0", escrow: "100", feeCharge: "0",
		},
		{
			name:  "B single feature",
			spec:  spec(t, "100", 1, []catalog.Feature{catalog.InputEmail}, catalog.RailNone, scenario.Absorb),
			instr: "2.20", rail: "0", user: "-102.20", products: "102.20", leak: "0", escrow: "100", feeCharge: "2.20",
		},
		{
			name:  "C rail absorb",
			spec:  spec(t, "100", 1, nil, catalog.RailInstapay, scenario.Absorb),
			instr: "0", rail: "10", user: "-110", products: "100", leak: "10", escrow: "100", feeCharge: "10",
		},
		{
			name:  "D rail include",
			spec:  spec(t, "100", 1, nil, catalog.RailInstapay, scenario.Include),
			instr: "0", rail: "10", user: "-100", products: "90", leak: "10", escrow: "100", feeCharge: "0",
		},
		{
			name: "E bulk multi-feature",
			spec: spec(t, "100", 5, []catalog.Feature{
				catalog.InputEmail, catalog.InputMobile, catalog.InputName, catalog.InputLocation,
				catalog.FeedbackEmail, catalog.FeedbackMobile, catalog.RiderMessage,
			}, catalog.RailNone, scenario.Absorb),
			instr: "14.70", rail: "0", user: "-514.70", products: "514.70", leak: "0", escrow: "500", feeCharge: "14.70",
		},
		{
			name:  "PESONET absorb with features",
			spec:  spec(t, "100", 1, []catalog.Feature{catalog.CashValidationSecret, catalog.CashValidationMobile}, catalog.RailPesonet, scenario.Absorb),
			instr: "2.50", rail: "25", user: "-127.50", products: "102.50", leak: "25", escrow: "100", feeCharge: "27.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := m.Compute(tt.spec)
			require.NoError(t, err)

			assertAmount(t, tt.instr, out.InstructionFee, "instruction fee")
			assertAmount(t, tt.rail, out.RailFee, "rail fee")
			assertAmount(t, tt.escrow, out.TotalEscrow, "escrow")
			assertAmount(t, tt.user, out.User, "user delta")
			assertAmount(t, tt.products, out.Products, "products delta")
			assertAmount(t, "0", out.System, "system delta")
			assertAmount(t, tt.leak, out.Leak(), "leak")
			assertAmount(t, tt.leak, out.RailSettlement, "rail settlement")
			assertAmount(t, tt.feeCharge, out.FeeCharged, "fee charged")
			assert.True(t, out.Conserved(decimal.Zero))
		})
	}
}

func TestCreditsBreakDownProducts(t *testing.T) {
	m := newModel(t, PerGeneration)
	out, err := m.Compute(spec(t, "100", 1, []catalog.Feature{catalog.RiderURL, catalog.InputEmail}, catalog.RailInstapay, scenario.Include))
	require.NoError(t, err)

	require.Len(t, out.Credits, 3)
	assert.Equal(t, CashProduct, out.Credits[0].Index)
	assertAmount(t, "90", out.Credits[0].Amount, "cash")
	assert.Equal(t, string(catalog.InputEmail), out.Credits[1].Index)
	assert.Equal(t, string(catalog.RiderURL), out.Credits[2].Index)

	sum := decimal.Zero
	for _, c := range out.Credits {
		sum = sum.Add(c.Amount)
	}
	assert.True(t, sum.Equal(out.Products))
}

func TestPerVoucherBasis(t *testing.T) {
	m := newModel(t, PerVoucher)
	out, err := m.Compute(spec(t, "100", 5, []catalog.Feature{catalog.InputEmail}, catalog.RailInstapay, scenario.Absorb))
	require.NoError(t, err)

	assertAmount(t, "11", out.InstructionFee, "instruction fee")
	assertAmount(t, "10", out.RailFee, "rail fee charged once")
	assertAmount(t, "-521", out.User, "user delta")
	assertAmount(t, "511", out.Products, "products delta")
}

func TestMonotonicity(t *testing.T) {
	m := newModel(t, PerGeneration)
	features := []catalog.Feature{catalog.InputEmail, catalog.FeedbackWebhook}

	base, err := m.Compute(spec(t, "100", 1, features, catalog.RailNone, scenario.Absorb))
	require.NoError(t, err)

	for _, n := range []int{2, 3, 10, 250} {
		out, err := m.Compute(spec(t, "100", n, features, catalog.RailNone, scenario.Absorb))
		require.NoError(t, err)
		assert.True(t, base.TotalEscrow.Mul(decimal.NewFromInt(int64(n))).Equal(out.TotalEscrow), "escrow scales with count %d", n)
		assert.True(t, base.InstructionFee.Equal(out.InstructionFee), "instruction fee is per generation at count %d", n)
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	m := newModel(t, PerGeneration)
	s := spec(t, "75.25", 3, []catalog.Feature{catalog.RiderSplash, catalog.InputOTP}, catalog.RailPesonet, scenario.Include)

	first, err := m.Compute(s)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := m.Compute(s)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

// Random feature, rail and strategy combinations all conserve value.
func TestConservationLaw(t *testing.T) {
	m := newModel(t, PerGeneration)
	all := catalog.All()
	rng := rand.New(rand.NewSource(7))
	tolerance := d("0.01")

	for i := 0; i < 500; i++ {
		var fs []catalog.Feature
		for _, f := range all {
			if rng.Intn(3) == 0 {
				fs = append(fs, f)
			}
		}
		rail := catalog.Rails()[rng.Intn(3)]
		strategy := scenario.Absorb
		if rail != catalog.RailNone && rng.Intn(2) == 0 {
			strategy = scenario.Include
		}
		amount := decimal.NewFromInt(int64(200 + rng.Intn(5000))).Div(decimal.NewFromInt(4)).Round(2)

		out, err := m.Compute(spec(t, amount.String(), 1+rng.Intn(20), fs, rail, strategy))
		require.NoError(t, err)

		assert.True(t, out.Conserved(tolerance), "four accounts must net to zero: %+v", out)
		assert.True(t, out.MonitoredSum().Add(out.RailFee).Abs().LessThanOrEqual(tolerance), "monitored leak equals rail fee")
		assert.True(t, out.System.IsZero())
		if rail == catalog.RailNone {
			assert.True(t, out.MonitoredSum().IsZero())
		}
	}
}

func TestIncludeRailFeeCannotExceedEscrow(t *testing.T) {
	m := newModel(t, PerGeneration)
	_, err := m.Compute(spec(t, "20", 1, nil, catalog.RailPesonet, scenario.Include))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidScenario))
}

func TestParseBasis(t *testing.T) {
	b, err := ParseBasis("")
	require.NoError(t, err)
	assert.Equal(t, PerGeneration, b)

	b, err = ParseBasis("PER_VOUCHER")
	require.NoError(t, err)
	assert.Equal(t, PerVoucher, b)

	_, err = ParseBasis("per_minute")
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	_, err = NewModel(nil, PerGeneration)
	assert.Error(t, err)
}
