package sandbox

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-fixtures/core/catalog"
	"billing-fixtures/core/invariant"
	"billing-fixtures/core/ledger"
	"billing-fixtures/core/scenario"
	"billing-fixtures/internal/errors"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func outcome(t *testing.T, count int, features []catalog.Feature, rail catalog.Rail, strategy scenario.Strategy) (scenario.Spec, ledger.Outcome) {
	t.Helper()
	spec, err := scenario.Build(decimal.NewFromInt(100), count, features, rail, strategy, scenario.WithTitle("sandbox"))
	require.NoError(t, err)
	model, err := ledger.NewModel(catalog.MustDefault(), ledger.PerGeneration)
	require.NoError(t, err)
	out, err := model.Compute(spec)
	require.NoError(t, err)
	return spec, out
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApplyPostsBalancedBatch(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	_, out := outcome(t, 1, []catalog.Feature{catalog.InputEmail, catalog.RiderMessage}, catalog.RailInstapay, scenario.Absorb)

	require.NoError(t, l.Seed(ctx, Seed{Name: "start", Balances: map[ledger.Account]decimal.Decimal{ledger.User: d("500")}}))
	require.NoError(t, l.Apply(ctx, "b1", out))

	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, d("500").Sub(out.TotalCharge).Equal(snap.Balances[ledger.User]), snap.Balances[ledger.User].String())
	assert.True(t, snap.Balances[ledger.System].IsZero())
	assert.True(t, out.Products.Equal(snap.Balances[ledger.Products]))
	assert.True(t, d("10").Equal(snap.Balances[ledger.RailSettlement]))

	assert.True(t, d("100").Equal(snap.Products[ledger.CashProduct]))
	assert.True(t, d("2.20").Equal(snap.Products[string(catalog.InputEmail)]))
	assert.True(t, d("2.00").Equal(snap.Products[string(catalog.RiderMessage)]))
}

func TestApplyRejectsUnbalancedBatch(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	_, out := outcome(t, 1, nil, catalog.RailNone, scenario.Absorb)

	leaky := out
	leaky.User = leaky.User.Add(d("0.01"))
	err := l.Apply(ctx, "leaky", leaky)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvariant))
	assert.Contains(t, err.Error(), "off by 0.01")

	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	for a, balance := range snap.Balances {
		assert.True(t, balance.IsZero(), "%s kept a rolled back posting", a)
	}
	assert.Empty(t, snap.Products)
}

func TestApplyRejectsCreditsNotMatchingProducts(t *testing.T) {
	_, out := outcome(t, 1, []catalog.Feature{catalog.InputEmail}, catalog.RailNone, scenario.Absorb)
	out.Products = out.Products.Add(d("1"))

	err := newTestLedger(t).Apply(context.Background(), "bad", out)
	assert.True(t, errors.IsType(err, errors.TypeInvariant))
}

func TestVerifyHoldsOnDefaultSeeds(t *testing.T) {
	synth := invariant.NewSynthesizer(decimal.Zero)

	cases := []struct {
		name     string
		count    int
		features []catalog.Feature
		rail     catalog.Rail
		strategy scenario.Strategy
	}{
		{"simplest", 1, nil, catalog.RailNone, scenario.Absorb},
		{"bulk", 10, nil, catalog.RailNone, scenario.Absorb},
		{"email", 1, []catalog.Feature{catalog.InputEmail}, catalog.RailNone, scenario.Absorb},
		{"instapay absorb", 1, nil, catalog.RailInstapay, scenario.Absorb},
		{"instapay include", 1, nil, catalog.RailInstapay, scenario.Include},
		{"pesonet include with fees", 3, []catalog.Feature{catalog.FeedbackWebhook, catalog.RiderURL}, catalog.RailPesonet, scenario.Include},
		{"complex", 5, []catalog.Feature{catalog.InputEmail, catalog.InputMobile, catalog.FeedbackEmail, catalog.RiderMessage}, catalog.RailNone, scenario.Absorb},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec, out := outcome(t, tc.count, tc.features, tc.rail, tc.strategy)
			report, err := Verify(context.Background(), spec, out, synth.Synthesize(spec, out))
			require.NoError(t, err)
			require.Len(t, report.Seeds, 2)
			assert.Equal(t, "empty", report.Seeds[0].Seed)
			assert.Equal(t, "accumulated", report.Seeds[1].Seed)
			assert.True(t, report.Passed(), "%v", report.Violations())
		})
	}
}

func TestVerifyReportsWrongExpectation(t *testing.T) {
	spec, out := outcome(t, 1, []catalog.Feature{catalog.InputEmail}, catalog.RailNone, scenario.Absorb)
	invs := invariant.NewSynthesizer(decimal.Zero).Synthesize(spec, out)

	wrong := out
	wrong.TotalCharge = d("100")
	wrong.FeeCharged = decimal.Zero
	invs = append(invs, invariant.NewSynthesizer(decimal.Zero).Synthesize(spec, wrong)[0])

	report, err := Verify(context.Background(), spec, out, invs)
	require.NoError(t, err)
	assert.False(t, report.Passed())
	violations := report.Violations()
	require.Len(t, violations, 2, "one per seed")
	assert.Contains(t, violations[0], "empty: FAIL: User charged escrow plus fees")
	assert.Contains(t, violations[1], "accumulated: FAIL")
}

func TestVerifyStandingInvariantsOnUnderfundedUser(t *testing.T) {
	spec, out := outcome(t, 1, []catalog.Feature{catalog.InputEmail}, catalog.RailNone, scenario.Absorb)

	report, err := Verify(context.Background(), spec, out, invariant.Standing(), Seed{Name: "broke"})
	require.NoError(t, err)
	require.Len(t, report.Violations(), 1)
	assert.Contains(t, report.Violations()[0], "User balance not negative")
}

func TestVerifyCustomSeedKeepsPriorProducts(t *testing.T) {
	ctx := context.Background()
	spec, out := outcome(t, 1, []catalog.Feature{catalog.RiderSplash}, catalog.RailNone, scenario.Absorb)
	seed := Seed{
		Name:     "prior",
		Balances: map[ledger.Account]decimal.Decimal{ledger.User: d("1000")},
		Products: map[string]decimal.Decimal{string(catalog.RiderSplash): d("6.60")},
	}

	l := newTestLedger(t)
	require.NoError(t, l.Seed(ctx, seed))
	require.NoError(t, l.Apply(ctx, spec.Key(), out))
	snap, err := l.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, d("8.80").Equal(snap.Products[string(catalog.RiderSplash)]))
	assert.True(t, d("108.80").Equal(snap.Balances[ledger.Products]))

	report, err := Verify(ctx, spec, out, invariant.NewSynthesizer(decimal.Zero).Synthesize(spec, out), seed)
	require.NoError(t, err)
	assert.True(t, report.Passed(), "%v", report.Violations())
}
