package invariant

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-fixtures/core/catalog"
	"billing-fixtures/core/ledger"
	"billing-fixtures/core/scenario"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func build(t *testing.T, count int, features []catalog.Feature, rail catalog.Rail, strategy scenario.Strategy) (scenario.Spec, ledger.Outcome) {
	t.Helper()
	spec, err := scenario.Build(decimal.NewFromInt(100), count, features, rail, strategy)
	require.NoError(t, err)
	model, err := ledger.NewModel(catalog.MustDefault(), ledger.PerGeneration)
	require.NoError(t, err)
	out, err := model.Compute(spec)
	require.NoError(t, err)
	return spec, out
}

// observe applies an outcome on top of arbitrary starting balances
func observe(spec scenario.Spec, out ledger.Outcome, start map[ledger.Account]decimal.Decimal, products map[string]decimal.Decimal) Observation {
	after := make(map[ledger.Account]decimal.Decimal)
	for _, a := range ledger.Accounts() {
		after[a] = start[a].Add(out.Delta(a))
	}
	pool := make(map[string]decimal.Decimal)
	for k, v := range products {
		pool[k] = v
	}
	for _, c := range out.Credits {
		pool[c.Index] = pool[c.Index].Add(c.Amount)
	}
	return Observation{
		Before:        start,
		After:         after,
		Products:      pool,
		VoucherAmount: spec.BaseAmount,
		VoucherCount:  spec.Count,
	}
}

func TestSynthesizedInvariantsHoldOnEmptyAndAccumulatedLedgers(t *testing.T) {
	s := NewSynthesizer(decimal.Zero)

	cases := []struct {
		name     string
		count    int
		features []catalog.Feature
		rail     catalog.Rail
		strategy scenario.Strategy
	}{
		{"simplest", 1, nil, catalog.RailNone, scenario.Absorb},
		{"email", 1, []catalog.Feature{catalog.InputEmail}, catalog.RailNone, scenario.Absorb},
		{"instapay absorb", 1, nil, catalog.RailInstapay, scenario.Absorb},
		{"instapay include", 1, nil, catalog.RailInstapay, scenario.Include},
		{"complex", 5, []catalog.Feature{catalog.InputEmail, catalog.InputMobile, catalog.FeedbackEmail, catalog.RiderMessage}, catalog.RailPesonet, scenario.Absorb},
	}

	ledgers := []struct {
		name     string
		start    func(ledger.Outcome) map[ledger.Account]decimal.Decimal
		products map[string]decimal.Decimal
	}{
		{
			name: "empty",
			start: func(o ledger.Outcome) map[ledger.Account]decimal.Decimal {
				return map[ledger.Account]decimal.Decimal{ledger.User: o.TotalCharge}
			},
		},
		{
			name: "accumulated",
			start: func(o ledger.Outcome) map[ledger.Account]decimal.Decimal {
				return map[ledger.Account]decimal.Decimal{
					ledger.User:           d("98765.43").Add(o.TotalCharge),
					ledger.System:         d("1000000"),
					ledger.Products:       d("4321.10"),
					ledger.RailSettlement: d("120"),
				}
			},
			products: map[string]decimal.Decimal{"cash.amount": d("4000"), "inputs.fields.email": d("321.10")},
		},
	}

	for _, tc := range cases {
		for _, l := range ledgers {
			t.Run(tc.name+"/"+l.name, func(t *testing.T) {
				spec, out := build(t, tc.count, tc.features, tc.rail, tc.strategy)
				invs := s.Synthesize(spec, out)
				obs := observe(spec, out, l.start(out), l.products)

				for _, r := range EvaluateAll(invs, obs) {
					assert.True(t, r.Passed, r.String())
				}
			})
		}
	}
}

func TestInvariantsCatchWrongCharge(t *testing.T) {
	spec, out := build(t, 1, []catalog.Feature{catalog.InputEmail}, catalog.RailNone, scenario.Absorb)
	invs := NewSynthesizer(decimal.Zero).Synthesize(spec, out)

	start := map[ledger.Account]decimal.Decimal{ledger.User: d("500"), ledger.Products: d("0")}
	obs := observe(spec, out, start, nil)
	// The backend forgot the email fee: user and products moved by escrow only.
	obs.After[ledger.User] = d("400")
	obs.After[ledger.Products] = d("100")

	failed := Failed(EvaluateAll(invs, obs))
	names := make([]string, len(failed))
	for i, r := range failed {
		names[i] = r.Invariant.Name
	}
	assert.Contains(t, names, "User charged escrow plus fees")
	assert.Contains(t, names, "Instruction fees charged")
	assert.Contains(t, names, "Products received escrow plus instruction fees")
	assert.NotContains(t, names, "Closed loop conserves value")
}

func TestStandingInvariantsCatchNegativeBalances(t *testing.T) {
	obs := Observation{
		After:    map[ledger.Account]decimal.Decimal{ledger.User: d("-0.01"), ledger.System: d("5"), ledger.Products: d("10")},
		Products: map[string]decimal.Decimal{"inputs.fields.email": d("-3"), "feedback.email": d("13")},
	}

	results := EvaluateAll(Standing(), obs)
	require.Len(t, results, 4)
	assert.False(t, results[0].Passed, "user")
	assert.True(t, results[1].Passed, "system")
	assert.False(t, results[2].Passed, "product entry below zero")
	assert.True(t, d("-3").Equal(results[2].Actual))
	assert.False(t, results[3].Passed, "cash.amount missing")
	assert.Contains(t, results[3].Detail, "cash.amount")
}

func TestPlacement(t *testing.T) {
	spec, out := build(t, 1, nil, catalog.RailInstapay, scenario.Absorb)
	invs := NewSynthesizer(decimal.Zero).Synthesize(spec, out)

	for _, inv := range ForStep(invs, StepUserAfter) {
		assert.Equal(t, []ledger.Account{ledger.User}, inv.Accounts, inv.Name)
	}
	system := ForStep(invs, StepSystemAfter)
	require.NotEmpty(t, system)
	for _, inv := range system {
		assert.True(t, inv.Involves(ledger.System) || inv.Involves(ledger.Products), inv.Name)
	}
	assert.Equal(t, len(invs), len(ForStep(invs, StepUserAfter))+len(system))
}

func TestConservationInvariantCarriesRailLeak(t *testing.T) {
	for _, strategy := range []scenario.Strategy{scenario.Absorb, scenario.Include} {
		spec, out := build(t, 1, nil, catalog.RailInstapay, strategy)
		var found bool
		for _, inv := range NewSynthesizer(decimal.Zero).Synthesize(spec, out) {
			if len(inv.Accounts) == 3 {
				found = true
				assert.True(t, d("-10").Equal(inv.Expected), "%s: %s", strategy, inv.Expected)
				assert.Equal(t, Increase, inv.Measure)
				assert.Contains(t, inv.Name, "INSTAPAY")
			}
		}
		assert.True(t, found)
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	spec, out := build(t, 3, []catalog.Feature{catalog.RiderURL, catalog.ValidationTime}, catalog.RailPesonet, scenario.Include)
	s := NewSynthesizer(d("0.05"))

	first := s.Synthesize(spec, out)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Synthesize(spec, out))
	}
	for _, inv := range first {
		assert.True(t, d("0.05").Equal(inv.Tolerance))
	}
}

func TestFeatureCompleteness(t *testing.T) {
	selections := [][]catalog.Feature{
		nil,
		{catalog.InputEmail},
		{catalog.FeedbackEmail, catalog.FeedbackMobile, catalog.FeedbackWebhook},
		catalog.All(),
	}

	for _, sel := range selections {
		spec, _ := build(t, 1, sel, catalog.RailNone, scenario.Absorb)
		checks := FeatureChecks(spec)

		byFeature := make(map[catalog.Feature]FeatureCheck)
		for _, c := range checks {
			if c.Feature == "" {
				continue
			}
			_, dup := byFeature[c.Feature]
			require.False(t, dup, "one check per feature: %s", c.Feature)
			byFeature[c.Feature] = c
		}

		require.Len(t, byFeature, len(catalog.All()))
		for _, f := range catalog.All() {
			assert.Equal(t, spec.Has(f), byFeature[f].Present, "%s", f)
		}
	}
}

func TestFeatureCheckShapes(t *testing.T) {
	spec, _ := build(t, 1, []catalog.Feature{catalog.InputMobile, catalog.FeedbackWebhook, catalog.RiderSplash, catalog.ValidationLocation}, catalog.RailInstapay, scenario.Include)
	checks := FeatureChecks(spec)

	find := func(name string) FeatureCheck {
		for _, c := range checks {
			if c.Name == name {
				return c
			}
		}
		t.Fatalf("no check named %q", name)
		return FeatureCheck{}
	}

	mobile := find("Mobile input field present")
	assert.Equal(t, MatchMember, mobile.Match)
	assert.Equal(t, PathInputFields, mobile.Path)
	assert.Equal(t, "mobile", mobile.Value)

	email := find("Email input field absent")
	assert.False(t, email.Present)

	webhook := find("Feedback Webhook configured")
	assert.Equal(t, MatchEqual, webhook.Match)
	assert.Equal(t, scenario.SampleWebhook, webhook.Value)

	assert.Equal(t, MatchExists, find("Rider Splash configured").Match)
	assert.Equal(t, MatchExists, find("Location validation configured").Match)
	assert.False(t, find("Time validation not configured").Present)
	assert.Equal(t, 1, find("Exactly 1 input fields").Value)
	assert.Equal(t, "instapay", find("Settlement rail is INSTAPAY").Value)
	assert.Equal(t, "include", find("Fee strategy is include").Value)
}

func TestNoRailAssertsRailAbsent(t *testing.T) {
	spec, _ := build(t, 1, nil, catalog.RailNone, scenario.Absorb)
	checks := FeatureChecks(spec)
	last := checks[len(checks)-1]
	assert.Equal(t, PathSettlementRail, last.Path)
	assert.False(t, last.Present)
	for _, c := range checks {
		assert.NotEqual(t, PathFeeStrategy, c.Path)
	}
}
