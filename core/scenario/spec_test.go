package scenario

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-fixtures/core/catalog"
	"billing-fixtures/internal/errors"
)

var hundred = decimal.NewFromInt(100)

func TestBuildRejectsInvalidScenarios(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		count    int
		features []catalog.Feature
		rail     catalog.Rail
		strategy Strategy
		errType  errors.Type
	}{
		{"zero amount", decimal.Zero, 1, nil, catalog.RailNone, Absorb, errors.TypeInvalidScenario},
		{"negative amount", decimal.NewFromInt(-5), 1, nil, catalog.RailNone, Absorb, errors.TypeInvalidScenario},
		{"sub-cent amount", decimal.RequireFromString("10.005"), 1, nil, catalog.RailNone, Absorb, errors.TypeInvalidScenario},
		{"zero count", hundred, 0, nil, catalog.RailNone, Absorb, errors.TypeInvalidScenario},
		{"include without rail", hundred, 1, nil, catalog.RailNone, Include, errors.TypeInvalidScenario},
		{"unknown rail", hundred, 1, nil, catalog.Rail("SWIFT"), Absorb, errors.TypeInvalidScenario},
		{"unknown strategy", hundred, 1, nil, catalog.RailInstapay, Strategy("split"), errors.TypeInvalidScenario},
		{"duplicate feature", hundred, 1, []catalog.Feature{catalog.InputEmail, catalog.InputEmail}, catalog.RailNone, Absorb, errors.TypeInvalidScenario},
		{"unknown feature", hundred, 1, []catalog.Feature{"inputs.fields.dna"}, catalog.RailNone, Absorb, errors.TypeUnknownFeature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.amount, tt.count, tt.features, tt.rail, tt.strategy)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)
		})
	}
}

func TestBuildNormalizesFeatureOrder(t *testing.T) {
	a, err := Build(hundred, 1, []catalog.Feature{catalog.RiderMessage, catalog.InputName, catalog.FeedbackEmail, catalog.InputEmail}, "", "")
	require.NoError(t, err)
	b, err := Build(hundred, 1, []catalog.Feature{catalog.InputEmail, catalog.FeedbackEmail, catalog.RiderMessage, catalog.InputName}, "", "")
	require.NoError(t, err)

	want := []catalog.Feature{catalog.InputEmail, catalog.InputName, catalog.FeedbackEmail, catalog.RiderMessage}
	assert.Equal(t, want, a.Features)
	assert.Equal(t, a.Features, b.Features)
	assert.Equal(t, a.Key(), b.Key())

	assert.Equal(t, catalog.RailNone, a.Rail)
	assert.Equal(t, Absorb, a.Strategy)
	assert.True(t, a.Has(catalog.FeedbackEmail))
	assert.False(t, a.Has(catalog.FeedbackMobile))
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	in := []catalog.Feature{catalog.InputMobile, catalog.InputEmail}
	s, err := Build(hundred, 1, in, "", "")
	require.NoError(t, err)

	in[0] = catalog.RiderURL
	assert.Equal(t, []catalog.Feature{catalog.InputEmail, catalog.InputMobile}, s.Features)
}

func TestTotalEscrow(t *testing.T) {
	s, err := Build(hundred, 5, nil, catalog.RailInstapay, Include, WithTitle(" bulk "))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(s.TotalEscrow()))
	assert.Equal(t, "bulk", s.Title)
}

func TestParseHelpers(t *testing.T) {
	r, err := ParseRail("instapay")
	require.NoError(t, err)
	assert.Equal(t, catalog.RailInstapay, r)

	r, err = ParseRail("")
	require.NoError(t, err)
	assert.Equal(t, catalog.RailNone, r)

	_, err = ParseRail("gcash")
	assert.True(t, errors.IsType(err, errors.TypeInvalidScenario))

	st, err := ParseStrategy("INCLUDE")
	require.NoError(t, err)
	assert.Equal(t, Include, st)

	_, err = ParseStrategy("halve")
	assert.True(t, errors.IsType(err, errors.TypeInvalidScenario))

	fs, err := ParseFeatures([]string{"email", "feedback_webhook", "rider.splash"})
	require.NoError(t, err)
	assert.Equal(t, []catalog.Feature{catalog.InputEmail, catalog.FeedbackWebhook, catalog.RiderSplash}, fs)

	_, err = ParseFeatures([]string{"email", "hologram"})
	assert.True(t, errors.IsType(err, errors.TypeUnknownFeature))
}

func TestPayloadEncodesEveryFeature(t *testing.T) {
	s, err := Build(hundred, 5, []catalog.Feature{
		catalog.InputEmail, catalog.InputLocation,
		catalog.FeedbackEmail, catalog.FeedbackMobile, catalog.FeedbackWebhook,
		catalog.CashValidationSecret, catalog.CashValidationMobile,
		catalog.ValidationLocation, catalog.ValidationTime,
		catalog.RiderMessage, catalog.RiderURL, catalog.RiderSplash,
	}, catalog.RailPesonet, Absorb, WithExtras(Extras{Prefix: "PROMO", Mask: "****-****", TTLDays: 7}))
	require.NoError(t, err)

	raw, err := s.RawBody()
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &body))

	assert.EqualValues(t, 100, body["amount"])
	assert.EqualValues(t, 5, body["count"])
	assert.Equal(t, "PROMO", body["prefix"])
	assert.Equal(t, "****-****", body["mask"])
	assert.EqualValues(t, 7, body["ttl_days"])
	assert.Equal(t, []any{"email", "location"}, body["input_fields"])
	assert.Equal(t, SampleEmail, body["feedback_email"])
	assert.Equal(t, SampleMobile, body["feedback_mobile"])
	assert.Equal(t, SampleWebhook, body["feedback_webhook"])
	assert.Equal(t, SampleSecret, body["validation_secret"])
	assert.Equal(t, SampleMobile, body["validation_mobile"])
	assert.Equal(t, "reject", body["validation_location"].(map[string]any)["on_failure"])
	assert.EqualValues(t, 30, body["validation_time"].(map[string]any)["limit_minutes"])
	assert.Equal(t, SampleRiderText, body["rider_message"])
	assert.Equal(t, SampleRiderURL, body["rider_url"])
	assert.Equal(t, SampleSplash, body["rider_splash"])
	assert.EqualValues(t, 5, body["rider_splash_timeout"])
	assert.Equal(t, "pesonet", body["settlement_rail"])
	assert.Equal(t, "absorb", body["fee_strategy"])
}

func TestPayloadOmitsUnselectedFeatures(t *testing.T) {
	s, err := Build(decimal.RequireFromString("250.50"), 1, nil, catalog.RailNone, Absorb)
	require.NoError(t, err)

	raw, err := s.RawBody()
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount": 250.5, "count": 1}`, raw)
}
