package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing-fixtures/core/catalog"
	"billing-fixtures/core/scenario"
	"billing-fixtures/internal/errors"
)

func TestDefaultSuiteBuilds(t *testing.T) {
	s, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "01 ", s.InsertAfter)

	specs, err := s.Specs()
	require.NoError(t, err)
	require.Len(t, specs, 28)
	assert.Equal(t, s.Titles()[0], specs[0].Title)

	bulk := specs[0]
	assert.Equal(t, "02 - Basic Settings - Bulk", bulk.Title)
	assert.Equal(t, 10, bulk.Count)
	assert.Equal(t, scenario.Extras{Prefix: "PROMO", Mask: "***-***", TTLDays: 7}, bulk.Extras)
	assert.Empty(t, bulk.Features)

	byTitle := map[string]scenario.Spec{}
	for _, sp := range specs {
		byTitle[sp.Title] = sp
	}

	include := byTitle["07 - Settlement Rail - INSTAPAY / Include"]
	assert.Equal(t, catalog.RailInstapay, include.Rail)
	assert.Equal(t, scenario.Include, include.Strategy)

	both := byTitle["06 - Cash Validation - Both"]
	assert.Equal(t, []catalog.Feature{catalog.CashValidationSecret, catalog.CashValidationMobile}, both.Features)

	complex := byTitle["11 - Complex Scenario"]
	assert.Equal(t, 5, complex.Count)
	assert.Equal(t, []catalog.Feature{
		catalog.InputEmail,
		catalog.InputMobile,
		catalog.InputName,
		catalog.InputLocation,
		catalog.FeedbackEmail,
		catalog.FeedbackMobile,
		catalog.RiderMessage,
	}, complex.Features)

	for _, sp := range specs {
		if sp.Title != "11 - Complex Scenario" && sp.Title != "02 - Basic Settings - Bulk" {
			assert.Equal(t, 1, sp.Count, sp.Title)
		}
		assert.True(t, decimal.NewFromInt(100).Equal(sp.BaseAmount), sp.Title)
	}
}

func TestLoadScenarioFields(t *testing.T) {
	src := `
scenario "Custom" {
  amount   = "250.50"
  count    = 2
  features = ["inputs.fields.otp", "feedback_webhook"]
  rail     = "PESONET"
  strategy = "Include"
}

scenario "Fractional" {
  amount = 99.95
}
`
	s, err := Load("custom.hcl", []byte(src))
	require.NoError(t, err)
	specs, err := s.Specs()
	require.NoError(t, err)
	require.Len(t, specs, 2)

	custom := specs[0]
	assert.True(t, decimal.RequireFromString("250.50").Equal(custom.BaseAmount))
	assert.Equal(t, 2, custom.Count)
	assert.Equal(t, []catalog.Feature{catalog.InputOTP, catalog.FeedbackWebhook}, custom.Features)
	assert.Equal(t, catalog.RailPesonet, custom.Rail)
	assert.Equal(t, scenario.Include, custom.Strategy)

	frac := specs[1]
	assert.True(t, decimal.RequireFromString("99.95").Equal(frac.BaseAmount))
	assert.Equal(t, 1, frac.Count)
	assert.Equal(t, catalog.RailNone, frac.Rail)
	assert.Equal(t, scenario.Absorb, frac.Strategy)
}

func TestLoadRejectsDuplicateTitles(t *testing.T) {
	src := `
scenario "A" { amount = 100 }
scenario "A" { amount = 200 }
`
	_, err := Load("dup.hcl", []byte(src))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeInvalidScenario))
}

func TestLoadRejectsSyntaxErrors(t *testing.T) {
	_, err := Load("broken", []byte(`scenario "A" { amount = `))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeParsing))

	_, err = Load("unknown.hcl", []byte(`scenario "A" { amount = 100 color = "red" }`))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeParsing))
}

func TestSpecsReportsEveryInvalidScenario(t *testing.T) {
	src := `
scenario "Good" { amount = 100 }
scenario "Unknown feature" {
  amount   = 100
  features = ["inputs.fields.shoe_size"]
}
scenario "Include without rail" {
  amount   = 100
  strategy = "include"
}
scenario "Zero count" {
  amount = 100
  count  = 0
}
`
	s, err := Load("bad.hcl", []byte(src))
	require.NoError(t, err)

	specs, err := s.Specs()
	require.Error(t, err)
	assert.Nil(t, specs, "nothing is returned when any scenario is invalid")
	assert.True(t, errors.IsType(err, errors.TypeUnknownFeature))
	assert.True(t, errors.IsType(err, errors.TypeInvalidScenario))
	assert.Contains(t, err.Error(), `"Unknown feature"`)
	assert.Contains(t, err.Error(), `"Include without rail"`)
	assert.Contains(t, err.Error(), `"Zero count"`)
	assert.NotContains(t, err.Error(), `"Good"`)
}

func TestDefinitionBuildKeepsErrorType(t *testing.T) {
	_, err := Definition{Title: "x", Amount: "abc"}.Build()
	assert.True(t, errors.IsType(err, errors.TypeInvalidScenario))

	_, err = Definition{Title: "x", Amount: "100", Rail: "swift"}.Build()
	assert.True(t, errors.IsType(err, errors.TypeInvalidScenario))
	assert.Equal(t, errors.TypeInvalidScenario, errors.TypeOf(err))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`scenario "Only" { amount = 100 }`), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Only"}, s.Titles())

	_, err = LoadFile(filepath.Join(dir, "missing.hcl"))
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}
