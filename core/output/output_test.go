package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"billing-fixtures/core/assembler"
	"billing-fixtures/core/catalog"
	"billing-fixtures/core/ledger"
	"billing-fixtures/core/scenario"
	"billing-fixtures/internal/errors"
)

func testReport(t *testing.T) *Report {
	t.Helper()
	model, err := ledger.NewModel(catalog.MustDefault(), ledger.PerGeneration)
	require.NoError(t, err)
	a := assembler.New(model, nil, assembler.DefaultSteps())

	email, err := scenario.Build(decimal.NewFromInt(100), 1, []catalog.Feature{catalog.InputEmail}, catalog.RailNone, scenario.Absorb,
		scenario.WithTitle("03 - Input Fields - Email"))
	require.NoError(t, err)
	include, err := scenario.Build(decimal.NewFromInt(100), 1, nil, catalog.RailInstapay, scenario.Include,
		scenario.WithTitle("07 - Settlement Rail - INSTAPAY / Include"))
	require.NoError(t, err)

	var fixtures []*assembler.Fixture
	for _, s := range []scenario.Spec{email, include} {
		fx, err := a.Plan(s)
		require.NoError(t, err)
		fixtures = append(fixtures, fx)
	}
	return NewReport(fixtures, Metadata{Basis: "per_generation", Currency: "PHP", Suite: "default.hcl", Version: "test"})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatCLI},
		{"cli", FormatCLI},
		{"JSON", FormatJSON},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{" xlsx ", FormatXLSX},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("html")
	assert.True(t, errors.IsType(err, errors.TypeInput))
}

func TestRowFor(t *testing.T) {
	r := testReport(t)
	require.Len(t, r.Rows, 2)

	include := r.Rows[1]
	assert.Equal(t, "07 - Settlement Rail - INSTAPAY / Include (₱100)", include.Scenario)
	assert.Equal(t, "INSTAPAY", include.Rail)
	assert.Equal(t, "include", include.Strategy)
	assert.Empty(t, include.Features)
	assert.True(t, decimal.NewFromInt(-100).Equal(include.User))
	assert.True(t, decimal.NewFromInt(90).Equal(include.Products))
	assert.True(t, decimal.NewFromInt(10).Equal(include.RailSettlement))

	instruction, rail, charge := r.Totals()
	assert.Equal(t, "2.20", instruction.StringFixed(2))
	assert.Equal(t, "10.00", rail.StringFixed(2))
	assert.Equal(t, "202.20", charge.StringFixed(2))
}

func TestMarkdownReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatMarkdown, testReport(t)))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "report.md", buf.Bytes())
}

func TestJSONReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, testReport(t)))

	var decoded struct {
		Rows []struct {
			Scenario    string   `json:"scenario"`
			Features    []string `json:"features"`
			TotalCharge string   `json:"total_charge"`
			UserDelta   string   `json:"user_delta"`
		} `json:"rows"`
		Metadata Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Rows, 2)
	assert.Equal(t, "03 - Input Fields - Email (₱100 + ₱2.20)", decoded.Rows[0].Scenario)
	assert.Equal(t, []string{"inputs.fields.email"}, decoded.Rows[0].Features)
	assert.Equal(t, "102.2", decoded.Rows[0].TotalCharge)
	assert.Equal(t, "-102.2", decoded.Rows[0].UserDelta)
	assert.Equal(t, "per_generation", decoded.Metadata.Basis)
	assert.NotContains(t, buf.String(), `<`)
}

func TestCLIReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRegistry(true).Render(&buf, FormatCLI, testReport(t)))
	out := buf.String()

	assert.Contains(t, out, "03 - Input Fields - Email (₱100 + ₱2.20)")
	assert.Contains(t, out, "-₱102.20")
	assert.Contains(t, out, "Fee Summary")
	assert.Contains(t, out, "Charged:     ₱202.20")
	assert.NotContains(t, out, "\033[", "no ANSI codes when color is off")
}

func TestXLSXReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatXLSX, testReport(t)))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{FeesSheet, SummarySheet}, f.GetSheetList())

	name, err := f.GetCellValue(FeesSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "03 - Input Fields - Email (₱100 + ₱2.20)", name)

	features, err := f.GetCellValue(FeesSheet, "D2")
	require.NoError(t, err)
	assert.Equal(t, "inputs.fields.email", features)

	charge, err := f.GetCellValue(FeesSheet, "I3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "100", charge)

	settlement, err := f.GetCellValue(FeesSheet, "M3", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "10", settlement)

	total, err := f.GetCellValue(SummarySheet, "B8", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "202.2", total)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(true)
	var formats []Format
	for _, f := range r.GetAll() {
		formats = append(formats, f.Format())
	}
	assert.Equal(t, []Format{FormatCLI, FormatJSON, FormatMarkdown, FormatXLSX}, formats)

	err := r.Register(JSONFormatter{})
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	err = r.Render(&bytes.Buffer{}, Format("pdf"), testReport(t))
	assert.True(t, errors.IsType(err, errors.TypeInput))
}
