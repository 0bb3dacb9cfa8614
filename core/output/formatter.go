// Package output provides output formatting interfaces.
// This package produces human and machine-readable fee reports.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"billing-fixtures/core/assembler"
	"billing-fixtures/internal/errors"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"

	// FormatXLSX is an Excel workbook
	FormatXLSX Format = "xlsx"
)

// ParseFormat parses a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCLI, FormatJSON, FormatMarkdown, FormatXLSX:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "":
		return FormatCLI, nil
	}
	return "", errors.Newf(errors.TypeInput, "unknown report format %q (want cli, json, markdown or xlsx)", s)
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render produces output for the given report
	Render(w io.Writer, report *Report) error
}

// Report is the expected fee matrix of a suite
type Report struct {
	// Rows in suite order
	Rows []Row `json:"rows"`

	// Metadata contains execution context
	Metadata Metadata `json:"metadata"`
}

// Metadata contains execution context
type Metadata struct {
	// Basis is the instruction fee basis
	Basis string `json:"basis"`

	// Currency is the ISO code amounts are in
	Currency string `json:"currency"`

	// Suite names the scenario source
	Suite string `json:"suite"`

	// Version is the tool version
	Version string `json:"version"`
}

// Row is one scenario of the fee matrix. Deltas are signed balance changes.
type Row struct {
	Scenario string          `json:"scenario"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
	Features []string        `json:"features"`
	Rail     string          `json:"rail"`
	Strategy string          `json:"strategy"`

	InstructionFee decimal.Decimal `json:"instruction_fee"`
	RailFee        decimal.Decimal `json:"rail_fee"`
	TotalCharge    decimal.Decimal `json:"total_charge"`

	User           decimal.Decimal `json:"user_delta"`
	System         decimal.Decimal `json:"system_delta"`
	Products       decimal.Decimal `json:"products_delta"`
	RailSettlement decimal.Decimal `json:"rail_settlement_delta"`
}

// RowFor builds the report row of a planned or assembled fixture
func RowFor(fx *assembler.Fixture) Row {
	features := make([]string, len(fx.Spec.Features))
	for i, f := range fx.Spec.Features {
		features[i] = string(f)
	}
	out := fx.Outcome
	return Row{
		Scenario:       assembler.FolderName(fx.Spec, out),
		Amount:         fx.Spec.BaseAmount,
		Count:          fx.Spec.Count,
		Features:       features,
		Rail:           string(fx.Spec.Rail),
		Strategy:       string(fx.Spec.Strategy),
		InstructionFee: out.InstructionFee,
		RailFee:        out.RailFee,
		TotalCharge:    out.TotalCharge,
		User:           out.User,
		System:         out.System,
		Products:       out.Products,
		RailSettlement: out.RailSettlement,
	}
}

// NewReport builds a report from fixtures, keeping their order
func NewReport(fixtures []*assembler.Fixture, meta Metadata) *Report {
	rows := make([]Row, len(fixtures))
	for i, fx := range fixtures {
		rows[i] = RowFor(fx)
	}
	return &Report{Rows: rows, Metadata: meta}
}

// Totals sums instruction fees, rail fees and user charges over all rows
func (r *Report) Totals() (instruction, rail, charge decimal.Decimal) {
	for _, row := range r.Rows {
		instruction = instruction.Add(row.InstructionFee)
		rail = rail.Add(row.RailFee)
		charge = charge.Add(row.TotalCharge)
	}
	return instruction, rail, charge
}

// FormatterRegistry manages formatter registration
type FormatterRegistry interface {
	// Register adds a formatter to the registry
	Register(formatter Formatter) error

	// GetFormatter returns a formatter for a format type
	GetFormatter(format Format) (Formatter, bool)

	// GetAll returns all registered formatters
	GetAll() []Formatter
}

// Registry is the default FormatterRegistry
type Registry struct {
	mu         sync.RWMutex
	formatters map[Format]Formatter
}

// NewRegistry creates a registry holding every built-in formatter
func NewRegistry(noColor bool) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	for _, f := range []Formatter{
		NewCLIFormatter(noColor),
		JSONFormatter{},
		MarkdownFormatter{},
		XLSXFormatter{},
	} {
		_ = r.Register(f)
	}
	return r
}

// Register adds a formatter to the registry
func (r *Registry) Register(formatter Formatter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formatters[formatter.Format()]; exists {
		return errors.Newf(errors.TypeConfig, "formatter %s already registered", formatter.Format())
	}
	r.formatters[formatter.Format()] = formatter
	return nil
}

// GetFormatter returns a formatter for a format type
func (r *Registry) GetFormatter(format Format) (Formatter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.formatters[format]
	return f, ok
}

// GetAll returns all registered formatters ordered by format name
func (r *Registry) GetAll() []Formatter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Formatter, 0, len(r.formatters))
	for _, f := range r.formatters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Format() < out[j].Format() })
	return out
}

// Render writes the report in the given format
func (r *Registry) Render(w io.Writer, format Format, report *Report) error {
	f, ok := r.GetFormatter(format)
	if !ok {
		return errors.Newf(errors.TypeInput, "no formatter for %q", format)
	}
	if err := f.Render(w, report); err != nil {
		return errors.Wrap(errors.TypeInternal, fmt.Sprintf("failed to render %s report", format), err)
	}
	return nil
}

// Render writes the report with an uncolored default registry
func Render(w io.Writer, format Format, report *Report) error {
	return NewRegistry(true).Render(w, format, report)
}
