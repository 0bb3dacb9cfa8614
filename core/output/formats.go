package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"billing-fixtures/core/determinism"
	"billing-fixtures/core/ui"
)

// CLIFormatter renders the fee matrix as a terminal table
type CLIFormatter struct {
	noColor bool
}

// NewCLIFormatter creates a CLI formatter
func NewCLIFormatter(noColor bool) CLIFormatter {
	return CLIFormatter{noColor: noColor}
}

// Format implements Formatter
func (CLIFormatter) Format() Format { return FormatCLI }

// Render implements Formatter
func (f CLIFormatter) Render(w io.Writer, report *Report) error {
	uw := ui.NewWriter(w, f.noColor)
	table := uw.NewTable("Scenario", "Instruction", "Rail", "User", "System", "Products", "Settlement").
		AlignRight(1, 2, 3, 4, 5, 6)
	for _, row := range report.Rows {
		table.AddRow(
			row.Scenario,
			determinism.Peso(row.InstructionFee),
			determinism.Peso(row.RailFee),
			determinism.Peso(row.User),
			determinism.Peso(row.System),
			determinism.Peso(row.Products),
			determinism.Peso(row.RailSettlement),
		)
	}
	table.Render()

	instruction, rail, charge := report.Totals()
	summary := uw.NewFeeSummary()
	summary.Scenarios = len(report.Rows)
	summary.InstructionFee = determinism.Peso(instruction)
	summary.RailFee = determinism.Peso(rail)
	summary.TotalCharge = determinism.Peso(charge)
	summary.Render()
	return nil
}

// JSONFormatter renders the report as indented JSON
type JSONFormatter struct{}

// Format implements Formatter
func (JSONFormatter) Format() Format { return FormatJSON }

// Render implements Formatter
func (JSONFormatter) Render(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// MarkdownFormatter renders the fee matrix as a markdown table
type MarkdownFormatter struct{}

// Format implements Formatter
func (MarkdownFormatter) Format() Format { return FormatMarkdown }

// Render implements Formatter
func (MarkdownFormatter) Render(w io.Writer, report *Report) error {
	var b strings.Builder
	b.WriteString("# Voucher Generation Fees\n\n")
	if report.Metadata.Basis != "" {
		fmt.Fprintf(&b, "Instruction fees are charged %s.", strings.ReplaceAll(report.Metadata.Basis, "_", " "))
		if report.Metadata.Currency != "" {
			fmt.Fprintf(&b, " Amounts in %s.", report.Metadata.Currency)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("| Scenario | Features | Rail | Instruction fee | Rail fee | User | System | Products | Rail settlement |\n")
	b.WriteString("|---|---|---|--:|--:|--:|--:|--:|--:|\n")
	for _, row := range report.Rows {
		features := "-"
		if len(row.Features) > 0 {
			features = "`" + strings.Join(row.Features, "`, `") + "`"
		}
		rail := "-"
		if row.Rail != "NONE" && row.Rail != "" {
			rail = row.Rail + " / " + row.Strategy
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			escapeCell(row.Scenario), features, rail,
			row.InstructionFee.StringFixed(2), row.RailFee.StringFixed(2),
			row.User.StringFixed(2), row.System.StringFixed(2),
			row.Products.StringFixed(2), row.RailSettlement.StringFixed(2),
		)
	}

	instruction, rail, charge := report.Totals()
	fmt.Fprintf(&b, "\n**%d scenarios** · instruction fees %s · rail fees %s · charged %s\n",
		len(report.Rows), instruction.StringFixed(2), rail.StringFixed(2), charge.StringFixed(2))

	_, err := io.WriteString(w, b.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// XLSXFormatter renders the report as an Excel workbook with a Fees sheet
// and a Summary sheet
type XLSXFormatter struct{}

// Sheet names of the workbook
const (
	FeesSheet    = "Fees"
	SummarySheet = "Summary"
)

// Format implements Formatter
func (XLSXFormatter) Format() Format { return FormatXLSX }

// Render implements Formatter
func (XLSXFormatter) Render(w io.Writer, report *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", FeesSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}

	money := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &money})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := []interface{}{
		"Scenario", "Amount", "Count", "Features", "Rail", "Strategy",
		"Instruction fee", "Rail fee", "Total charge",
		"User", "System", "Products", "Rail settlement",
	}
	if err := f.SetSheetRow(FeesSheet, "A1", &header); err != nil {
		return err
	}
	_ = f.SetCellStyle(FeesSheet, "A1", "M1", headerStyle)

	for i, row := range report.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.Scenario,
			amount(row.Amount),
			row.Count,
			strings.Join(row.Features, ", "),
			row.Rail,
			row.Strategy,
			amount(row.InstructionFee),
			amount(row.RailFee),
			amount(row.TotalCharge),
			amount(row.User),
			amount(row.System),
			amount(row.Products),
			amount(row.RailSettlement),
		}
		if err := f.SetSheetRow(FeesSheet, cell, &values); err != nil {
			return err
		}
	}
	if n := len(report.Rows); n > 0 {
		last := fmt.Sprintf("M%d", n+1)
		_ = f.SetCellStyle(FeesSheet, "G2", last, moneyStyle)
		_ = f.SetCellStyle(FeesSheet, "B2", fmt.Sprintf("B%d", n+1), moneyStyle)
	}
	_ = f.SetColWidth(FeesSheet, "A", "A", 48)
	_ = f.SetColWidth(FeesSheet, "D", "D", 40)

	instruction, rail, charge := report.Totals()
	summary := [][]interface{}{
		{"Scenarios", len(report.Rows)},
		{"Basis", report.Metadata.Basis},
		{"Currency", report.Metadata.Currency},
		{"Suite", report.Metadata.Suite},
		{"Version", report.Metadata.Version},
		{"Instruction fees", amount(instruction)},
		{"Rail fees", amount(rail)},
		{"Total charged", amount(charge)},
	}
	for i, values := range summary {
		if err := f.SetSheetRow(SummarySheet, fmt.Sprintf("A%d", i+1), &values); err != nil {
			return err
		}
	}
	_ = f.SetCellStyle(SummarySheet, "B6", "B8", moneyStyle)
	_ = f.SetColWidth(SummarySheet, "A", "B", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// amount converts money for spreadsheet cells; every value is already
// rounded to cents
func amount(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
