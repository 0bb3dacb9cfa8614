// Package ui - Terminal user interface
// CLI output with tables, summaries and colors.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Colors for terminal output
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

// Writer is the UI output destination
type Writer struct {
	out       io.Writer
	noColor   bool
	verbosity int
}

// NewWriter creates a UI writer
func NewWriter(out io.Writer, noColor bool) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{
		out:       out,
		noColor:   noColor,
		verbosity: 1,
	}
}

// SetVerbosity sets output verbosity (0=quiet, 1=normal, 2=verbose)
func (w *Writer) SetVerbosity(level int) {
	w.verbosity = level
}

// Color applies color if enabled
func (w *Writer) Color(c, text string) string {
	if w.noColor {
		return text
	}
	return c + text + Reset
}

// Line writes text verbatim with newline
func (w *Writer) Line(text string) {
	fmt.Fprintln(w.out, text)
}

// Header prints a section header
func (w *Writer) Header(title string) {
	w.Line("")
	w.Line(w.Color(Bold+Cyan, "━━━ "+title+" ━━━"))
	w.Line("")
}

// Success prints a success message
func (w *Writer) Success(format string, args ...interface{}) {
	w.Line(w.Color(Green, "✓ ") + fmt.Sprintf(format, args...))
}

// Warning prints a warning
func (w *Writer) Warning(format string, args ...interface{}) {
	w.Line(w.Color(Yellow, "⚠ ") + fmt.Sprintf(format, args...))
}

// Error prints an error
func (w *Writer) Error(format string, args ...interface{}) {
	w.Line(w.Color(Red, "✗ ") + fmt.Sprintf(format, args...))
}

// Info prints an info message
func (w *Writer) Info(format string, args ...interface{}) {
	if w.verbosity < 1 {
		return
	}
	w.Line(w.Color(Blue, "ℹ ") + fmt.Sprintf(format, args...))
}

// Debug prints a debug message
func (w *Writer) Debug(format string, args ...interface{}) {
	if w.verbosity < 2 {
		return
	}
	w.Line(w.Color(Dim, "  "+fmt.Sprintf(format, args...)))
}

// Table renders a table
type Table struct {
	w       *Writer
	headers []string
	rows    [][]string
	widths  []int
	right   map[int]bool
}

// NewTable creates a table
func (w *Writer) NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	return &Table{
		w:       w,
		headers: headers,
		rows:    [][]string{},
		widths:  widths,
		right:   make(map[int]bool),
	}
}

// AlignRight right-aligns the given columns
func (t *Table) AlignRight(columns ...int) *Table {
	for _, c := range columns {
		t.right[c] = true
	}
	return t
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	// Pad or truncate cells to match header count
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
		if n := utf8.RuneCountInString(row[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

func (t *Table) line(cells []string) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(" │ ")
		}
		pad := strings.Repeat(" ", t.widths[i]-utf8.RuneCountInString(cell))
		if t.right[i] {
			b.WriteString(pad + cell)
		} else {
			b.WriteString(cell + pad)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Render prints the table
func (t *Table) Render() {
	t.w.Line(t.w.Color(Bold, t.line(t.headers)))

	sep := make([]string, len(t.widths))
	for i, w := range t.widths {
		sep[i] = strings.Repeat("─", w)
	}
	t.w.Line(strings.Join(sep, "─┼─"))

	for _, row := range t.rows {
		t.w.Line(t.line(row))
	}
}

// FeeSummary renders suite fee totals
type FeeSummary struct {
	w              *Writer
	Scenarios      int
	InstructionFee string
	RailFee        string
	TotalCharge    string
	Violations     int
}

// NewFeeSummary creates a fee summary
func (w *Writer) NewFeeSummary() *FeeSummary {
	return &FeeSummary{w: w}
}

// Render prints the fee summary
func (s *FeeSummary) Render() {
	s.w.Header("Fee Summary")

	s.w.Line(s.w.Color(Bold, "╭─────────────────────────────────────╮"))
	s.w.Line(s.w.Color(Bold, "│") + s.w.Color(Green, fmt.Sprintf("  Charged:     %-22s", s.TotalCharge)) + s.w.Color(Bold, "│"))
	s.w.Line(s.w.Color(Bold, "│") + s.w.Color(Dim, fmt.Sprintf("  Instruction: %-22s", s.InstructionFee)) + s.w.Color(Bold, "│"))
	s.w.Line(s.w.Color(Bold, "│") + s.w.Color(Dim, fmt.Sprintf("  Rail:        %-22s", s.RailFee)) + s.w.Color(Bold, "│"))
	s.w.Line(s.w.Color(Bold, "╰─────────────────────────────────────╯"))
	s.w.Line("")

	s.w.Line(s.w.Color(Dim, fmt.Sprintf("  Scenarios: %d", s.Scenarios)))
	if s.Violations > 0 {
		s.w.Warning("%d invariant violations", s.Violations)
	}
}
