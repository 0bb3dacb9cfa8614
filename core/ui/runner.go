// Package ui - Generation and verification result display
package ui

import (
	"fmt"
	"time"

	"billing-fixtures/core/determinism"
	"billing-fixtures/core/engine"
	"billing-fixtures/core/sandbox"
)

// Runner displays engine results
type Runner struct {
	w *Writer
}

// NewRunner creates a runner
func NewRunner(w *Writer) *Runner {
	return &Runner{w: w}
}

// DisplayGeneration shows the generated folders and their expected charges
func (r *Runner) DisplayGeneration(result *engine.Result, dest string, dryRun bool) {
	r.w.Header("Voucher Billing Fixtures")

	table := r.w.NewTable("Folder", "Charge", "Fee", "Invariants").AlignRight(1, 2, 3)
	for _, fx := range result.Fixtures {
		table.AddRow(
			fx.Name(),
			determinism.Peso(fx.Outcome.TotalCharge),
			determinism.Peso(fx.Outcome.FeeCharged),
			fmt.Sprintf("%d", len(fx.Invariants)),
		)
	}
	table.Render()
	r.w.Line("")

	if len(result.Reports) > 0 {
		seeds := 0
		for _, rep := range result.Reports {
			seeds += len(rep.Seeds)
		}
		r.w.Success("sandbox replay passed on %d seeded ledgers", seeds)
	}
	switch {
	case dryRun:
		r.w.Info("dry run: %d folders not written", len(result.Fixtures))
	case dest != "":
		r.w.Success("wrote %d folders to %s", len(result.Fixtures), dest)
	}
	r.w.Line(r.w.Color(Dim, fmt.Sprintf("Completed in %s", result.Duration.Round(time.Millisecond))))
}

// DisplayVerification shows sandbox results per scenario and returns the
// number of violations
func (r *Runner) DisplayVerification(reports []sandbox.Report) int {
	r.w.Header("Sandbox Verification")

	violations := 0
	for _, rep := range reports {
		failed := rep.Violations()
		violations += len(failed)
		if len(failed) == 0 {
			r.w.Success("%s", rep.Scenario)
			for _, seed := range rep.Seeds {
				r.w.Debug("%s: %d invariants held", seed.Seed, len(seed.Results))
			}
			continue
		}
		r.w.Error("%s", rep.Scenario)
		for _, v := range failed {
			r.w.Line("    " + v)
		}
	}

	r.w.Line("")
	if violations > 0 {
		r.w.Warning("%d violations across %d scenarios", violations, len(reports))
	} else {
		r.w.Success("all %d scenarios hold on every seed", len(reports))
	}
	return violations
}
