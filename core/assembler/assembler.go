// Package assembler stamps a scenario onto a copy of the baseline folder:
// the generation request body, the balance capture and check scripts, and
// the voucher detail checks all come from the same scenario.
package assembler

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"billing-fixtures/core/catalog"
	"billing-fixtures/core/collection"
	"billing-fixtures/core/determinism"
	"billing-fixtures/core/invariant"
	"billing-fixtures/core/ledger"
	"billing-fixtures/core/render"
	"billing-fixtures/core/scenario"
	"billing-fixtures/internal/errors"
	"billing-fixtures/internal/logging"
)

// IDNamespace seeds the deterministic item IDs of generated folders
const IDNamespace = "billing-fixtures"

// Fixture is one generated folder together with what produced it
type Fixture struct {
	Item       *collection.Item
	Spec       scenario.Spec
	Outcome    ledger.Outcome
	Invariants []invariant.Invariant
	Checks     []invariant.FeatureCheck
}

// Name returns the folder name
func (f *Fixture) Name() string {
	return f.Item.Name
}

// Group returns the suite group of the fixture, e.g. "Input Fields"
func (f *Fixture) Group() string {
	return Group(f.Spec.Title)
}

// Assembler builds fixtures from a baseline folder
type Assembler struct {
	model *ledger.Model
	synth *invariant.Synthesizer
	steps Steps
	ids   *determinism.IDGenerator
}

// New creates an assembler
func New(model *ledger.Model, synth *invariant.Synthesizer, steps Steps) *Assembler {
	if synth == nil {
		synth = invariant.NewSynthesizer(invariant.DefaultTolerance)
	}
	return &Assembler{
		model: model,
		synth: synth,
		steps: steps,
		ids:   determinism.NewIDGenerator(IDNamespace),
	}
}

// Steps returns the configured step names
func (a *Assembler) Steps() Steps {
	return a.steps
}

// Model returns the ledger model fixtures are computed with
func (a *Assembler) Model() *ledger.Model {
	return a.model
}

// Plan computes the ledger outcome, invariants and feature checks of a
// scenario without touching any template.
func (a *Assembler) Plan(spec scenario.Spec) (*Fixture, error) {
	out, err := a.model.Compute(spec)
	if err != nil {
		return nil, err
	}
	return &Fixture{
		Spec:       spec,
		Outcome:    out,
		Invariants: a.synth.Synthesize(spec, out),
		Checks:     invariant.FeatureChecks(spec),
	}, nil
}

// Assemble deep-copies the template and rewrites the copy for spec.
// The template itself is never modified.
func (a *Assembler) Assemble(template *collection.Item, spec scenario.Spec) (*Fixture, error) {
	if err := a.steps.Validate(template); err != nil {
		return nil, err
	}
	fx, err := a.Plan(spec)
	if err != nil {
		return nil, err
	}

	item := template.Clone()
	item.Name = FolderName(spec, fx.Outcome)
	item.Description = Description(spec, fx.Outcome)

	body, err := spec.RawBody()
	if err != nil {
		return nil, errors.Internal("failed to encode request body", err)
	}
	gen := item.Step(a.steps.Generate)
	if gen.Request.Body == nil {
		gen.Request.Body = &collection.Body{}
	}
	gen.Request.Body.Mode = "raw"
	gen.Request.Body.Raw = body
	gen.SetScript(collection.ListenPrerequest, render.Prerequest(spec))

	item.Step(a.steps.UserBefore).SetScript(collection.ListenTest, render.CaptureUser())
	item.Step(a.steps.SystemBefore).SetScript(collection.ListenTest, render.CaptureSystem())
	item.Step(a.steps.UserAfter).SetScript(collection.ListenTest,
		render.UserAfter(invariant.ForStep(fx.Invariants, invariant.StepUserAfter)))
	item.Step(a.steps.SystemAfter).SetScript(collection.ListenTest,
		render.SystemAfter(invariant.ForStep(fx.Invariants, invariant.StepSystemAfter)))
	item.Step(a.steps.VoucherDetails).SetScript(collection.ListenTest, render.Details(fx.Checks))

	a.assignIDs(item)
	fx.Item = item

	logging.Debug("assembled fixture",
		logging.Scenario(item.Name),
		logging.Amount("instruction_fee", fx.Outcome.InstructionFee),
		logging.Amount("total_charge", fx.Outcome.TotalCharge),
		zap.Int("invariants", len(fx.Invariants)),
	)
	return fx, nil
}

// assignIDs replaces every ID in the folder with one derived from the folder
// name and the item's position, so regenerating yields identical documents.
func (a *Assembler) assignIDs(folder *collection.Item) {
	var walk func(it *collection.Item, path string)
	walk = func(it *collection.Item, path string) {
		it.ID = a.ids.Generate(folder.Name, path)
		for k := range it.Event {
			it.Event[k].Script.ID = a.ids.Generate(folder.Name, path, it.Event[k].Listen)
		}
		for k, child := range it.Item {
			walk(child, fmt.Sprintf("%s/%d:%s", path, k, child.Name))
		}
	}
	walk(folder, "")
}

// FolderName appends the expected charge to the scenario title:
// "03 - Input Fields - Email (₱100 + ₱2.20)", "02 - Basic Settings - Bulk (₱1000 for 10 vouchers)".
func FolderName(spec scenario.Spec, out ledger.Outcome) string {
	title := spec.Title
	if title == "" {
		title = DefaultTitle(spec)
	}

	var suffix string
	switch {
	case spec.Count > 1 && out.FeeCharged.IsZero() && out.InstructionFee.IsZero():
		suffix = fmt.Sprintf("(%s for %d vouchers)", determinism.PesoShort(out.TotalEscrow), spec.Count)
	case spec.Count > 1:
		suffix = fmt.Sprintf("(%s total)", determinism.Peso(out.TotalCharge))
	case out.FeeCharged.IsZero():
		suffix = fmt.Sprintf("(%s)", determinism.PesoShort(spec.BaseAmount))
	default:
		suffix = fmt.Sprintf("(%s + %s)", determinism.PesoShort(spec.BaseAmount), determinism.Peso(out.FeeCharged))
	}
	if strings.HasSuffix(title, " "+suffix) {
		return title
	}
	return title + " " + suffix
}

// DefaultTitle names a scenario that has no title of its own
func DefaultTitle(spec scenario.Spec) string {
	var parts []string
	for _, f := range spec.Features {
		parts = append(parts, f.Label())
	}
	if spec.Rail != catalog.RailNone {
		parts = append(parts, fmt.Sprintf("%s / %s", spec.Rail, strings.ToUpper(string(spec.Strategy[:1]))+string(spec.Strategy[1:])))
	}
	if len(parts) == 0 {
		return "Simplest Voucher"
	}
	return strings.Join(parts, " + ")
}

// Description states the expected movements in words
func Description(spec scenario.Spec, out ledger.Outcome) string {
	var b strings.Builder
	if len(spec.Features) == 0 {
		b.WriteString("Voucher without instructions")
	} else {
		names := make([]string, len(spec.Features))
		for k, f := range spec.Features {
			names[k] = string(f)
		}
		fmt.Fprintf(&b, "Voucher with %s", strings.Join(names, ", "))
	}
	if spec.Count > 1 {
		fmt.Fprintf(&b, ", %d vouchers of %s", spec.Count, determinism.PesoShort(spec.BaseAmount))
	}
	if spec.Rail != catalog.RailNone {
		fmt.Fprintf(&b, ", %s rail with %s fee strategy", spec.Rail, spec.Strategy)
	}

	fmt.Fprintf(&b, ". Expected: User %s (%s escrow + %s fees), Products %s, System %s",
		determinism.Peso(out.User),
		determinism.Peso(out.TotalEscrow),
		determinism.Peso(out.FeeCharged),
		signed(out.Products),
		signed(out.System),
	)
	if !out.RailFee.IsZero() {
		fmt.Fprintf(&b, ", %s %s to rail settlement", spec.Rail, determinism.Peso(out.RailFee))
	}
	b.WriteString(".")
	return b.String()
}

func signed(d decimal.Decimal) string {
	switch {
	case d.IsZero():
		return "±" + determinism.Peso(d)
	case d.IsPositive():
		return "+" + determinism.Peso(d)
	}
	return determinism.Peso(d)
}

// Group extracts the suite group from a title: "03 - Input Fields - Email"
// yields "Input Fields", "11 - Complex Scenario" yields "Complex Scenario".
// Titles without a numbered prefix yield "".
func Group(title string) string {
	parts := strings.Split(title, " - ")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
