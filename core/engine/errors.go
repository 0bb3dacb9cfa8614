package engine

import (
	stderrors "errors"
	"fmt"

	"billing-fixtures/core/assembler"
	"billing-fixtures/core/scenario"
	"billing-fixtures/internal/errors"
)

// Phase is the generation step a scenario failed in
type Phase int

const (
	PhaseBuild  Phase = iota // ledger outcome computed and folder assembled
	PhaseVerify              // replayed in the sandbox ledger
)

// String returns the phase name
func (p Phase) String() string {
	names := []string{"build", "verify"}
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// ScenarioError is a failure of one scenario
type ScenarioError struct {
	Phase    Phase
	Scenario string
	Cause    error
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Phase, e.Scenario, e.Cause)
}

// Unwrap returns the underlying error
func (e *ScenarioError) Unwrap() error {
	return e.Cause
}

// joinScenarioErrors joins per-scenario errors in scenario order
func joinScenarioErrors(specs []scenario.Spec, errs []error) error {
	var failed []error
	for i, err := range errs {
		if err == nil {
			continue
		}
		var se *ScenarioError
		if !stderrors.As(err, &se) {
			err = &ScenarioError{Phase: PhaseBuild, Scenario: specs[i].Title, Cause: err}
		}
		failed = append(failed, err)
	}
	return stderrors.Join(failed...)
}

// folderCollisions reports fixtures of one run that share a folder name.
// Merging them would let the later folder replace the earlier one.
func folderCollisions(fixtures []*assembler.Fixture) error {
	first := make(map[string]int, len(fixtures))
	var errs []error
	for i, fx := range fixtures {
		name := fx.Name()
		k, dup := first[name]
		if !dup {
			first[name] = i
			continue
		}
		errs = append(errs, &ScenarioError{
			Phase:    PhaseBuild,
			Scenario: scenarioLabel(fx.Spec),
			Cause: errors.InvalidScenario(fmt.Sprintf("folder %q is also produced by scenario %d (%s)", name, k+1, scenarioLabel(fixtures[k].Spec))).
				WithContext("folder", name),
		})
	}
	return stderrors.Join(errs...)
}

func scenarioLabel(spec scenario.Spec) string {
	if spec.Title != "" {
		return spec.Title
	}
	return assembler.DefaultTitle(spec)
}
