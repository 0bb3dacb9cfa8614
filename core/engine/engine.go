// Package engine provides the fixture generation engine.
// CLI is a thin wrapper around this engine.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"billing-fixtures/core/assembler"
	"billing-fixtures/core/collection"
	"billing-fixtures/core/sandbox"
	"billing-fixtures/core/scenario"
	"billing-fixtures/internal/errors"
	"billing-fixtures/internal/logging"
	"billing-fixtures/internal/metrics"
)

// Generator turns scenario suites into collection folders.
type Generator struct {
	assembler *assembler.Assembler
	verifier  Verifier
	metrics   *metrics.Recorder
	config    Config
}

// Config configures the generator
type Config struct {
	// Concurrency bounds parallel scenario builds; below 1 means 1
	Concurrency int

	// InsertAfterPrefix places generated folders after the last folder
	// whose name starts with it
	InsertAfterPrefix string
}

// Verifier replays a fixture before it is emitted
type Verifier interface {
	Verify(ctx context.Context, fx *assembler.Fixture) (sandbox.Report, error)
}

// SandboxVerifier replays fixtures on the in-memory SQLite ledger
type SandboxVerifier struct {
	// Seeds overrides the default seeds when set
	Seeds []sandbox.Seed
}

// Verify implements Verifier
func (v SandboxVerifier) Verify(ctx context.Context, fx *assembler.Fixture) (sandbox.Report, error) {
	report, err := sandbox.Verify(ctx, fx.Spec, fx.Outcome, fx.Invariants, v.Seeds...)
	if fx.Item != nil {
		report.Scenario = fx.Name()
	}
	return report, err
}

// NewGenerator creates a generator. verifier and recorder may be nil.
func NewGenerator(a *assembler.Assembler, verifier Verifier, recorder *metrics.Recorder, config Config) *Generator {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	return &Generator{
		assembler: a,
		verifier:  verifier,
		metrics:   recorder,
		config:    config,
	}
}

// Result is the output of a generation run
type Result struct {
	// Fixtures in scenario order
	Fixtures []*assembler.Fixture

	// Reports holds one sandbox report per fixture when verification ran
	Reports []sandbox.Report

	Duration time.Duration
}

// Generate builds one fixture per scenario from the template. Output order
// equals input order. When any scenario fails every failure is returned
// joined and no fixtures are returned, as when two scenarios would produce
// folders of the same name. A template missing a step fails the whole run
// before any scenario is built.
func (g *Generator) Generate(ctx context.Context, template *collection.Item, specs []scenario.Spec) (*Result, error) {
	start := time.Now()

	if err := g.assembler.Steps().Validate(template); err != nil {
		g.metrics.BuildFailed(string(errors.TypeOf(err)))
		return nil, err
	}

	fixtures, reports, err := g.run(ctx, specs, func(spec scenario.Spec) (*assembler.Fixture, error) {
		return g.assembler.Assemble(template, spec)
	})
	if err != nil {
		return nil, err
	}
	if err := folderCollisions(fixtures); err != nil {
		g.metrics.BuildFailed(string(errors.TypeInvalidScenario))
		return nil, err
	}

	result := &Result{
		Fixtures: fixtures,
		Reports:  reports,
		Duration: time.Since(start),
	}
	logging.Info("generated fixtures",
		zap.Int("fixtures", len(fixtures)),
		zap.Bool("verified", g.verifier != nil),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// Verify plans every scenario and replays it in the sandbox without
// touching any template. A sandbox verifier is used when the generator has none.
func (g *Generator) Verify(ctx context.Context, specs []scenario.Spec) ([]sandbox.Report, error) {
	if g.verifier == nil {
		withSandbox := *g
		withSandbox.verifier = SandboxVerifier{}
		g = &withSandbox
	}
	_, reports, err := g.run(ctx, specs, g.assembler.Plan)
	return reports, err
}

// GenerateCollection generates fixtures from the folder at templateIndex
// and returns a copy of c with them merged in.
func (g *Generator) GenerateCollection(ctx context.Context, c *collection.Collection, templateIndex int, specs []scenario.Spec) (*collection.Collection, *Result, error) {
	template, err := g.assembler.Template(c, templateIndex)
	if err != nil {
		g.metrics.BuildFailed(string(errors.TypeOf(err)))
		return nil, nil, err
	}
	result, err := g.Generate(ctx, template, specs)
	if err != nil {
		return nil, nil, err
	}
	return g.Emit(c, result.Fixtures), result, nil
}

// Emit returns a copy of c with the fixtures merged in after the configured
// prefix. Folders with the same name are replaced, so emitting twice yields
// the same collection.
func (g *Generator) Emit(c *collection.Collection, fixtures []*assembler.Fixture) *collection.Collection {
	out := c.Clone()
	items := make([]*collection.Item, len(fixtures))
	for i, fx := range fixtures {
		items[i] = fx.Item
	}
	out.Item = collection.Merge(out.Item, g.config.InsertAfterPrefix, items...)
	return out
}

type buildFunc func(spec scenario.Spec) (*assembler.Fixture, error)

func (g *Generator) run(ctx context.Context, specs []scenario.Spec, build buildFunc) ([]*assembler.Fixture, []sandbox.Report, error) {
	fixtures := make([]*assembler.Fixture, len(specs))
	errs := make([]error, len(specs))
	var reports []sandbox.Report
	if g.verifier != nil {
		reports = make([]sandbox.Report, len(specs))
	}

	var eg errgroup.Group
	eg.SetLimit(g.config.Concurrency)
	for i, spec := range specs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			fx, report, err := g.buildOne(ctx, spec, build)
			fixtures[i] = fx
			errs[i] = err
			if reports != nil {
				reports[i] = report
			}
			return nil
		})
	}
	_ = eg.Wait()

	if err := joinScenarioErrors(specs, errs); err != nil {
		return nil, nil, err
	}
	return fixtures, reports, nil
}

func (g *Generator) buildOne(ctx context.Context, spec scenario.Spec, build buildFunc) (*assembler.Fixture, sandbox.Report, error) {
	fx, err := build(spec)
	if err != nil {
		g.metrics.BuildFailed(string(errors.TypeOf(err)))
		return nil, sandbox.Report{}, &ScenarioError{Phase: PhaseBuild, Scenario: spec.Title, Cause: err}
	}

	var report sandbox.Report
	if g.verifier != nil {
		report, err = g.verifier.Verify(ctx, fx)
		if err != nil {
			g.metrics.BuildFailed(string(errors.TypeOf(err)))
			return nil, report, &ScenarioError{Phase: PhaseVerify, Scenario: spec.Title, Cause: err}
		}
		if violations := report.Violations(); len(violations) > 0 {
			g.metrics.SandboxViolations(len(violations))
			g.metrics.BuildFailed(string(errors.TypeInvariant))
			logging.Warn("sandbox violations",
				logging.Scenario(spec.Title),
				zap.Strings("violations", violations),
			)
			return nil, report, &ScenarioError{
				Phase:    PhaseVerify,
				Scenario: spec.Title,
				Cause:    errors.Newf(errors.TypeInvariant, "%d invariant violations, first: %s", len(violations), violations[0]),
			}
		}
	}

	g.metrics.FixtureBuilt(assembler.Group(spec.Title), fx.Outcome.InstructionFee.InexactFloat64())
	return fx, report, nil
}
