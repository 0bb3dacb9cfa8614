// Package metrics records fixture generation metrics on a private registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "billing_fixtures_"

// Recorder holds the generation metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	fixturesBuilt     *prometheus.CounterVec
	buildErrors       *prometheus.CounterVec
	instructionFees   prometheus.Histogram
	sandboxViolations prometheus.Counter
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fixturesBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fixtures_built_total",
				Help: "Scenario fixtures assembled, by suite group",
			},
			[]string{"group"},
		),
		buildErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fixture_build_errors_total",
				Help: "Scenario builds that failed, by error kind",
			},
			[]string{"kind"},
		),
		instructionFees: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "instruction_fee_pesos",
				Help:    "Instruction fee per assembled scenario",
				Buckets: []float64{0, 1, 2.5, 5, 10, 15, 25, 50, 100},
			},
		),
		sandboxViolations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "sandbox_violations_total",
				Help: "Invariant violations found while replaying fixtures in the sandbox ledger",
			},
		),
	}
	r.registry.MustRegister(r.fixturesBuilt, r.buildErrors, r.instructionFees, r.sandboxViolations)
	return r
}

// FixtureBuilt records a successfully assembled fixture.
func (r *Recorder) FixtureBuilt(group string, instructionFee float64) {
	if r == nil {
		return
	}
	if group == "" {
		group = "ungrouped"
	}
	r.fixturesBuilt.WithLabelValues(group).Inc()
	r.instructionFees.Observe(instructionFee)
}

// BuildFailed records a failed scenario build.
func (r *Recorder) BuildFailed(kind string) {
	if r == nil {
		return
	}
	r.buildErrors.WithLabelValues(kind).Inc()
}

// SandboxViolations records invariant violations found during verification.
func (r *Recorder) SandboxViolations(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.sandboxViolations.Add(float64(n))
}

// Registry exposes the underlying gatherer.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes all metrics in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
