package cmd

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"billing-fixtures/core/assembler"
	"billing-fixtures/core/catalog"
	"billing-fixtures/core/engine"
	"billing-fixtures/core/invariant"
	"billing-fixtures/core/ledger"
	"billing-fixtures/core/scenario"
	"billing-fixtures/core/suite"
	"billing-fixtures/internal/config"
	"billing-fixtures/internal/errors"
	"billing-fixtures/internal/logging"
	"billing-fixtures/internal/metrics"
)

// loadCatalog reads the fee catalog at path, or the configured catalog, or
// the embedded one
func loadCatalog(cfg *config.Config, path string) (*catalog.Catalog, error) {
	if path == "" {
		path = cfg.Fees.CatalogPath
	}
	if path == "" {
		return catalog.Default()
	}
	c, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if cfg.Fees.Currency != "" && c.Currency() != cfg.Fees.Currency {
		logging.Warn("fee catalog currency differs from configuration",
			zap.String("catalog", c.Currency()),
			zap.String("config", cfg.Fees.Currency),
		)
	}
	return c, nil
}

func newAssembler(cfg *config.Config) (*assembler.Assembler, error) {
	cat, err := loadCatalog(cfg, "")
	if err != nil {
		return nil, err
	}
	basis, err := ledger.ParseBasis(cfg.Fees.Basis)
	if err != nil {
		return nil, err
	}
	model, err := ledger.NewModel(cat, basis)
	if err != nil {
		return nil, err
	}

	tolerance := invariant.DefaultTolerance
	if cfg.Fees.Tolerance != "" {
		tolerance, err = decimal.NewFromString(cfg.Fees.Tolerance)
		if err != nil {
			return nil, errors.Config("invalid fee tolerance", err).WithContext("tolerance", cfg.Fees.Tolerance)
		}
	}
	return assembler.New(model, invariant.NewSynthesizer(tolerance), assembler.StepsFromConfig(cfg.Template)), nil
}

// loadedSuite is a suite file resolved into scenarios
type loadedSuite struct {
	name        string
	insertAfter string
	specs       []scenario.Spec
}

// loadSuite reads the suite at path, or the configured suite, or the embedded one
func loadSuite(cfg *config.Config, path string) (*loadedSuite, error) {
	if path == "" {
		path = cfg.Generate.SuitePath
	}

	var (
		s   *suite.Suite
		err error
	)
	name := suite.DefaultFilename
	if path == "" {
		s, err = suite.Default()
	} else {
		s, err = suite.LoadFile(path)
		name = path
	}
	if err != nil {
		return nil, err
	}

	specs, err := s.Specs()
	if err != nil {
		return nil, err
	}
	insertAfter := s.InsertAfter
	if insertAfter == "" {
		insertAfter = cfg.Generate.InsertAfterPrefix
	}
	logging.Debug("loaded suite", zap.String("suite", name), zap.Int("scenarios", len(specs)))
	return &loadedSuite{name: name, insertAfter: insertAfter, specs: specs}, nil
}

func newGenerator(cfg *config.Config, a *assembler.Assembler, rec *metrics.Recorder, verify bool, insertAfter string) *engine.Generator {
	var verifier engine.Verifier
	if verify {
		verifier = engine.SandboxVerifier{}
	}
	return engine.NewGenerator(a, verifier, rec, engine.Config{
		Concurrency:       cfg.Generate.Concurrency,
		InsertAfterPrefix: insertAfter,
	})
}

// flushMetrics writes the metrics textfile when one is configured
func flushMetrics(cfg *config.Config, rec *metrics.Recorder) {
	if err := rec.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		logging.Warn("failed to write metrics textfile",
			zap.String("path", cfg.Metrics.TextfilePath),
			zap.Error(err),
		)
	}
}
