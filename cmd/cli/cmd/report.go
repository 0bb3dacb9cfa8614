// Package cmd - report command
package cmd

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"billing-fixtures/core/assembler"
	"billing-fixtures/core/output"
	"billing-fixtures/internal/config"
	"billing-fixtures/internal/errors"
)

var (
	reportSuite  string
	reportFormat string
	reportOut    string
)

// reportCmd renders the expected fee matrix of a suite
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the expected fees and ledger deltas of a suite",
	Long: `Compute every suite scenario and render one row per scenario: instruction
fee, rail fee and the signed change of the user, system, products and rail
settlement accounts.

Examples:
  billing-fixtures report
  billing-fixtures report --format markdown --out FEES.md
  billing-fixtures report --format xlsx --out fees.xlsx`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportSuite, "suite", "s", "", "scenario suite (HCL); default is the built-in suite")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "", "output format (cli, json, markdown, xlsx); default from config")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "file to write (default is stdout)")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	name := reportFormat
	if name == "" {
		name = cfg.Output.DefaultFormat
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return err
	}
	if format == output.FormatXLSX && reportOut == "" {
		return errors.New(errors.TypeInput, "xlsx reports need --out")
	}

	loaded, err := loadSuite(cfg, reportSuite)
	if err != nil {
		return err
	}
	a, err := newAssembler(cfg)
	if err != nil {
		return err
	}

	fixtures := make([]*assembler.Fixture, 0, len(loaded.specs))
	for _, spec := range loaded.specs {
		fx, err := a.Plan(spec)
		if err != nil {
			return err
		}
		fixtures = append(fixtures, fx)
	}
	report := output.NewReport(fixtures, output.Metadata{
		Basis:    string(a.Model().Basis()),
		Currency: a.Model().Catalog().Currency(),
		Suite:    loaded.name,
		Version:  version,
	})

	noColor := cfg.Output.NoColor || reportOut != ""
	if reportOut == "" {
		return output.NewRegistry(noColor).Render(cmd.OutOrStdout(), format, report)
	}

	var buf bytes.Buffer
	if err := output.NewRegistry(noColor).Render(&buf, format, report); err != nil {
		return err
	}
	if err := os.WriteFile(reportOut, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(errors.TypeInternal, err, "failed to write %s", reportOut)
	}
	return nil
}
