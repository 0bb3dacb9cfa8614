// Package cmd - verify command
package cmd

import (
	"github.com/spf13/cobra"

	"billing-fixtures/core/ui"
	"billing-fixtures/internal/config"
	"billing-fixtures/internal/errors"
	"billing-fixtures/internal/metrics"
)

var verifySuite string

// verifyCmd replays every suite scenario in the sandbox ledger
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Replay suite scenarios in the sandbox ledger",
	Long: `Compute the ledger outcome of every scenario, post it to an in-memory SQLite
ledger seeded empty and with unrelated prior balances, and evaluate every
synthesized invariant against the balances read back.

No collection is read or written.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifySuite, "suite", "s", "", "scenario suite (HCL); default is the built-in suite")
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	loaded, err := loadSuite(cfg, verifySuite)
	if err != nil {
		return err
	}
	a, err := newAssembler(cfg)
	if err != nil {
		return err
	}

	rec := metrics.New()
	defer flushMetrics(cfg, rec)

	gen := newGenerator(cfg, a, rec, true, loaded.insertAfter)
	reports, err := gen.Verify(cmd.Context(), loaded.specs)
	if err != nil && !errors.IsType(err, errors.TypeInvariant) {
		return err
	}

	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)
	if verbose {
		w.SetVerbosity(2)
	}
	if err != nil {
		w.Error("%v", err)
		return err
	}
	if n := ui.NewRunner(w).DisplayVerification(reports); n > 0 {
		return errors.Newf(errors.TypeInvariant, "%d invariant violations", n)
	}
	return nil
}
