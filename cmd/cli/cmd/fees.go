// Package cmd - fee catalog commands
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"billing-fixtures/core/catalog"
	"billing-fixtures/core/determinism"
	"billing-fixtures/core/ui"
	"billing-fixtures/internal/config"
)

var feesCatalog string

var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Inspect the fee catalog",
}

var feesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List instruction and rail fees",
	Args:  cobra.NoArgs,
	RunE:  runFeesList,
}

var feesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a fee catalog for completeness and precision",
	Long: `Load a YAML fee catalog and check that every feature has a fee, that no
unknown selector is present, that fees are non-negative and at cent precision,
and that every settlement rail is priced.`,
	Args: cobra.NoArgs,
	RunE: runFeesValidate,
}

func init() {
	rootCmd.AddCommand(feesCmd)
	feesCmd.AddCommand(feesListCmd)
	feesCmd.AddCommand(feesValidateCmd)

	feesCmd.PersistentFlags().StringVar(&feesCatalog, "catalog", "", "fee catalog (YAML); default is the configured or built-in catalog")
}

func runFeesList(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	c, err := loadCatalog(cfg, feesCatalog)
	if err != nil {
		return err
	}

	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)
	w.Header(fmt.Sprintf("Instruction Fees (%s)", c.Currency()))
	table := w.NewTable("Selector", "Group", "Label", "Fee").AlignRight(3)
	for _, e := range c.Entries() {
		table.AddRow(string(e.Feature), string(e.Group), e.Feature.Label(), determinism.Peso(e.Fee))
	}
	table.Render()

	w.Header("Settlement Rails")
	rails := w.NewTable("Rail", "Fee").AlignRight(1)
	for _, r := range catalog.Rails() {
		fee, err := c.RailFee(r)
		if err != nil {
			return err
		}
		rails.AddRow(string(r), determinism.Peso(fee))
	}
	rails.Render()
	return nil
}

func runFeesValidate(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	c, err := loadCatalog(cfg, feesCatalog)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	w := ui.NewWriter(cmd.OutOrStdout(), cfg.Output.NoColor)
	stats := c.Stats()
	w.Success("fee catalog is valid: %d features, %d rails", stats.Total, len(catalog.Rails()))
	for _, g := range determinism.SortedKeys(stats.ByGroup) {
		gs := stats.ByGroup[g]
		w.Info("%s: %d fees, max %s", g, gs.Count, determinism.Peso(gs.Max))
	}
	return nil
}
