package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/regress-cli/internal/pipeline"
	"github.com/KaramelBytes/regress-cli/internal/report"
)

var balanceOutcome string

var balanceCmd = &cobra.Command{
	Use:   "balance <file>",
	Short: "Count each outcome value among rows complete in the outcome column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := baseOptions(args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("outcome") {
			opt.Outcome = balanceOutcome
		}
		if opt.Outcome == "" {
			return fmt.Errorf("no outcome column configured (use --outcome)")
		}
		opt.Columns = nil
		opt.Models = nil
		opt.LinearModels = nil
		res, err := pipeline.Prepare(opt)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report.Balance(res.Balance))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringVar(&balanceOutcome, "outcome", "", "column to count (overrides config)")
}
