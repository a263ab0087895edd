package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/regress-cli/internal/pipeline"
	"github.com/KaramelBytes/regress-cli/internal/utils"
	"github.com/KaramelBytes/regress-cli/internal/ux"
)

var (
	cleanColumns []string
	cleanOutput  string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Keep the configured columns, drop incomplete rows and write the result as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := baseOptions(args[0])
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("columns") {
			opt.Columns = cleanColumns
			opt.Outcome = ""
		}
		opt.Models = nil
		opt.LinearModels = nil
		res, err := pipeline.Prepare(opt)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := res.Table.WriteCSV(&buf); err != nil {
			return err
		}
		if cleanOutput == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := utils.SafeWriteFile(cleanOutput, buf.Bytes()); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		ux.Success(cmd.ErrOrStderr(), "Wrote %d rows (%d dropped) to %s", res.Table.Len(), res.Dropped, cleanOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringSliceVar(&cleanColumns, "columns", nil, "comma-separated columns to keep (overrides config)")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "write the cleaned CSV to this path instead of stdout")
}
