package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/regress-cli/internal/dataset"
	"github.com/KaramelBytes/regress-cli/internal/report"
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Summarize every column of a file before cleaning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lopt, err := loadOptions()
		if err != nil {
			return err
		}
		t, err := dataset.Load(args[0], lopt)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File: %s\nRows: %d\n\n", t.Name(), t.Len())
		fmt.Fprint(out, report.Schema(t.Describe()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
