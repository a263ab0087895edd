package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/regress-cli/internal/model"
	"github.com/KaramelBytes/regress-cli/internal/pipeline"
	"github.com/KaramelBytes/regress-cli/internal/report"
)

var (
	fitOLS  bool
	fitTopN int
)

var fitCmd = &cobra.Command{
	Use:   "fit <file> <formula>",
	Short: "Fit a single model",
	Long: `Fit one formula against the rows that are complete in its columns.
The formula uses the response ~ term + term form; 'ticket ~ 1' fits the
intercept-only model.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := model.ParseFormula(args[1])
		if err != nil {
			return err
		}
		opt, err := singleModelOptions(args[0], f)
		if err != nil {
			return err
		}
		if fitOLS {
			opt.LinearModels = []model.Formula{f}
		} else {
			opt.Models = []model.Formula{f}
		}
		res, err := pipeline.Run(opt)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Rows: %d clean (%d dropped)\n", res.Table.Len(), res.Dropped)
		if fitOLS {
			fmt.Fprint(out, report.Linear(res.Linear[0]))
			return nil
		}
		ropt := report.DefaultOptions()
		ropt.TopN = fitTopN
		fmt.Fprint(out, report.Logit(res.Fits[0], ropt))
		return nil
	},
}

// singleModelOptions keeps only the columns f needs so that unrelated missing
// values do not drop rows.
func singleModelOptions(path string, f model.Formula) (pipeline.Options, error) {
	opt, err := baseOptions(path)
	if err != nil {
		return pipeline.Options{}, err
	}
	opt.Columns = nil
	opt.Outcome = f.Response
	opt.Models = nil
	opt.LinearModels = nil
	return opt, nil
}

func init() {
	rootCmd.AddCommand(fitCmd)
	fitCmd.Flags().BoolVar(&fitOLS, "ols", false, "fit by ordinary least squares instead of logistic regression")
	fitCmd.Flags().IntVar(&fitTopN, "top", 0, "rows in the ranked probability table (0 hides it)")
}
