package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/regress-cli/internal/model"
	"github.com/KaramelBytes/regress-cli/internal/pipeline"
	"github.com/KaramelBytes/regress-cli/internal/report"
	"github.com/KaramelBytes/regress-cli/internal/utils"
	"github.com/KaramelBytes/regress-cli/internal/ux"
)

var (
	runColumns   []string
	runOutcome   string
	runModels    []string
	runLinear    []string
	runTopN      int
	runKeepGoing bool
	runOutput    string
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Clean a traffic-stop file, fit every configured model and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := baseOptions(args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("columns") {
			opt.Columns = runColumns
		}
		if flags.Changed("outcome") {
			opt.Outcome = runOutcome
		}
		if flags.Changed("model") {
			if opt.Models, err = parseFormulas(runModels); err != nil {
				return err
			}
		}
		if flags.Changed("linear") {
			if opt.LinearModels, err = parseFormulas(runLinear); err != nil {
				return err
			}
		}
		opt.KeepGoing = runKeepGoing

		res, err := pipeline.Run(opt)
		if err != nil {
			return err
		}
		ropt := report.DefaultOptions()
		ropt.TopN = cfg.TopN
		if flags.Changed("top") {
			ropt.TopN = runTopN
		}
		md := report.New(res, ropt).Markdown()

		for _, f := range res.Failures {
			ux.Warning(cmd.ErrOrStderr(), "skipped %s: %v", f.Formula, f.Err)
		}
		if runOutput != "" {
			if err := utils.SafeWriteFile(runOutput, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			ux.Success(cmd.ErrOrStderr(), "Wrote report to %s", runOutput)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func parseFormulas(ss []string) ([]model.Formula, error) {
	out := make([]model.Formula, 0, len(ss))
	for _, s := range ss {
		f, err := model.ParseFormula(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringSliceVar(&runColumns, "columns", nil, "comma-separated columns to keep when cleaning (overrides config)")
	runCmd.Flags().StringVar(&runOutcome, "outcome", "", "0/1 outcome column (overrides config)")
	runCmd.Flags().StringArrayVarP(&runModels, "model", "m", nil, "logit formula such as 'ticket ~ mphpct + age' (repeatable)")
	runCmd.Flags().StringArrayVar(&runLinear, "linear", nil, "OLS formula (repeatable)")
	runCmd.Flags().IntVar(&runTopN, "top", 0, "rows in the ranked probability table (0 hides it)")
	runCmd.Flags().BoolVar(&runKeepGoing, "keep-going", false, "record models that fail to fit and continue")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write the report to this path instead of stdout")
}
