package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/regress-cli/internal/model"
	"github.com/KaramelBytes/regress-cli/internal/pipeline"
	"github.com/KaramelBytes/regress-cli/internal/summary"
	"github.com/KaramelBytes/regress-cli/internal/ux"
)

var predictAt []string

var predictCmd = &cobra.Command{
	Use:   "predict <file> <formula> --at name=value ...",
	Short: "Fit a logit model and report the probability and odds at given predictor values",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := model.ParseFormula(args[1])
		if err != nil {
			return err
		}
		values, err := parseAssignments(predictAt)
		if err != nil {
			return err
		}
		opt, err := singleModelOptions(args[0], f)
		if err != nil {
			return err
		}
		opt.Models = []model.Formula{f}
		res, err := pipeline.Run(opt)
		if err != nil {
			return err
		}
		p, odds, err := summary.OddsAt(res.Fits[0].Model, values)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		ux.Title(out, f.String())
		for _, name := range f.Predictors {
			fmt.Fprintf(out, "  %s = %g\n", name, values[name])
		}
		fmt.Fprintf(out, "probability: %.4f\nodds: %.4f\nlog-odds: %.4f\n", p, odds, math.Log(odds))
		return nil
	},
}

func parseAssignments(ss []string) (map[string]float64, error) {
	out := make(map[string]float64, len(ss))
	for _, s := range ss {
		name, val, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --at %q (use name=value)", s)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number for %s: %w", name, err)
		}
		out[name] = x
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(predictCmd)
	predictCmd.Flags().StringArrayVar(&predictAt, "at", nil, "predictor value as name=value (repeatable)")
}
