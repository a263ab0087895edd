package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/regress-cli/internal/config"
	"github.com/KaramelBytes/regress-cli/internal/model"
	"github.com/KaramelBytes/regress-cli/internal/pipeline"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set regress configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		delim := c.Delimiter
		if delim == "" {
			delim = "auto"
		}
		fmt.Fprintf(out, "delimiter: %s\n", delim)
		fmt.Fprintf(out, "decimal_comma: %t\n", c.DecimalComma)
		if len(c.NAValues) > 0 {
			fmt.Fprintf(out, "na_values: %s\n", strings.Join(c.NAValues, ", "))
		}
		fmt.Fprintf(out, "outcome: %s\n", c.Outcome)
		fmt.Fprintf(out, "columns: %s\n", strings.Join(c.Columns, ", "))
		fmt.Fprintln(out, "models:")
		for _, m := range c.Models {
			fmt.Fprintf(out, "  - %s\n", m)
		}
		fmt.Fprintln(out, "linear_models:")
		for _, m := range c.LinearModels {
			fmt.Fprintf(out, "  - %s\n", m)
		}
		fmt.Fprintf(out, "max_iter: %d\n", c.MaxIter)
		fmt.Fprintf(out, "tolerance: %g\n", c.Tolerance)
		fmt.Fprintf(out, "top_n: %d\n", c.TopN)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. List keys (columns, na_values,
models, linear_models) take comma- or semicolon-separated values; models are
split on ';' since formulas never contain one.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := settings()
		if err != nil {
			// an unreadable file can still be replaced
			if c, err = cfgpkg.Load(""); err != nil {
				return err
			}
		}
		if err := applySetting(c, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func applySetting(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "delimiter":
		if _, err := pipeline.ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "decimal_comma":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for decimal_comma: %v", val)
		}
		c.DecimalComma = b
	case "na_values":
		c.NAValues = splitList(val, ",")
	case "outcome":
		c.Outcome = strings.TrimSpace(val)
	case "columns":
		c.Columns = splitList(val, ",")
	case "models", "linear_models":
		list := splitList(val, ";")
		for _, s := range list {
			if _, err := model.ParseFormula(s); err != nil {
				return err
			}
		}
		if key == "models" {
			c.Models = list
		} else {
			c.LinearModels = list
		}
	case "max_iter":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid int for max_iter: %v", val)
		}
		c.MaxIter = i
	case "tolerance":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return fmt.Errorf("invalid float for tolerance: %v", val)
		}
		c.Tolerance = f
	case "top_n":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for top_n: %v", val)
		}
		c.TopN = i
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
		}
	case "log_format":
		switch val {
		case "text", "json":
			c.LogFormat = val
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
