package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/regress-cli/internal/model"
	"github.com/KaramelBytes/regress-cli/internal/pipeline"
	"github.com/KaramelBytes/regress-cli/internal/testutil"
)

// resetFlags clears values and Changed state that persist on the shared
// command tree between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args in an isolated HOME and returns
// stdout, stderr and the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	resetFlags(rootCmd)
	cfg, cfgErr = nil, nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// runCLI is a helper to execute the root command with args.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	out, _, err := execute(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func TestCLI_RunDefaultModels(t *testing.T) {
	data := testutil.WriteStops(t, 800, 5, 40)
	out := runCLI(t, "run", data, "--top", "3")

	for _, h := range []string{"[DATASET SUMMARY]", "[SCHEMA]", "[OUTCOME BALANCE]", "[LINEAR MODELS]", "[LOGIT MODELS]"} {
		assert.Contains(t, out, h)
	}
	assert.Contains(t, out, "Rows: 800 raw, 780 clean (20 dropped for missing values)")
	assert.Contains(t, out, "- ticket ~ mphpct + age + minority + female")
	assert.Contains(t, out, "top 3 fitted probabilities:")
	assert.NotContains(t, out, "[NOTES]")
}

func TestCLI_RunKeepGoing(t *testing.T) {
	data := testutil.WriteStops(t, 300, 9, 0)
	args := []string{"run", data, "-m", "ticket ~ mph + zone + mphover", "-m", "ticket ~ mphover", "--linear", "ticket ~ mphover"}

	_, _, err := execute(t, args...)
	var se *pipeline.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, pipeline.StageFit, se.Stage)
	assert.ErrorIs(t, err, model.ErrCollinear)

	out, stderr, err := execute(t, append(args, "--keep-going")...)
	require.NoError(t, err)
	assert.Contains(t, out, "[NOTES]")
	assert.Contains(t, out, "- ticket ~ mphover (n=300")
	assert.Contains(t, stderr, "⚠ skipped ticket ~ mph + zone + mphover")
}

func TestCLI_RunOutputFile(t *testing.T) {
	data := testutil.WriteStops(t, 200, 2, 0)
	dest := filepath.Join(t.TempDir(), "reports", "run.txt")
	out, stderr, err := execute(t, "run", data, "-m", "ticket ~ minority", "--output", dest)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "✓ Wrote report to "+dest)
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(b), "fitted P(ticket=1) by minority:")
}

func TestCLI_FitAndPredict(t *testing.T) {
	data := testutil.WriteStops(t, 500, 4, 25)

	out := runCLI(t, "fit", data, "ticket ~ mphpct")
	assert.Contains(t, out, "Rows: 500 clean (0 dropped)")
	assert.Contains(t, out, "McFadden R²=")
	assert.Contains(t, out, "(Intercept)")

	out = runCLI(t, "fit", data, "ticket ~ mphpct", "--ols")
	assert.Contains(t, out, "R²=")
	assert.NotContains(t, out, "McFadden")

	out = runCLI(t, "fit", data, "ticket ~ age")
	assert.Contains(t, out, "Rows: 480 clean (20 dropped)")

	out = runCLI(t, "predict", data, "ticket ~ mphpct + minority", "--at", "mphpct=40", "--at", "minority=1")
	assert.True(t, strings.HasPrefix(out, "ticket ~ mphpct + minority\n"), out)
	assert.Contains(t, out, "mphpct = 40")
	assert.Contains(t, out, "probability: 0.")
	assert.Contains(t, out, "log-odds:")

	_, _, err := execute(t, "predict", data, "ticket ~ mphpct + minority", "--at", "mphpct=40")
	assert.Error(t, err)
}

func TestCLI_BalanceCleanDescribe(t *testing.T) {
	data := testutil.WriteStops(t, 400, 6, 100)

	out := runCLI(t, "balance", data)
	assert.Contains(t, out, "[OUTCOME BALANCE]")
	assert.Contains(t, out, "Column: ticket (n=400)")
	assert.Contains(t, out, "Odds of 1:")

	dest := filepath.Join(t.TempDir(), "clean.csv")
	runCLI(t, "clean", data, "--output", dest)
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Equal(t, "ticket,day,mph,zone,mphover,mphpct,age,minority,female", lines[0])
	assert.Len(t, lines, 1+396)

	out = runCLI(t, "clean", data, "--columns", "id,mph")
	assert.True(t, strings.HasPrefix(out, "id,mph\n"))

	out = runCLI(t, "describe", data)
	assert.Contains(t, out, "Rows: 400")
	assert.Contains(t, out, "- age: numeric (non-null 396, missing 1.0%)")
	assert.Contains(t, out, "- minority: binary")
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("outcome: ticket\n"), 0o644))

	runCLI(t, "--config", cfgPath, "config", "set", "models", "ticket ~ 1; ticket ~ mph")
	out := runCLI(t, "--config", cfgPath, "config", "show")
	assert.Contains(t, out, "  - ticket ~ mph\n")
	assert.Contains(t, out, "delimiter: auto")

	_, _, err := execute(t, "--config", cfgPath, "config", "set", "nope", "1")
	assert.Error(t, err)
	_, _, err = execute(t, "--config", cfgPath, "config", "set", "models", "ticket")
	assert.Error(t, err)
}

func TestCLI_MissingFile(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "absent.csv"))
	var se *pipeline.StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, pipeline.StageLoad, se.Stage)
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"mphpct=12.5", " age = 30 "})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"mphpct": 12.5, "age": 30}, got)

	_, err = parseAssignments([]string{"age"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"age=old"})
	assert.Error(t, err)
}
