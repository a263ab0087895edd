package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/regress-cli/internal/config"
	"github.com/KaramelBytes/regress-cli/internal/dataset"
	"github.com/KaramelBytes/regress-cli/internal/pipeline"
	"github.com/KaramelBytes/regress-cli/internal/ux"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagLogFormat string
	flagDelimiter string
	flagSheet     string

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "regress",
	Short: "regress: logistic regression walkthrough for traffic-stop data",
	Long: `regress loads a traffic-stop CSV, drops incomplete rows, checks the outcome
balance and fits linear and logistic models, reporting coefficients, odds
ratios, McFadden pseudo-R² and likelihood-ratio tests.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ux.Error(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.regress/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "worksheet to read from .xlsx input (default first)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		cfg, cfgErr = nil, err
		initLogger("warn", flagLogFormat)
		return
	}
	cfg, cfgErr = c, nil

	f := rootCmd.PersistentFlags()
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}
	if f.Changed("log-format") {
		cfg.LogFormat = flagLogFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	initLogger(cfg.LogLevel, cfg.LogFormat)
}

// settings returns the loaded configuration or the error that prevented it.
func settings() (*cfgpkg.Global, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, cfgErr
		}
		loadConfig()
		if cfgErr != nil {
			return nil, cfgErr
		}
	}
	return cfg, nil
}

func initLogger(level, format string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)

	if format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// baseOptions builds pipeline options for path from the loaded configuration.
func baseOptions(path string) (pipeline.Options, error) {
	c, err := settings()
	if err != nil {
		return pipeline.Options{}, err
	}
	opt, err := pipeline.OptionsFromConfig(c, path)
	if err != nil {
		return pipeline.Options{}, err
	}
	opt.Load.Sheet = flagSheet
	return opt, nil
}

// loadOptions returns the file-reading subset of the configuration.
func loadOptions() (dataset.LoadOptions, error) {
	opt, err := baseOptions("")
	if err != nil {
		return dataset.LoadOptions{}, err
	}
	return opt.Load, nil
}
