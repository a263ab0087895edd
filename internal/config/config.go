package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultColumns are the traffic-stop fields retained by cleaning.
var DefaultColumns = []string{"ticket", "day", "mph", "zone", "mphover", "mphpct", "age", "minority", "female"}

// Global configuration structure.
type Global struct {
	Delimiter    string   `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalComma bool     `mapstructure:"decimal_comma" yaml:"decimal_comma"`
	NAValues     []string `mapstructure:"na_values" yaml:"na_values"`
	Outcome      string   `mapstructure:"outcome" yaml:"outcome"`
	Columns      []string `mapstructure:"columns" yaml:"columns"`
	// Models are logit formulas fitted in order; LinearModels are OLS formulas.
	Models       []string `mapstructure:"models" yaml:"models"`
	LinearModels []string `mapstructure:"linear_models" yaml:"linear_models"`
	MaxIter      int      `mapstructure:"max_iter" yaml:"max_iter"`
	Tolerance    float64  `mapstructure:"tolerance" yaml:"tolerance"`
	TopN         int      `mapstructure:"top_n" yaml:"top_n"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

func defaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".regress", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.regress/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := defaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("REGRESS")
	v.AutomaticEnv()

	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_comma", false)
	v.SetDefault("na_values", []string{})
	v.SetDefault("outcome", "ticket")
	v.SetDefault("columns", DefaultColumns)
	v.SetDefault("models", []string{
		"ticket ~ 1",
		"ticket ~ mphpct",
		"ticket ~ minority",
		"ticket ~ mphpct + age + minority + female",
	})
	v.SetDefault("linear_models", []string{"ticket ~ mphpct"})
	v.SetDefault("max_iter", 25)
	v.SetDefault("tolerance", 1e-8)
	v.SetDefault("top_n", 10)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		p, err := defaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(c.NAValues) == 0 {
		c.NAValues = nil
	}
	return &c, nil
}
