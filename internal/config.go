package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of the promptlib CLI
type Config struct {
	Baseline      string        `mapstructure:"baseline"`
	Store         string        `mapstructure:"store"`
	VersionSort   string        `mapstructure:"version_sort"`
	AutosaveDelay time.Duration `mapstructure:"autosave_delay"`
	OpenRetries   uint          `mapstructure:"open_retries"`
	LogLevel      string        `mapstructure:"log_level"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	return Config{
		Baseline:      "data.yml",
		Store:         DefaultStorePath(),
		VersionSort:   "lexical",
		AutosaveDelay: DefaultAutosaveDelay,
		OpenRetries:   3,
		LogLevel:      "info",
	}
}

// DefaultStorePath returns ~/.promptlib/store.db, or a relative path when
// the home directory is unknown.
func DefaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".promptlib", "store.db")
	}
	return filepath.Join(home, ".promptlib", "store.db")
}

// LoadConfig reads .env, the config file, PROMPTLIB_* variables and the
// given flags, in increasing precedence. A missing config file is fine.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		LogWarn("Ignoring .env: %v", err)
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("baseline", defaults.Baseline)
	v.SetDefault("store", defaults.Store)
	v.SetDefault("version_sort", defaults.VersionSort)
	v.SetDefault("autosave_delay", defaults.AutosaveDelay)
	v.SetDefault("open_retries", defaults.OpenRetries)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix("PROMPTLIB")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.promptlib")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		LogDebug("Using config file %s", v.ConfigFileUsed())
	}

	if flags != nil {
		for _, name := range []string{"baseline", "store"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(name, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have a fixed set of choices
func (c *Config) Validate() error {
	if _, err := ParseVersionSort(c.VersionSort); err != nil {
		return fmt.Errorf("invalid version_sort: %w", err)
	}
	if c.AutosaveDelay < 0 {
		return fmt.Errorf("invalid autosave_delay: %s", c.AutosaveDelay)
	}
	return nil
}

// LibraryOptions converts the config into library options
func (c *Config) LibraryOptions() Options {
	order, _ := ParseVersionSort(c.VersionSort)
	return Options{VersionSort: order}
}
