package config

import (
	"fmt"
	"strings"

	"github.com/devdesc/devdesc-go/pkg/log"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DEVDESC_LOG_LEVEL.
const EnvPrefix = "DEVDESC"

type Config struct {
	Descriptions DescriptionsConfig `mapstructure:"descriptions"`
	Log          LogConfig          `mapstructure:"log"`
	Shell        ShellConfig        `mapstructure:"shell"`
}

type DescriptionsConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
	Family      int64    `mapstructure:"family"`
	Concurrency int      `mapstructure:"concurrency"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	CaptureFile string `mapstructure:"capture_file"`
}

type ShellConfig struct {
	HistoryFile string `mapstructure:"history_file"`
}

// Load reads the config file at path on top of the defaults. An empty path
// uses the defaults and the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("descriptions.search_paths", []string{"descriptions"})
	v.SetDefault("descriptions.family", 0)
	v.SetDefault("descriptions.concurrency", 0)
	v.SetDefault("log.level", "warning")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.capture_file", "")
	v.SetDefault("shell.history_file", "")

	// DEVDESC_DESCRIPTIONS_SEARCH_PATHS and friends
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the values Load cannot type check.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Descriptions.Concurrency < 0 {
		return fmt.Errorf("descriptions.concurrency: must not be negative")
	}
	return nil
}

// MinLevel returns the parsed log level.
func (c *LogConfig) MinLevel() log.Level {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return log.LevelWarning
	}
	return level
}
