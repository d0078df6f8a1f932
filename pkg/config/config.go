// Package config provides configuration loading and validation for the
// trialpipe pipeline tools.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidInterval  = errors.New("checkpoint interval must be positive")
	ErrEmptyOutputRoot  = errors.New("output root must not be empty")
	ErrEmptyCheckpoints = errors.New("checkpoint root must not be empty")
)

// Default configuration values.
const (
	defaultCheckpointRoot     = "output/checkpoints"
	defaultCheckpointInterval = 50
	defaultOutputRoot         = "output"
	defaultMetricsListen      = ":9090"
)

// Config holds all configuration for the trialpipe tools.
type Config struct {
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Output     OutputConfig     `mapstructure:"output"`
	Validation ValidationConfig `mapstructure:"validation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// CheckpointConfig holds checkpoint-store configuration.
type CheckpointConfig struct {
	Root     string `mapstructure:"root"`
	Interval int    `mapstructure:"interval"`
	Compress bool   `mapstructure:"compress"`
}

// OutputConfig holds pipeline output locations.
type OutputConfig struct {
	Root string `mapstructure:"root"`
}

// ValidationConfig holds validation-run configuration.
type ValidationConfig struct {
	StrictSchema bool `mapstructure:"strict_schema"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/trialpipe")
	}

	viperCfg.SetEnvPrefix("TRIALPIPE")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Checkpoint defaults.
	viperCfg.SetDefault("checkpoint.root", defaultCheckpointRoot)
	viperCfg.SetDefault("checkpoint.interval", defaultCheckpointInterval)
	viperCfg.SetDefault("checkpoint.compress", false)

	// Output defaults.
	viperCfg.SetDefault("output.root", defaultOutputRoot)

	// Validation defaults.
	viperCfg.SetDefault("validation.strict_schema", false)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")
	viperCfg.SetDefault("logging.output", "stderr")

	// Metrics defaults.
	viperCfg.SetDefault("metrics.enabled", false)
	viperCfg.SetDefault("metrics.listen", defaultMetricsListen)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Checkpoint.Interval <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, config.Checkpoint.Interval)
	}

	if config.Checkpoint.Root == "" {
		return ErrEmptyCheckpoints
	}

	if config.Output.Root == "" {
		return ErrEmptyOutputRoot
	}

	return nil
}
