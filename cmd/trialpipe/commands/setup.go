// Package commands implements CLI command handlers for trialpipe.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/trialpipe/trialpipe/pkg/config"
	"github.com/trialpipe/trialpipe/pkg/observability"
)

// loadEnvironment loads configuration and constructs the logger every
// command shares.
func loadEnvironment(configPath string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := observability.NewLogger(observability.LoggerConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}

	return cfg, logger, nil
}
