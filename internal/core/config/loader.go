package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/europeana/metis-tools/internal/core/retry"
)

const (
	defaultBatchSize = 500
	defaultSeparator = ":"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Fields absent from the file keep these values.
	cfg := AppConfig{
		Retry: retry.DefaultPolicy(),
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	if cfg.Jobs.BatchSize <= 0 {
		cfg.Jobs.BatchSize = defaultBatchSize
	}
	if cfg.Namespaces.Separator == "" {
		cfg.Namespaces.Separator = defaultSeparator
	}
	if len(cfg.Namespaces.Bindings) == 0 {
		cfg.Namespaces.Bindings = DefaultNamespaceBindings
	}

	return &cfg, nil
}
