package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath     = "configs/process.yaml"
	DefaultModelName      = "gemma2:2b"
	DefaultMaxConcurrency = 4
	DefaultRequestTimeout = 120 * time.Second
)

// LoadProcessConfig reads PROCESS_CONFIG_PATH (or the default path). A missing
// default file yields the built-in defaults; a missing explicit file is an error.
func LoadProcessConfig() (*ProcessConfig, error) {
	path := os.Getenv("PROCESS_CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}

	var cfg ProcessConfig

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProcessConfig) {
	if cfg.Model.Name == "" {
		cfg.Model.Name = DefaultModelName
	}
	if cfg.Pool.MaxConcurrency == 0 {
		cfg.Pool.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Pool.RequestTimeout == 0 {
		cfg.Pool.RequestTimeout = DefaultRequestTimeout
	}
}

func (c *ProcessConfig) Validate() error {
	if c.Model.MaxTokens < 0 {
		return fmt.Errorf("model.max_tokens must not be negative, got %d", c.Model.MaxTokens)
	}
	if c.Model.Temperature != nil && (*c.Model.Temperature < 0 || *c.Model.Temperature > 2) {
		return fmt.Errorf("model.temperature must be within [0, 2], got %f", *c.Model.Temperature)
	}
	if c.Pool.MaxConcurrency < 1 {
		return fmt.Errorf("pool.max_concurrency must be at least 1, got %d", c.Pool.MaxConcurrency)
	}
	if c.Pool.RequestTimeout < 0 {
		return fmt.Errorf("pool.request_timeout must not be negative, got %s", c.Pool.RequestTimeout)
	}
	return nil
}
