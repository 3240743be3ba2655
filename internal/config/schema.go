package config

import "time"

// ProcessConfig is the YAML file that tunes generation and the worker pool.
type ProcessConfig struct {
	Model ModelConfig `yaml:"model"`
	Pool  PoolConfig  `yaml:"pool"`
}

// ModelConfig leaves max_tokens and temperature to the model's own defaults
// when they are omitted; max_tokens 0 means no cap.
type ModelConfig struct {
	Name        string   `yaml:"name"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	Retry       bool     `yaml:"retry"`
}

type PoolConfig struct {
	MaxConcurrency int64         `yaml:"max_concurrency"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}
