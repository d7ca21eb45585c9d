// Package config loads CLI settings from defaults, an optional YAML file
// and RIBCORE_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds the settings for one ribcore run.
type Config struct {
	LogLevel       string        `yaml:"log_level"        env:"RIBCORE_LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format"       env:"RIBCORE_LOG_FORMAT"`
	EvalTimeout    time.Duration `yaml:"eval_timeout"     env:"RIBCORE_EVAL_TIMEOUT"`
	MaxScriptBytes int64         `yaml:"max_script_bytes" env:"RIBCORE_MAX_SCRIPT_BYTES"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:       "info",
		LogFormat:      "text",
		EvalTimeout:    5 * time.Second,
		MaxScriptBytes: 16 << 20,
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.EvalTimeout <= 0 {
		return fmt.Errorf("eval_timeout must be positive, got %s", c.EvalTimeout)
	}
	if c.MaxScriptBytes <= 0 {
		return fmt.Errorf("max_script_bytes must be positive, got %d", c.MaxScriptBytes)
	}
	return nil
}
