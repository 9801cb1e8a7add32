// File path: internal/workflow/config.go
package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// MaxRetries bounds how often a model-backed step is retried before the
	// pipeline fails.
	MaxRetries int `json:"max_retries"`

	RetryBackoff       time.Duration `json:"-"`
	RetryBackoffString string        `json:"retry_backoff"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if override.MaxRetries > 0 {
		result.MaxRetries = override.MaxRetries
	}
	if override.RetryBackoff > 0 {
		result.RetryBackoff = override.RetryBackoff
	}
	if strings.TrimSpace(override.RetryBackoffString) != "" {
		result.RetryBackoffString = strings.TrimSpace(override.RetryBackoffString)
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("WORKFLOW_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read workflow config: %w", err)
		}
		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse workflow config: %w", err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	if retries := strings.TrimSpace(os.Getenv("WORKFLOW_MAX_RETRIES")); retries != "" {
		value, err := strconv.Atoi(retries)
		if err != nil {
			return Config{}, fmt.Errorf("parse WORKFLOW_MAX_RETRIES: %w", err)
		}
		if value > 0 {
			cfg.MaxRetries = value
		}
	}
	if backoff := strings.TrimSpace(os.Getenv("WORKFLOW_RETRY_BACKOFF")); backoff != "" {
		cfg.RetryBackoffString = backoff
		if parsed, err := time.ParseDuration(backoff); err == nil {
			cfg.RetryBackoff = parsed
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.RetryBackoff <= 0 {
		if c.RetryBackoffString != "" {
			if parsed, err := time.ParseDuration(c.RetryBackoffString); err == nil {
				c.RetryBackoff = parsed
			}
		}
		if c.RetryBackoff <= 0 {
			c.RetryBackoff = 200 * time.Millisecond
		}
	}
}
