// File path: internal/nfr/config.go
package nfr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// ExampleLimit is how many seed examples are woven into each prompt.
	ExampleLimit int `json:"example_limit"`
	// MaxPerRequirement caps how many NFRs a single FR may yield.
	MaxPerRequirement int `json:"max_per_requirement"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if override.ExampleLimit > 0 {
		result.ExampleLimit = override.ExampleLimit
	}
	if override.MaxPerRequirement > 0 {
		result.MaxPerRequirement = override.MaxPerRequirement
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("NFR_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read nfr config: %w", err)
		}
		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse nfr config: %w", err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	if limit := strings.TrimSpace(os.Getenv("NFR_EXAMPLE_LIMIT")); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil {
			return Config{}, fmt.Errorf("parse NFR_EXAMPLE_LIMIT: %w", err)
		}
		if value > 0 {
			cfg.ExampleLimit = value
		}
	}
	if max := strings.TrimSpace(os.Getenv("NFR_MAX_PER_REQUIREMENT")); max != "" {
		value, err := strconv.Atoi(max)
		if err != nil {
			return Config{}, fmt.Errorf("parse NFR_MAX_PER_REQUIREMENT: %w", err)
		}
		if value > 0 {
			cfg.MaxPerRequirement = value
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ExampleLimit <= 0 {
		c.ExampleLimit = 3
	}
	if c.MaxPerRequirement <= 0 {
		c.MaxPerRequirement = 3
	}
}
