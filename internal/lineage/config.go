// File path: internal/lineage/config.go
package lineage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// MaxDepth bounds ancestor walks so a corrupted chain cannot spin the
	// tracker forever.
	MaxDepth int `json:"max_depth"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if override.MaxDepth > 0 {
		result.MaxDepth = override.MaxDepth
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("LINEAGE_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read lineage config: %w", err)
		}
		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse lineage config: %w", err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	if depth := strings.TrimSpace(os.Getenv("LINEAGE_MAX_DEPTH")); depth != "" {
		value, err := strconv.Atoi(depth)
		if err != nil {
			return Config{}, fmt.Errorf("parse LINEAGE_MAX_DEPTH: %w", err)
		}
		if value > 0 {
			cfg.MaxDepth = value
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxDepth <= 0 {
		c.MaxDepth = 1000
	}
}
