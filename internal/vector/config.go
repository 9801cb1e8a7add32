// File path: internal/vector/config.go
package vector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// Dimension pins the embedding dimensionality. Zero lets the first
	// inserted vector decide.
	Dimension int `json:"dimension"`
	// DefaultLimit is used when a query does not request an explicit k.
	DefaultLimit int `json:"default_limit"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if override.Dimension > 0 {
		result.Dimension = override.Dimension
	}
	if override.DefaultLimit > 0 {
		result.DefaultLimit = override.DefaultLimit
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("VECTOR_CONFIG_FILE")); path != "" {
		fileCfg, err := loadConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadConfigEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 5
	}
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read vector config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse vector config: %w", err)
	}
	return cfg, nil
}

func loadConfigEnv() (Config, error) {
	cfg := Config{}
	if dim := strings.TrimSpace(os.Getenv("VECTOR_DIMENSION")); dim != "" {
		value, err := strconv.Atoi(dim)
		if err != nil {
			return Config{}, fmt.Errorf("parse VECTOR_DIMENSION: %w", err)
		}
		if value > 0 {
			cfg.Dimension = value
		}
	}
	if limit := strings.TrimSpace(os.Getenv("VECTOR_DEFAULT_LIMIT")); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil {
			return Config{}, fmt.Errorf("parse VECTOR_DEFAULT_LIMIT: %w", err)
		}
		if value > 0 {
			cfg.DefaultLimit = value
		}
	}
	return cfg, nil
}
