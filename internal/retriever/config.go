// File path: internal/retriever/config.go
package retriever

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// DefaultLimit is how many examples a retrieval returns when the caller
	// does not ask for a specific k.
	DefaultLimit int `json:"default_limit"`
	// CacheSize bounds the query embedding LRU.
	CacheSize int `json:"cache_size"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if override.DefaultLimit > 0 {
		result.DefaultLimit = override.DefaultLimit
	}
	if override.CacheSize > 0 {
		result.CacheSize = override.CacheSize
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("RETRIEVER_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read retriever config: %w", err)
		}
		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse retriever config: %w", err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	if limit := strings.TrimSpace(os.Getenv("RETRIEVER_DEFAULT_LIMIT")); limit != "" {
		value, err := strconv.Atoi(limit)
		if err != nil {
			return Config{}, fmt.Errorf("parse RETRIEVER_DEFAULT_LIMIT: %w", err)
		}
		if value > 0 {
			cfg.DefaultLimit = value
		}
	}
	if size := strings.TrimSpace(os.Getenv("RETRIEVER_CACHE_SIZE")); size != "" {
		value, err := strconv.Atoi(size)
		if err != nil {
			return Config{}, fmt.Errorf("parse RETRIEVER_CACHE_SIZE: %w", err)
		}
		if value > 0 {
			cfg.CacheSize = value
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 3
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 128
	}
}
