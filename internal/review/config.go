// File path: internal/review/config.go
package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type Config struct {
	// WindowSize is how many descendant generations are inspected when
	// deciding whether a suggestion was acted on.
	WindowSize int `json:"window_size"`
	// RecurringThreshold is how many prior classified suggestions with the
	// same category and severity mark an issue as recurring.
	RecurringThreshold int `json:"recurring_threshold"`
	// AcceptThreshold is the minimum token overlap between the suggestion
	// and the rewritten region to call the disposition accepted.
	AcceptThreshold float64 `json:"accept_threshold"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if override.WindowSize > 0 {
		result.WindowSize = override.WindowSize
	}
	if override.RecurringThreshold > 0 {
		result.RecurringThreshold = override.RecurringThreshold
	}
	if override.AcceptThreshold > 0 {
		result.AcceptThreshold = override.AcceptThreshold
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("REVIEW_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read review config: %w", err)
		}
		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse review config: %w", err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	if window := strings.TrimSpace(os.Getenv("REVIEW_WINDOW_SIZE")); window != "" {
		value, err := strconv.Atoi(window)
		if err != nil {
			return Config{}, fmt.Errorf("parse REVIEW_WINDOW_SIZE: %w", err)
		}
		if value > 0 {
			cfg.WindowSize = value
		}
	}
	if recurring := strings.TrimSpace(os.Getenv("REVIEW_RECURRING_THRESHOLD")); recurring != "" {
		value, err := strconv.Atoi(recurring)
		if err != nil {
			return Config{}, fmt.Errorf("parse REVIEW_RECURRING_THRESHOLD: %w", err)
		}
		if value > 0 {
			cfg.RecurringThreshold = value
		}
	}
	if accept := strings.TrimSpace(os.Getenv("REVIEW_ACCEPT_THRESHOLD")); accept != "" {
		value, err := strconv.ParseFloat(accept, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse REVIEW_ACCEPT_THRESHOLD: %w", err)
		}
		if value > 0 && value <= 1 {
			cfg.AcceptThreshold = value
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.WindowSize <= 0 {
		c.WindowSize = 5
	}
	if c.RecurringThreshold <= 0 {
		c.RecurringThreshold = 3
	}
	if c.AcceptThreshold <= 0 || c.AcceptThreshold > 1 {
		c.AcceptThreshold = 0.5
	}
}
