// File path: internal/risk/config.go
package risk

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Weights blend the three completion signals into the final risk score. They
// must sum to 1.
type Weights struct {
	FR          float64 `json:"fr"`
	NFR         float64 `json:"nfr"`
	Compilation float64 `json:"compilation"`
}

func (w Weights) Validate() error {
	for name, value := range map[string]float64{
		"fr": w.FR, "nfr": w.NFR, "compilation": w.Compilation,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%w: %s weight %.3f outside [0, 1]", ErrInvalidWeights, name, value)
		}
	}
	if sum := w.FR + w.NFR + w.Compilation; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("%w: weights sum to %.3f, want 1.0", ErrInvalidWeights, sum)
	}
	return nil
}

type Config struct {
	Weights Weights `json:"weights"`

	// LowThreshold and MediumThreshold split the final score into the
	// low / medium / high recommendation tiers.
	LowThreshold    float64 `json:"low_threshold"`
	MediumThreshold float64 `json:"medium_threshold"`
}

func (c Config) Merge(override Config) Config {
	result := c
	if override.Weights.FR > 0 || override.Weights.NFR > 0 || override.Weights.Compilation > 0 {
		result.Weights = override.Weights
	}
	if override.LowThreshold > 0 {
		result.LowThreshold = override.LowThreshold
	}
	if override.MediumThreshold > 0 {
		result.MediumThreshold = override.MediumThreshold
	}
	return result
}

func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("RISK_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read risk config: %w", err)
		}
		var fileCfg Config
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse risk config: %w", err)
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadConfigEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	if err := cfg.Weights.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Weights.FR == 0 && c.Weights.NFR == 0 && c.Weights.Compilation == 0 {
		third := 1.0 / 3.0
		c.Weights = Weights{FR: third, NFR: third, Compilation: third}
	}
	if c.LowThreshold <= 0 {
		c.LowThreshold = 85
	}
	if c.MediumThreshold <= 0 {
		c.MediumThreshold = 60
	}
}

func loadConfigEnv() (Config, error) {
	cfg := Config{}
	weightEnvs := map[string]*float64{
		"RISK_FR_WEIGHT":          &cfg.Weights.FR,
		"RISK_NFR_WEIGHT":         &cfg.Weights.NFR,
		"RISK_COMPILATION_WEIGHT": &cfg.Weights.Compilation,
	}
	for env, target := range weightEnvs {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", env, err)
		}
		*target = value
	}
	if raw := strings.TrimSpace(os.Getenv("RISK_LOW_THRESHOLD")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse RISK_LOW_THRESHOLD: %w", err)
		}
		cfg.LowThreshold = value
	}
	if raw := strings.TrimSpace(os.Getenv("RISK_MEDIUM_THRESHOLD")); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse RISK_MEDIUM_THRESHOLD: %w", err)
		}
		cfg.MediumThreshold = value
	}
	return cfg, nil
}
