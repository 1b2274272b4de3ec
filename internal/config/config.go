package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region config

// Config is the daemon configuration, loaded from YAML with environment
// overrides for deploy-time fields.
type Config struct {
	Provider string              `yaml:"provider"`
	APIKey   string              `yaml:"api_key"`
	States   map[string][]string `yaml:"states"`

	CacheExpiryMS          int     `yaml:"cache_expiry_ms"`
	CacheCapacity          int     `yaml:"cache_capacity"`
	DebounceMS             int     `yaml:"debounce_ms"`
	RetryCount             int     `yaml:"retry_count"`
	DeterminationThreshold float64 `yaml:"determination_threshold"`

	Listen string `yaml:"listen"`
	DBPath string `yaml:"db_path"`
}

// #endregion config

// #region load

// Load reads the YAML file at path, applies environment overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Provider = envOr("STATEBOT_PROVIDER", c.Provider)
	c.APIKey = envOr("STATEBOT_API_KEY", c.APIKey)
	c.Listen = envOr("STATEBOT_LISTEN", c.Listen)
	c.DBPath = envOr("STATEBOT_DB", c.DBPath)
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DBPath == "" {
		c.DBPath = "statebot.db"
	}
}

func (c *Config) validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if len(c.States) == 0 {
		return fmt.Errorf("states must be non-empty")
	}
	return nil
}

// #endregion load

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
