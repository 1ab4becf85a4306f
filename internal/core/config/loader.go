package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Environment variables that override file values when set.
const (
	EnvMode     = "TIKWATCH_MODE"
	EnvUser     = "TIKWATCH_USER"
	EnvAPIKey   = "RAPIDAPI_KEY"
	EnvRedisURL = "REDIS_URL"
)

// Load reads configuration from a YAML file. An empty path yields the defaults.
// Environment overrides apply in both cases.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) applyEnv() {
	if v := os.Getenv(EnvMode); v != "" {
		c.Mode = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		c.User = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Sources.Premium.APIKey = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Redis.URL = v
	}
}
