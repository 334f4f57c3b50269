package graph

import (
	"fmt"
	"time"
)

// Config holds drive API client configuration.
type Config struct {
	// BaseURL is the API root, e.g. "https://graph.example.com/v1.0".
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout bounds each HTTP call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxAttempts is the retry budget per call for transient failures.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("graph.base_url is required")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("graph.max_attempts must be positive (got: %d)", c.MaxAttempts)
	}
	return nil
}
