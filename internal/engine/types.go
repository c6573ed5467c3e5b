package engine

import (
	"time"

	"github.com/NamanBalaji/vidloader/internal/config"
)

// Config contains orchestration settings
type Config struct {
	DataDir            string            // Root that item paths are relative to
	MaxConcurrentLoads int               // Items loading at the same time
	DrainInterval      time.Duration     // How often Run drains the relay
	MaxRetries         int               // Reloads after a retryable failure
	RetryDelay         time.Duration     // Initial backoff between reloads
	Headers            map[string]string // Sent with every request unless the item overrides them
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() *Config {
	return FromAppConfig(config.DefaultConfig())
}

// FromAppConfig derives engine settings from the application configuration
func FromAppConfig(cfg config.Config) *Config {
	c := &Config{
		DataDir:            cfg.DataDir,
		MaxConcurrentLoads: cfg.MaxConcurrentLoads,
		DrainInterval:      cfg.DrainInterval,
		MaxRetries:         3,
		RetryDelay:         time.Second,
	}
	if cfg.Http != nil {
		c.Headers = cfg.Http.Headers
	}
	return c
}
