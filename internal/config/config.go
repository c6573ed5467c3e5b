package config

import (
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const configFileName = "vidloader"

// Config holds the configuration options for the application.
type Config struct {
	DataDir            string        `yaml:"dataDir,omitempty"`
	DBPath             string        `yaml:"dbPath,omitempty"`
	LogPath            string        `yaml:"logPath,omitempty"`
	MaxConcurrentLoads int           `yaml:"maxConcurrentLoads,omitempty"`
	DrainInterval      time.Duration `yaml:"drainInterval,omitempty"`
	Http               *HttpConfig   `yaml:"http,omitempty"`
}

// HttpConfig holds configuration options for stream requests.
type HttpConfig struct {
	UserAgent      string            `yaml:"userAgent,omitempty"`
	RequestTimeout time.Duration     `yaml:"requestTimeout,omitempty"`
	Headers        map[string]string `yaml:"headers,omitempty"`
}

// Path returns the location of the configuration file.
func Path() string {
	return filepath.Join(xdg.ConfigHome, configFileName)
}

// GetConfig reads the configuration file and returns a Config struct.
// If the configuration file does not exist, it returns the default configuration.
func GetConfig() (*Config, error) {
	defaults := DefaultConfig()

	b, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return &defaults, nil
		}

		return nil, err
	}

	if len(b) == 0 {
		return &defaults, nil
	}

	var cfg Config

	err = yaml.Unmarshal(b, &cfg)
	if err != nil {
		return nil, err
	}

	httpCfg := zeroOr(cfg.Http, defaults.Http)

	return &Config{
		DataDir:            zeroOr(cfg.DataDir, defaults.DataDir),
		DBPath:             zeroOr(cfg.DBPath, defaults.DBPath),
		LogPath:            zeroOr(cfg.LogPath, defaults.LogPath),
		MaxConcurrentLoads: zeroOr(cfg.MaxConcurrentLoads, defaults.MaxConcurrentLoads),
		DrainInterval:      zeroOr(cfg.DrainInterval, defaults.DrainInterval),
		Http: &HttpConfig{
			UserAgent:      zeroOr(httpCfg.UserAgent, defaults.Http.UserAgent),
			RequestTimeout: zeroOr(httpCfg.RequestTimeout, defaults.Http.RequestTimeout),
			Headers:        zeroOr(httpCfg.Headers, defaults.Http.Headers),
		},
	}, nil
}

func DefaultConfig() Config {
	return Config{
		DataDir:            dataDir,
		DBPath:             dbPath,
		LogPath:            logPath,
		MaxConcurrentLoads: maxConcurrentLoads,
		DrainInterval:      drainInterval,
		Http: &HttpConfig{
			UserAgent:      userAgent,
			RequestTimeout: requestTimeout,
		},
	}
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T any](v, def T) T {
	if reflect.ValueOf(v).IsZero() {
		return def
	}

	return v
}
