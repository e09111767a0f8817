package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/jgivc/cpldtracker/internal/common"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	defaultCountry        = "en-us"
	defaultOutPath        = "docs/cpld_latest.json"
	defaultRetries        = 3
	defaultBackoffSeconds = 2.0

	envCountry  = "CPLD_COUNTRY"
	envOutPath  = "CPLD_OUT_PATH"
	envLogLevel = "CPLD_LOG_LEVEL"
)

type APIConfig struct {
	Retries        int     `yaml:"retries"`
	BackoffSeconds float64 `yaml:"backoff_seconds"`
}

// ServerEntry is one target server model. ProductCode is required and is the
// correlation key in the snapshot; OSCodes may be empty, the selector then
// falls back to its default list.
type ServerEntry struct {
	ProductCode string   `yaml:"productcode"`
	OSCodes     []string `yaml:"oscodes"`
}

type Config struct {
	Country  string        `yaml:"country"`
	OutPath  string        `yaml:"out_path"`
	LogLevel string        `yaml:"log_level"`
	API      APIConfig     `yaml:"api"`
	Servers  []ServerEntry `yaml:"servers"`
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load reads the YAML config and applies env overrides on top. A .env file
// in the working directory is honored if present.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	cfg := Config{
		Country:  defaultCountry,
		OutPath:  defaultOutPath,
		LogLevel: LogLevelInfo,
		API: APIConfig{
			Retries:        defaultRetries,
			BackoffSeconds: defaultBackoffSeconds,
		},
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}

	_ = godotenv.Load()
	if v := os.Getenv(envCountry); v != "" {
		cfg.Country = v
	}
	if v := os.Getenv(envOutPath); v != "" {
		cfg.OutPath = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if len(cfg.Servers) == 0 {
		return nil, common.ErrNoServers
	}
	for i := range cfg.Servers {
		if cfg.Servers[i].ProductCode == "" {
			return nil, fmt.Errorf("servers[%d]: %w", i, common.ErrNoProductCode)
		}
	}

	return &cfg, nil
}
