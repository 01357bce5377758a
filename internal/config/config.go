package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	HTTPAddr        string `json:"httpAddr" yaml:"httpAddr"`
	DataDir         string `json:"dataDir" yaml:"dataDir"`
	Fsync           string `json:"fsync" yaml:"fsync"`
	FsyncIntervalMS int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	DefaultColor    string `json:"defaultColor" yaml:"defaultColor"`
	UTCOffsetHours  int    `json:"utcOffsetHours" yaml:"utcOffsetHours"`
	Limits          Limits `json:"limits" yaml:"limits"`
	Log             Log    `json:"log" yaml:"log"`
}

// Limits bounds per-connection resource usage.
type Limits struct {
	MaxMessageBytes int64 `json:"maxMessageBytes" yaml:"maxMessageBytes"`
	SendTimeoutMS   int   `json:"sendTimeoutMs" yaml:"sendTimeoutMs"`
}

// Log configures the logging facade.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		Fsync:           "interval",
		FsyncIntervalMS: 5,
		DefaultColor:    "blue",
		UTCOffsetHours:  8,
		Limits: Limits{
			MaxMessageBytes: 64 << 10,
			SendTimeoutMS:   5000,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
