package config

import (
	"os"
	"strconv"
)

// FromEnv overlays CALHUB_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("CALHUB_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("CALHUB_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CALHUB_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("CALHUB_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FsyncIntervalMS = n
		}
	}
	if v := os.Getenv("CALHUB_DEFAULT_COLOR"); v != "" {
		cfg.DefaultColor = v
	}
	if v := os.Getenv("CALHUB_UTC_OFFSET_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.UTCOffsetHours = n
		}
	}
	if v := os.Getenv("CALHUB_MAX_MESSAGE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Limits.MaxMessageBytes = n
		}
	}
	if v := os.Getenv("CALHUB_SEND_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.SendTimeoutMS = n
		}
	}
	if v := os.Getenv("CALHUB_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CALHUB_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
