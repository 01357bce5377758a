package log

import (
	"fmt"
	stdlog "log"
	"strings"
)

// Config declaratively describes a logger.
type Config struct {
	// Level is the minimum level name: debug|info|warn|error.
	Level string
	// Format selects the formatter: text|json.
	Format string
}

// ApplyConfig builds a Logger from a declarative Config.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	var formatter Formatter
	switch cfg.Format {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}
	return NewLogger(
		WithLevel(level),
		WithFormatter(formatter),
		WithOutput(NewConsoleOutput()),
	), nil
}

// RedirectStdLog routes standard library logs (used by Pebble) through the
// given logger at info level.
func RedirectStdLog(logger Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(stdLogWriter{logger: logger})
}

type stdLogWriter struct {
	logger Logger
}

func (w stdLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg != "" {
		w.logger.Info(msg, Component("stdlog"))
	}
	return len(p), nil
}
