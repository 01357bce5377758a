package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/calhub/internal/cmd/client"
	serverrun "github.com/rzbill/calhub/internal/cmd/server"
	cfgpkg "github.com/rzbill/calhub/internal/config"
	logpkg "github.com/rzbill/calhub/pkg/log"
)

func main() {
	// Respect CALHUB_LOG_LEVEL for CLI output before any config is loaded.
	level := os.Getenv("CALHUB_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "calhub",
		Short: "Calhub shared calendar CLI",
		Long:  "Calhub is a real-time shared calendar server. This CLI manages the server and talks to its REST API.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start calhub server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfgpkg.FromEnv(&cfg)
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			if httpAddr != "" {
				cfg.HTTPAddr = httpAddr
			}
			if fsyncMode != "" {
				switch fsyncMode {
				case "always", "interval", "never":
					cfg.Fsync = fsyncMode
				default:
					return fmt.Errorf("invalid --fsync; use always|interval|never")
				}
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("config", "", "Config file (JSON or YAML)")
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default :8080)")
	serverStartCmd.Flags().String("fsync", "", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().String("log-level", os.Getenv("CALHUB_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("CALHUB_LOG_FORMAT"), "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// client commands over the REST API
	rootCmd.AddCommand(clientcmd.NewEventsCommand(apiURL))
	rootCmd.AddCommand(clientcmd.NewHealthCommand(apiURL))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("CALHUB_API"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
