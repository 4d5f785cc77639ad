// Package main provides the eventpilot binary entry point.
// Eventpilot turns free-text corporate event descriptions into structured
// plans and venue shortlists via a fixed planning pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	// Register LLM providers via init()
	_ "github.com/c360studio/eventpilot/llm/providers"

	"github.com/c360studio/eventpilot/config"
	"github.com/spf13/cobra"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "eventpilot"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Event planning pipeline",
		Long: `Eventpilot turns free-text corporate event descriptions into
structured plans and venue shortlists.

A request flows through a fixed pipeline: parse, validate, plan,
venue search. Each stage degrades gracefully where it can; completed
results are cached so repeated requests answer instantly.`,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(&configPath, &logLevel))
	cmd.AddCommand(planCmd(&configPath, &logLevel))
	cmd.AddCommand(configCmd(&configPath))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

func serveCmd(configPath, logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP planning service",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging(*logLevel)

			cfg, err := loadConfig(*configPath, logger)
			if err != nil {
				return err
			}

			app, err := NewApp(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app.StartWatcher(ctx)
			logger.Info("Eventpilot ready", "version", Version, "addr", cfg.Server.Addr)
			return app.Serve(ctx)
		},
	}
}

func planCmd(configPath, logLevel *string) *cobra.Command {
	var refinement string

	cmd := &cobra.Command{
		Use:   "plan <description>",
		Short: "Run a single planning request and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging(*logLevel)

			cfg, err := loadConfig(*configPath, logger)
			if err != nil {
				return err
			}

			app, err := NewApp(cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := context.WithTimeout(context.Background(), planTimeout)
			defer cancel()

			text := strings.Join(args, " ")
			result, err := runOnce(ctx, app, text, refinement)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&refinement, "refine", "r", "", "Additional requirements applied on top of the description")
	return cmd
}

func runOnce(ctx context.Context, app *App, text, refinement string) (any, error) {
	if refinement != "" {
		return app.Orchestrator.Refine(ctx, text, refinement)
	}
	return app.Orchestrator.Plan(ctx, text)
}

func configCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging("warn")

			cfg, err := loadConfig(*configPath, logger)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

// loadConfig reads an explicit config file or falls back to the layered
// loader (defaults, user config, project config, environment).
func loadConfig(path string, logger *slog.Logger) (*config.Config, error) {
	if path != "" {
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	return config.NewLoader(logger).Load()
}

// setupLogging installs the default text logger at the requested level.
func setupLogging(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
