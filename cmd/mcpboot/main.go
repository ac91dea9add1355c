package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/i2y/mcpboot/configs"
	"github.com/i2y/mcpboot/internal/bootloader"
	"github.com/i2y/mcpboot/internal/demo"
	"github.com/i2y/mcpboot/internal/usecase"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var transport string

	rootCmd := &cobra.Command{
		Use:   "mcpboot",
		Short: "Serve catalogued Go types as MCP tools",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(transport)
			if err != nil {
				return err
			}
			if !cfg.CanServeMCP() {
				return cmd.Help()
			}
			return runMCP(cmd.Context(), cfg)
		},
	}
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "", "Transport mode: http, stream or stdio (overrides MCP_TRANSPORT)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(transport)
			if err != nil {
				return err
			}
			return runMCP(cmd.Context(), cfg)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "Print the discovered tools as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(transport)
			if err != nil {
				return err
			}
			return listTools(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	})
	return rootCmd
}

func loadConfig(transport string) (*configs.Config, error) {
	cfg, err := configs.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if transport != "" {
		cfg.Transport = transport
	}
	return cfg, nil
}

// newLogger logs to stderr, or to the log file in stdio mode so logs never
// interleave with the protocol stream.
func newLogger(cfg *configs.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.ParsedLogLevel()}
	if cfg.TransportKind() != configs.TransportStdio {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, opts))
	}
	return slog.New(slog.NewTextHandler(logFile, opts))
}

// tools registers the tools served by this binary.
func tools() fx.Option {
	return fx.Invoke(demo.Register, demo.RegisterManual)
}

func runMCP(ctx context.Context, cfg *configs.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Logger initialized.", slog.String("level", cfg.ParsedLogLevel().String()), slog.String("transport", cfg.TransportKind()))

	var dispatcher *bootloader.Dispatcher
	app := bootloader.New(cfg, logger, tools(), fx.Populate(&dispatcher))
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			logger.Error("Failed to stop application.", slog.Any("error", err))
		}
	}()

	dispatcher.Serve(ctx)
	return nil
}

func listTools(ctx context.Context, cfg *configs.Config, out io.Writer) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var serveTools *usecase.ServeToolsUseCase
	app := bootloader.New(cfg, logger, tools(), fx.Populate(&serveTools))
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() { _ = app.Stop(context.Background()) }()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(serveTools.Execute(ctx))
}
