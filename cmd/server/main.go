package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/roomset/internal/config"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "roomset",
	Short: "Roomset studio web server",
	Long: `Roomset serves the roomset generator studio: upload a product photo,
pick a style preset or describe a room, and generate lifestyle roomsets.

Configuration is read from config.toml and config.<ROOMSET_ENV>.toml in the
config directory, then overridden by ROOMSET_* environment variables.

Examples:
  roomset
  roomset --config-dir /etc/roomset`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configDir, "config-dir", "c", ".", "Directory containing config.toml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFrom(configDir)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		return fmt.Errorf("server init failed: %w", err)
	}

	srv.infra.Logger.Info(
		"roomset starting",
		"version", cfg.Version,
		"addr", cfg.Server.Addr(),
		"env", cfg.Env(),
	)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server start failed: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	srv.infra.Logger.Info("roomset stopped")
	return nil
}
