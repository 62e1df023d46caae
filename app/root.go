// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/logger"
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration directory")
}

var (
	configPath string // Path to the configuration directory

	cfg config.Config
	err error

	rootCmd = &cobra.Command{
		Use:   "tenantdesk",
		Short: "tenantdesk is a locally-run administrative console for your tenant",
		Long: `tenantdesk is a locally-run administrative console daemon.
It reconciles the session across its identity backends, serves a local
HTTP API for the console UI and ships commands for signing in, signing
out and inspecting the reconciled state.`,
		Args: cobra.OnlyValidArgs,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and brings up logging. Commands call it
// from their PreRun; anything failing here is not recoverable.
func loadConfig() {
	if cfg, err = config.ReadConfig(configPath); err != nil {
		panic(err)
	}

	if err = logger.Init(cfg.Log); err != nil {
		panic(err)
	}
}
