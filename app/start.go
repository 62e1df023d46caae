package app

import (
	"github.com/spf13/cobra"

	"github.com/tenantdesk/tenantdesk/internal/daemon"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the tenantdesk daemon",
		Long: `Start the tenantdesk daemon: the identity backends resolve, the
session watcher follows the shared profile directory and the local HTTP
API serves the console until the process is signalled to stop.`,
		PreRun: func(_ *cobra.Command, _ []string) {
			loadConfig()

			if devMode {
				cfg.DevMode = true
			}
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			daemon := daemon.New(&cfg)
			if err := daemon.Start(); err != nil {
				return err
			}

			return nil
		},
	}
)
