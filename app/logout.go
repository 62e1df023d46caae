package app

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const logoutTimeout = 30 * time.Second

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the local session",
	Long: `Sign out of the backend currently providing the identity and clear
the stored session. A remote sign-out failure is logged and does not
keep the local session around.`,
	PreRun: func(_ *cobra.Command, _ []string) {
		loadConfig()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		defer cancel()

		rec, err := newBackends(nil)
		if err != nil {
			return err
		}

		// Resolve first so the sign-out reaches the backend that actually
		// provides the identity.
		settle(ctx, rec)

		if err = rec.Logout(ctx); err != nil {
			return err
		}

		pterm.Success.Println("Signed out")

		return nil
	},
}
