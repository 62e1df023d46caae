package app

import (
	"context"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/tenantdesk/tenantdesk/internal/auth"
)

const statusTimeout = 15 * time.Second

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the reconciled authentication state",
	Long: `Show the reconciled authentication state: who is signed in, through
which backend and with which capabilities. The command waits for the
backends to finish their first resolution before printing.`,
	PreRun: func(_ *cobra.Command, _ []string) {
		loadConfig()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
		defer cancel()

		rec, err := newBackends(nil)
		if err != nil {
			return err
		}

		printState(settle(ctx, rec))

		return nil
	},
}

// printState renders a reconciled state for the terminal.
func printState(st auth.State) {
	if st.Loading {
		pterm.Warning.Println("Authentication state is still resolving")
	}

	if !st.IsAuthenticated {
		reason := st.Reason
		if reason == "" {
			reason = "not signed in"
		}

		pterm.Info.Printfln("Signed out: %s", reason)

		return
	}

	pterm.Success.Printfln("Signed in as %s (%s)", st.Actor.DisplayName, st.AuthMode)

	if st.Actor.Email != "" {
		pterm.Info.Printfln("Email: %s", st.Actor.Email)
	}

	table := pterm.TableData{{"PERMISSION", "GRANTED"}}
	for _, p := range auth.AllPermissions() {
		table = append(table, []string{string(p), strconv.FormatBool(st.Permissions[p])})
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}
