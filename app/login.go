package app

import (
	"context"
	"errors"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/tenantdesk/tenantdesk/internal/auth"
)

// loginTimeout bounds a whole sign-in, including the wait for the person to
// finish the device-code verification in a browser.
const loginTimeout = 5 * time.Minute

func init() { //nolint: gochecknoinits
	loginCmd.Flags().BoolVar(
		&appOnlyLogin,
		"app-only",
		false,
		"Exchange the configured service credentials instead of running the device flow",
	)

	rootCmd.AddCommand(loginCmd)
}

var (
	appOnlyLogin bool

	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in on this machine",
		Long: `Sign in on this machine.

The default is the interactive device flow: the command prints a
verification URL and a one-time code, waits for the sign-in to finish in
the browser and caches the account in the profile directory. With
--app-only the configured service credentials are exchanged for a
session instead.

A running daemon picks the new session up through the shared profile
directory; no restart is needed.`,
		PreRun: func(_ *cobra.Command, _ []string) {
			loadConfig()
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
			defer cancel()

			if appOnlyLogin {
				return loginAppOnly(ctx)
			}

			return loginInteractive(ctx)
		},
	}
)

// loginInteractive runs the device-code flow and caches the account.
func loginInteractive(ctx context.Context) error {
	rec, err := newBackends(printDevicePrompt)
	if err != nil {
		return err
	}

	account, err := rec.Interactive().SignInDeviceCode(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrInteractiveDisabled) {
			pterm.Warning.Println("Interactive sign-in is disabled in the configuration")
		}

		return err
	}

	name := account.DisplayName
	if name == "" {
		name = account.Username
	}

	pterm.Success.Printfln("Signed in as %s", name)

	return nil
}

// loginAppOnly exchanges the configured service credentials for a session.
func loginAppOnly(ctx context.Context) error {
	rec, err := newBackends(nil)
	if err != nil {
		return err
	}

	if err = rec.Login(ctx, auth.LoginAppOnly); err != nil {
		switch {
		case errors.Is(err, auth.ErrAppOnlyNotConfigured):
			pterm.Warning.Println("No session service is configured")
		case errors.Is(err, auth.ErrCredentialsNotConfigured):
			pterm.Warning.Println("No service credentials are configured")
		}

		return err
	}

	st := rec.State()
	if st.Actor != nil {
		pterm.Success.Printfln("Signed in as %s (app-only)", st.Actor.DisplayName)
	} else {
		pterm.Success.Println("Signed in (app-only)")
	}

	return nil
}

// printDevicePrompt shows the device-code verification instructions.
func printDevicePrompt(verificationURI, userCode string) {
	pterm.Info.Printfln("To sign in, open %s and enter the code %s", verificationURI, userCode)
	pterm.Info.Println("Waiting for the sign-in to finish in the browser ...")
}
