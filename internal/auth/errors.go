package auth

import "errors"

var (
	// ErrNoIDToken is returned when the OAuth2 token response doesn't contain an ID token.
	// This typically indicates a misconfigured identity provider or an incomplete sign-in flow.
	ErrNoIDToken = errors.New("no id_token in token response")

	// ErrInteractiveDisabled is returned when interactive sign-in is disabled via configuration.
	ErrInteractiveDisabled = errors.New("interactive sign-in is disabled")

	// ErrNoInteractiveContext is returned when an interactive challenge is needed
	// but no prompt is wired to show it (the daemon has no terminal to print to).
	ErrNoInteractiveContext = errors.New("no interactive context to run a sign-in challenge")

	// ErrCredentialsNotConfigured is returned when an app-only login is attempted
	// before client ID, tenant ID and client secret are configured. This is an
	// operator error, not a runtime condition.
	ErrCredentialsNotConfigured = errors.New("app credentials are not configured")

	// ErrAppOnlyNotConfigured is returned when an app-only login is attempted
	// without a session service URL in the profile configuration.
	ErrAppOnlyNotConfigured = errors.New("session service is not configured")

	// ErrHostedNotConfigured is returned when a hosted token is requested but no
	// hosting portal is configured.
	ErrHostedNotConfigured = errors.New("hosting portal is not configured")

	// ErrNoHostedSession is returned when a hosted token is requested and the
	// portal holds no session for the current reference.
	ErrNoHostedSession = errors.New("no hosted session available")
)
