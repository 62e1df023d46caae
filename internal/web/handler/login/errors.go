// Package login starts sign-ins against the configured identity backends.
//
// This file defines exported error values used throughout the login flow.
package login

import "errors"

var (
	// ErrInvalidLoginPayload is returned when the submitted login payload
	// cannot be parsed or fails validation.
	ErrInvalidLoginPayload = errors.New("invalid login payload")

	// ErrLoginFailed is returned for unexpected failures during the login
	// process. The detailed cause stays in the daemon log.
	ErrLoginFailed = errors.New("login failed")
)
