package sessionapi

import "errors"

var (
	// ErrBaseURLEmpty is returned when a client is created without a service URL.
	ErrBaseURLEmpty = errors.New("session service url cannot be empty")

	// ErrSessionIDEmpty is returned when a session operation is attempted without a session ID.
	ErrSessionIDEmpty = errors.New("session id cannot be empty")

	// ErrCredentialsIncomplete is returned when configure is called without a
	// client ID, tenant ID or client secret.
	ErrCredentialsIncomplete = errors.New("client id, tenant id and client secret are all required")

	// ErrSessionNotFound is returned when the service definitively rejects the
	// session ID. It is the signal to discard the stored session; transport
	// failures deliberately do not map to it.
	ErrSessionNotFound = errors.New("session not recognized by the session service")
)
