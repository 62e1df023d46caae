package hostedapi

import "errors"

var (
	// ErrBaseURLEmpty is returned when a client is created without a portal URL.
	ErrBaseURLEmpty = errors.New("hosting portal url cannot be empty")

	// ErrSessionRefEmpty is returned when a portal operation is attempted without a session reference.
	ErrSessionRefEmpty = errors.New("session reference cannot be empty")

	// ErrSessionUnknown is returned when the portal definitively does not know
	// the session reference. Transport failures deliberately do not map to it.
	ErrSessionUnknown = errors.New("session not recognized by the hosting portal")
)
