// Package sessionapi is the HTTP client for the remote session service that
// backs app-only sign-in. The service owns the credential verification; this
// client only configures sessions, asks for their status and tears them down.
//
// A definitive rejection by the service (unknown or expired session) is
// reported as ErrSessionNotFound. Transport failures and server errors come
// back as ordinary errors so callers can tell "the service said no" apart
// from "the service could not be reached".
package sessionapi
