// Package auth provides the local-client middleware for the web service.
//
// The console daemon is a per-machine tool: its API carries no transport
// authentication of its own, so the middleware refuses any request whose
// peer address is not local. Binding the listener to a loopback address is
// the first line of defense; this check backs it up when the bind address
// is widened by configuration.
//
// Usage:
//
//	app.Use(authmiddleware.Middleware)
package auth
