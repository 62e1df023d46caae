// Package directory implements the client to the tenant directory, the admin
// API surface the console manages once signed in.
//
// Requests carry credentials matching the console's current auth mode, so a
// sign-in through a different backend transparently changes how directory
// calls authenticate. The Provider resolves the mode per request; callers
// hold one Client for the process lifetime.
package directory
