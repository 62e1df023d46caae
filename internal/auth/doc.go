// Package auth reconciles the console's sign-in state across its three
// authentication backends.
//
// The console can be signed in through several independent mechanisms at
// once:
//   - Interactive: a delegated browser or device-code sign-in with a locally
//     cached account and OAuth2 tokens
//   - App-only: service credentials validated against the session service
//   - Hosted: a session owned by the hosting portal, mirrored read-only
//
// # Backends and Statuses
//
// Each backend runs as an independent probe. A probe never blocks and never
// returns errors to the reconciler; whatever it learns, including I/O
// failures, it turns into a Status (loading, authenticated with an Actor and
// Grants, or unauthenticated with a Reason) and pushes it through the Sink.
// Statuses carry a per-backend monotonic Seq so results of stale lookups can
// be recognized and dropped.
//
// # Reconciliation
//
// The Reconciler merges the latest status of every backend with the current
// session ID into one published State. Precedence is a fixed rule table,
// evaluated top to bottom: anything still resolving wins, then hosted, then
// app-only, then interactive, then signed out. The projection is pure; the
// same inputs always produce the same State.
//
// # Session Changes
//
// All backends share one opaque session ID persisted by the session store.
// The reconciler is the single subscriber to ID changes: on a change it fans
// out to every backend and republishes. Interactive sign-ins synthesize an ID
// when none exists yet, strictly on the transition into authenticated, so the
// other backends can attach to the same session.
//
// # Permissions
//
// Interactive and app-only actors hold every console permission. Hosted
// actors derive theirs from the portal's grant claims when present and fall
// back to the full set otherwise. HasPermission is always false while signed
// out or loading.
//
// # Middleware
//
// Fiber middleware functions are provided for route protection:
//   - RequireAuthenticated: reject requests while no actor is signed in
//   - RequirePermission: additionally require a specific permission
//
// Example usage:
//
//	rec := auth.NewReconciler(store)
//	rec.Bind(interactive, appOnly, hosted)
//	rec.Start()
//
//	// Re-resolve when another process rewrites the session file
//	watcher.OnChange(rec.OnSessionIDChanged)
//
//	// Protect a route
//	app.Get("/api/users",
//	    auth.RequirePermission(rec, auth.PermUserManagement),
//	    handler,
//	)
package auth
