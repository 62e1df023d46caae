// Package session holds the one opaque session identifier shared by all
// tenantdesk processes on the same profile, and the change notification
// mechanism keeping every process in sync with it.
package session
