// Package main provides the entry point for the tenantdesk daemon and CLI.
// The daemon reconciles sign-in state across the configured identity
// backends, keeps it in sync with other tenantdesk processes through a
// shared profile directory and serves a local HTTP API, built on the Fiber
// framework, for the console UI. The CLI signs in and out and reports the
// reconciled state.
package main
