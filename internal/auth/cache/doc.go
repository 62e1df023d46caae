// Package cache persists the locally signed-in account and its secrets
// between runs of the console.
//
// The account record lives in a small SQLite database inside the profile
// directory. Secrets (currently the refresh token) go to the OS keyring
// when available, with an encrypted file inside the profile directory as
// fallback for headless machines.
package cache
