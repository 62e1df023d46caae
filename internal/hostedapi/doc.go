// Package hostedapi is the HTTP client for a hosting portal that embeds the
// console. The portal owns the sign-in; the console only asks it for the
// current bearer token and user of a session reference, and forwards
// sign-out requests.
//
// A portal that answers but reports nobody signed in yields nil values, not
// errors. ErrSessionUnknown marks a reference the portal definitively does
// not know.
package hostedapi
