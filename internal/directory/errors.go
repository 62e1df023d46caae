package directory

import (
	"errors"
)

var (
	// ErrBaseURLEmpty is returned when a client is created without a base URL.
	ErrBaseURLEmpty = errors.New("directory base url can not be empty")

	// ErrUserIDEmpty is returned when an operation is attempted without a user id.
	ErrUserIDEmpty = errors.New("user id can not be empty")

	// ErrUserNotFound is returned when the directory does not know the user.
	ErrUserNotFound = errors.New("user not found in the directory")

	// ErrNotSignedIn is returned when a directory request is attempted while
	// the console is signed out; run `tenantdesk login` first.
	ErrNotSignedIn = errors.New("not signed in; run `tenantdesk login` first")

	// ErrNoAccessToken is returned when the interactive session can not
	// produce a token; run `tenantdesk login` to sign in again.
	ErrNoAccessToken = errors.New("no access token available; run `tenantdesk login` to sign in again")
)
