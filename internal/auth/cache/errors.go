package cache

import "errors"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")

	// ErrAccountIDEmpty is returned when an account operation is attempted without an account ID.
	ErrAccountIDEmpty = errors.New("account id cannot be empty")

	// ErrAccountNotFound is returned when no cached account matches the query.
	ErrAccountNotFound = errors.New("account not found")

	// ErrMultipleAccountsFound is returned when a query expected one cached account but found several.
	// This indicates the cache was written by an older build that allowed multiple sign-ins.
	ErrMultipleAccountsFound = errors.New("multiple accounts found")

	// ErrSecretNotFound is returned when a secret is absent from both the keyring and the file store.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrSecretNameInvalid is returned when a secret name is empty or contains path separators.
	ErrSecretNameInvalid = errors.New("secret name is invalid")

	// ErrProfileDirEmpty is returned when a secret store is created without a profile directory.
	ErrProfileDirEmpty = errors.New("profile directory cannot be empty")
)
