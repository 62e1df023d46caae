package session

import (
	"errors"
)

var (
	// ErrProfileDirEmpty is returned when a store is created without a profile directory.
	ErrProfileDirEmpty = errors.New("profile directory can not be empty")

	// ErrSessionIDEmpty is returned when an empty identifier is written, use Clear instead.
	ErrSessionIDEmpty = errors.New("session id can not be empty")
)
