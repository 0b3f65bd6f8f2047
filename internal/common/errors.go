// Package common defines shared sentinel errors and small helpers used by
// the lock, its stores and the biometric bridge. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Auth errors (invalid or malformed bridge token).
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")

	// Configuration errors.
	ErrUnknownDriver = errors.New("unknown store driver")
)
