package unlock

import (
	"errors"
	"fmt"
)

var (
	// ErrSecretMismatch is the cause of a KindSecretMismatch error.
	ErrSecretMismatch = errors.New("secret mismatch")
	// ErrNoSecret means the store holds no secret digest.
	ErrNoSecret = errors.New("no secret configured")
	// ErrNoStore means the gate was built without a config store.
	ErrNoStore = errors.New("no config store")
	// ErrUnexpected wraps panics recovered from verification.
	ErrUnexpected = errors.New("unexpected verification failure")
	// ErrAttemptOverlap is the panic value raised when a new attempt would be
	// installed while the previous one is still live.
	ErrAttemptOverlap = errors.New("unlock: verification attempts overlap")
)

// ErrorKind classifies user-visible errors.
type ErrorKind int

const (
	KindConfig ErrorKind = iota + 1
	KindSecretMismatch
	KindBiometric
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindSecretMismatch:
		return "secret mismatch"
	case KindBiometric:
		return "biometric"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// Error is the error shown on the lock surface. Message is already localized.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// ConfigError reports a failed read from the config store.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
