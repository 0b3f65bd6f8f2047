package biometric

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of platform failure kinds. Values follow the
// WebAuthn DOMException names so bridge implementations can pass them through.
type ErrorKind string

const (
	KindNotAllowed   ErrorKind = "NotAllowedError"
	KindAbort        ErrorKind = "AbortError"
	KindTimeout      ErrorKind = "TimeoutError"
	KindNotSupported ErrorKind = "NotSupportedError"
	KindSecurity     ErrorKind = "SecurityError"
	KindInvalidState ErrorKind = "InvalidStateError"
	KindNetwork      ErrorKind = "NetworkError"
	KindUnknown      ErrorKind = "UnknownError"
)

var knownKinds = map[ErrorKind]struct{}{
	KindNotAllowed:   {},
	KindAbort:        {},
	KindTimeout:      {},
	KindNotSupported: {},
	KindSecurity:     {},
	KindInvalidState: {},
	KindNetwork:      {},
	KindUnknown:      {},
}

// ParseErrorKind maps a platform-reported name onto the closed set.
// Unrecognised names become KindUnknown.
func ParseErrorKind(s string) ErrorKind {
	k := ErrorKind(s)
	if _, ok := knownKinds[k]; ok {
		return k
	}
	return KindUnknown
}

var (
	// ErrCancelled matches a *PlatformError of kind KindAbort.
	ErrCancelled = errors.New("biometric: request cancelled")
	// ErrDenied matches a *PlatformError of kind KindNotAllowed.
	ErrDenied = errors.New("biometric: request denied")
	// ErrChallenge is returned when a fresh challenge could not be generated.
	ErrChallenge = errors.New("biometric: challenge generation failed")
)

// PlatformError is a failure reported by the platform biometric capability.
type PlatformError struct {
	Kind    ErrorKind
	Message string
}

func (e *PlatformError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("biometric: %s", e.Kind)
	}
	return fmt.Sprintf("biometric: %s: %s", e.Kind, e.Message)
}

func (e *PlatformError) Is(target error) bool {
	switch target {
	case ErrCancelled:
		return e.Kind == KindAbort
	case ErrDenied:
		return e.Kind == KindNotAllowed
	}
	return false
}
