package unlock

import "github.com/google/uuid"

// State is the controller's position in the unlock state machine.
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateVerifyingSecret
	StateVerifyingBiometric
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting input"
	case StateVerifyingSecret:
		return "verifying secret"
	case StateVerifyingBiometric:
		return "verifying biometric"
	case StateUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// AcceptsSecret reports whether a secret submitted in s starts verification.
// Input stays open while a biometric attempt is pending.
func (s State) AcceptsSecret() bool {
	return s == StateAwaitingInput || s == StateVerifyingBiometric
}

// Method identifies how an attempt verifies the user.
type Method int

const (
	MethodNone Method = iota
	MethodSecret
	MethodBiometric
)

func (m Method) String() string {
	switch m {
	case MethodSecret:
		return "secret"
	case MethodBiometric:
		return "biometric"
	default:
		return "none"
	}
}

// Event is published to the observer after every transition.
//
// Err is the single visible error, nil when there is none. ClearSecret asks
// the view to empty its secret field.
type Event struct {
	State       State
	Method      Method
	AttemptID   uuid.UUID
	Err         *Error
	ClearSecret bool
}
