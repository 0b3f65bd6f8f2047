package biometric

import (
	"context"
	"errors"
	"time"
)

// Authenticator is the platform biometric capability.
//
// Assert must observe ctx and return promptly once it is cancelled.
type Authenticator interface {
	Assert(ctx context.Context, req Request) (proof []byte, err error)
	Available(ctx context.Context) (bool, error)
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeCancelled
	OutcomeDenied
	OutcomeOtherError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeDenied:
		return "denied"
	case OutcomeOtherError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one Start call. Proof is set only for
// OutcomeSuccess; ErrKind and Message only for OutcomeOtherError.
type Outcome struct {
	Kind    OutcomeKind
	Proof   []byte
	ErrKind ErrorKind
	Message string
}

func Success(proof []byte) Outcome { return Outcome{Kind: OutcomeSuccess, Proof: proof} }
func Cancelled() Outcome           { return Outcome{Kind: OutcomeCancelled} }
func Denied() Outcome              { return Outcome{Kind: OutcomeDenied} }

func OtherError(kind ErrorKind, msg string) Outcome {
	return Outcome{Kind: OutcomeOtherError, ErrKind: kind, Message: msg}
}

// Challenger issues one assertion request per Start call.
type Challenger struct {
	auth    Authenticator
	rpID    string
	timeout time.Duration

	// newRequest is a test seam for NewRequest.
	newRequest func(rpID string, timeout time.Duration) (Request, error)
}

// NewChallenger binds a Challenger to the platform capability auth and the
// relying party rpID. timeout is forwarded to the platform.
func NewChallenger(auth Authenticator, rpID string, timeout time.Duration) *Challenger {
	return &Challenger{auth: auth, rpID: rpID, timeout: timeout, newRequest: NewRequest}
}

// Start asks the platform for an assertion over a fresh challenge and blocks
// until it answers or ctx is cancelled. It never touches caller state.
func (c *Challenger) Start(ctx context.Context) Outcome {
	if ctx.Err() != nil {
		return Classify(ctx, ctx.Err())
	}

	req, err := c.newRequest(c.rpID, c.timeout)
	if err != nil {
		return OtherError(KindUnknown, err.Error())
	}

	proof, err := c.auth.Assert(ctx, req)
	if err != nil {
		return Classify(ctx, err)
	}
	if ctx.Err() != nil {
		// answered after the token was cancelled: the attempt is gone
		return Cancelled()
	}
	if len(proof) == 0 {
		return OtherError(KindUnknown, "platform returned an empty credential")
	}
	return Success(proof)
}

// Available reports whether the platform offers a user-verifying
// authenticator right now.
func (c *Challenger) Available(ctx context.Context) (bool, error) {
	return c.auth.Available(ctx)
}

// Classify maps an error returned by the platform call made under ctx onto
// an outcome.
func Classify(ctx context.Context, err error) Outcome {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return Cancelled()
	}

	var pe *PlatformError
	if errors.As(err, &pe) {
		switch pe.Kind {
		case KindAbort:
			return Cancelled()
		case KindNotAllowed:
			return Denied()
		default:
			return OtherError(pe.Kind, pe.Message)
		}
	}

	switch {
	case errors.Is(err, ErrCancelled):
		return Cancelled()
	case errors.Is(err, ErrDenied):
		return Denied()
	case errors.Is(err, context.DeadlineExceeded):
		return OtherError(KindTimeout, err.Error())
	default:
		return OtherError(KindUnknown, err.Error())
	}
}

// Unavailable is the Authenticator used when no platform capability is
// configured. Every Assert fails with KindNotSupported.
type Unavailable struct{}

func (Unavailable) Assert(context.Context, Request) ([]byte, error) {
	return nil, &PlatformError{Kind: KindNotSupported, Message: "no biometric platform configured"}
}

func (Unavailable) Available(context.Context) (bool, error) { return false, nil }
