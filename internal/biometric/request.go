package biometric

import (
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
)

// ChallengeSize is the number of random bytes in every challenge.
const ChallengeSize = 32

// Request is one biometric assertion request. It is built fresh for every
// attempt and never reused.
type Request struct {
	Challenge        []byte
	RelyingPartyID   string
	UserVerification protocol.UserVerificationRequirement
	Timeout          time.Duration
}

// NewRequest generates a new random challenge for rpID. timeout is the hint
// handed to the platform; zero leaves the platform default.
func NewRequest(rpID string, timeout time.Duration) (Request, error) {
	challenge, err := protocol.CreateChallenge()
	if err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrChallenge, err)
	}
	if len(challenge) != ChallengeSize {
		return Request{}, fmt.Errorf("%w: got %d bytes", ErrChallenge, len(challenge))
	}

	return Request{
		Challenge:        []byte(challenge),
		RelyingPartyID:   rpID,
		UserVerification: protocol.VerificationRequired,
		Timeout:          timeout,
	}, nil
}

// Options renders the request as WebAuthn request options, the form platform
// bridges hand to navigator.credentials.get and friends.
func (r Request) Options() protocol.PublicKeyCredentialRequestOptions {
	return protocol.PublicKeyCredentialRequestOptions{
		Challenge:        protocol.URLEncodedBase64(r.Challenge),
		Timeout:          int(r.Timeout.Milliseconds()),
		RelyingPartyID:   r.RelyingPartyID,
		UserVerification: r.UserVerification,
	}
}

// RequestFromOptions is the inverse of Request.Options.
func RequestFromOptions(o protocol.PublicKeyCredentialRequestOptions) Request {
	return Request{
		Challenge:        []byte(o.Challenge),
		RelyingPartyID:   o.RelyingPartyID,
		UserVerification: o.UserVerification,
		Timeout:          time.Duration(o.Timeout) * time.Millisecond,
	}
}
