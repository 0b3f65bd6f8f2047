// Package biometric issues platform biometric assertion requests on behalf of
// the lock and classifies what the platform answers.
//
// # Overview
//
// A Challenger owns no state between calls. Each Start builds a fresh Request
// (32 random challenge bytes, the configured relying-party id, user
// verification "required"), hands it to the platform Authenticator and turns
// the result into an Outcome:
//
//   - OutcomeSuccess     the platform produced a credential proof
//   - OutcomeCancelled   the context was cancelled or the platform aborted
//   - OutcomeDenied      the user declined (platform "not allowed")
//   - OutcomeOtherError  anything else, including platform timeouts
//
// # Error Handling
//
// Platform failures cross the Authenticator boundary as *PlatformError, a
// closed set of ErrorKind values. ErrCancelled and ErrDenied match the
// corresponding kinds with errors.Is.
//
// Only one Start may be in flight per lock; the caller enforces that.
package biometric
