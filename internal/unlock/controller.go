package unlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/biometric"
	"github.com/dmitrijs2005/gophlock/internal/cryptox"
	"github.com/dmitrijs2005/gophlock/internal/logging"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SettleDelay separates reaching StateUnlocked from calling the unlock
// handler, leaving the view time to show the transition.
const SettleDelay = 1500 * time.Millisecond

const tracerName = "github.com/dmitrijs2005/gophlock/internal/unlock"

// Biometrics is the challenger the controller drives.
type Biometrics interface {
	Start(ctx context.Context) biometric.Outcome
	Available(ctx context.Context) (bool, error)
}

// Controller arbitrates between secret and biometric verification and fires
// the unlock handler once the lock opens.
type Controller struct {
	gate     *Gate
	bio      Biometrics
	clock    clockwork.Clock
	logger   logging.Logger
	tracer   trace.Tracer
	messages Messages
	observer func(Event)
	onUnlock func()

	// verify is a test seam for cryptox.VerifySecret.
	verify func(secret string, stored []byte) bool

	inbox       chan func()
	done        chan struct{}
	disposeOnce sync.Once

	// cbMu is held across the disposed check and an observer or unlock
	// handler call. Dispose waits on it unless a callback is already running.
	cbMu sync.Mutex

	mu       sync.Mutex
	disposed bool
	state    State
	lastErr  *Error
	slot     slot
	lastBio  *Attempt
	started  int
	base     context.Context
	stop     context.CancelFunc
	firing   bool
	hash     []byte
	settle   clockwork.Timer
	fired    bool
}

// New builds a controller in StateIdle and starts its event loop. The caller
// must Dispose it.
func New(gate *Gate, bio Biometrics, opts ...Option) *Controller {
	c := &Controller{
		gate:     gate,
		bio:      bio,
		clock:    clockwork.NewRealClock(),
		logger:   logging.Nop{},
		tracer:   otel.Tracer(tracerName),
		messages: englishMessages{},
		verify:   cryptox.VerifySecret,
		inbox:    make(chan func(), 16),
		done:     make(chan struct{}),
		base:     context.Background(),
		stop:     func() {},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("module", "unlock")

	go c.run()
	return c
}

// Activate moves the controller to StateAwaitingInput and, if biometric
// unlock is enabled, starts a biometric attempt without waiting for it.
// hint, when non-nil, is trusted instead of reading the flag from the store.
//
// ctx bounds every attempt made by this controller.
func (c *Controller) Activate(ctx context.Context, hint *bool) {
	c.post(func() { c.activate(ctx, hint) })
}

// SubmitSecret verifies secret, cancelling a pending biometric attempt
// first. Empty secrets are ignored.
func (c *Controller) SubmitSecret(secret string) {
	c.post(func() { c.submitSecret(secret) })
}

// RetryBiometric cancels the current biometric attempt, if any, and starts a
// new one.
func (c *Controller) RetryBiometric() {
	c.post(func() { c.startBiometric(true) })
}

// Dispose cancels the live attempt and stops the controller. Outcomes that
// arrive later are dropped and a pending unlock handler never runs; a
// handler already running is not interrupted. Once Dispose returns no
// observer or unlock handler call starts, and the store and capability reads
// begun by Activate are cancelled. It is safe to call more than once and from
// any goroutine, including from the observer and the unlock handler.
func (c *Controller) Dispose() {
	c.disposeOnce.Do(func() {
		c.mu.Lock()
		c.disposed = true
		c.slot.cancel()
		c.stop()
		if c.settle != nil {
			c.settle.Stop()
		}
		reentrant := c.firing
		c.mu.Unlock()

		close(c.done)

		if !reentrant {
			// a callback past its disposed check finishes before we return
			c.cbMu.Lock()
			defer c.cbMu.Unlock()
		}
	})
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the visible error, nil when there is none.
func (c *Controller) Err() *Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) run() {
	for {
		select {
		case <-c.done:
			return
		case step := <-c.inbox:
			step()
		}
	}
}

func (c *Controller) post(step func()) {
	select {
	case c.inbox <- step:
	case <-c.done:
	}
}

func (c *Controller) emit(ev Event) {
	if c.observer == nil {
		return
	}
	c.callback(func() { c.observer(ev) })
}

// callback runs fn unless the controller is disposed. Dispose cannot return
// between the check and the start of fn.
func (c *Controller) callback(fn func()) bool {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return false
	}
	c.firing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.firing = false
		c.mu.Unlock()
	}()
	fn()
	return true
}

// eventLocked snapshots the current state. Callers hold c.mu.
func (c *Controller) eventLocked() Event {
	ev := Event{State: c.state, Err: c.lastErr}
	if a := c.slot.cur; a != nil {
		ev.Method = a.Method
		ev.AttemptID = a.ID
	}
	return ev
}

func (c *Controller) activate(ctx context.Context, hint *bool) {
	c.mu.Lock()
	if c.disposed || c.state != StateIdle {
		c.mu.Unlock()
		c.logger.Debug(ctx, "activation ignored", "state", c.State())
		return
	}
	c.base, c.stop = context.WithCancel(ctx)
	ctx = c.base
	c.state = StateAwaitingInput
	ev := c.eventLocked()
	c.mu.Unlock()
	c.emit(ev)

	go func() {
		if hint != nil && *hint {
			go c.recheckCapability(ctx)
		}
		if c.gate.ShouldUseBiometric(ctx, hint) {
			c.post(func() { c.startBiometric(false) })
		}
	}()
}

// recheckCapability probes the platform after an upstream hint was trusted.
// The answer is only logged: a missing authenticator surfaces through the
// biometric attempt itself.
func (c *Controller) recheckCapability(ctx context.Context) {
	ok, err := c.bio.Available(ctx)
	switch {
	case err != nil:
		c.logger.Warn(ctx, "biometric capability re-check failed", "error", err)
	case !ok:
		c.logger.Warn(ctx, "biometric enabled upstream but no platform authenticator reported")
	default:
		c.logger.Debug(ctx, "biometric capability confirmed")
	}
}

// startBiometric begins a biometric attempt. Activation starts one only if
// nothing else was attempted yet, so a failed secret never re-prompts.
func (c *Controller) startBiometric(manual bool) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	allowed := c.state == StateAwaitingInput || (manual && c.state == StateVerifyingBiometric)
	if !allowed || (!manual && c.started > 0) {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug(c.base, "biometric start ignored", "state", state, "manual", manual)
		return
	}

	att := newAttempt(c.base, MethodBiometric, c.clock.Now())
	c.slot.replace(att)
	// a secret attempt may sit between two biometric ones
	prev := c.lastBio
	c.lastBio = att
	c.started++
	c.state = StateVerifyingBiometric
	c.lastErr = nil
	ev := c.eventLocked()
	c.mu.Unlock()

	c.logger.Info(att.ctx, "biometric attempt started", "attempt_id", att.ID, "manual", manual)
	c.emit(ev)

	go c.runBiometric(att, prev)
}

func (c *Controller) runBiometric(att, prev *Attempt) {
	defer close(att.finished)

	// one platform call at a time: the previous worker is already cancelled
	// and must return before the next call is made
	if prev != nil {
		<-prev.finished
	}
	if att.ctx.Err() != nil {
		c.post(func() { c.resolveBiometric(att, biometric.Cancelled()) })
		return
	}

	ctx, span := c.tracer.Start(att.ctx, "unlock.biometric",
		trace.WithAttributes(attribute.String("attempt.id", att.ID.String())))
	out := c.bio.Start(ctx)
	span.SetAttributes(attribute.String("outcome", out.Kind.String()))
	if out.Kind == biometric.OutcomeOtherError {
		span.SetStatus(codes.Error, string(out.ErrKind))
	}
	span.End()

	c.post(func() { c.resolveBiometric(att, out) })
}

func (c *Controller) resolveBiometric(att *Attempt, out biometric.Outcome) {
	c.mu.Lock()
	if c.disposed || !c.slot.isCurrent(att) {
		c.mu.Unlock()
		c.logger.Debug(att.ctx, "stale biometric outcome dropped", "attempt_id", att.ID, "outcome", out.Kind)
		return
	}
	c.slot.release(att)

	switch out.Kind {
	case biometric.OutcomeSuccess:
		c.enterUnlockedLocked()
	case biometric.OutcomeCancelled, biometric.OutcomeDenied:
		c.state = StateAwaitingInput
		c.lastErr = nil
	default:
		c.state = StateAwaitingInput
		c.lastErr = &Error{
			Kind:    KindBiometric,
			Message: c.messages.Localize(MsgBiometricFailed, map[string]any{"Message": out.Message}),
			Cause:   &biometric.PlatformError{Kind: out.ErrKind, Message: out.Message},
		}
	}
	ev := c.eventLocked()
	c.mu.Unlock()

	c.logger.Info(att.ctx, "biometric attempt finished", "attempt_id", att.ID, "outcome", out.Kind,
		"error_kind", out.ErrKind, "took", c.clock.Since(att.Started))
	c.emit(ev)
}

func (c *Controller) submitSecret(secret string) {
	if secret == "" {
		return
	}

	c.mu.Lock()
	if c.disposed || !c.state.AcceptsSecret() {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug(c.base, "secret submission ignored", "state", state)
		return
	}

	att := newAttempt(c.base, MethodSecret, c.clock.Now())
	// cancels a pending biometric token before verification begins
	prev := c.slot.replace(att)
	c.started++
	c.state = StateVerifyingSecret
	c.lastErr = nil
	ev := c.eventLocked()
	c.mu.Unlock()

	if prev != nil {
		c.logger.Info(att.ctx, "secret preempts pending attempt", "attempt_id", att.ID, "preempted", prev.ID)
	}
	c.emit(ev)

	go c.runSecret(att, secret)
}

func (c *Controller) runSecret(att *Attempt, secret string) {
	defer close(att.finished)

	ctx, span := c.tracer.Start(att.ctx, "unlock.secret",
		trace.WithAttributes(attribute.String("attempt.id", att.ID.String())))
	ok, err := c.checkSecret(ctx, secret)
	span.SetAttributes(attribute.Bool("match", ok))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification failed")
	}
	span.End()

	c.post(func() { c.resolveSecret(att, ok, err) })
}

func (c *Controller) checkSecret(ctx context.Context, secret string) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("%w: %v", ErrUnexpected, r)
		}
	}()

	hash, err := c.secretHash(ctx)
	if err != nil {
		return false, err
	}
	return c.verify(secret, hash), nil
}

// secretHash reads the digest once and keeps it for the controller's life.
func (c *Controller) secretHash(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	hash := c.hash
	c.mu.Unlock()
	if hash != nil {
		return hash, nil
	}

	hash, err := c.gate.SecretHash(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.hash == nil {
		c.hash = hash
	}
	hash = c.hash
	c.mu.Unlock()
	return hash, nil
}

func (c *Controller) resolveSecret(att *Attempt, ok bool, err error) {
	c.mu.Lock()
	if c.disposed || !c.slot.isCurrent(att) {
		c.mu.Unlock()
		return
	}
	c.slot.release(att)

	clearSecret := false
	switch {
	case err != nil:
		kind, msg := KindUnexpected, MsgUnexpectedError
		var ce *ConfigError
		if errors.As(err, &ce) {
			kind, msg = KindConfig, MsgVerificationFailed
		}
		c.state = StateAwaitingInput
		c.lastErr = &Error{Kind: kind, Message: c.messages.Localize(msg, nil), Cause: err}
	case ok:
		c.enterUnlockedLocked()
	default:
		clearSecret = true
		c.state = StateAwaitingInput
		c.lastErr = &Error{
			Kind:    KindSecretMismatch,
			Message: c.messages.Localize(MsgSecretMismatch, nil),
			Cause:   ErrSecretMismatch,
		}
	}
	ev := c.eventLocked()
	ev.ClearSecret = clearSecret
	c.mu.Unlock()

	if err != nil {
		c.logger.Error(att.ctx, "secret verification failed", "attempt_id", att.ID, "error", err)
	} else {
		c.logger.Info(att.ctx, "secret verified", "attempt_id", att.ID, "match", ok)
	}
	c.emit(ev)
}

// enterUnlockedLocked makes StateUnlocked final and arms the settle timer.
// Callers hold c.mu.
func (c *Controller) enterUnlockedLocked() {
	c.state = StateUnlocked
	c.lastErr = nil
	c.slot.cancel()
	c.settle = c.clock.AfterFunc(SettleDelay, func() {
		c.post(c.fireUnlock)
	})
}

func (c *Controller) fireUnlock() {
	c.logger.Debug(c.base, "settle delay elapsed")

	c.mu.Lock()
	if c.disposed || c.fired {
		c.mu.Unlock()
		return
	}
	c.fired = true
	c.mu.Unlock()

	if c.onUnlock == nil {
		return
	}
	if c.callback(c.onUnlock) {
		c.logger.Info(c.base, "unlocked")
	}
}
