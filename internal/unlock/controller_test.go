package unlock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/biometric"
	"github.com/dmitrijs2005/gophlock/internal/cryptox"
	"github.com/dmitrijs2005/gophlock/internal/logging"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const secret = "hunter2"

// ---- fake biometrics ----

type fakeBio struct {
	mu sync.Mutex

	// scripted answers, consumed in order; once empty Start blocks until ctx is done
	Outcomes []biometric.Outcome
	// when set, Start ignores ctx and answers Success after Release is closed
	Release chan struct{}

	AvailableRet bool
	// when set, Available blocks until ctx is done
	AvailableBlock bool

	stats bioStats
}

func (f *fakeBio) Start(ctx context.Context) biometric.Outcome {
	f.mu.Lock()
	f.stats.Calls++
	f.stats.InFlight++
	if f.stats.InFlight > f.stats.MaxInFlight {
		f.stats.MaxInFlight = f.stats.InFlight
	}
	var scripted *biometric.Outcome
	if len(f.Outcomes) > 0 {
		o := f.Outcomes[0]
		f.Outcomes = f.Outcomes[1:]
		scripted = &o
	}
	release := f.Release
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.stats.InFlight--
		f.mu.Unlock()
	}()

	switch {
	case release != nil:
		<-release
		return biometric.Success([]byte("late"))
	case scripted != nil:
		return *scripted
	}

	<-ctx.Done()
	f.mu.Lock()
	f.stats.Cancelled++
	f.mu.Unlock()
	return biometric.Cancelled()
}

func (f *fakeBio) Available(ctx context.Context) (bool, error) {
	f.mu.Lock()
	f.stats.AvailableCalls++
	block, ret := f.AvailableBlock, f.AvailableRet
	f.mu.Unlock()

	if !block {
		return ret, nil
	}
	<-ctx.Done()
	f.mu.Lock()
	f.stats.AvailableCancelled++
	f.mu.Unlock()
	return false, ctx.Err()
}

type bioStats struct {
	Calls              int
	InFlight           int
	MaxInFlight        int
	Cancelled          int
	AvailableCalls     int
	AvailableCancelled int
}

func (f *fakeBio) snapshot() bioStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}

// ---- event recorder ----

type recorder struct {
	ch chan Event
}

func newRecorder() *recorder { return &recorder{ch: make(chan Event, 64)} }

func (r *recorder) observe(ev Event) { r.ch <- ev }

func (r *recorder) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

// until returns every event up to and including the first one in state s.
func (r *recorder) until(t *testing.T, s State) []Event {
	t.Helper()
	var evs []Event
	for {
		ev := r.next(t)
		evs = append(evs, ev)
		if ev.State == s {
			return evs
		}
	}
}

func (r *recorder) quiet(t *testing.T) {
	t.Helper()
	select {
	case ev := <-r.ch:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

// ---- harness ----

type harness struct {
	ctl    *Controller
	store  *fakeStore
	bio    *fakeBio
	clock  *clockwork.FakeClock
	events *recorder
	fired  atomic.Int32
}

func newHarness(t *testing.T, store *fakeStore, bio *fakeBio) *harness {
	t.Helper()
	h := &harness{
		store:  store,
		bio:    bio,
		clock:  clockwork.NewFakeClock(),
		events: newRecorder(),
	}
	h.ctl = New(NewGate(store, nil), bio,
		WithClock(h.clock),
		WithObserver(h.events.observe),
		WithUnlockHandler(func() { h.fired.Add(1) }),
	)
	t.Cleanup(h.ctl.Dispose)
	return h
}

func (h *harness) activate(t *testing.T, hint *bool) {
	t.Helper()
	h.ctl.Activate(context.Background(), hint)
	ev := h.events.next(t)
	require.Equal(t, StateAwaitingInput, ev.State)
	require.Nil(t, ev.Err)
}

func (h *harness) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(SettleDelay)
}

func storeWithSecret(use bool) *fakeStore {
	return &fakeStore{Use: use, Hash: cryptox.HashSecretHex(secret)}
}

// ---- TESTS ----

func TestNew_StartsIdle(t *testing.T) {
	h := newHarness(t, storeWithSecret(false), &fakeBio{})
	assert.Equal(t, StateIdle, h.ctl.State())
	assert.Nil(t, h.ctl.Err())
}

func TestActivate_BiometricDisabled_WaitsForSecret(t *testing.T) {
	h := newHarness(t, storeWithSecret(false), &fakeBio{})
	h.activate(t, nil)

	h.events.quiet(t)
	assert.Equal(t, 0, h.bio.snapshot().Calls)
	assert.Equal(t, StateAwaitingInput, h.ctl.State())
}

func TestActivate_SecondCallIgnored(t *testing.T) {
	h := newHarness(t, storeWithSecret(false), &fakeBio{})
	h.activate(t, nil)

	h.ctl.Activate(context.Background(), nil)
	h.events.quiet(t)
}

func TestActivate_BiometricEnabled_StartsOneAttemptWithFreshChallenge(t *testing.T) {
	auth := &recordingAuthenticator{}
	ch := biometric.NewChallenger(auth, "localhost", time.Minute)

	events := newRecorder()
	ctl := New(NewGate(storeWithSecret(true), nil), ch, WithObserver(events.observe))
	t.Cleanup(ctl.Dispose)

	ctl.Activate(context.Background(), nil)
	events.until(t, StateAwaitingInput)
	ev := events.next(t)
	require.Equal(t, StateVerifyingBiometric, ev.State)
	assert.Equal(t, MethodBiometric, ev.Method)

	require.Eventually(t, func() bool { return len(auth.requests()) == 1 }, time.Second, 5*time.Millisecond)
	events.quiet(t)

	req := auth.requests()[0]
	assert.Len(t, req.Challenge, biometric.ChallengeSize)
	assert.Equal(t, protocol.VerificationRequired, req.UserVerification)
	assert.Equal(t, "localhost", req.RelyingPartyID)
}

func TestActivate_HintOverridesStore(t *testing.T) {
	bio := &fakeBio{AvailableRet: true}
	h := newHarness(t, storeWithSecret(false), bio)
	h.activate(t, boolPtr(true))

	ev := h.events.next(t)
	assert.Equal(t, StateVerifyingBiometric, ev.State)

	use, _ := h.store.calls()
	assert.Equal(t, 0, use)
	// capability is still probed, but the answer changes nothing
	require.Eventually(t, func() bool { return bio.snapshot().AvailableCalls == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateVerifyingBiometric, h.ctl.State())
}

func TestActivate_HintFalseSkipsBiometric(t *testing.T) {
	bio := &fakeBio{}
	h := newHarness(t, storeWithSecret(true), bio)
	h.activate(t, boolPtr(false))

	h.events.quiet(t)
	assert.Equal(t, 0, bio.snapshot().Calls)
}

func TestSubmitSecret_CorrectUnlocksAfterSettleDelay(t *testing.T) {
	h := newHarness(t, storeWithSecret(false), &fakeBio{})
	h.activate(t, nil)

	h.ctl.SubmitSecret(secret)
	evs := h.events.until(t, StateUnlocked)
	require.Equal(t, StateVerifyingSecret, evs[0].State)
	assert.Equal(t, MethodSecret, evs[0].Method)
	for _, ev := range evs {
		assert.Nil(t, ev.Err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))

	h.clock.Advance(SettleDelay - time.Millisecond)
	require.Never(t, func() bool { return h.fired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	h.clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return h.fired.Load() == 1 }, time.Second, 5*time.Millisecond)

	h.clock.Advance(10 * SettleDelay)
	require.Never(t, func() bool { return h.fired.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSubmitSecret_MismatchClearsFieldAndReturnsToInput(t *testing.T) {
	h := newHarness(t, storeWithSecret(false), &fakeBio{})
	h.activate(t, nil)

	h.ctl.SubmitSecret("wrong")
	evs := h.events.until(t, StateAwaitingInput)
	last := evs[len(evs)-1]

	require.NotNil(t, last.Err)
	assert.Equal(t, KindSecretMismatch, last.Err.Kind)
	assert.ErrorIs(t, last.Err, ErrSecretMismatch)
	assert.Equal(t, "Incorrect password", last.Err.Message)
	assert.True(t, last.ClearSecret)
	assert.Equal(t, last.Err, h.ctl.Err())

	// a later correct secret clears the error
	h.ctl.SubmitSecret(secret)
	ev := h.events.next(t)
	assert.Equal(t, StateVerifyingSecret, ev.State)
	assert.Nil(t, ev.Err)
	h.events.until(t, StateUnlocked)
}

func TestSubmitSecret_MismatchDoesNotRestartBiometric(t *testing.T) {
	bio := &fakeBio{Outcomes: []biometric.Outcome{biometric.Cancelled()}}
	h := newHarness(t, storeWithSecret(true), bio)
	h.activate(t, nil)
	h.events.until(t, StateAwaitingInput)

	h.ctl.SubmitSecret("wrong")
	h.events.until(t, StateAwaitingInput)
	h.events.quiet(t)

	assert.Equal(t, 1, bio.snapshot().Calls)
}

func TestSubmitSecret_Ignored(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		h := newHarness(t, storeWithSecret(false), &fakeBio{})
		h.activate(t, nil)
		h.ctl.SubmitSecret("")
		h.events.quiet(t)
	})

	t.Run("before activation", func(t *testing.T) {
		h := newHarness(t, storeWithSecret(false), &fakeBio{})
		h.ctl.SubmitSecret(secret)
		h.events.quiet(t)
		assert.Equal(t, StateIdle, h.ctl.State())
	})

	t.Run("after unlock", func(t *testing.T) {
		h := newHarness(t, storeWithSecret(false), &fakeBio{})
		h.activate(t, nil)
		h.ctl.SubmitSecret(secret)
		h.events.until(t, StateUnlocked)

		h.ctl.SubmitSecret("wrong")
		h.events.quiet(t)
		assert.Equal(t, StateUnlocked, h.ctl.State())
	})
}

func TestSubmitSecret_ConfigErrors(t *testing.T) {
	tests := []struct {
		name  string
		store *fakeStore
	}{
		{name: "missing hash", store: &fakeStore{}},
		{name: "corrupt hash", store: &fakeStore{Hash: "not-hex"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.store, &fakeBio{})
			h.activate(t, nil)

			h.ctl.SubmitSecret(secret)
			evs := h.events.until(t, StateAwaitingInput)
			last := evs[len(evs)-1]

			require.NotNil(t, last.Err)
			assert.Equal(t, KindConfig, last.Err.Kind)
			assert.Equal(t, "Could not verify the password", last.Err.Message)
			var ce *ConfigError
			assert.ErrorAs(t, last.Err, &ce)
			assert.False(t, last.ClearSecret)
		})
	}
}

func TestSubmitSecret_HashReadOnce(t *testing.T) {
	h := newHarness(t, storeWithSecret(false), &fakeBio{})
	h.activate(t, nil)

	h.ctl.SubmitSecret("wrong")
	h.events.until(t, StateAwaitingInput)
	h.ctl.SubmitSecret("still wrong")
	h.events.until(t, StateAwaitingInput)

	_, hash := h.store.calls()
	assert.Equal(t, 1, hash)
}

func TestSubmitSecret_VerifierPanicIsUnexpected(t *testing.T) {
	h := newHarness(t, storeWithSecret(false), &fakeBio{})
	h.ctl.verify = func(string, []byte) bool { panic("boom") }
	h.activate(t, nil)

	h.ctl.SubmitSecret(secret)
	evs := h.events.until(t, StateAwaitingInput)
	last := evs[len(evs)-1]

	require.NotNil(t, last.Err)
	assert.Equal(t, KindUnexpected, last.Err.Kind)
	assert.ErrorIs(t, last.Err, ErrUnexpected)
}

func TestSubmitSecret_PreemptsBiometricWithoutError(t *testing.T) {
	bio := &fakeBio{}
	h := newHarness(t, storeWithSecret(true), bio)
	h.activate(t, nil)
	h.events.until(t, StateVerifyingBiometric)
	require.Eventually(t, func() bool { return bio.snapshot().Calls == 1 }, time.Second, 5*time.Millisecond)

	h.ctl.SubmitSecret(secret)
	evs := h.events.until(t, StateUnlocked)
	for _, ev := range evs {
		assert.Nil(t, ev.Err, "state %s", ev.State)
	}
	assert.Equal(t, StateVerifyingSecret, evs[0].State)

	require.Eventually(t, func() bool { return bio.snapshot().Cancelled == 1 }, time.Second, 5*time.Millisecond)
	h.events.quiet(t)
}

func TestBiometric_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		outcome  biometric.Outcome
		want     State
		wantKind ErrorKind
	}{
		{name: "success", outcome: biometric.Success([]byte("sig")), want: StateUnlocked},
		{name: "cancelled is silent", outcome: biometric.Cancelled(), want: StateAwaitingInput},
		{name: "denied is silent", outcome: biometric.Denied(), want: StateAwaitingInput},
		{
			name:     "other error is shown",
			outcome:  biometric.OtherError(biometric.KindSecurity, "bad origin"),
			want:     StateAwaitingInput,
			wantKind: KindBiometric,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bio := &fakeBio{Outcomes: []biometric.Outcome{tt.outcome}}
			h := newHarness(t, storeWithSecret(true), bio)
			h.activate(t, nil)

			ev := h.events.next(t)
			require.Equal(t, StateVerifyingBiometric, ev.State)
			ev = h.events.next(t)
			assert.Equal(t, tt.want, ev.State)

			if tt.wantKind == 0 {
				assert.Nil(t, ev.Err)
				return
			}
			require.NotNil(t, ev.Err)
			assert.Equal(t, tt.wantKind, ev.Err.Kind)
			assert.Equal(t, "Biometric verification failed: bad origin", ev.Err.Message)
			var pe *biometric.PlatformError
			require.ErrorAs(t, ev.Err, &pe)
			assert.Equal(t, biometric.KindSecurity, pe.Kind)
		})
	}
}

func TestBiometric_SuccessFiresHandlerOnce(t *testing.T) {
	bio := &fakeBio{Outcomes: []biometric.Outcome{biometric.Success([]byte("sig"))}}
	h := newHarness(t, storeWithSecret(true), bio)
	h.activate(t, nil)
	h.events.until(t, StateUnlocked)

	h.settle(t)
	require.Eventually(t, func() bool { return h.fired.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRetryBiometric_NeverOverlaps(t *testing.T) {
	bio := &fakeBio{}
	h := newHarness(t, storeWithSecret(true), bio)
	h.activate(t, nil)
	h.events.until(t, StateVerifyingBiometric)

	for i := 0; i < 5; i++ {
		h.ctl.RetryBiometric()
		ev := h.events.next(t)
		assert.Equal(t, StateVerifyingBiometric, ev.State)
	}

	// replaced attempts may be dropped before reaching the platform; the last one is live
	require.Eventually(t, func() bool {
		s := bio.snapshot()
		return s.InFlight == 1 && s.Calls >= 2 && s.Cancelled == s.Calls-1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, bio.snapshot().MaxInFlight)
}

func TestRetryBiometric_AttemptIDsDiffer(t *testing.T) {
	h := newHarness(t, storeWithSecret(true), &fakeBio{})
	h.activate(t, nil)
	first := h.events.next(t)

	h.ctl.RetryBiometric()
	second := h.events.next(t)

	assert.NotEqual(t, first.AttemptID, second.AttemptID)
}

func TestRetryBiometric_IgnoredWhileVerifyingSecret(t *testing.T) {
	h := newHarness(t, storeWithSecret(false), &fakeBio{})
	h.activate(t, nil)
	h.ctl.SubmitSecret(secret)
	h.events.until(t, StateUnlocked)

	h.ctl.RetryBiometric()
	h.events.quiet(t)
	assert.Equal(t, 0, h.bio.snapshot().Calls)
}

func TestDispose_DuringBiometricSuppressesUnlock(t *testing.T) {
	release := make(chan struct{})
	bio := &fakeBio{Release: release}
	h := newHarness(t, storeWithSecret(true), bio)
	h.activate(t, nil)
	h.events.until(t, StateVerifyingBiometric)
	require.Eventually(t, func() bool { return bio.snapshot().Calls == 1 }, time.Second, 5*time.Millisecond)

	h.ctl.Dispose()
	close(release)

	h.events.quiet(t)
	h.clock.Advance(10 * SettleDelay)
	require.Never(t, func() bool { return h.fired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestDispose_CancelsPendingBiometric(t *testing.T) {
	bio := &fakeBio{}
	h := newHarness(t, storeWithSecret(true), bio)
	h.activate(t, nil)
	h.events.until(t, StateVerifyingBiometric)
	require.Eventually(t, func() bool { return bio.snapshot().Calls == 1 }, time.Second, 5*time.Millisecond)

	h.ctl.Dispose()
	require.Eventually(t, func() bool { return bio.snapshot().Cancelled == 1 }, time.Second, 5*time.Millisecond)
	h.events.quiet(t)
}

func TestDispose_DuringSettleSuppressesUnlock(t *testing.T) {
	h := newHarness(t, storeWithSecret(false), &fakeBio{})
	h.activate(t, nil)
	h.ctl.SubmitSecret(secret)
	h.events.until(t, StateUnlocked)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))

	h.ctl.Dispose()
	h.clock.Advance(10 * SettleDelay)
	require.Never(t, func() bool { return h.fired.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestDispose_Idempotent(t *testing.T) {
	h := newHarness(t, storeWithSecret(false), &fakeBio{})
	h.ctl.Dispose()
	h.ctl.Dispose()

	// calls after dispose return without blocking
	h.ctl.Activate(context.Background(), nil)
	h.ctl.SubmitSecret(secret)
	h.ctl.RetryBiometric()
	h.events.quiet(t)
}

func TestDispose_FromUnlockHandler(t *testing.T) {
	clock := clockwork.NewFakeClock()
	events := newRecorder()
	done := make(chan struct{})

	var ctl *Controller
	ctl = New(NewGate(storeWithSecret(false), nil), &fakeBio{},
		WithClock(clock),
		WithObserver(events.observe),
		WithUnlockHandler(func() {
			ctl.Dispose()
			close(done)
		}),
	)

	ctl.Activate(context.Background(), nil)
	ctl.SubmitSecret(secret)
	events.until(t, StateUnlocked)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(SettleDelay)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("unlock handler did not run")
	}
}

// hookLogger calls onDebug for every debug message.
type hookLogger struct {
	logging.Nop
	onDebug func(msg string)
}

func (l hookLogger) Debug(_ context.Context, msg string, _ ...any) {
	if l.onDebug != nil {
		l.onDebug(msg)
	}
}

func (l hookLogger) With(...any) logging.Logger { return l }

func TestDispose_WhenSettleElapsesSuppressesHandler(t *testing.T) {
	clock := clockwork.NewFakeClock()
	events := newRecorder()

	var (
		ctl      *Controller
		disposed atomic.Bool
		fired    atomic.Int32
	)
	// экран закрывают ровно в момент срабатывания таймера
	logger := hookLogger{onDebug: func(msg string) {
		if msg == "settle delay elapsed" {
			ctl.Dispose()
			disposed.Store(true)
		}
	}}
	ctl = New(NewGate(storeWithSecret(false), nil), &fakeBio{},
		WithClock(clock),
		WithLogger(logger),
		WithObserver(events.observe),
		WithUnlockHandler(func() { fired.Add(1) }),
	)
	t.Cleanup(ctl.Dispose)

	ctl.Activate(context.Background(), nil)
	ctl.SubmitSecret(secret)
	events.until(t, StateUnlocked)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(SettleDelay)

	require.Eventually(t, disposed.Load, 2*time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return fired.Load() > 0 }, 100*time.Millisecond, 5*time.Millisecond)
}

func TestDispose_DoesNotWaitForBlockedObserver(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	ctl := New(NewGate(storeWithSecret(false), nil), &fakeBio{},
		WithObserver(func(Event) {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
		}),
	)
	defer close(release)

	ctl.Activate(context.Background(), nil)
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("observer not called")
	}

	returned := make(chan struct{})
	go func() {
		ctl.Dispose()
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Dispose blocked on a running observer")
	}
}

func TestDispose_CancelsActivationReads(t *testing.T) {
	bio := &fakeBio{AvailableBlock: true}
	h := newHarness(t, storeWithSecret(false), bio)
	h.activate(t, boolPtr(true))

	require.Eventually(t, func() bool { return bio.snapshot().AvailableCalls == 1 }, 2*time.Second, 5*time.Millisecond)

	h.ctl.Dispose()

	assert.Eventually(t, func() bool { return bio.snapshot().AvailableCancelled == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestSpans_OnePerAttempt(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	events := newRecorder()
	bio := &fakeBio{Outcomes: []biometric.Outcome{biometric.Denied()}}
	ctl := New(NewGate(storeWithSecret(true), nil), bio,
		WithObserver(events.observe),
		WithTracer(tp.Tracer("test")),
	)
	t.Cleanup(ctl.Dispose)

	ctl.Activate(context.Background(), nil)
	events.until(t, StateVerifyingBiometric)
	events.until(t, StateAwaitingInput)
	ctl.SubmitSecret(secret)
	events.until(t, StateUnlocked)

	spans := rec.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "unlock.biometric", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("outcome", "denied"))
	assert.Equal(t, "unlock.secret", spans[1].Name())
	assert.Contains(t, spans[1].Attributes(), attribute.Bool("match", true))
}

// ---- recording authenticator for the challenger path ----

type recordingAuthenticator struct {
	mu   sync.Mutex
	reqs []biometric.Request
}

func (r *recordingAuthenticator) Assert(ctx context.Context, req biometric.Request) ([]byte, error) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (r *recordingAuthenticator) Available(context.Context) (bool, error) { return true, nil }

func (r *recordingAuthenticator) requests() []biometric.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]biometric.Request(nil), r.reqs...)
}

func TestRetryAfterMismatch_WaitsForPreemptedPlatformCall(t *testing.T) {
	// платформа игнорирует отмену и отвечает только после Release
	bio := &fakeBio{Release: make(chan struct{})}
	h := newHarness(t, storeWithSecret(true), bio)
	h.activate(t, nil)

	require.Equal(t, StateVerifyingBiometric, h.events.next(t).State)
	require.Eventually(t, func() bool { return bio.snapshot().Calls == 1 }, 2*time.Second, 5*time.Millisecond)

	h.ctl.SubmitSecret("wrong")
	evs := h.events.until(t, StateAwaitingInput)
	last := evs[len(evs)-1]
	require.NotNil(t, last.Err)
	require.Equal(t, KindSecretMismatch, last.Err.Kind)

	h.ctl.RetryBiometric()
	require.Equal(t, StateVerifyingBiometric, h.events.next(t).State)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, bio.snapshot().Calls, "retry must wait for the stuck call")

	close(bio.Release)
	h.events.until(t, StateUnlocked)

	st := bio.snapshot()
	assert.Equal(t, 2, st.Calls)
	assert.Equal(t, 1, st.MaxInFlight)

	h.settle(t)
	assert.Eventually(t, func() bool { return h.fired.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
}
