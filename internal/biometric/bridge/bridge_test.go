package bridge

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophlock/internal/biometric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const testSecret = "bridge-secret"

// ---- fake platform ----

type blockingPlatform struct {
	started chan struct{}
}

func (p *blockingPlatform) Assert(ctx context.Context, req biometric.Request) ([]byte, error) {
	close(p.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func (p *blockingPlatform) Available(context.Context) (bool, error) { return false, nil }

type panickyPlatform struct{}

func (panickyPlatform) Assert(context.Context, biometric.Request) ([]byte, error) {
	panic("sensor on fire")
}
func (panickyPlatform) Available(context.Context) (bool, error) { return true, nil }

// ---- harness ----

// startBridge serves p over an in-memory listener and returns a client for it.
func startBridge(t *testing.T, p Platform, clientSecret string) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv, err := NewServer("bufnet", p, nil, testSecret)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	c, err := NewClient("passthrough:///bufnet", clientSecret, nil,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("bridge server did not stop")
		}
	})
	return c
}

func newRequest(t *testing.T) biometric.Request {
	t.Helper()
	req, err := biometric.NewRequest("localhost", time.Minute)
	require.NoError(t, err)
	return req
}

// ---- TESTS ----

func TestBridge_AllowReturnsProof(t *testing.T) {
	c := startBridge(t, AllowPlatform{}, testSecret)
	req := newRequest(t)

	proof, err := c.Assert(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, proofFor(req), proof)

	ok, err := c.Available(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBridge_ThroughChallenger(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		secret   string
		want     biometric.OutcomeKind
	}{
		{name: "allow", platform: AllowPlatform{}, secret: testSecret, want: biometric.OutcomeSuccess},
		{name: "deny", platform: DenyPlatform{}, secret: testSecret, want: biometric.OutcomeDenied},
		{name: "wrong secret", platform: AllowPlatform{}, secret: "intruder", want: biometric.OutcomeDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := startBridge(t, tt.platform, tt.secret)
			ch := biometric.NewChallenger(c, "localhost", time.Minute)

			out := ch.Start(context.Background())
			assert.Equal(t, tt.want, out.Kind)
		})
	}
}

func TestBridge_CancelReachesPlatform(t *testing.T) {
	p := &blockingPlatform{started: make(chan struct{})}
	c := startBridge(t, p, testSecret)
	ch := biometric.NewChallenger(c, "localhost", time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	res := make(chan biometric.Outcome, 1)
	go func() { res <- ch.Start(ctx) }()

	select {
	case <-p.started:
	case <-time.After(2 * time.Second):
		t.Fatal("platform never called")
	}
	cancel()

	select {
	case out := <-res:
		assert.Equal(t, biometric.OutcomeCancelled, out.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestBridge_PanicBecomesUnknown(t *testing.T) {
	c := startBridge(t, panickyPlatform{}, testSecret)

	_, err := c.Assert(context.Background(), newRequest(t))
	var pe *biometric.PlatformError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, biometric.KindUnknown, pe.Kind)
	assert.Equal(t, "internal bridge failure", pe.Message)
}

func TestConsolePlatform(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind biometric.ErrorKind
	}{
		{name: "approve", input: "y\n"},
		{name: "approve long", input: " YES \n"},
		{name: "decline", input: "n\n", wantKind: biometric.KindNotAllowed},
		{name: "empty", input: "\n", wantKind: biometric.KindNotAllowed},
		{name: "closed", input: "", wantKind: biometric.KindInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			p := NewConsolePlatform(strings.NewReader(tt.input), &out)
			req := newRequest(t)

			proof, err := p.Assert(context.Background(), req)
			assert.Contains(t, out.String(), `Unlock requested for "localhost"`)

			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, proofFor(req), proof)
				return
			}
			var pe *biometric.PlatformError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantKind, pe.Kind)
		})
	}
}

func TestConsolePlatform_CancelWithdraws(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewConsolePlatform(pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Assert(ctx, newRequest(t))
	assert.True(t, errors.Is(err, biometric.ErrCancelled))
}

func TestNewPlatform(t *testing.T) {
	for _, mode := range []string{ModeAllow, ModeDeny, ModeConsole} {
		p, err := NewPlatform(mode, strings.NewReader(""), io.Discard)
		require.NoError(t, err, mode)
		assert.NotNil(t, p)
	}

	_, err := NewPlatform("telepathy", nil, nil)
	assert.Error(t, err)
}

func TestNewServer_Validates(t *testing.T) {
	_, err := NewServer(":0", nil, nil, testSecret)
	assert.Error(t, err)

	_, err = NewServer(":0", AllowPlatform{}, nil, "")
	assert.Error(t, err)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", AllowPlatform{}, nil, testSecret)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "Run returned error on graceful stop")
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	srv, err := NewServer("127.0.0.1:99999", AllowPlatform{}, nil, testSecret)
	require.NoError(t, err)

	require.Error(t, srv.Run(context.Background()))
}
