package bridge

import (
	"bufio"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophlock/internal/biometric"
)

// Platform modes accepted by NewPlatform.
const (
	ModeAllow   = "allow"
	ModeDeny    = "deny"
	ModeConsole = "console"
)

// NewPlatform builds the platform named by mode. in and out are only used
// by the console platform.
func NewPlatform(mode string, in io.Reader, out io.Writer) (Platform, error) {
	switch mode {
	case ModeAllow:
		return AllowPlatform{}, nil
	case ModeDeny:
		return DenyPlatform{}, nil
	case ModeConsole:
		return NewConsolePlatform(in, out), nil
	default:
		return nil, fmt.Errorf("unknown platform mode %q", mode)
	}
}

// AllowPlatform approves every request. The proof is a digest binding the
// challenge to the relying party.
type AllowPlatform struct{}

func (AllowPlatform) Assert(ctx context.Context, req biometric.Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return proofFor(req), nil
}

func (AllowPlatform) Available(context.Context) (bool, error) { return true, nil }

// DenyPlatform declines every request as a user would.
type DenyPlatform struct{}

func (DenyPlatform) Assert(ctx context.Context, req biometric.Request) ([]byte, error) {
	return nil, &biometric.PlatformError{Kind: biometric.KindNotAllowed, Message: "declined by policy"}
}

func (DenyPlatform) Available(context.Context) (bool, error) { return true, nil }

// ConsolePlatform asks an operator to approve each request on a terminal.
// Requests are answered one at a time.
type ConsolePlatform struct {
	mu    sync.Mutex
	out   io.Writer
	lines chan string
}

func NewConsolePlatform(in io.Reader, out io.Writer) *ConsolePlatform {
	p := &ConsolePlatform{out: out, lines: make(chan string)}
	go p.readLines(in)
	return p
}

func (p *ConsolePlatform) readLines(in io.Reader) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		p.lines <- sc.Text()
	}
	close(p.lines)
}

func (p *ConsolePlatform) Assert(ctx context.Context, req biometric.Request) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "Unlock requested for %q. Approve? [y/N]: ", req.RelyingPartyID)

	select {
	case <-ctx.Done():
		fmt.Fprintln(p.out, "\nrequest withdrawn")
		return nil, &biometric.PlatformError{Kind: biometric.KindAbort, Message: "request withdrawn"}
	case line, ok := <-p.lines:
		if !ok {
			return nil, &biometric.PlatformError{Kind: biometric.KindInvalidState, Message: "operator console closed"}
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return proofFor(req), nil
		default:
			return nil, &biometric.PlatformError{Kind: biometric.KindNotAllowed, Message: "declined by operator"}
		}
	}
}

func (p *ConsolePlatform) Available(context.Context) (bool, error) { return true, nil }

func proofFor(req biometric.Request) []byte {
	h := sha256.New()
	h.Write([]byte(req.RelyingPartyID))
	h.Write(req.Challenge)
	return h.Sum(nil)
}
