// Package prompt is the line-oriented lock view for terminals where the
// full-screen view is unavailable or unwanted.
//
// Each line read is either a command or a password:
//
//	:bio   start a biometric attempt
//	:quit  leave without unlocking
//
// Anything else is submitted as the password. On a terminal the input is
// read without echo.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/dmitrijs2005/gophlock/internal/i18n"
	"github.com/dmitrijs2005/gophlock/internal/lockscreen"
	"github.com/dmitrijs2005/gophlock/internal/unlock"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

const (
	cmdBiometric = ":bio"
	cmdQuit      = ":quit"
)

type line struct {
	text string
	err  error
}

type Prompt struct {
	ctl lockscreen.Unlocker
	tr  lockscreen.Translator
	out io.Writer

	readLine func() (string, error)

	events   chan unlock.Event
	unlocked chan struct{}
	once     sync.Once
}

// New builds a prompt reading from in and writing to out. Attach it to the
// controller with unlock.WithObserver(p.Observe) and
// unlock.WithUnlockHandler(p.Unlocked).
func New(tr lockscreen.Translator, in io.Reader, out io.Writer) *Prompt {
	p := &Prompt{
		tr:       tr,
		out:      out,
		events:   make(chan unlock.Event, 16),
		unlocked: make(chan struct{}),
	}

	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		fd, read := int(f.Fd()), readPassword
		p.readLine = func() (string, error) {
			b, err := read(fd)
			defer common.WipeByteArray(b)
			fmt.Fprintln(out)
			return string(b), err
		}
	} else {
		r := bufio.NewReader(in)
		p.readLine = func() (string, error) {
			s, err := r.ReadString('\n')
			if err != nil && errors.Is(err, io.EOF) && len(s) > 0 {
				err = nil
			}
			return strings.TrimRight(s, "\r\n"), err
		}
	}

	return p
}

// Observe queues a controller event for display. Events are dropped when the
// queue is full or nobody is reading anymore.
func (p *Prompt) Observe(ev unlock.Event) {
	select {
	case p.events <- ev:
	default:
	}
}

// Unlocked ends Run with a positive result.
func (p *Prompt) Unlocked() {
	p.once.Do(func() { close(p.unlocked) })
}

// Run activates ctl and serves the prompt until the lock opens, the user
// quits or ctx is done. The boolean result reports whether the lock opened.
func (p *Prompt) Run(ctx context.Context, ctl lockscreen.Unlocker, hint *bool) (bool, error) {
	p.ctl = ctl

	done := make(chan struct{})
	defer close(done)

	lines := make(chan line)
	go p.readLoop(lines, done)

	p.println(p.tr.T(i18n.MsgLockTitle))
	p.println(p.tr.T(i18n.MsgHelpPrompt))
	p.ctl.Activate(ctx, hint)

	for {
		// unlock wins over input that is already queued
		select {
		case <-p.unlocked:
			p.drain()
			return true, nil
		default:
		}

		select {
		case <-p.unlocked:
			p.drain()
			return true, nil

		case ev := <-p.events:
			p.render(ev)

		case l := <-lines:
			if l.err != nil {
				p.ctl.Dispose()
				p.drain()
				if errors.Is(l.err, io.EOF) {
					return false, nil
				}
				return false, fmt.Errorf("read input: %w", l.err)
			}
			if p.handle(l.text) {
				p.ctl.Dispose()
				p.drain()
				return false, nil
			}

		case <-ctx.Done():
			p.ctl.Dispose()
			return false, ctx.Err()
		}
	}
}

// handle dispatches one input line and reports whether the user asked to quit.
func (p *Prompt) handle(text string) bool {
	switch strings.TrimSpace(text) {
	case "":
		return false
	case cmdQuit:
		return true
	case cmdBiometric:
		p.ctl.RetryBiometric()
	default:
		p.ctl.SubmitSecret(text)
	}
	return false
}

func (p *Prompt) readLoop(lines chan<- line, done <-chan struct{}) {
	for {
		s, err := p.readLine()
		select {
		case lines <- line{text: s, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (p *Prompt) drain() {
	for {
		select {
		case ev := <-p.events:
			p.render(ev)
		default:
			return
		}
	}
}

func (p *Prompt) render(ev unlock.Event) {
	if ev.State == unlock.StateIdle {
		return
	}
	p.println("* " + lockscreen.StatusLine(p.tr, ev.State))
	if ev.Err != nil {
		p.println("! " + ev.Err.Message)
	}
}

func (p *Prompt) println(s string) {
	fmt.Fprintln(p.out, s)
}
