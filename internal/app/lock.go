package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dmitrijs2005/gophlock/internal/biometric"
	"github.com/dmitrijs2005/gophlock/internal/biometric/bridge"
	"github.com/dmitrijs2005/gophlock/internal/config"
	"github.com/dmitrijs2005/gophlock/internal/configstore"
	"github.com/dmitrijs2005/gophlock/internal/filex"
	"github.com/dmitrijs2005/gophlock/internal/i18n"
	"github.com/dmitrijs2005/gophlock/internal/lockscreen/prompt"
	"github.com/dmitrijs2005/gophlock/internal/lockscreen/tui"
	"github.com/dmitrijs2005/gophlock/internal/logging"
	"github.com/dmitrijs2005/gophlock/internal/telemetry"
	"github.com/dmitrijs2005/gophlock/internal/unlock"
)

const lockServiceName = "gophlock"

type LockApp struct {
	config *config.Config
	logger logging.Logger
	in     io.Reader
	out    io.Writer

	logFile *os.File
}

// NewLockApp prepares a lock bound to the process terminal. Logs go to
// LogFile when set; otherwise to stderr, except under the full-screen view
// where they are discarded.
func NewLockApp(c *config.Config) (*LockApp, error) {
	app := &LockApp{config: c, in: os.Stdin, out: os.Stdout}

	var w io.Writer = os.Stderr
	switch {
	case c.LogFile != "":
		if _, err := filex.EnsureParentDir(c.LogFile); err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
		app.logFile = f
		w = f
	case !c.Plain:
		w = io.Discard
	}
	app.logger = logging.New(w, c.LogFormat, c.LogLevel).With("app", lockServiceName)

	return app, nil
}

// Close releases the log file, if any.
func (app *LockApp) Close() error {
	if app.logFile != nil {
		return app.logFile.Close()
	}
	return nil
}

func (app *LockApp) openStore(ctx context.Context) (*configstore.Handle, error) {
	if app.config.StoreDriver == configstore.DriverSQLite && filex.IsFilePath(app.config.StoreDSN) {
		if _, err := filex.EnsureParentDir(app.config.StoreDSN); err != nil {
			return nil, fmt.Errorf("store init error: %w", err)
		}
	}
	h, err := configstore.Open(ctx, app.config.StoreDriver, app.config.StoreDSN, app.config.StoreProfile)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}
	return h, nil
}

// authenticator returns the bridge client, or biometric.Unavailable when no
// bridge is configured. The returned func releases it.
func (app *LockApp) authenticator(ctx context.Context) (biometric.Authenticator, func() error, error) {
	if app.config.BridgeAddr == "" {
		app.logger.Info(ctx, "No biometric bridge configured")
		return biometric.Unavailable{}, func() error { return nil }, nil
	}

	c, err := bridge.NewClient(app.config.BridgeAddr, app.config.BridgeSecret, app.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("bridge client init error: %w", err)
	}
	return c, c.Close, nil
}

// Run shows the lock until it opens, the user dismisses it or ctx is done.
// The result reports whether the lock opened.
func (app *LockApp) Run(ctx context.Context) (bool, error) {
	shutdown, err := telemetry.Setup(ctx, lockServiceName, app.config.OTLPEndpoint)
	if err != nil {
		return false, fmt.Errorf("telemetry init error: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			app.logger.Warn(ctx, "telemetry shutdown failed", "error", err)
		}
	}()

	tr, err := i18n.New(app.config.Language)
	if err != nil {
		return false, fmt.Errorf("i18n init error: %w", err)
	}

	hint, err := app.config.Hint()
	if err != nil {
		return false, err
	}

	store, err := app.openStore(ctx)
	if err != nil {
		return false, err
	}
	defer store.Close()

	auth, closeAuth, err := app.authenticator(ctx)
	if err != nil {
		return false, err
	}
	defer closeAuth()

	gate := unlock.NewGate(store, app.logger)
	bio := biometric.NewChallenger(auth, app.config.RelyingPartyID, app.config.AssertTimeout)
	opts := []unlock.Option{
		unlock.WithLogger(app.logger),
		unlock.WithMessages(tr),
	}

	app.logger.Info(ctx, "Lock shown", "plain", app.config.Plain, "bridge", app.config.BridgeAddr != "")

	var unlocked bool
	if app.config.Plain {
		unlocked, err = app.runPrompt(ctx, gate, bio, tr, hint, opts)
	} else {
		unlocked, err = app.runTUI(ctx, gate, bio, tr, hint, opts)
	}
	if err != nil {
		return false, err
	}

	app.logger.Info(ctx, "Lock closed", "unlocked", unlocked)
	return unlocked, nil
}

func (app *LockApp) runPrompt(ctx context.Context, gate *unlock.Gate, bio unlock.Biometrics, tr *i18n.Localizer, hint *bool, opts []unlock.Option) (bool, error) {
	p := prompt.New(tr, app.in, app.out)

	ctl := unlock.New(gate, bio, append(opts,
		unlock.WithObserver(p.Observe),
		unlock.WithUnlockHandler(p.Unlocked),
	)...)
	defer ctl.Dispose()

	return p.Run(ctx, ctl, hint)
}

func (app *LockApp) runTUI(ctx context.Context, gate *unlock.Gate, bio unlock.Biometrics, tr *i18n.Localizer, hint *bool, opts []unlock.Option) (bool, error) {
	var sink tui.Sink

	ctl := unlock.New(gate, bio, append(opts,
		unlock.WithObserver(sink.Observe),
		unlock.WithUnlockHandler(sink.Unlocked),
	)...)
	defer ctl.Dispose()

	prog := tea.NewProgram(
		tui.New(ctx, ctl, tr, hint, app.config.Avatar),
		tea.WithContext(ctx),
		tea.WithInput(app.in),
		tea.WithOutput(app.out),
		tea.WithAltScreen(),
	)
	sink.Attach(prog)

	final, err := prog.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("lock screen: %w", err)
	}

	m, ok := final.(tui.Model)
	return ok && m.Unlocked(), nil
}
