package unlock

import (
	"github.com/dmitrijs2005/gophlock/internal/logging"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*Controller)

// WithClock replaces the real clock, mostly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

func WithLogger(l logging.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(ctl *Controller) { ctl.tracer = t }
}

func WithMessages(m Messages) Option {
	return func(ctl *Controller) { ctl.messages = m }
}

// WithObserver registers fn to receive every Event. fn runs on the
// controller's loop goroutine; it may call back into the controller.
func WithObserver(fn func(Event)) Option {
	return func(ctl *Controller) { ctl.observer = fn }
}

// WithUnlockHandler registers the callback fired once after unlocking.
func WithUnlockHandler(fn func()) Option {
	return func(ctl *Controller) { ctl.onUnlock = fn }
}
