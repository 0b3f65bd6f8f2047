package unlock

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Attempt is one verification attempt. Its context is the cancellation token
// handed to the worker; finished is closed when the worker returns.
type Attempt struct {
	ID      uuid.UUID
	Method  Method
	Started time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	finished chan struct{}
}

func newAttempt(parent context.Context, m Method, now time.Time) *Attempt {
	ctx, cancel := context.WithCancel(parent)
	return &Attempt{
		ID:       uuid.New(),
		Method:   m,
		Started:  now,
		ctx:      ctx,
		cancel:   cancel,
		finished: make(chan struct{}),
	}
}

// slot holds the single live attempt.
type slot struct {
	cur *Attempt
}

// replace cancels the live attempt, then installs next. It returns the
// replaced attempt so the caller can wait for its worker.
func (s *slot) replace(next *Attempt) *Attempt {
	prev := s.cur
	if prev != nil {
		prev.cancel()
		if prev.ctx.Err() == nil {
			panic(ErrAttemptOverlap)
		}
	}
	s.cur = next
	return prev
}

func (s *slot) isCurrent(a *Attempt) bool {
	return a != nil && s.cur == a
}

// release retires a if it is still live.
func (s *slot) release(a *Attempt) {
	if s.isCurrent(a) {
		a.cancel()
		s.cur = nil
	}
}

func (s *slot) cancel() {
	if s.cur != nil {
		s.cur.cancel()
		s.cur = nil
	}
}
