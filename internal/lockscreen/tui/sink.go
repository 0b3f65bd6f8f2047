package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dmitrijs2005/gophlock/internal/unlock"
)

// Sink forwards controller notifications into a program. Messages sent
// before Attach are dropped.
type Sink struct {
	p atomic.Pointer[tea.Program]
}

func (s *Sink) Attach(p *tea.Program) { s.p.Store(p) }

// Observe is an unlock observer.
func (s *Sink) Observe(ev unlock.Event) { s.send(EventMsg{Event: ev}) }

// Unlocked is an unlock handler.
func (s *Sink) Unlocked() { s.send(UnlockedMsg{}) }

func (s *Sink) send(msg tea.Msg) {
	if p := s.p.Load(); p != nil {
		p.Send(msg)
	}
}
