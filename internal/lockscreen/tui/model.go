// Package tui is the full-screen lock view.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/gophlock/internal/i18n"
	"github.com/dmitrijs2005/gophlock/internal/lockscreen"
	"github.com/dmitrijs2005/gophlock/internal/unlock"
)

// EventMsg carries a controller event into the program.
type EventMsg struct {
	Event unlock.Event
}

// UnlockedMsg is sent when the controller fires its unlock handler.
type UnlockedMsg struct{}

type Model struct {
	ctx    context.Context
	ctl    lockscreen.Unlocker
	tr     lockscreen.Translator
	hint   *bool
	avatar string

	input    textinput.Model
	state    unlock.State
	errText  string
	unlocked bool
	quitting bool
}

func New(ctx context.Context, ctl lockscreen.Unlocker, tr lockscreen.Translator, hint *bool, avatar string) Model {
	t := textinput.New()
	t.Prompt = tr.T(i18n.MsgSecretLabel) + ": "
	t.EchoMode = textinput.EchoPassword
	t.EchoCharacter = '•'
	t.CharLimit = 256
	t.Width = 32
	t.Cursor.Style = focusedStyle
	t.Focus()

	return Model{
		ctx:    ctx,
		ctl:    ctl,
		tr:     tr,
		hint:   hint,
		avatar: avatar,
		input:  t,
		state:  unlock.StateIdle,
	}
}

// Unlocked reports whether the program ended because the lock opened.
func (m Model) Unlocked() bool { return m.unlocked }

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.activate)
}

func (m Model) activate() tea.Msg {
	m.ctl.Activate(m.ctx, m.hint)
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		m.state = msg.Event.State
		m.errText = ""
		if msg.Event.Err != nil {
			m.errText = msg.Event.Err.Message
		}
		if msg.Event.ClearSecret {
			m.input.Reset()
		}
		return m, nil

	case UnlockedMsg:
		m.unlocked = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			m.quitting = true
			m.ctl.Dispose()
			return m, tea.Quit
		case "ctrl+b":
			m.ctl.RetryBiometric()
			return m, nil
		case "enter":
			if v := m.input.Value(); v != "" && m.state.AcceptsSecret() {
				m.ctl.SubmitSecret(v)
			}
			return m, nil
		}
	}

	if m.state == unlock.StateUnlocked {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	header := titleStyle.Render(m.tr.T(i18n.MsgLockTitle))
	if m.avatar != "" {
		header = lipgloss.JoinHorizontal(lipgloss.Center, avatarStyle.Render(m.avatar), header)
	}
	b.WriteString(header + "\n\n")

	if m.state == unlock.StateUnlocked {
		b.WriteString(successStyle.Render(lockscreen.StatusLine(m.tr, m.state)) + "\n")
		return docStyle.Render(b.String())
	}

	b.WriteString(m.input.View() + "\n")
	b.WriteString(statusStyle.Render(lockscreen.StatusLine(m.tr, m.state)) + "\n")
	if m.errText != "" {
		b.WriteString(errorStyle.Render(m.errText) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(m.tr.T(i18n.MsgHelpKeys)))

	return docStyle.Render(b.String())
}
