package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/d60-Lab/gin-blog/pkg/client"
)

// authDoneMsg carries the result of a login or register attempt.
type authDoneMsg struct {
	seq int
	err error
}

func (m authDoneMsg) sequence() int { return m.seq }

const (
	loginEmail = iota
	loginPassword
	numLoginFields
)

type loginModel struct {
	session    Session
	seq        int
	fields     [numLoginFields]string
	focus      int
	submitting bool
	err        string
}

func newLoginModel(s Session, seq int) loginModel {
	return loginModel{session: s, seq: seq}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case authDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = client.DisplayMessage(msg.err, "Login failed")
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+r":
			return m, navigate(m.seq, viewRegister, "")
		case "tab", "down":
			m.focus = (m.focus + 1) % numLoginFields
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
		case "enter":
			if m.focus < numLoginFields-1 {
				m.focus++
				return m, nil
			}
			return m.submit()
		case "ctrl+s":
			return m.submit()
		default:
			m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
		}
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.fields[loginEmail])
	password := m.fields[loginPassword]
	if email == "" || password == "" {
		m.err = "Email and password are required"
		return m, nil
	}
	m.submitting = true
	m.err = ""
	s, seq := m.session, m.seq
	return m, func() tea.Msg {
		err := s.Login(context.Background(), email, password)
		return authDoneMsg{seq: seq, err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("Log in") + "\n\n")
	labels := [numLoginFields]string{"email", "password"}
	for i := 0; i < numLoginFields; i++ {
		value := m.fields[i]
		if i == loginPassword {
			value = strings.Repeat("*", len([]rune(value)))
		}
		b.WriteString(renderField(labels[i], value, i == m.focus))
	}
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(dimStyle.Render("logging in..."))
	case m.err != "":
		b.WriteString(errorStyle.Render(m.err))
	}
	return b.String()
}

// renderField draws a single-line labelled input.
func renderField(label, value string, focused bool) string {
	cursor := " "
	style := metaStyle
	if focused {
		cursor = ">"
		style = selectedStyle
		value += "█"
	}
	return fmt.Sprintf("%s %s: %s\n", cursor, style.Render(label), value)
}
