package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/d60-Lab/gin-blog/pkg/client"
	"github.com/d60-Lab/gin-blog/pkg/domain"
)

const (
	registerName = iota
	registerEmail
	registerPassword
	registerConfirmation
	numRegisterFields
)

type registerModel struct {
	session    Session
	seq        int
	fields     [numRegisterFields]string
	focus      int
	submitting bool
	err        string
}

func newRegisterModel(s Session, seq int) registerModel {
	return registerModel{session: s, seq: seq}
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case authDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = client.DisplayMessage(msg.err, "Registration failed")
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, navigate(m.seq, viewLogin, "")
		case "tab", "down":
			m.focus = (m.focus + 1) % numRegisterFields
		case "shift+tab", "up":
			m.focus = (m.focus - 1 + numRegisterFields) % numRegisterFields
		case "enter":
			if m.focus < numRegisterFields-1 {
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

func (m registerModel) submit() (registerModel, tea.Cmd) {
	req := domain.RegisterRequest{
		Name:                 strings.TrimSpace(m.fields[registerName]),
		Email:                strings.TrimSpace(m.fields[registerEmail]),
		Password:             m.fields[registerPassword],
		PasswordConfirmation: m.fields[registerConfirmation],
	}
	m.submitting = true
	m.err = ""
	s, seq := m.session, m.seq
	return m, func() tea.Msg {
		err := s.Register(context.Background(), req)
		return authDoneMsg{seq: seq, err: err}
	}
}

func (m registerModel) View() string {
	var b strings.Builder
	b.WriteString(selectedStyle.Render("Create account") + "\n\n")
	labels := [numRegisterFields]string{"name", "email", "password", "confirm"}
	for i := 0; i < numRegisterFields; i++ {
		value := m.fields[i]
		if i == registerPassword || i == registerConfirmation {
			value = strings.Repeat("*", len([]rune(value)))
		}
		b.WriteString(renderField(labels[i], value, i == m.focus))
	}
	b.WriteString("\n")
	switch {
	case m.submitting:
		b.WriteString(dimStyle.Render("creating account..."))
	case m.err != "":
		b.WriteString(errorStyle.Render(m.err))
	}
	return b.String()
}
