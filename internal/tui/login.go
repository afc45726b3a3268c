package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"prhealth/internal/api"
	"prhealth/internal/model"
)

type loginResultMsg struct {
	scoped
	credential string
	err        error
}

type loginForm struct {
	base
	email      textinput.Model
	password   textinput.Model
	focus      int
	submitting bool
	errMsg     string
}

func newLoginScreen(b base) *loginForm {
	email := textinput.New()
	email.Placeholder = "Email address"
	email.CharLimit = 254

	pw := textinput.New()
	pw.Placeholder = "Password"
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 128

	return &loginForm{base: b, email: email, password: pw}
}

func (s *loginForm) Init() tea.Cmd {
	return s.email.Focus()
}

func (s *loginForm) Capturing() bool { return true }

func (s *loginForm) Help() string { return "Tab next field   Enter log in   Ctrl+C quit" }

func (s *loginForm) setFocus(i int) tea.Cmd {
	s.focus = i
	if i == 0 {
		s.password.Blur()
		return s.email.Focus()
	}
	s.email.Blur()
	return s.password.Focus()
}

func (s *loginForm) submit() tea.Cmd {
	email := strings.TrimSpace(s.email.Value())
	password := s.password.Value()
	if err := model.ValidateLogin(email, password); err != nil {
		s.errMsg = errText(err)
		return nil
	}
	s.errMsg = ""
	s.submitting = true
	ctx, backend, scope := s.ctx, s.backend, s.scope()
	return func() tea.Msg {
		cred, err := backend.Login(ctx, email, password)
		return loginResultMsg{scoped: scope, credential: cred, err: err}
	}
}

func (s *loginForm) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.resize(msg)
		return s, nil

	case loginResultMsg:
		s.submitting = false
		if msg.err != nil {
			s.logger.Info("login failed", "err", msg.err)
			if errors.Is(msg.err, api.ErrInvalidCredentials) {
				s.errMsg = "Invalid email or password"
			} else {
				s.errMsg = "Login failed: " + errText(msg.err)
			}
			return s, nil
		}
		s.password.Reset()
		return s, func() tea.Msg { return loggedInMsg{credential: msg.credential} }

	case loginRejectedMsg:
		s.submitting = false
		s.errMsg = msg.text
		return s, nil

	case tea.KeyMsg:
		if s.submitting {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down":
			return s, s.setFocus((s.focus + 1) % 2)
		case "shift+tab", "up":
			return s, s.setFocus((s.focus + 1) % 2)
		case "enter":
			if s.focus == 0 && s.password.Value() == "" {
				return s, s.setFocus(1)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	if s.focus == 0 {
		s.email, cmd = s.email.Update(msg)
	} else {
		s.password, cmd = s.password.Update(msg)
	}
	return s, cmd
}

// loginRejectedMsg is sent by the shell when a credential the backend issued
// could not be installed.
type loginRejectedMsg struct {
	text string
}

func (s *loginForm) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Log in") + "\n")
	b.WriteString(dimStyle.Render("Enter your email and password to securely access your account") + "\n\n")
	b.WriteString(labelStyle.Render("Email") + "\n")
	b.WriteString(s.email.View() + "\n\n")
	b.WriteString(labelStyle.Render("Password") + "\n")
	b.WriteString(s.password.View() + "\n")
	switch {
	case s.submitting:
		b.WriteString("\n" + dimStyle.Render("Logging in…") + "\n")
	case s.errMsg != "":
		b.WriteString("\n" + errStyle.Render(s.errMsg) + "\n")
	}
	return overlay(s.width, s.height-2, modalStyle.Render(b.String()))
}
