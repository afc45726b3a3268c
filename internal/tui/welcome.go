package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"prhealth/internal/router"
)

const toastDuration = 5 * time.Second

type toastDoneMsg struct {
	scoped
}

type welcomeScreen struct {
	base
	showToast bool
}

func newWelcomeScreen(b base) *welcomeScreen {
	return &welcomeScreen{base: b, showToast: true}
}

func (s *welcomeScreen) Init() tea.Cmd {
	scope := s.scope()
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastDoneMsg{scoped: scope}
	})
}

func (s *welcomeScreen) Capturing() bool { return false }

func (s *welcomeScreen) Help() string { return "" }

func (s *welcomeScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.resize(msg)
	case toastDoneMsg:
		s.showToast = false
	case tea.KeyMsg:
		if msg.String() == "enter" {
			return s, navigate(router.PathProjects, "")
		}
	}
	return s, nil
}

func (s *welcomeScreen) View() string {
	out := titleStyle.Render("PR Health Dashboard") + "\n\n"
	if s.showToast {
		out += toastStyle.Render(okStyle.Render("✅ Successfully logged in as "+s.role.Label())) + "\n\n"
	}
	out += dimStyle.Render("Enter to open projects")
	return out
}
