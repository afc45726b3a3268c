package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"prhealth/internal/model"
	"prhealth/internal/router"
)

type projectsMode int

const (
	projectsBrowse projectsMode = iota
	projectsCreate
)

type projectsLoadedMsg struct {
	scoped
	seq      int
	projects []model.Project
	err      error
}

type projectCreatedMsg struct {
	scoped
	project model.Project
	err     error
}

type cardKind int

const (
	cardProject cardKind = iota
	cardAdd
)

type card struct {
	kind    cardKind
	project model.Project
}

type projectsScreen struct {
	base
	projects remote[[]model.Project]
	selected int
	mode     projectsMode

	name       textinput.Model
	repoURL    textinput.Model
	focus      int
	submitting bool
	formErr    string
}

func newProjectsScreen(b base) *projectsScreen {
	name := textinput.New()
	name.Placeholder = "e.g. Marketing"
	name.CharLimit = 100

	repo := textinput.New()
	repo.Placeholder = "https://github.com/org/repo"
	repo.CharLimit = 300

	return &projectsScreen{base: b, name: name, repoURL: repo}
}

func (s *projectsScreen) Init() tea.Cmd { return s.refresh() }

func (s *projectsScreen) Capturing() bool { return s.mode == projectsCreate }

func (s *projectsScreen) refresh() tea.Cmd {
	seq := s.projects.begin()
	ctx, backend, scope := s.ctx, s.backend, s.scope()
	return func() tea.Msg {
		projects, err := backend.ListProjects(ctx)
		return projectsLoadedMsg{scoped: scope, seq: seq, projects: projects, err: err}
	}
}

// cards is the grid content: one card per project, plus the add card for
// admins.
func (s *projectsScreen) cards() []card {
	out := make([]card, 0, len(s.projects.value)+1)
	for _, p := range s.projects.value {
		out = append(out, card{kind: cardProject, project: p})
	}
	if s.isAdmin() {
		out = append(out, card{kind: cardAdd})
	}
	return out
}

func (s *projectsScreen) columns() int {
	cols := (s.width - 20) / 26
	if cols < 1 {
		return 1
	}
	return cols
}

func (s *projectsScreen) Update(msg tea.Msg) (screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.resize(msg)
		return s, nil

	case projectsLoadedMsg:
		if !s.projects.resolve(msg.seq, msg.projects, msg.err) {
			return s, nil
		}
		if msg.err != nil {
			return s, s.failed("projects", "list", msg.err)
		}
		if n := len(s.cards()); s.selected >= n {
			s.selected = max(n-1, 0)
		}
		return s, nil

	case projectCreatedMsg:
		s.submitting = false
		if msg.err != nil {
			s.formErr = "Failed to create project: " + errText(msg.err)
			return s, s.failed("projects", "create", msg.err)
		}
		s.closeForm()
		return s, tea.Batch(s.refresh(), flash(fmt.Sprintf("Project %q created", msg.project.Name), false))

	case tea.KeyMsg:
		if s.mode == projectsCreate {
			return s.updateCreate(msg)
		}
		return s.updateBrowse(msg)
	}

	if s.mode == projectsCreate {
		return s.updateInputs(msg)
	}
	return s, nil
}

func (s *projectsScreen) updateBrowse(msg tea.KeyMsg) (screen, tea.Cmd) {
	cards := s.cards()
	cols := s.columns()
	switch msg.String() {
	case "left", "h":
		if s.selected > 0 {
			s.selected--
		}
	case "right", "l":
		if s.selected < len(cards)-1 {
			s.selected++
		}
	case "up", "k":
		if s.selected-cols >= 0 {
			s.selected -= cols
		}
	case "down", "j":
		if s.selected+cols < len(cards) {
			s.selected += cols
		}
	case "r":
		return s, s.refresh()
	case "n", "a":
		if s.isAdmin() {
			return s, s.openForm()
		}
	case "enter":
		if s.selected >= len(cards) {
			return s, nil
		}
		c := cards[s.selected]
		if c.kind == cardAdd {
			return s, s.openForm()
		}
		return s, navigate(router.ProjectPath(c.project.ID), "")
	}
	return s, nil
}

func (s *projectsScreen) openForm() tea.Cmd {
	s.mode = projectsCreate
	s.formErr = ""
	s.name.Reset()
	s.repoURL.Reset()
	s.focus = 0
	s.repoURL.Blur()
	return s.name.Focus()
}

func (s *projectsScreen) closeForm() {
	s.mode = projectsBrowse
	s.formErr = ""
	s.name.Reset()
	s.repoURL.Reset()
	s.name.Blur()
	s.repoURL.Blur()
}

func (s *projectsScreen) updateCreate(msg tea.KeyMsg) (screen, tea.Cmd) {
	if s.submitting {
		return s, nil
	}
	switch msg.String() {
	case "esc":
		s.closeForm()
		return s, nil
	case "tab", "shift+tab", "up", "down":
		if s.focus == 0 {
			s.focus = 1
			s.name.Blur()
			return s, s.repoURL.Focus()
		}
		s.focus = 0
		s.repoURL.Blur()
		return s, s.name.Focus()
	case "enter":
		return s, s.submit()
	}
	return s.updateInputs(msg)
}

func (s *projectsScreen) updateInputs(msg tea.Msg) (screen, tea.Cmd) {
	var cmd tea.Cmd
	if s.focus == 0 {
		s.name, cmd = s.name.Update(msg)
	} else {
		s.repoURL, cmd = s.repoURL.Update(msg)
	}
	return s, cmd
}

func (s *projectsScreen) submit() tea.Cmd {
	p := model.NewProject{
		Name:    strings.TrimSpace(s.name.Value()),
		RepoURL: strings.TrimSpace(s.repoURL.Value()),
	}
	if err := p.Validate(); err != nil {
		s.formErr = errText(err)
		return nil
	}
	s.formErr = ""
	s.submitting = true
	ctx, backend, scope := s.ctx, s.backend, s.scope()
	return func() tea.Msg {
		created, err := backend.CreateProject(ctx, p)
		return projectCreatedMsg{scoped: scope, project: created, err: err}
	}
}

func (s *projectsScreen) Help() string {
	if s.mode == projectsCreate {
		return "Tab next field   Enter create   Esc cancel"
	}
	text := "←/→/↑/↓ select   Enter open   r refresh"
	if s.isAdmin() {
		text += "   n new project"
	}
	return text
}

func (s *projectsScreen) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Projects") + "\n\n")

	switch {
	case s.projects.loading() && len(s.projects.value) == 0:
		b.WriteString(dimStyle.Render("Loading projects…"))
	case len(s.projects.value) == 0 && !s.isAdmin():
		if s.projects.failed() {
			b.WriteString(errStyle.Render("Could not load projects: "+errText(s.projects.err)) + "\n\n")
		}
		b.WriteString(dimStyle.Render("No projects assigned for you"))
	default:
		if s.projects.failed() {
			b.WriteString(errStyle.Render("Could not load projects: "+errText(s.projects.err)) + "\n\n")
		}
		b.WriteString(s.renderGrid())
	}

	if s.mode == projectsCreate {
		return overlay(s.width, s.height, s.renderCreateModal())
	}
	return b.String()
}

func (s *projectsScreen) renderGrid() string {
	cards := s.cards()
	cols := s.columns()
	var rows []string
	for start := 0; start < len(cards); start += cols {
		end := min(start+cols, len(cards))
		rendered := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			rendered = append(rendered, renderCard(cards[i], i == s.selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCard(c card, selected bool) string {
	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	if c.kind == cardAdd {
		return style.Render(addAvatarStyle.Render("+") + " " + "Add a project")
	}
	name := c.project.Name
	if len([]rune(name)) > 16 {
		name = string([]rune(name)[:15]) + "…"
	}
	return style.Render(avatarStyle.Render(c.project.Initial()) + " " + name)
}

func (s *projectsScreen) renderCreateModal() string {
	var b strings.Builder
	b.WriteString(boldStyle.Render("Add a project") + "\n\n")
	b.WriteString("Name\n")
	b.WriteString(s.name.View() + "\n\n")
	b.WriteString("Repository URL\n")
	b.WriteString(s.repoURL.View() + "\n")
	switch {
	case s.submitting:
		b.WriteString("\n" + dimStyle.Render("Creating…") + "\n")
	case s.formErr != "":
		b.WriteString("\n" + errStyle.Render(s.formErr) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("GitHub or GitLab repository · Enter to create · Esc to cancel"))
	return modalStyle.Render(b.String())
}
