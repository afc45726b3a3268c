package tui

import (
	"context"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"prhealth/internal/router"
	"prhealth/internal/session"
)

const sidebarWidth = 22

// Options wires the shell to the rest of the program.
type Options struct {
	Context   context.Context
	Router    *router.Router
	Sessions  *session.Manager
	Backend   Backend
	Logger    *slog.Logger
	StartPath string // defaults to /welcome, which bounces to login without a session
}

// Model is the top-level bubbletea model. It owns navigation and the
// session lifecycle; everything else is delegated to the current screen.
type Model struct {
	root     context.Context
	router   *router.Router
	sessions *session.Manager
	backend  Backend
	logger   *slog.Logger

	route   router.Route
	screen  screen
	epoch   int
	cancel  context.CancelFunc
	pending tea.Cmd // Init of the first screen

	sidebar  bool
	flash    string
	flashErr bool

	width  int
	height int
}

func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.StartPath == "" {
		opts.StartPath = router.PathWelcome
	}
	m := Model{
		root:     opts.Context,
		router:   opts.Router,
		sessions: opts.Sessions,
		backend:  opts.Backend,
		logger:   opts.Logger,
		sidebar:  true,
	}
	start := opts.StartPath
	if _, ok := opts.Sessions.Store().Credential(); !ok {
		start = router.PathLogin
	}
	m, cmd := m.goTo(start, "")
	m.pending = cmd
	return m
}

func (m Model) Init() tea.Cmd {
	return m.pending
}

// — navigation ——————————————————————————————————————————————————————————————

func reasonFlash(r router.Reason) string {
	switch r {
	case router.ReasonNoSession:
		return "Please log in to continue"
	case router.ReasonInvalidSession:
		return "Your session is invalid. Please log in again"
	case router.ReasonExpired:
		return "Your session has expired. Please log in again"
	case router.ReasonUnknownPath:
		return "Page not found"
	default:
		return ""
	}
}

// goTo mounts the screen for path. The previous screen's context is
// cancelled and its epoch retired, so its in-flight responses are dropped.
func (m Model) goTo(path, flashText string) (Model, tea.Cmd) {
	route, reason := m.router.Navigate(path)
	m.logger.Debug("navigate", "path", path, "screen", route.Path, "state", m.router.State())

	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(m.root)
	m.cancel = cancel
	m.epoch++
	m.route = route

	b := base{
		ctx:     ctx,
		epoch:   m.epoch,
		backend: m.backend,
		session: m.sessions.Store(),
		logger:  m.logger,
		role:    route.Role,
	}
	b.width, b.height = m.screenSize()

	switch route.Screen {
	case router.ScreenWelcome:
		m.screen = newWelcomeScreen(b)
	case router.ScreenProjects:
		m.screen = newProjectsScreen(b)
	case router.ScreenProjectDashboard:
		m.screen = newDashboardScreen(b, route.ProjectID)
	case router.ScreenUsers:
		m.screen = newUsersScreen(b)
	default:
		m.screen = newLoginScreen(b)
	}

	if text := reasonFlash(reason); text != "" {
		m.flash, m.flashErr = text, true
	} else {
		m.flash, m.flashErr = flashText, false
	}

	cmds := []tea.Cmd{m.screen.Init()}
	if m.width > 0 {
		w, h := m.screenSize()
		var cmd tea.Cmd
		m.screen, cmd = m.screen.Update(tea.WindowSizeMsg{Width: w, Height: h})
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// screenSize is the area left for the screen after the sidebar, the flash
// line and the help bar.
func (m Model) screenSize() (int, int) {
	w, h := m.width, m.height-3
	if m.showSidebar() {
		w -= sidebarWidth + 3
	}
	return max(w, 0), max(h, 0)
}

func (m Model) showSidebar() bool {
	return m.sidebar && m.route.WithSidebar
}

func (m Model) resizeScreen() (Model, tea.Cmd) {
	w, h := m.screenSize()
	var cmd tea.Cmd
	m.screen, cmd = m.screen.Update(tea.WindowSizeMsg{Width: w, Height: h})
	return m, cmd
}

// — update ——————————————————————————————————————————————————————————————————

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if em, ok := msg.(epochMsg); ok && em.screenEpoch() != m.epoch {
		m.logger.Debug("dropping response for unmounted screen", "epoch", em.screenEpoch(), "current", m.epoch)
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m.resizeScreen()

	case navigateMsg:
		return m.goTo(msg.path, msg.flash)

	case loggedInMsg:
		claims, err := m.router.Login(msg.credential)
		if err != nil {
			m.logger.Warn("backend issued an unusable credential", "err", err)
			var cmd tea.Cmd
			m.screen, cmd = m.screen.Update(loginRejectedMsg{text: "Login failed: the server returned an unreadable session"})
			return m, cmd
		}
		m.logger.Info("logged in", "role", claims.Role)
		return m.goTo(router.PathWelcome, "")

	case sessionInvalidMsg:
		m.router.Invalidate()
		next, cmd := m.goTo(router.PathLogin, "Your session is no longer valid. Please log in again")
		next.flashErr = true
		return next, cmd

	case logoutMsg:
		m.router.Logout()
		return m.goTo(router.PathLogin, "Logged out")

	case flashMsg:
		m.flash, m.flashErr = msg.text, msg.isErr
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			return m, tea.Quit
		}
		if !m.screen.Capturing() {
			if next, cmd, ok := m.globalKey(msg); ok {
				return next, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.screen, cmd = m.screen.Update(msg)
	return m, cmd
}

// globalKey handles the shell shortcuts of authenticated screens.
func (m Model) globalKey(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	if m.router.State() == router.Unauthenticated {
		return m, nil, false
	}
	switch msg.String() {
	case "q":
		m.cancel()
		return m, tea.Quit, true
	case "[":
		m.sidebar = !m.sidebar
		next, cmd := m.resizeScreen()
		return next, cmd, true
	}
	for _, item := range m.router.Menu() {
		if item.Key != msg.String() {
			continue
		}
		if item.Path == "" {
			return m, func() tea.Msg { return logoutMsg{} }, true
		}
		next, cmd := m.goTo(item.Path, "")
		return next, cmd, true
	}
	return m, nil, false
}

// — view ————————————————————————————————————————————————————————————————————

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	var content strings.Builder
	switch {
	case m.flash == "":
		content.WriteString("\n")
	case m.flashErr:
		content.WriteString(errStyle.Render(m.flash) + "\n")
	default:
		content.WriteString(okStyle.Render(m.flash) + "\n")
	}
	content.WriteString(m.screen.View())

	body := content.String()
	if m.showSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), " ", body)
	}
	bodyHeight := max(m.height-2, 0)
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return body + "\n" + m.renderHelp()
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("PR Health") + "\n")
	b.WriteString(dimStyle.Render(m.route.Role.Label()) + "\n\n")
	for _, item := range m.router.Menu() {
		line := item.Label + " " + dimStyle.Render("("+item.Key+")")
		active := item.Path != "" && (m.route.Path == item.Path || strings.HasPrefix(m.route.Path, item.Path+"/"))
		if active {
			line = boldStyle.Render("> "+item.Label) + " " + dimStyle.Render("("+item.Key+")")
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return sidebarStyle.Width(sidebarWidth).Height(max(m.height-3, 0)).Render(b.String())
}

func (m Model) renderHelp() string {
	text := m.screen.Help()
	if m.router.State() != router.Unauthenticated && !m.screen.Capturing() {
		global := "[ sidebar   q quit"
		if text != "" {
			text += "   " + global
		} else {
			text = global
		}
	}
	sep := dimStyle.Render(strings.Repeat("─", m.width))
	return sep + "\n" + helpStyle.Render(text)
}
