package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"

	"prhealth/internal/api"
	"prhealth/internal/model"
	"prhealth/internal/session"
)

// Backend is the set of calls the screens make. *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, p model.NewProject) (model.Project, error)
	DeleteProject(ctx context.Context, id int) error
	ListPullRequests(ctx context.Context, projectID int) ([]model.PullRequest, error)
	PullRequestSummary(ctx context.Context, projectID int) (model.PRSummary, error)
	ListMembers(ctx context.Context, projectID int) ([]model.Member, error)
	AssignMember(ctx context.Context, projectID, userID int) error
	RemoveMember(ctx context.Context, projectID, userID int) error
	ListTechLeads(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, u model.NewUser) (model.User, error)
	DeleteUser(ctx context.Context, id int) error
}

var _ Backend = (*api.Client)(nil)

// screen is one routed view. Screens never write to the session; they ask
// the shell through messages.
type screen interface {
	Init() tea.Cmd
	Update(tea.Msg) (screen, tea.Cmd)
	View() string
	Help() string
	// Capturing is true while a text input has focus, so single-letter
	// shell shortcuts are passed through as typing.
	Capturing() bool
}

// base is embedded by every screen.
type base struct {
	ctx     context.Context
	epoch   int
	backend Backend
	session session.Reader
	logger  *slog.Logger
	role    model.Role
	width   int
	height  int
}

func (b base) isAdmin() bool { return b.role.IsAdmin() }

func (b *base) resize(msg tea.WindowSizeMsg) {
	b.width, b.height = msg.Width, msg.Height
}

func (b base) scope() scoped { return scoped{epoch: b.epoch} }

// failed logs a failed call and asks the shell for a new login when the
// backend refused the session.
func (b base) failed(screenName, op string, err error) tea.Cmd {
	b.logger.Error("request failed", "screen", screenName, "op", op, "err", err)
	if errors.Is(err, api.ErrSessionInvalid) {
		return func() tea.Msg { return sessionInvalidMsg{} }
	}
	return nil
}

// — messages ————————————————————————————————————————————————————————————————

// scoped tags a response with the screen instance that asked for it.
type scoped struct {
	epoch int
}

func (s scoped) screenEpoch() int { return s.epoch }

type epochMsg interface {
	screenEpoch() int
}

type navigateMsg struct {
	path  string
	flash string
}

type sessionInvalidMsg struct{}

type loggedInMsg struct {
	credential string
}

type logoutMsg struct{}

type flashMsg struct {
	text  string
	isErr bool
}

func navigate(path, flash string) tea.Cmd {
	return func() tea.Msg { return navigateMsg{path: path, flash: flash} }
}

func flash(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return flashMsg{text: text, isErr: isErr} }
}

// — errors ——————————————————————————————————————————————————————————————————

// errText turns an error into the line shown to the user.
func errText(err error) string {
	var verr *model.ValidationError
	var rerr *api.RequestError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, api.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.As(err, &rerr):
		if d := rerr.Detail(); d != "" {
			return d
		}
		return http.StatusText(rerr.Status)
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return fmt.Sprintf("cannot reach server (%v)", err)
	}
}

// — commands ————————————————————————————————————————————————————————————————

func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			cmd = exec.Command("xdg-open", url)
		}
		cmd.Run()
		return nil
	}
}
