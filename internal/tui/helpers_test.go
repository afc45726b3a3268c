package tui

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"prhealth/internal/model"
	"prhealth/internal/router"
	"prhealth/internal/session"
)

// cmdTimeout skips commands that only wait on a timer, such as cursor
// blinks and the welcome toast.
const cmdTimeout = 50 * time.Millisecond

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	loginToken string
	loginErr   error

	projects    []model.Project
	projectsErr error
	prs         []model.PullRequest
	prsErr      error
	summary     model.PRSummary
	members     []model.Member
	membersErr  error
	techLeads   []model.User
	techLeadErr error
	mutationErr error

	createdProject model.NewProject
	createdUser    model.NewUser
	assigned       [2]int
	removed        [2]int
	deletedUser    int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int)}
}

func (f *fakeBackend) hit(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) Login(_ context.Context, _, _ string) (string, error) {
	f.hit("Login")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginToken, f.loginErr
}

func (f *fakeBackend) ListProjects(context.Context) ([]model.Project, error) {
	f.hit("ListProjects")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.projects, f.projectsErr
}

func (f *fakeBackend) CreateProject(_ context.Context, p model.NewProject) (model.Project, error) {
	f.hit("CreateProject")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdProject = p
	if f.mutationErr != nil {
		return model.Project{}, f.mutationErr
	}
	created := model.Project{ID: len(f.projects) + 1, Name: p.Name, RepoURL: p.RepoURL}
	f.projects = append(f.projects, created)
	return created, nil
}

func (f *fakeBackend) DeleteProject(context.Context, int) error {
	f.hit("DeleteProject")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mutationErr
}

func (f *fakeBackend) ListPullRequests(context.Context, int) ([]model.PullRequest, error) {
	f.hit("ListPullRequests")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.prs, f.prsErr
}

func (f *fakeBackend) PullRequestSummary(context.Context, int) (model.PRSummary, error) {
	f.hit("PullRequestSummary")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary, nil
}

func (f *fakeBackend) ListMembers(context.Context, int) ([]model.Member, error) {
	f.hit("ListMembers")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members, f.membersErr
}

func (f *fakeBackend) AssignMember(_ context.Context, projectID, userID int) error {
	f.hit("AssignMember")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assigned = [2]int{projectID, userID}
	return f.mutationErr
}

func (f *fakeBackend) RemoveMember(_ context.Context, projectID, userID int) error {
	f.hit("RemoveMember")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = [2]int{projectID, userID}
	return f.mutationErr
}

func (f *fakeBackend) ListTechLeads(context.Context) ([]model.User, error) {
	f.hit("ListTechLeads")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.techLeads, f.techLeadErr
}

func (f *fakeBackend) CreateUser(_ context.Context, u model.NewUser) (model.User, error) {
	f.hit("CreateUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createdUser = u
	if f.mutationErr != nil {
		return model.User{}, f.mutationErr
	}
	created := model.User{ID: 100 + len(f.techLeads), Name: u.Name, Email: u.Email, Role: u.Role}
	f.techLeads = append(f.techLeads, created)
	return created, nil
}

func (f *fakeBackend) DeleteUser(_ context.Context, id int) error {
	f.hit("DeleteUser")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedUser = id
	return f.mutationErr
}

// — harness —————————————————————————————————————————————————————————————————

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func token(t *testing.T, role model.Role) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  "1",
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

type harness struct {
	t        *testing.T
	model    Model
	backend  *fakeBackend
	sessions *session.Manager
}

// start boots the shell at path, logged in as role unless role is empty,
// and runs every command the first screen issues.
func start(t *testing.T, fb *fakeBackend, role model.Role, path string) *harness {
	t.Helper()
	mgr := session.NewManager(session.NewStore(), nil, discardLogger())
	if role != "" {
		_, err := mgr.Start(token(t, role))
		require.NoError(t, err)
	}
	m := New(Options{
		Router:    router.New(mgr, discardLogger()),
		Sessions:  mgr,
		Backend:   fb,
		Logger:    discardLogger(),
		StartPath: path,
	})
	h := &harness{t: t, model: m, backend: fb, sessions: mgr}
	h.drain(m.Init())
	h.send(tea.WindowSizeMsg{Width: 140, Height: 40})
	return h
}

// send delivers msg and runs the resulting commands to completion.
func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	h.drain(cmd)
}

// sendOnly delivers msg and returns the command without running it.
func (h *harness) sendOnly(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) drain(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(h.t, steps, 500, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		msg, ok := run(c)
		if !ok || msg == nil {
			continue
		}
		if batch, isBatch := msg.(tea.BatchMsg); isBatch {
			queue = append(queue, batch...)
			continue
		}
		next, out := h.model.Update(msg)
		h.model = next.(Model)
		queue = append(queue, out)
	}
}

// run executes one command, giving up on anything that only waits on a
// timer.
func run(c tea.Cmd) (tea.Msg, bool) {
	if c == nil {
		return nil, false
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- c() }()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(cmdTimeout):
		return nil, false
	}
}

func (h *harness) key(k string) {
	h.t.Helper()
	h.send(keyMsg(k))
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) view() string { return h.model.View() }

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+l":
		return tea.KeyMsg{Type: tea.KeyCtrlL}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func pr(id string, days int) model.PullRequest {
	return model.PullRequest{
		ID:       id,
		URL:      "https://github.com/acme/api/pull/" + id,
		Title:    "PR " + id,
		DaysOpen: days,
		Fields: map[string]any{
			"id":        id,
			"url":       "https://github.com/acme/api/pull/" + id,
			"title":     "PR " + id,
			"days_open": float64(days),
		},
	}
}
