package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prhealth/internal/api"
	"prhealth/internal/model"
	"prhealth/internal/router"
)

func twoProjects() []model.Project {
	return []model.Project{
		{ID: 1, Name: "Marketing", RepoURL: "https://github.com/acme/api"},
		{ID: 2, Name: "UIDD", RepoURL: "https://gitlab.com/acme/web"},
	}
}

// — login ———————————————————————————————————————————————————————————————————

func fillLogin(h *harness, email, password string) {
	h.typeText(email)
	h.key("tab")
	h.typeText(password)
	h.key("enter")
}

func TestLoginWrongCredentialsLeavesSessionEmpty(t *testing.T) {
	fb := newFakeBackend()
	fb.loginErr = api.ErrInvalidCredentials
	h := start(t, fb, "", router.PathLogin)

	fillLogin(h, "ann@example.com", "wrong")

	assert.Equal(t, 1, fb.count("Login"))
	_, isLogin := h.model.screen.(*loginForm)
	assert.True(t, isLogin)
	assert.Contains(t, h.view(), "Invalid email or password")
	_, ok := h.sessions.Store().Credential()
	assert.False(t, ok)
}

func TestLoginRequiresFields(t *testing.T) {
	fb := newFakeBackend()
	h := start(t, fb, "", router.PathLogin)

	h.key("tab")
	h.key("enter")

	assert.Zero(t, fb.count("Login"))
	assert.Contains(t, h.view(), "email is required")
}

func TestLoginServerErrorIsShown(t *testing.T) {
	fb := newFakeBackend()
	fb.loginErr = errors.New("connection refused")
	h := start(t, fb, "", router.PathLogin)

	fillLogin(h, "ann@example.com", "pw")

	assert.Contains(t, h.view(), "Login failed")
	_, ok := h.sessions.Store().Credential()
	assert.False(t, ok)
}

func TestLoginSuccessShowsWelcomeToast(t *testing.T) {
	fb := newFakeBackend()
	fb.loginToken = token(t, model.RoleTechLead)
	h := start(t, fb, "", router.PathLogin)

	fillLogin(h, "ann@example.com", "secret")

	w, ok := h.model.screen.(*welcomeScreen)
	require.True(t, ok)
	assert.Contains(t, h.view(), "Successfully logged in as Tech Lead")
	role, ok := h.sessions.Store().Role()
	require.True(t, ok)
	assert.Equal(t, model.RoleTechLead, role)

	h.send(toastDoneMsg{scoped: w.scope()})
	assert.NotContains(t, h.view(), "Successfully logged in")
}

func TestLoginWithUndecodableCredentialIsRejected(t *testing.T) {
	fb := newFakeBackend()
	fb.loginToken = "not-a-jwt"
	h := start(t, fb, "", router.PathLogin)

	fillLogin(h, "ann@example.com", "secret")

	_, isLogin := h.model.screen.(*loginForm)
	assert.True(t, isLogin)
	assert.Contains(t, h.view(), "Login failed")
	_, ok := h.sessions.Store().Credential()
	assert.False(t, ok)
}

// — projects ————————————————————————————————————————————————————————————————

func TestProjectsAdminSeesCardsAndAddCard(t *testing.T) {
	fb := newFakeBackend()
	fb.projects = twoProjects()
	h := start(t, fb, model.RoleAdmin, router.PathProjects)

	ps, ok := h.model.screen.(*projectsScreen)
	require.True(t, ok)
	cards := ps.cards()
	require.Len(t, cards, 3)
	assert.Equal(t, cardAdd, cards[2].kind)

	v := h.view()
	assert.Contains(t, v, "Marketing")
	assert.Contains(t, v, "UIDD")
	assert.Contains(t, v, "Add a project")
	assert.Contains(t, v, "Users")
}

func TestProjectsTechLeadWithoutProjects(t *testing.T) {
	fb := newFakeBackend()
	h := start(t, fb, model.RoleTechLead, router.PathProjects)

	v := h.view()
	assert.Contains(t, v, "No projects assigned for you")
	assert.NotContains(t, v, "Add a project")
	assert.NotContains(t, v, "Users (u)")
}

func TestProjectsLatestRefreshWins(t *testing.T) {
	fb := newFakeBackend()
	fb.projects = twoProjects()
	h := start(t, fb, model.RoleAdmin, router.PathProjects)

	fb.set(func(f *fakeBackend) { f.projects = twoProjects()[:1] })
	first, ok := run(h.sendOnly(keyMsg("r")))
	require.True(t, ok)

	fb.set(func(f *fakeBackend) {
		f.projects = append(twoProjects(), model.Project{ID: 3, Name: "Docs", RepoURL: "https://github.com/acme/docs"})
	})
	second, ok := run(h.sendOnly(keyMsg("r")))
	require.True(t, ok)

	h.send(second)
	h.send(first)

	ps := h.model.screen.(*projectsScreen)
	require.Len(t, ps.projects.value, 3)
	assert.Equal(t, "Docs", ps.projects.value[2].Name)
	assert.False(t, ps.projects.loading())
	assert.Contains(t, h.view(), "Docs")
}

func TestProjectsRefreshFailureKeepsList(t *testing.T) {
	fb := newFakeBackend()
	fb.projects = twoProjects()
	h := start(t, fb, model.RoleAdmin, router.PathProjects)

	fb.set(func(f *fakeBackend) {
		f.projects = nil
		f.projectsErr = &api.RequestError{Method: "GET", Path: "/projects/getAll", Status: 500, Body: `{"detail":"boom"}`}
	})
	h.key("r")

	ps := h.model.screen.(*projectsScreen)
	assert.True(t, ps.projects.failed())
	assert.Len(t, ps.projects.value, 2)
	v := h.view()
	assert.Contains(t, v, "boom")
	assert.Contains(t, v, "UIDD")
}

func TestCreateProjectRefetchesList(t *testing.T) {
	fb := newFakeBackend()
	fb.projects = twoProjects()
	h := start(t, fb, model.RoleAdmin, router.PathProjects)

	h.key("n")
	h.typeText("docs")
	h.key("tab")
	h.typeText("https://github.com/acme/docs")
	h.key("enter")

	assert.Equal(t, 1, fb.count("CreateProject"))
	assert.Equal(t, model.NewProject{Name: "docs", RepoURL: "https://github.com/acme/docs"}, fb.createdProject)
	assert.Equal(t, 2, fb.count("ListProjects"))

	ps := h.model.screen.(*projectsScreen)
	assert.Equal(t, projectsBrowse, ps.mode)
	assert.Len(t, ps.projects.value, 3)
	assert.Contains(t, h.view(), `Project "docs" created`)
}

func TestCreateProjectRejectsUnknownForge(t *testing.T) {
	fb := newFakeBackend()
	h := start(t, fb, model.RoleAdmin, router.PathProjects)

	h.key("n")
	h.typeText("docs")
	h.key("tab")
	h.typeText("https://example.com/acme/docs")
	h.key("enter")

	assert.Zero(t, fb.count("CreateProject"))
	ps := h.model.screen.(*projectsScreen)
	assert.Equal(t, projectsCreate, ps.mode)
	assert.Contains(t, ps.formErr, "repository URL")
}

func TestProjectsTechLeadCannotOpenCreate(t *testing.T) {
	fb := newFakeBackend()
	fb.projects = twoProjects()
	h := start(t, fb, model.RoleTechLead, router.PathProjects)

	h.key("n")

	ps := h.model.screen.(*projectsScreen)
	assert.Equal(t, projectsBrowse, ps.mode)
	assert.Len(t, ps.cards(), 2)
}

func TestEnterOpensDashboard(t *testing.T) {
	fb := newFakeBackend()
	fb.projects = twoProjects()
	h := start(t, fb, model.RoleTechLead, router.PathProjects)

	h.key("l")
	h.key("enter")

	ds, ok := h.model.screen.(*dashboardScreen)
	require.True(t, ok)
	assert.Equal(t, 2, ds.projectID)
	assert.Equal(t, "/projects/2", h.model.route.Path)
	assert.Contains(t, h.view(), "acme/web")
}

// — dashboard ———————————————————————————————————————————————————————————————

func dashboardBackend() *fakeBackend {
	fb := newFakeBackend()
	fb.projects = twoProjects()
	fb.prs = []model.PullRequest{pr("11", 3), pr("12", 9)}
	fb.summary = model.PRSummary{TotalOpen: 2, StaleCount: 1, AverageDaysOpen: 6, OldestDays: 9}
	fb.members = []model.Member{{ID: 7, Name: "Ann", Email: "ann@example.com", Role: model.RoleTechLead}}
	fb.techLeads = []model.User{
		{ID: 7, Name: "Ann", Email: "ann@example.com", Role: model.RoleTechLead},
		{ID: 8, Name: "Bob", Email: "bob@example.com", Role: model.RoleTechLead},
	}
	return fb
}

func TestDashboardMarksStaleRows(t *testing.T) {
	fb := dashboardBackend()
	h := start(t, fb, model.RoleTechLead, router.ProjectPath(1))

	ds := h.model.screen.(*dashboardScreen)
	rows := ds.table.Rows()
	require.Len(t, rows, 2)
	assert.NotContains(t, strings.Join(rows[0], " "), "stale")
	assert.Contains(t, strings.Join(rows[1], " "), "stale")
	assert.Equal(t, []string{"title", "days_open"}, ds.columns)

	v := h.view()
	assert.Contains(t, v, "acme/api")
	assert.Contains(t, v, "Ann")
}

func TestDashboardTechLeadHasNoAdminActions(t *testing.T) {
	fb := dashboardBackend()
	h := start(t, fb, model.RoleTechLead, router.ProjectPath(1))

	assert.Zero(t, fb.count("ListTechLeads"))
	h.key("d")
	h.key("a")
	ds := h.model.screen.(*dashboardScreen)
	assert.Equal(t, dashboardNormal, ds.mode)
	assert.NotContains(t, ds.Help(), "delete project")
}

func TestDashboardDeleteCancelMakesNoCall(t *testing.T) {
	fb := dashboardBackend()
	h := start(t, fb, model.RoleAdmin, router.ProjectPath(1))

	h.key("d")
	ds := h.model.screen.(*dashboardScreen)
	require.Equal(t, dashboardDeleteConfirm, ds.mode)
	assert.Contains(t, h.view(), "Are you sure you want to delete this project?")

	h.key("n")
	assert.Equal(t, dashboardNormal, ds.mode)
	assert.Zero(t, fb.count("DeleteProject"))
}

func TestDashboardDeleteConfirmNavigatesToProjects(t *testing.T) {
	fb := dashboardBackend()
	h := start(t, fb, model.RoleAdmin, router.ProjectPath(1))

	h.key("d")
	h.key("y")

	assert.Equal(t, 1, fb.count("DeleteProject"))
	_, ok := h.model.screen.(*projectsScreen)
	require.True(t, ok)
	assert.Contains(t, h.view(), "Project deleted successfully")
}

func TestDashboardDeleteFailureStays(t *testing.T) {
	fb := dashboardBackend()
	h := start(t, fb, model.RoleAdmin, router.ProjectPath(1))
	fb.set(func(f *fakeBackend) {
		f.mutationErr = &api.RequestError{Method: "DELETE", Path: "/projects/1", Status: 403, Body: `{"detail":"Admin only"}`}
	})

	h.key("d")
	h.key("enter")

	ds, ok := h.model.screen.(*dashboardScreen)
	require.True(t, ok)
	assert.Equal(t, dashboardNormal, ds.mode)
	assert.Contains(t, h.view(), "Failed to delete project: Admin only")
	_, hasCred := h.sessions.Store().Credential()
	assert.True(t, hasCred)
}

func TestDashboardAssignOffersOnlyUnassigned(t *testing.T) {
	fb := dashboardBackend()
	h := start(t, fb, model.RoleAdmin, router.ProjectPath(1))

	h.key("a")
	ds := h.model.screen.(*dashboardScreen)
	require.Equal(t, dashboardAssign, ds.mode)
	items := ds.picker.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 8, items[0].(userItem).u.ID)

	h.key("enter")
	assert.Equal(t, [2]int{1, 8}, fb.assigned)
	assert.Equal(t, 2, fb.count("ListMembers"))
	assert.Equal(t, dashboardNormal, ds.mode)
}

func TestDashboardRemoveMember(t *testing.T) {
	fb := dashboardBackend()
	h := start(t, fb, model.RoleAdmin, router.ProjectPath(1))

	h.key("x")
	ds := h.model.screen.(*dashboardScreen)
	assert.Equal(t, dashboardNormal, ds.mode, "remove needs the members pane focused")

	h.key("tab")
	h.key("x")
	require.Equal(t, dashboardRemoveConfirm, ds.mode)
	h.key("y")

	assert.Equal(t, [2]int{1, 7}, fb.removed)
	assert.Equal(t, 2, fb.count("ListMembers"))
}

// — users ———————————————————————————————————————————————————————————————————

func TestUsersEmptyList(t *testing.T) {
	fb := newFakeBackend()
	h := start(t, fb, model.RoleAdmin, router.PathUsers)
	assert.Contains(t, h.view(), "No users found")
}

func TestUsersCreateClosesModalAndRefetches(t *testing.T) {
	fb := newFakeBackend()
	h := start(t, fb, model.RoleAdmin, router.PathUsers)

	h.key("n")
	us := h.model.screen.(*usersScreen)
	require.Equal(t, usersCreate, us.mode)
	h.typeText("Cara")
	h.key("tab")
	h.typeText("cara@example.com")
	h.key("tab")
	h.typeText("pw123")
	h.key("enter")

	assert.Equal(t, 1, fb.count("CreateUser"))
	assert.Equal(t, model.NewUser{Name: "Cara", Email: "cara@example.com", Password: "pw123", Role: model.RoleTechLead}, fb.createdUser)
	assert.Equal(t, usersBrowse, us.mode)
	assert.Equal(t, 2, fb.count("ListTechLeads"))
	assert.Len(t, us.table.Rows(), 1)
	assert.Contains(t, h.view(), "cara@example.com")
}

func TestUsersCreateFailureKeepsModal(t *testing.T) {
	fb := newFakeBackend()
	fb.mutationErr = &api.RequestError{Method: "POST", Path: "/users/createUser", Status: 400, Body: `{"detail":"Email already registered"}`}
	h := start(t, fb, model.RoleAdmin, router.PathUsers)

	h.key("n")
	h.typeText("Cara")
	h.key("tab")
	h.typeText("cara@example.com")
	h.key("tab")
	h.typeText("pw")
	h.key("enter")

	us := h.model.screen.(*usersScreen)
	assert.Equal(t, usersCreate, us.mode)
	assert.Contains(t, us.formErr, "Email already registered")
	assert.Equal(t, 1, fb.count("ListTechLeads"))
}

func TestUsersClearResetsForm(t *testing.T) {
	fb := newFakeBackend()
	h := start(t, fb, model.RoleAdmin, router.PathUsers)

	h.key("n")
	h.typeText("Cara")
	h.key("tab")
	h.key("tab")
	h.key("tab")
	h.key("l")
	us := h.model.screen.(*usersScreen)
	require.Equal(t, model.RoleAdmin, model.Roles[us.roleIdx])

	h.key("ctrl+l")
	assert.Empty(t, us.inputs[nameField].Value())
	assert.Equal(t, model.RoleTechLead, model.Roles[us.roleIdx])
	assert.Equal(t, usersCreate, us.mode)

	h.key("esc")
	assert.Equal(t, usersBrowse, us.mode)
	assert.Zero(t, fb.count("CreateUser"))
}

func TestUsersDeleteAfterConfirm(t *testing.T) {
	fb := newFakeBackend()
	fb.techLeads = []model.User{{ID: 5, Name: "Dan", Email: "dan@example.com", Role: model.RoleTechLead}}
	h := start(t, fb, model.RoleAdmin, router.PathUsers)

	h.key("d")
	h.key("esc")
	assert.Zero(t, fb.count("DeleteUser"))

	h.key("d")
	h.key("y")
	assert.Equal(t, 5, fb.deletedUser)
	assert.Equal(t, 2, fb.count("ListTechLeads"))
}

func TestUsersTechLeadForbidden(t *testing.T) {
	fb := newFakeBackend()
	fb.techLeadErr = &api.RequestError{Method: "GET", Path: "/users/getAllTechLeads", Status: 403, Body: `{"detail":"Admin access required"}`}
	h := start(t, fb, model.RoleTechLead, router.PathUsers)

	us, ok := h.model.screen.(*usersScreen)
	require.True(t, ok)
	h.key("n")
	assert.Equal(t, usersBrowse, us.mode)
	assert.Contains(t, h.view(), "Admin access required")
	_, hasCred := h.sessions.Store().Credential()
	assert.True(t, hasCred)
}
