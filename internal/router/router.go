package router

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"prhealth/internal/model"
	"prhealth/internal/session"
)

// State is the authorization state of the program.
type State int

const (
	Unauthenticated State = iota
	AuthenticatedAdmin
	AuthenticatedTechLead
)

func (s State) String() string {
	switch s {
	case AuthenticatedAdmin:
		return "admin"
	case AuthenticatedTechLead:
		return "tech-lead"
	default:
		return "unauthenticated"
	}
}

func stateFor(r model.Role) State {
	if r.IsAdmin() {
		return AuthenticatedAdmin
	}
	return AuthenticatedTechLead
}

// Screen identifies what a route renders.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenWelcome
	ScreenProjects
	ScreenProjectDashboard
	ScreenUsers
)

// Paths the program navigates between.
const (
	PathLogin    = "/"
	PathWelcome  = "/welcome"
	PathProjects = "/projects"
	PathUsers    = "/users"
)

// ProjectPath is the dashboard route of one project.
func ProjectPath(id int) string { return PathProjects + "/" + strconv.Itoa(id) }

// Route is a resolved path.
type Route struct {
	Screen      Screen
	Path        string
	ProjectID   int  // set for ScreenProjectDashboard
	WithSidebar bool // protected screens render inside the role-aware layout
	Role        model.Role
}

// Reason explains why Navigate landed somewhere other than the request.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoSession
	ReasonInvalidSession
	ReasonExpired
	ReasonUnknownPath
)

// ErrUnknownPath is returned by Match for paths with no screen.
var ErrUnknownPath = errors.New("unknown path")

// Match maps a path to its route without applying the guard.
func Match(path string) (Route, error) {
	path = "/" + strings.Trim(path, "/")
	switch path {
	case PathLogin:
		return Route{Screen: ScreenLogin, Path: PathLogin}, nil
	case PathWelcome:
		return Route{Screen: ScreenWelcome, Path: path, WithSidebar: true}, nil
	case PathProjects:
		return Route{Screen: ScreenProjects, Path: path, WithSidebar: true}, nil
	case PathUsers:
		return Route{Screen: ScreenUsers, Path: path, WithSidebar: true}, nil
	}
	if rest, ok := strings.CutPrefix(path, PathProjects+"/"); ok {
		id, err := strconv.Atoi(rest)
		if err == nil && id > 0 {
			return Route{Screen: ScreenProjectDashboard, Path: path, ProjectID: id, WithSidebar: true}, nil
		}
	}
	return Route{}, ErrUnknownPath
}

// Router resolves navigation against the current session.
type Router struct {
	sessions *session.Manager
	logger   *slog.Logger
	state    State
}

func New(sessions *session.Manager, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sessions: sessions, logger: logger}
}

func (r *Router) State() State { return r.state }

// Navigate resolves path. Every protected route re-derives the role from the
// stored credential; a missing, undecodable or expired credential ends the
// session and lands on the login screen.
func (r *Router) Navigate(path string) (Route, Reason) {
	route, err := Match(path)
	reason := ReasonNone
	if err != nil {
		r.logger.Debug("unknown path", "path", path)
		reason = ReasonUnknownPath
		if _, ok := r.sessions.Store().Credential(); !ok {
			route, _ = Match(PathLogin)
		} else {
			route, _ = Match(PathProjects)
		}
	}
	if route.Screen == ScreenLogin {
		return route, reason
	}

	if _, ok := r.sessions.Store().Credential(); !ok {
		r.state = Unauthenticated
		login, _ := Match(PathLogin)
		return login, ReasonNoSession
	}
	claims, err := r.sessions.Claims()
	if err != nil {
		r.logger.Warn("session guard failed", "path", route.Path, "err", err)
		r.Invalidate()
		login, _ := Match(PathLogin)
		return login, ReasonInvalidSession
	}
	if claims.Expired(r.sessions.Now()) {
		r.logger.Info("session expired", "path", route.Path)
		r.Invalidate()
		login, _ := Match(PathLogin)
		return login, ReasonExpired
	}

	r.state = stateFor(claims.Role)
	route.Role = claims.Role
	return route, reason
}

// Login installs a fresh credential and moves to the authenticated state.
func (r *Router) Login(credential string) (session.Claims, error) {
	claims, err := r.sessions.Start(credential)
	if err != nil {
		return session.Claims{}, err
	}
	r.state = stateFor(claims.Role)
	return claims, nil
}

// Logout ends the session on request.
func (r *Router) Logout() {
	r.sessions.End()
	r.state = Unauthenticated
}

// Invalidate ends the session after the backend refused it.
func (r *Router) Invalidate() {
	r.sessions.End()
	r.state = Unauthenticated
}

// MenuItem is one sidebar entry.
type MenuItem struct {
	Label string
	Path  string // empty for logout
	Key   string
}

// Menu lists the sidebar entries visible in the current state.
func (r *Router) Menu() []MenuItem {
	return MenuFor(r.state)
}

// MenuFor lists the sidebar entries visible in state s. Hiding an entry is a
// convenience; the backend enforces access on every call.
func MenuFor(s State) []MenuItem {
	if s == Unauthenticated {
		return nil
	}
	var items []MenuItem
	if s == AuthenticatedAdmin {
		items = append(items, MenuItem{Label: "Users", Path: PathUsers, Key: "u"})
	}
	items = append(items,
		MenuItem{Label: "Projects", Path: PathProjects, Key: "p"},
		MenuItem{Label: "Logout", Key: "L"},
	)
	return items
}
