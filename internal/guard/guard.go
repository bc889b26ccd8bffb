// package guard implements route guarding for the client.
//
// Routes carry declarative auth metadata; [Evaluate] is a pure decision
// function consulted before every route transition. Rules run in a fixed
// order and the first match wins.
package guard

import (
	"strings"

	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/notify"
)

// SessionInfo is the slice of session state the guard consumes.
// Implemented by session.Manager.
type SessionInfo interface {
	IsAuthenticated() bool
	Role() models.Role
}

// Route describes one entry in the route table. A nil Roles slice means
// any authenticated user may enter; RequiresAuth false means anyone may.
type Route struct {
	Path         string
	Name         string
	RequiresAuth bool
	Roles        []models.Role
}

// requiresRole reports whether the route declares a required-role set.
func (r Route) requiresRole() bool { return len(r.Roles) > 0 }

// allowsRole reports whether role is a member of the declared set.
func (r Route) allowsRole(role models.Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// isAuthView reports whether the route is the login or register view.
func (r Route) isAuthView() bool {
	return r.Name == "Login" || r.Name == "Register"
}

// Decision is the outcome of evaluating a transition.
type Decision struct {
	Allow      bool
	RedirectTo string
	Notice     string
	Severity   notify.Severity
}

// Evaluate applies the guard rules to a target route given session state.
// Rule order is fixed: auth requirement, role requirement, auth-view
// redirect, allow.
func Evaluate(route Route, s SessionInfo) Decision {
	if route.RequiresAuth && !s.IsAuthenticated() {
		return Decision{
			RedirectTo: "/login",
			Notice:     "Please log in to access this page.",
			Severity:   notify.SeverityWarning,
		}
	}

	if route.requiresRole() && !route.allowsRole(s.Role()) {
		return Decision{
			RedirectTo: "/dashboard",
			Notice:     "You do not have permission to access this page.",
			Severity:   notify.SeverityError,
		}
	}

	if route.isAuthView() && s.IsAuthenticated() {
		return Decision{RedirectTo: "/dashboard"}
	}

	return Decision{Allow: true}
}

// Table is a route table with parameterized path lookup.
type Table struct {
	routes []Route
}

// NewTable creates a Table over the given routes.
func NewTable(routes []Route) *Table {
	return &Table{routes: routes}
}

// Routes returns the table's entries.
func (t *Table) Routes() []Route { return t.routes }

// Find matches a concrete path against the table, treating ":name"
// segments as wildcards.
func (t *Table) Find(path string) (Route, bool) {
	segments := splitPath(path)
	for _, route := range t.routes {
		if matchSegments(splitPath(route.Path), segments) {
			return route, true
		}
	}
	return Route{}, false
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern, actual []string) bool {
	if len(pattern) != len(actual) {
		return false
	}
	for i, seg := range pattern {
		if strings.HasPrefix(seg, ":") {
			continue
		}
		if seg != actual[i] {
			return false
		}
	}
	return true
}

// DefaultRoutes returns the product route table.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Name: "Home"},
		{Path: "/login", Name: "Login"},
		{Path: "/register", Name: "Register"},
		{Path: "/dashboard", Name: "Dashboard", RequiresAuth: true},
		{Path: "/songs", Name: "SongList", RequiresAuth: true},
		{Path: "/upload", Name: "Upload", RequiresAuth: true, Roles: []models.Role{models.RoleAdmin, models.RoleCompany}},
		{Path: "/my-playlists", Name: "MyPlaylists", RequiresAuth: true},
		{Path: "/playlists/:id", Name: "PlaylistDetail", RequiresAuth: true},
		{Path: "/profile", Name: "Profile", RequiresAuth: true},
	}
}
