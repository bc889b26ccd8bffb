package guard

import (
	"testing"

	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/notify"
)

type fakeSession struct {
	authed bool
	role   models.Role
}

func (s fakeSession) IsAuthenticated() bool { return s.authed }
func (s fakeSession) Role() models.Role     { return s.role }

func TestEvaluate(t *testing.T) {
	protected := Route{Path: "/my-playlists", Name: "MyPlaylists", RequiresAuth: true}
	roleGated := Route{Path: "/upload", Name: "Upload", RequiresAuth: true, Roles: []models.Role{models.RoleAdmin, models.RoleCompany}}
	login := Route{Path: "/login", Name: "Login"}
	open := Route{Path: "/", Name: "Home"}

	t.Run("anonymous on protected route redirects to login", func(t *testing.T) {
		d := Evaluate(protected, fakeSession{})

		if d.Allow {
			t.Error("expected denial")
		}
		if d.RedirectTo != "/login" {
			t.Errorf("expected /login redirect, got %q", d.RedirectTo)
		}
		if d.Severity != notify.SeverityWarning {
			t.Errorf("expected warning severity, got %v", d.Severity)
		}
		if d.Notice == "" {
			t.Error("expected a notice")
		}
	})

	t.Run("authenticated user passes auth requirement", func(t *testing.T) {
		d := Evaluate(protected, fakeSession{authed: true, role: models.RoleUser})

		if !d.Allow {
			t.Errorf("expected access, got %+v", d)
		}
	})

	t.Run("role mismatch redirects to dashboard with error", func(t *testing.T) {
		d := Evaluate(roleGated, fakeSession{authed: true, role: models.RoleUser})

		if d.Allow {
			t.Error("expected denial")
		}
		if d.RedirectTo != "/dashboard" {
			t.Errorf("expected /dashboard redirect, got %q", d.RedirectTo)
		}
		if d.Severity != notify.SeverityError {
			t.Errorf("expected error severity, got %v", d.Severity)
		}
	})

	t.Run("any declared role passes the gate", func(t *testing.T) {
		for _, role := range []models.Role{models.RoleAdmin, models.RoleCompany} {
			if d := Evaluate(roleGated, fakeSession{authed: true, role: role}); !d.Allow {
				t.Errorf("expected %v to pass, got %+v", role, d)
			}
		}
	})

	t.Run("auth requirement outranks role requirement", func(t *testing.T) {
		d := Evaluate(roleGated, fakeSession{})

		if d.RedirectTo != "/login" {
			t.Errorf("expected login redirect for anonymous caller, got %q", d.RedirectTo)
		}
	})

	t.Run("signed-in user bounces off auth views", func(t *testing.T) {
		d := Evaluate(login, fakeSession{authed: true, role: models.RoleUser})

		if d.Allow {
			t.Error("expected redirect")
		}
		if d.RedirectTo != "/dashboard" {
			t.Errorf("expected /dashboard redirect, got %q", d.RedirectTo)
		}
		if d.Notice != "" {
			t.Errorf("expected silent redirect, got notice %q", d.Notice)
		}
	})

	t.Run("anonymous user may visit auth views", func(t *testing.T) {
		if d := Evaluate(login, fakeSession{}); !d.Allow {
			t.Errorf("expected access, got %+v", d)
		}
	})

	t.Run("open routes allow everyone", func(t *testing.T) {
		if d := Evaluate(open, fakeSession{}); !d.Allow {
			t.Errorf("expected access, got %+v", d)
		}
		if d := Evaluate(open, fakeSession{authed: true, role: models.RoleAdmin}); !d.Allow {
			t.Errorf("expected access, got %+v", d)
		}
	})
}

func TestTable(t *testing.T) {
	table := NewTable(DefaultRoutes())

	t.Run("finds exact paths", func(t *testing.T) {
		route, ok := table.Find("/my-playlists")
		if !ok || route.Name != "MyPlaylists" {
			t.Errorf("expected MyPlaylists, got %+v ok=%v", route, ok)
		}
	})

	t.Run("matches parameterized segments", func(t *testing.T) {
		route, ok := table.Find("/playlists/42")
		if !ok || route.Name != "PlaylistDetail" {
			t.Errorf("expected PlaylistDetail, got %+v ok=%v", route, ok)
		}
	})

	t.Run("rejects extra segments", func(t *testing.T) {
		if _, ok := table.Find("/playlists/42/songs"); ok {
			t.Error("expected no match for deeper path")
		}
	})

	t.Run("finds the root", func(t *testing.T) {
		route, ok := table.Find("/")
		if !ok || route.Name != "Home" {
			t.Errorf("expected Home, got %+v ok=%v", route, ok)
		}
	})

	t.Run("unknown path misses", func(t *testing.T) {
		if _, ok := table.Find("/nope"); ok {
			t.Error("expected miss")
		}
	})
}
