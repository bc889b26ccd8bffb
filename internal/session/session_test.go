package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/melodymix/melodyctl/internal/api"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/shared"
	tu "github.com/melodymix/melodyctl/internal/testing"
)

type fixture struct {
	manager   *Manager
	creds     *tu.MemoryCredentials
	notifier  *tu.RecordingNotifier
	navigator *tu.RecordingNavigator
}

func newFixture(t *testing.T, creds *tu.MemoryCredentials, fn tu.RoundTripFunc) *fixture {
	t.Helper()

	client := api.NewClient(api.ClientOpts{
		BaseURL:    "http://localhost:8080",
		HTTPClient: &http.Client{Transport: fn},
	})
	notifier := &tu.RecordingNotifier{}
	navigator := &tu.RecordingNavigator{}

	manager := NewManager(ManagerOpts{
		API:         client,
		Credentials: creds,
		Notifier:    notifier,
		Navigator:   navigator,
	})
	return &fixture{manager: manager, creds: creds, notifier: notifier, navigator: navigator}
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	member := &models.UserRecord{ID: 1, Username: "ada", Email: "ada@example.com", Role: models.RoleUser}

	t.Run("hydration", func(t *testing.T) {
		t.Run("full pair starts authenticated", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{User: member, Tok: "tok"}, nil)

			if !f.manager.IsAuthenticated() {
				t.Error("expected authenticated session")
			}
			if f.manager.State() != Authenticated {
				t.Errorf("expected Authenticated, got %v", f.manager.State())
			}
		})

		t.Run("token without user is not yet authenticated", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{Tok: "tok"}, nil)

			if f.manager.IsAuthenticated() {
				t.Error("expected unauthenticated session until rehydration")
			}
		})

		t.Run("load failure degrades to anonymous", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{LoadErr: errors.New("disk gone")}, nil)

			if f.manager.State() != Anonymous {
				t.Errorf("expected Anonymous, got %v", f.manager.State())
			}
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("commits the pair and navigates to dashboard", func(t *testing.T) {
			var meAuth string
			f := newFixture(t, &tu.MemoryCredentials{}, func(req *http.Request) (*http.Response, error) {
				switch req.URL.Path {
				case "/api/auth/login":
					return tu.JSONResponse(t, 200, models.LoginResponse{Token: "tok123"}), nil
				case "/api/user/me":
					meAuth = req.Header.Get("Authorization")
					return tu.JSONResponse(t, 200, member), nil
				}
				t.Errorf("unexpected path %s", req.URL.Path)
				return tu.JSONResponse(t, 404, nil), nil
			})

			if err := f.manager.Login(ctx, "ada", "pw"); err != nil {
				t.Fatalf("Login failed: %v", err)
			}

			if meAuth != "Bearer tok123" {
				t.Errorf("expected fresh token pinned on profile fetch, got %q", meAuth)
			}
			if !f.manager.IsAuthenticated() {
				t.Error("expected authenticated session")
			}
			if f.creds.Token() != "tok123" {
				t.Errorf("expected durable token, got %q", f.creds.Token())
			}
			if user, _, _ := f.creds.Load(); user == nil || user.Username != "ada" {
				t.Errorf("expected durable user record, got %+v", user)
			}
			if f.navigator.Current() != "/dashboard" {
				t.Errorf("expected navigation to /dashboard, got %q", f.navigator.Current())
			}
			if len(f.notifier.Successes) != 1 {
				t.Errorf("expected one success notice, got %v", f.notifier.Successes)
			}
		})

		t.Run("empty credentials are rejected without a request", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{}, func(req *http.Request) (*http.Response, error) {
				t.Error("unexpected network call")
				return tu.JSONResponse(t, 500, nil), nil
			})

			if err := f.manager.Login(ctx, "", "pw"); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for empty username, got %v", err)
			}
			if err := f.manager.Login(ctx, "ada", ""); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for empty password, got %v", err)
			}
		})

		t.Run("bad credentials surface the server message", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{}, func(req *http.Request) (*http.Response, error) {
				return tu.JSONResponse(t, 401, map[string]string{"message": "Bad credentials"}), nil
			})

			err := f.manager.Login(ctx, "ada", "wrong")
			if !errors.Is(err, shared.ErrAuthFailed) {
				t.Fatalf("expected ErrAuthFailed, got %v", err)
			}
			if f.manager.State() != AuthError {
				t.Errorf("expected AuthError, got %v", f.manager.State())
			}
			if f.manager.LastError() != "Bad credentials" {
				t.Errorf("expected server message, got %q", f.manager.LastError())
			}
			if len(f.notifier.Errors) != 1 {
				t.Errorf("expected one error notice, got %v", f.notifier.Errors)
			}
		})

		t.Run("profile fetch failure rolls the session back", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{}, func(req *http.Request) (*http.Response, error) {
				switch req.URL.Path {
				case "/api/auth/login":
					return tu.JSONResponse(t, 200, models.LoginResponse{Token: "tok123"}), nil
				default:
					return tu.JSONResponse(t, 500, nil), nil
				}
			})

			if err := f.manager.Login(ctx, "ada", "pw"); err == nil {
				t.Fatal("expected error")
			}
			if f.manager.IsAuthenticated() {
				t.Error("expected torn-down session")
			}
			if f.creds.Token() != "" {
				t.Errorf("expected cleared durable token, got %q", f.creds.Token())
			}
		})
	})

	t.Run("Initialize", func(t *testing.T) {
		t.Run("no token is a clean anonymous state", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{}, nil)

			if err := f.manager.Initialize(ctx); err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}
			if f.manager.State() != Anonymous {
				t.Errorf("expected Anonymous, got %v", f.manager.State())
			}
		})

		t.Run("complete pair needs no network", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{User: member, Tok: "tok"}, func(req *http.Request) (*http.Response, error) {
				t.Error("unexpected network call")
				return tu.JSONResponse(t, 500, nil), nil
			})

			if err := f.manager.Initialize(ctx); err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}
		})

		t.Run("token-only session rehydrates from the backend", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{Tok: "tok"}, func(req *http.Request) (*http.Response, error) {
				return tu.JSONResponse(t, 200, member), nil
			})

			if err := f.manager.Initialize(ctx); err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}
			if !f.manager.IsAuthenticated() {
				t.Error("expected authenticated session after rehydration")
			}
			if user := f.manager.CurrentUser(); user == nil || user.Username != "ada" {
				t.Errorf("unexpected user record: %+v", user)
			}
		})

		t.Run("rejected token tears down as an expired session", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{Tok: "stale"}, func(req *http.Request) (*http.Response, error) {
				return tu.JSONResponse(t, 401, nil), nil
			})
			f.navigator.SetCurrent("/dashboard")

			err := f.manager.Initialize(ctx)
			if !errors.Is(err, shared.ErrSessionExpired) {
				t.Fatalf("expected ErrSessionExpired, got %v", err)
			}
			if f.manager.IsAuthenticated() {
				t.Error("expected torn-down session")
			}
			if f.navigator.Current() != "/login" {
				t.Errorf("expected navigation to /login, got %q", f.navigator.Current())
			}
			if len(f.notifier.Errors) != 1 {
				t.Errorf("expected one error notice, got %v", f.notifier.Errors)
			}
		})

		t.Run("non-auth failure stays a generic error", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{Tok: "tok"}, func(req *http.Request) (*http.Response, error) {
				return tu.JSONResponse(t, 500, nil), nil
			})
			f.navigator.SetCurrent("/dashboard")

			err := f.manager.Initialize(ctx)
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Fatalf("expected ErrNotAuthenticated, got %v", err)
			}
			if errors.Is(err, shared.ErrSessionExpired) {
				t.Error("a server error must not classify as an expired session")
			}
		})

		t.Run("rehydration failure on login stays quiet", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{Tok: "stale"}, func(req *http.Request) (*http.Response, error) {
				return tu.JSONResponse(t, 401, nil), nil
			})
			f.navigator.SetCurrent("/login")

			if err := f.manager.Initialize(ctx); err == nil {
				t.Fatal("expected error")
			}
			if len(f.navigator.Visited) != 0 {
				t.Errorf("expected no navigation, got %v", f.navigator.Visited)
			}
			if f.notifier.Total() != 0 {
				t.Errorf("expected no notifications, got %d", f.notifier.Total())
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("clears state and durable mirror", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{User: member, Tok: "tok"}, nil)

			f.manager.Logout()

			if f.manager.IsAuthenticated() {
				t.Error("expected anonymous session")
			}
			if f.creds.Token() != "" {
				t.Error("expected cleared durable token")
			}
			if f.navigator.Current() != "/login" {
				t.Errorf("expected navigation to /login, got %q", f.navigator.Current())
			}
			if len(f.notifier.Infos) != 1 {
				t.Errorf("expected one info notice, got %v", f.notifier.Infos)
			}
		})

		t.Run("repeat logout is safe", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{}, nil)

			f.manager.Logout()
			f.manager.Logout()

			if f.manager.State() != Anonymous {
				t.Errorf("expected Anonymous, got %v", f.manager.State())
			}
		})
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("success routes to login without authenticating", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{}, func(req *http.Request) (*http.Response, error) {
				return tu.JSONResponse(t, 200, map[string]string{"message": "User registered successfully"}), nil
			})

			req := models.RegisterRequest{Username: "ada", Email: "ada@example.com", Password: "pw", Role: models.RoleUser}
			if err := f.manager.Register(ctx, req); err != nil {
				t.Fatalf("Register failed: %v", err)
			}
			if f.manager.IsAuthenticated() {
				t.Error("registration must not authenticate")
			}
			if f.navigator.Current() != "/login" {
				t.Errorf("expected navigation to /login, got %q", f.navigator.Current())
			}
		})

		t.Run("failure surfaces the server message", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{}, func(req *http.Request) (*http.Response, error) {
				return tu.JSONResponse(t, 409, map[string]string{"message": "Username already taken"}), nil
			})

			if err := f.manager.Register(ctx, models.RegisterRequest{Username: "ada"}); err == nil {
				t.Fatal("expected error")
			}
			if len(f.notifier.Errors) != 1 || f.notifier.Errors[0] != "Username already taken" {
				t.Errorf("expected server message notice, got %v", f.notifier.Errors)
			}
		})
	})

	t.Run("FetchProfile", func(t *testing.T) {
		t.Run("merges into the user record and re-persists", func(t *testing.T) {
			profile := models.UserProfile{ID: 1, Username: "ada.l", Email: "ada@new.example.com", Role: models.RoleUser}
			f := newFixture(t, &tu.MemoryCredentials{User: member, Tok: "tok"}, func(req *http.Request) (*http.Response, error) {
				return tu.JSONResponse(t, 200, profile), nil
			})

			got, err := f.manager.FetchProfile(ctx)
			if err != nil {
				t.Fatalf("FetchProfile failed: %v", err)
			}
			if got.Username != "ada.l" {
				t.Errorf("unexpected profile: %+v", got)
			}
			if user := f.manager.CurrentUser(); user.Username != "ada.l" || user.Email != "ada@new.example.com" {
				t.Errorf("expected merged user record, got %+v", user)
			}
			if durable, _, _ := f.creds.Load(); durable == nil || durable.Username != "ada.l" {
				t.Errorf("expected re-persisted record, got %+v", durable)
			}
		})

		t.Run("failure clears cached profile", func(t *testing.T) {
			f := newFixture(t, &tu.MemoryCredentials{User: member, Tok: "tok"}, func(req *http.Request) (*http.Response, error) {
				return tu.JSONResponse(t, 500, nil), nil
			})

			if _, err := f.manager.FetchProfile(ctx); err == nil {
				t.Fatal("expected error")
			}
			if f.manager.Profile() != nil {
				t.Error("expected cleared profile cache")
			}
		})
	})

	t.Run("role helpers", func(t *testing.T) {
		admin := &models.UserRecord{ID: 2, Username: "root", Role: models.RoleAdmin}
		f := newFixture(t, &tu.MemoryCredentials{User: admin, Tok: "tok"}, nil)

		if !f.manager.IsAdmin() || f.manager.IsCompany() || f.manager.IsUser() {
			t.Errorf("unexpected role classification for %v", f.manager.Role())
		}

		anon := newFixture(t, &tu.MemoryCredentials{}, nil)
		if anon.manager.Role() != "" {
			t.Errorf("expected empty role for anonymous session, got %v", anon.manager.Role())
		}
	})
}
