// package session owns the client's authentication state machine.
//
// The manager holds the in-memory session (user, token, loading flag, last
// error), keeps the durable credential mirror synchronized write-through,
// and performs the auth operations against the gateway. Collaborators are
// injected at construction; nothing here reaches into ambient globals.
package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/melodymix/melodyctl/internal/api"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/notify"
	"github.com/melodymix/melodyctl/internal/shared"
)

// State enumerates the authentication lifecycle states.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	AuthError
)

// String returns the state label.
func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case AuthError:
		return "auth_error"
	}
	return "unknown"
}

// CredentialStore is the durable mirror of the session pair.
// Implemented by repositories.CredentialRepository.
type CredentialStore interface {
	Save(user *models.UserRecord, token string) error
	Load() (*models.UserRecord, string, error)
	Clear() error
	Token() string
}

// Navigator requests route transitions and reports the current route.
type Navigator interface {
	Navigate(path string)
	Current() string
}

// Manager owns authentication state and performs auth operations.
type Manager struct {
	mu       sync.RWMutex
	api      *api.Client
	creds    CredentialStore
	notifier notify.Notifier
	nav      Navigator
	logger   *log.Logger

	user      *models.UserRecord
	token     string
	profile   *models.UserProfile
	state     State
	isLoading bool
	lastError string
}

// ManagerOpts contains the injected dependencies for a Manager.
type ManagerOpts struct {
	API         *api.Client
	Credentials CredentialStore
	Notifier    notify.Notifier
	Navigator   Navigator
	Logger      *log.Logger
}

// NewManager creates a Manager hydrated from the durable credential store.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	m := &Manager{
		api:      opts.API,
		creds:    opts.Credentials,
		notifier: opts.Notifier,
		nav:      opts.Navigator,
		logger:   opts.Logger,
		state:    Anonymous,
	}

	user, token, err := opts.Credentials.Load()
	if err != nil {
		m.logger.Warn("failed to hydrate session from durable store", "err", err)
		return m
	}
	m.user = user
	m.token = token
	if user != nil && token != "" {
		m.state = Authenticated
	}

	return m
}

// Initialize resolves a hydrated-but-incomplete session. A token without a
// user record triggers a profile fetch; no token guarantees a clean
// anonymous state. Idempotent.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	token, user := m.token, m.user
	m.mu.Unlock()

	if token == "" {
		m.teardown()
		return nil
	}
	if user != nil {
		return nil
	}

	m.setLoading(true)
	defer m.setLoading(false)

	var record models.UserRecord
	if err := m.api.Get(ctx, "/user/me", &record); err != nil {
		m.logger.Warn("session rehydration failed", "err", err)
		// The gateway's 401 observer already tears down and notifies;
		// only act when the user isn't sitting on the login view.
		if !strings.Contains(m.nav.Current(), "/login") {
			m.teardown()
			m.notifier.Error("Your session has expired or is invalid. Please log in again.")
			m.nav.Navigate("/login")
		}
		if api.StatusOf(err) == http.StatusUnauthorized {
			return fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
		}
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	m.setAuth(&record, token)
	return nil
}

// Login exchanges credentials for a bearer token, then immediately fetches
// the user profile with that token before committing the session.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		m.setError("Username and password are required.")
		return fmt.Errorf("%w: username and password are required", shared.ErrInvalidInput)
	}

	m.setLoading(true)
	defer m.setLoading(false)
	m.setError("")

	m.mu.Lock()
	m.state = Authenticating
	m.mu.Unlock()

	var loginResp models.LoginResponse
	err := m.api.Post(ctx, "/auth/login", models.LoginRequest{Username: username, Password: password}, &loginResp)
	if err != nil {
		return m.failLogin(err)
	}

	// Persist the token before the profile fetch so the bearer stage can
	// see it, and pin the header on the request itself so the fetch cannot
	// race the durable write.
	if err := m.creds.Save(nil, loginResp.Token); err != nil {
		return m.failLogin(fmt.Errorf("failed to persist token: %w", err))
	}

	var record models.UserRecord
	if err := m.api.Get(ctx, "/user/me", &record, api.WithBearer(loginResp.Token)); err != nil {
		return m.failLogin(err)
	}

	m.setAuth(&record, loginResp.Token)
	m.notifier.Success("Logged in successfully.")
	m.nav.Navigate("/dashboard")
	m.logger.Info("login complete", "username", record.Username, "role", record.Role)
	return nil
}

func (m *Manager) failLogin(err error) error {
	msg := api.MessageOf(err)
	if msg == "" {
		msg = shared.ErrInvalidCredentials.Error()
	}
	m.setError(msg)
	m.notifier.Error(msg)
	m.teardown()

	m.mu.Lock()
	m.state = AuthError
	m.mu.Unlock()

	return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
}

// Register submits a registration. A successful registration does not
// authenticate; the user is sent to the login view.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) error {
	m.setLoading(true)
	defer m.setLoading(false)
	m.setError("")

	if err := m.api.Post(ctx, "/auth/register", req, nil); err != nil {
		msg := api.MessageOf(err)
		if msg == "" {
			msg = "Registration failed. Please try again."
		}
		m.setError(msg)
		m.notifier.Error(msg)
		return fmt.Errorf("registration failed: %w", err)
	}

	m.notifier.Success("Registration successful! Please log in.")
	m.nav.Navigate("/login")
	return nil
}

// Logout unconditionally tears down the session. Safe to call repeatedly
// and from the gateway's 401 observer.
func (m *Manager) Logout() {
	m.teardown()
	m.notifier.Info("You have been logged out.")
	m.nav.Navigate("/login")
}

// FetchProfile loads the full profile and merges it into the lightweight
// user record. The endpoint contract is provisional server-side.
func (m *Manager) FetchProfile(ctx context.Context) (*models.UserProfile, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	var profile models.UserProfile
	if err := m.api.Get(ctx, "/user/me", &profile); err != nil {
		msg := api.MessageOf(err)
		if msg == "" {
			msg = "Failed to load profile."
		}
		m.notifier.Error(msg)
		m.mu.Lock()
		m.profile = nil
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	m.mergeProfile(&profile)
	return &profile, nil
}

// UpdateProfile writes profile changes and re-persists the merged record.
// The endpoint contract is provisional server-side.
func (m *Manager) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.UserProfile, error) {
	m.setLoading(true)
	defer m.setLoading(false)

	var profile models.UserProfile
	if err := m.api.Put(ctx, "/user/me", req, &profile); err != nil {
		msg := api.MessageOf(err)
		if msg == "" {
			msg = "Failed to update profile."
		}
		m.notifier.Error(msg)
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	m.mergeProfile(&profile)
	m.notifier.Success("Profile updated.")
	return &profile, nil
}

// ChangePassword submits a password change.
// The endpoint contract is provisional server-side.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	m.setLoading(true)
	defer m.setLoading(false)

	req := models.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	if err := m.api.Put(ctx, "/user/change-password", req, nil); err != nil {
		msg := api.MessageOf(err)
		if msg == "" {
			msg = "Failed to change password."
		}
		m.notifier.Error(msg)
		return fmt.Errorf("failed to change password: %w", err)
	}

	m.notifier.Success("Password changed.")
	return nil
}

// mergeProfile stores the profile and syncs its fields into the lightweight
// user record, re-persisting the pair.
func (m *Manager) mergeProfile(profile *models.UserProfile) {
	m.mu.Lock()
	m.profile = profile
	if m.user != nil {
		if profile.Username != "" {
			m.user.Username = profile.Username
		}
		if profile.Email != "" {
			m.user.Email = profile.Email
		}
		if profile.Role != "" {
			m.user.Role = profile.Role
		}
		user, token := m.user, m.token
		m.mu.Unlock()
		if err := m.creds.Save(user, token); err != nil {
			m.logger.Warn("failed to re-persist merged user record", "err", err)
		}
		return
	}
	m.mu.Unlock()
}

// setAuth commits the authenticated pair to memory and durable storage.
func (m *Manager) setAuth(user *models.UserRecord, token string) {
	m.mu.Lock()
	m.user = user
	m.token = token
	m.state = Authenticated
	m.mu.Unlock()

	if err := m.creds.Save(user, token); err != nil {
		m.logger.Error("failed to persist credentials", "err", err)
	}
}

// teardown clears session state and the durable mirror. Idempotent.
func (m *Manager) teardown() {
	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.profile = nil
	m.state = Anonymous
	m.mu.Unlock()

	if err := m.creds.Clear(); err != nil {
		m.logger.Warn("failed to clear durable credentials", "err", err)
	}
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.isLoading = v
	m.mu.Unlock()
}

func (m *Manager) setError(msg string) {
	m.mu.Lock()
	m.lastError = msg
	m.mu.Unlock()
}

// IsAuthenticated reports whether both a token and a user record are present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsLoading reports whether an auth operation is in flight.
func (m *Manager) IsLoading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isLoading
}

// LastError returns the most recent auth failure message.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

// CurrentUser returns a copy of the session's user record, or nil.
func (m *Manager) CurrentUser() *models.UserRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	cp := *m.user
	return &cp
}

// Profile returns the last fetched full profile, or nil.
func (m *Manager) Profile() *models.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.profile == nil {
		return nil
	}
	cp := *m.profile
	return &cp
}

// Role returns the session user's role, or the empty role when anonymous.
func (m *Manager) Role() models.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return ""
	}
	return m.user.Role
}

// IsAdmin reports whether the session user holds the ADMIN role.
func (m *Manager) IsAdmin() bool { return m.Role() == models.RoleAdmin }

// IsCompany reports whether the session user holds the COMPANY role.
func (m *Manager) IsCompany() bool { return m.Role() == models.RoleCompany }

// IsUser reports whether the session user holds the plain USER role.
func (m *Manager) IsUser() bool { return m.Role() == models.RoleUser }
