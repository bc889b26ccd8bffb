// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/melodymix/melodyctl/internal/models"
)

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// RoundTripFunc adapts a function to http.RoundTripper for per-request control.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// JSONResponse builds an *http.Response with a JSON body for use with
// [MockRoundTripper] and [RoundTripFunc].
func JSONResponse(t *testing.T, status int, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(data)),
	}
}

// RecordingNotifier captures notifications for assertions.
type RecordingNotifier struct {
	mu        sync.Mutex
	Successes []string
	Infos     []string
	Warnings  []string
	Errors    []string
}

func (n *RecordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Successes = append(n.Successes, msg)
}

func (n *RecordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Infos = append(n.Infos, msg)
}

func (n *RecordingNotifier) Warning(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Warnings = append(n.Warnings, msg)
}

func (n *RecordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, msg)
}

// Total returns the number of captured notifications across severities.
func (n *RecordingNotifier) Total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Successes) + len(n.Infos) + len(n.Warnings) + len(n.Errors)
}

// RecordingNavigator captures navigation requests and tracks the current route.
type RecordingNavigator struct {
	mu      sync.Mutex
	Visited []string
	current string
}

func (n *RecordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Visited = append(n.Visited, path)
	n.current = path
}

func (n *RecordingNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// SetCurrent positions the navigator without recording a visit.
func (n *RecordingNavigator) SetCurrent(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = path
}

// MemoryCredentials is an in-memory credential pair for session tests.
type MemoryCredentials struct {
	mu      sync.Mutex
	User    *models.UserRecord
	Tok     string
	SaveErr error
	LoadErr error
}

func (c *MemoryCredentials) Save(user *models.UserRecord, token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SaveErr != nil {
		return c.SaveErr
	}
	c.User = user
	c.Tok = token
	return nil
}

func (c *MemoryCredentials) Load() (*models.UserRecord, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LoadErr != nil {
		return nil, "", c.LoadErr
	}
	return c.User, c.Tok, nil
}

func (c *MemoryCredentials) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.User = nil
	c.Tok = ""
	return nil
}

func (c *MemoryCredentials) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Tok
}

// StaticTokens is a fixed-token TokenSource for gateway tests.
type StaticTokens struct {
	Value string
}

func (s StaticTokens) Token() string { return s.Value }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}
