// package api implements the HTTP gateway to the Melody Mix backend.
//
// A single [Client] wraps one http.Client with an explicit middleware chain:
// ordered request stages (bearer injection, request IDs, rate limiting) run
// before dispatch, and response stages (centralized 401/403 observation) run
// after. Observation never swallows: the typed error is always returned to
// the caller once side effects have run.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/melodymix/melodyctl/internal/shared"
)

// BasePath is prepended to every request path.
const BasePath = "/api"

// RequestStage transforms an outgoing request before dispatch.
// Returning an error aborts the request.
type RequestStage func(*http.Request) error

// ResponseStage observes a completed exchange. Stages run for every
// response, 2xx or not, and must not mutate the response.
type ResponseStage func(*http.Request, *Response)

// Response is a fully-read backend response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// ServerMessage extracts the conventional {"message": ...} field from the
// response body, or returns the empty string.
func (r *Response) ServerMessage() string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return ""
	}
	return payload.Message
}

// Error is the typed error returned for any non-2xx backend response.
type Error struct {
	Status  int
	Message string // server-provided message, may be empty
	Path    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request to %s failed: status %d: %s", e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("request to %s failed: status %d", e.Path, e.Status)
}

// StatusOf returns the HTTP status carried by err, or zero when err is not
// an [*Error].
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the server-provided message carried by err, or the
// empty string when err is not an [*Error] or carries none.
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Client is the single configured gateway to the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	reqStages  []RequestStage
	respStages []ResponseStage
}

// ClientOpts contains configuration options for creating a Client.
type ClientOpts struct {
	BaseURL    string // backend origin; BasePath is appended
	HTTPClient *http.Client
	Logger     *log.Logger
}

// NewClient creates a gateway client for the backend at opts.BaseURL.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/") + BasePath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
}

// Use appends request stages to the chain; stages run in registration order.
func (c *Client) Use(stages ...RequestStage) {
	c.reqStages = append(c.reqStages, stages...)
}

// Observe appends response stages to the chain.
func (c *Client) Observe(stages ...ResponseStage) {
	c.respStages = append(c.respStages, stages...)
}

// Do performs a request against the backend and returns the fully-read
// response. Non-2xx responses are returned without error; the JSON verb
// helpers translate them into [*Error]. Extra stages run after the
// registered chain, so a per-call stage can override an injected header.
func (c *Client) Do(ctx context.Context, method, path string, body any, extra ...RequestStage) (*Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, stage := range append(append([]RequestStage{}, c.reqStages...), extra...) {
		if err := stage(req); err != nil {
			return nil, fmt.Errorf("request stage failed: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network-level failure: no response, no centralized notification.
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: data}

	for _, stage := range c.respStages {
		stage(req, out)
	}

	return out, nil
}

// Get performs a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any, extra ...RequestStage) error {
	return c.roundTrip(ctx, http.MethodGet, path, nil, out, extra...)
}

// Post performs a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any, extra ...RequestStage) error {
	return c.roundTrip(ctx, http.MethodPost, path, in, out, extra...)
}

// Put performs a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, in, out any, extra ...RequestStage) error {
	return c.roundTrip(ctx, http.MethodPut, path, in, out, extra...)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, extra ...RequestStage) error {
	return c.roundTrip(ctx, http.MethodDelete, path, nil, nil, extra...)
}

// WithBearer returns a per-call stage that pins the Authorization header to
// the given token regardless of what the registered chain injected.
func WithBearer(token string) RequestStage {
	return func(req *http.Request) error {
		req.Header.Set("Authorization", "Bearer "+token)
		return nil
	}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any, extra ...RequestStage) error {
	resp, err := c.Do(ctx, method, path, in, extra...)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Message: resp.ServerMessage(), Path: path}
	}

	if out != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}

	return nil
}
