package api

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/melodymix/melodyctl/internal/notify"
	"github.com/melodymix/melodyctl/internal/shared"
	"golang.org/x/time/rate"
)

// PublicPaths lists backend paths (relative to [BasePath]) that must never
// carry a bearer token. Matched by prefix.
var PublicPaths = []string{"/auth/login", "/auth/register"}

// headerAuthHandled marks a request whose 401 has already triggered
// teardown, so concurrent observers cannot cascade logout/notify for it.
const headerAuthHandled = "X-Melodyctl-Auth-Handled"

const (
	defaultExpiredMessage   = "Your session has expired. Please log in again."
	defaultForbiddenMessage = "You do not have permission to perform this action."
)

// TokenSource provides the current bearer token, or the empty string when
// no session exists. Implemented by the credential repository.
type TokenSource interface {
	Token() string
}

// isPublicPath classifies a request path against the public allowlist.
func isPublicPath(path string) bool {
	rel := strings.TrimPrefix(path, BasePath)
	for _, p := range PublicPaths {
		if strings.HasPrefix(rel, p) {
			return true
		}
	}
	return false
}

// BearerStage attaches the durable bearer token to non-public requests and
// strips any stale Authorization header from public ones.
func BearerStage(tokens TokenSource) RequestStage {
	return func(req *http.Request) error {
		if isPublicPath(req.URL.Path) {
			req.Header.Del("Authorization")
			return nil
		}
		if token := tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return nil
	}
}

// RequestIDStage tags each request with a generated X-Request-ID and logs
// the dispatch at debug level.
func RequestIDStage(logger *log.Logger) RequestStage {
	return func(req *http.Request) error {
		id := shared.GenerateID()
		req.Header.Set("X-Request-ID", id)
		logger.Debug("dispatching request", "method", req.Method, "path", req.URL.Path, "request_id", id)
		return nil
	}
}

// RateLimitStage waits on the limiter before dispatch, honoring the
// request's context deadline.
func RateLimitStage(limiter *rate.Limiter) RequestStage {
	return func(req *http.Request) error {
		return limiter.Wait(req.Context())
	}
}

// AuthObserverStage centralizes handling of authentication and
// authorization failures.
//
// 401 tears down the session through onUnauthorized at most once per
// request and surfaces a session-expired notice. 403 surfaces a warning
// and leaves the session intact. Every other status propagates untouched
// to the caller.
func AuthObserverStage(onUnauthorized func(), notifier notify.Notifier, logger *log.Logger) ResponseStage {
	return func(req *http.Request, resp *Response) {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			if req.Header.Get(headerAuthHandled) != "" {
				return
			}
			req.Header.Set(headerAuthHandled, "1")

			logger.Warn("unauthorized response, tearing down session", "path", req.URL.Path)
			if onUnauthorized != nil {
				onUnauthorized()
			}
			msg := resp.ServerMessage()
			if msg == "" {
				msg = defaultExpiredMessage
			}
			notifier.Error(msg)
		case http.StatusForbidden:
			msg := resp.ServerMessage()
			if msg == "" {
				msg = defaultForbiddenMessage
			}
			logger.Warn("forbidden response", "path", req.URL.Path)
			notifier.Warning(msg)
		}
	}
}

// NewLimiter builds a limiter from a requests-per-second setting; zero or
// negative disables limiting.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
