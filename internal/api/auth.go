package api

import (
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"strings"

	"karenta/internal/config"
)

var (
	errMissingAPIKey     = errors.New("missing api key")
	errInvalidAPIKey     = errors.New("invalid api key")
	errPermissionDenied  = errors.New("permission denied")
	errRateLimitExceeded = errors.New("rate limit exceeded")
)

// Auth provides API-key authentication and per-key rate limiting.
type Auth struct {
	cfg     config.APIConfig
	limiter *rateLimiter
}

func NewAuth(cfg config.APIConfig) *Auth {
	return &Auth{cfg: cfg, limiter: newRateLimiter(&cfg)}
}

func (a *Auth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(r); err != nil {
				code := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					code = http.StatusForbidden
				}
				writeError(w, code, err.Error())
				return
			}
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Auth) headerName() string {
	h := strings.TrimSpace(a.cfg.Auth.HeaderAPIKey)
	if h == "" {
		h = "X-Api-Key"
	}
	return h
}

func (a *Auth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.headerName()))
	if apiKey == "" {
		return errMissingAPIKey
	}

	client, ok := a.lookupKey(apiKey)
	if !ok {
		return errInvalidAPIKey
	}
	return a.checkPermissions(client, r)
}

// lookupKey scans every configured key with a constant-time compare so the
// match position does not leak through response timing.
func (a *Auth) lookupKey(apiKey string) (config.APIClientKey, bool) {
	var found config.APIClientKey
	matched := false
	for _, k := range a.cfg.Auth.APIKeys {
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(apiKey)) == 1 {
			found = k
			matched = true
		}
	}
	return found, matched
}

func (a *Auth) checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermission(r)
	if required == "" || len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermission(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasPrefix(path, "/api/v1/wizard"):
		return "write:bookings"
	case strings.HasPrefix(path, "/api/v1/bookings") && r.Method != http.MethodGet:
		return "write:bookings"
	case strings.HasPrefix(path, "/api/v1/bookings"):
		return "read:bookings"
	case strings.HasPrefix(path, "/api/v1/availability"):
		return "read:availability"
	case strings.HasPrefix(path, "/api/v1/vehicles"), strings.HasPrefix(path, "/api/v1/pickup-points"):
		return "read:vehicles"
	case strings.HasPrefix(path, "/api/v1/customers"):
		return "read:customers"
	case strings.HasPrefix(path, "/api/v1/reports"):
		return "read:reports"
	case strings.HasPrefix(path, "/api/v1/uploads"):
		return "write:bookings"
	}
	return ""
}

func (a *Auth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}
	if !a.limiter.getLimiter(a.clientKey(r)).Allow() {
		return errRateLimitExceeded
	}
	return nil
}

func (a *Auth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.headerName())); apiKey != "" {
		return apiKey
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}
