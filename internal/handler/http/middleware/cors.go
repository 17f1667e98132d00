package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// OriginValidator decides which origins may call the API from a browser.
type OriginValidator interface {
	IsAllowed(origin string) bool
}

// WhitelistValidator matches origins exactly, ignoring case and a trailing
// slash. A "*" entry allows every origin.
type WhitelistValidator struct {
	allowAll bool
	origins  map[string]struct{}
}

// NewWhitelistValidator builds a validator from configured origins.
func NewWhitelistValidator(origins []string) *WhitelistValidator {
	v := &WhitelistValidator{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = normalizeOrigin(o)
		switch o {
		case "":
			continue
		case "*":
			v.allowAll = true
		default:
			v.origins[o] = struct{}{}
		}
	}
	return v
}

// IsAllowed reports whether the origin is permitted.
func (v *WhitelistValidator) IsAllowed(origin string) bool {
	origin = normalizeOrigin(origin)
	if origin == "" {
		return false
	}
	if v.allowAll {
		return true
	}
	_, ok := v.origins[origin]
	return ok
}

// AllowsAll reports whether the whitelist contains "*".
func (v *WhitelistValidator) AllowsAll() bool {
	return v.allowAll
}

func normalizeOrigin(o string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o)), "/")
}

// CORSConfig holds the cross-origin policy.
type CORSConfig struct {
	Validator      OriginValidator
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
	Logger         *slog.Logger
}

// DefaultCORSConfig returns the policy for the given origins.
func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		Validator:      NewWhitelistValidator(origins),
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID", "X-Admin-Token", "Stripe-Signature"},
		MaxAge:         86400,
	}
}

// CORS sets Access-Control-* headers for allowed origins and answers
// preflight requests with 204. Requests from other origins pass through
// without the headers, so the browser blocks them.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if config.Validator == nil || !config.Validator.IsAllowed(origin) {
				logger.Warn("CORS: origin not allowed",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(config.AllowedHeaders, ", "))
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(config.MaxAge))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
