package server

import (
	"net/http"
	"slices"
	"strings"
)

// SecurityConfig controls the response headers and the request guard shared
// by every route.
type SecurityConfig struct {
	// EnableCORS answers cross-origin requests from AllowedOrigins.
	EnableCORS bool
	// AllowedOrigins lists the accepted Origin values; "*" accepts any.
	AllowedOrigins []string
	// AllowedMethods is advertised in Access-Control-Allow-Methods.
	AllowedMethods []string
	// MaxTarget is the largest index or digit count /run and /estimate
	// accept. Default: 10_000_000
	MaxTarget uint64
}

// DefaultSecurityConfig returns a permissive CORS policy for the read-only
// API and the default target ceiling.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		MaxTarget:      10_000_000,
	}
}

// securityHeaders are set on every response. The API only serves JSON, so
// nothing may be framed, sniffed or cached.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "1; mode=block"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Cache-Control", "no-store"},
}

// allowedOrigin returns the value of Access-Control-Allow-Origin for origin,
// or "" when the origin is not accepted.
func (c SecurityConfig) allowedOrigin(origin string) string {
	if slices.Contains(c.AllowedOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(c.AllowedOrigins, origin) {
		return origin
	}
	return ""
}

// SecurityMiddleware sets the security headers, applies the CORS policy and
// answers preflight requests with 204 before they reach the handler.
//
// Parameters:
//   - config: The security configuration.
//   - next: The next handler in the chain.
//
// Returns:
//   - http.HandlerFunc: The wrapped handler.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	methods := strings.Join(config.AllowedMethods, ", ")
	allowHeaders := strings.Join([]string{"Content-Type", "Accept", RequestIDHeader}, ", ")

	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		if !config.EnableCORS {
			next(w, r)
			return
		}

		if origin := config.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader)
			h.Set("Access-Control-Max-Age", "86400")
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}
