package http

import (
	"net/http"
	"strconv"
)

const (
	corsAllowMethods  = "GET, HEAD, OPTIONS"
	corsAllowHeaders  = "Range, Content-Type, Authorization"
	corsExposeHeaders = "Content-Range, Accept-Ranges, Content-Length, ETag"
)

// CORSConfig holds the tunable parts of the cross-origin policy.
// Methods, request headers and exposed headers are fixed by what the
// gateway serves. The zero value yields the standard policy: any origin,
// preflight cached for a day. A non-default AllowOrigin or MaxAge is an
// operator override that leaves that policy; browsers on other origins
// will then be refused.
type CORSConfig struct {
	AllowOrigin string `mapstructure:"allow_origin" yaml:"allow_origin"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age" validate:"min=0"`
}

func (c CORSConfig) withDefaults() CORSConfig {
	if c.AllowOrigin == "" {
		c.AllowOrigin = "*"
	}
	if c.MaxAge == 0 {
		c.MaxAge = 86400
	}
	return c
}

// CORSPolicy sets the cross-origin headers on every response, whatever its
// status, and answers OPTIONS preflights with 204 without authentication.
//
// Credentials are never allowed: the token travels in the URL path, not in
// cookies, which is what makes a wildcard origin acceptable.
func CORSPolicy(cfg CORSConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", cfg.AllowOrigin)
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			h.Set("Access-Control-Max-Age", maxAge)
			h.Set("Cross-Origin-Resource-Policy", "cross-origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
