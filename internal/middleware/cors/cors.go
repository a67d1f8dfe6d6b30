// Package cors answers preflight requests and stamps the open CORS headers
// the browser front-end relies on.
package cors

import (
	"net/http"
	"strings"
)

const (
	DefaultMethods = "GET,POST,PUT,DELETE,OPTIONS"
	DefaultHeaders = "Content-Type, Authorization, X-Admin-Pin, X-Request-ID"
)

type Config struct {
	Origin  string
	Methods string
	Headers string
}

func DefaultConfig() Config {
	return Config{Origin: "*", Methods: DefaultMethods, Headers: DefaultHeaders}
}

// Middleware sets the CORS headers on every response. OPTIONS requests end
// here with an empty 200.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	if cfg.Origin == "" {
		cfg.Origin = "*"
	}
	if cfg.Methods == "" {
		cfg.Methods = DefaultMethods
	}
	if cfg.Headers == "" {
		cfg.Headers = DefaultHeaders
	}
	origins := strings.Split(cfg.Origin, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if origin := allowedOrigin(origins, r.Header.Get("Origin")); origin != "" {
				h.Set("Access-Control-Allow-Origin", origin)
				if origin != "*" {
					h.Add("Vary", "Origin")
				}
			}
			h.Set("Access-Control-Allow-Methods", cfg.Methods)
			h.Set("Access-Control-Allow-Headers", cfg.Headers)
			h.Set("Access-Control-Expose-Headers", "X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allowedOrigin returns "*" for an open configuration, the request origin
// when it is listed, and "" otherwise.
func allowedOrigin(origins []string, requested string) string {
	for _, o := range origins {
		if o == "*" {
			return "*"
		}
	}
	for _, o := range origins {
		if requested != "" && strings.EqualFold(o, requested) {
			return requested
		}
	}
	return ""
}
