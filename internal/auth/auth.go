// Package auth checks the single admin PIN that unlocks the ledger UI.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"lapkeu/internal/core"
)

// HeaderPIN carries the PIN on API calls when enforcement is enabled.
const HeaderPIN = "X-Admin-Pin"

var (
	// ErrNotConfigured means no admin PIN is set in the environment.
	ErrNotConfigured = fmt.Errorf("%w: ADMIN_PIN not set", core.ErrAuth)
	// ErrEmptyPIN means the submitted PIN was blank.
	ErrEmptyPIN = fmt.Errorf("%w: PIN tidak valid", core.ErrValidation)
)

// NotConfiguredHint tells the operator where the PIN is configured.
const NotConfiguredHint = "Tambahkan ADMIN_PIN di Vercel (All Environments) lalu redeploy"

type Gate struct {
	secret string
}

func NewGate(secret string) *Gate {
	return &Gate{secret: strings.TrimSpace(secret)}
}

// Configured reports whether a PIN is set.
func (g *Gate) Configured() bool { return g.secret != "" }

// Verify compares pin with the configured secret. A wrong PIN is not an
// error: it yields false.
func (g *Gate) Verify(pin string) (bool, error) {
	if !g.Configured() {
		return false, ErrNotConfigured
	}
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return false, ErrEmptyPIN
	}
	return subtle.ConstantTimeCompare([]byte(pin), []byte(g.secret)) == 1, nil
}

// RejectFunc writes the response for a request the gate turns away.
type RejectFunc func(w http.ResponseWriter, r *http.Request, status int, msg string)

// Middleware rejects requests without the correct PIN header through
// reject. Preflight requests pass through. A nil reject writes {"error":msg}.
func (g *Gate) Middleware(reject RejectFunc) func(http.Handler) http.Handler {
	if reject == nil {
		reject = writeError
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := g.Verify(r.Header.Get(HeaderPIN))
			switch {
			case errors.Is(err, ErrNotConfigured):
				reject(w, r, http.StatusInternalServerError, "ADMIN_PIN not set")
				return
			case err != nil || !ok:
				slog.WarnContext(r.Context(), "Rejected request without valid PIN",
					"path", r.URL.Path,
					"method", r.Method)
				reject(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
