package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lapkeu/internal/core"
)

func TestGate_Verify(t *testing.T) {
	g := NewGate(" 1234 ")

	tests := []struct {
		pin   string
		ok    bool
		errIs error
	}{
		{"1234", true, nil},
		{"  1234\n", true, nil},
		{"4321", false, nil},
		{"12345", false, nil},
		{"", false, ErrEmptyPIN},
		{"   ", false, ErrEmptyPIN},
	}
	for _, tt := range tests {
		ok, err := g.Verify(tt.pin)
		if tt.errIs != nil {
			assert.ErrorIs(t, err, tt.errIs, "pin %q", tt.pin)
			assert.ErrorIs(t, err, core.ErrValidation)
			continue
		}
		require.NoError(t, err, "pin %q", tt.pin)
		assert.Equal(t, tt.ok, ok, "pin %q", tt.pin)
	}
}

func TestGate_NotConfigured(t *testing.T) {
	g := NewGate("  ")
	assert.False(t, g.Configured())
	_, err := g.Verify("1234")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, err, core.ErrAuth)
}

func TestGate_Middleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := NewGate("1234").Middleware(nil)(next)

	cases := []struct {
		name   string
		method string
		pin    string
		want   int
	}{
		{"valid", http.MethodGet, "1234", http.StatusTeapot},
		{"wrong", http.MethodPost, "0000", http.StatusUnauthorized},
		{"missing", http.MethodGet, "", http.StatusUnauthorized},
		{"preflight", http.MethodOptions, "", http.StatusTeapot},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(c.method, "/transactions", nil)
			if c.pin != "" {
				req.Header.Set(HeaderPIN, c.pin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, c.want, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	NewGate("").Middleware(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"ADMIN_PIN not set"}`, rec.Body.String())
}

func TestGate_MiddlewareRejectFunc(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	var gotStatus int
	var gotMsg string
	reject := func(w http.ResponseWriter, r *http.Request, status int, msg string) {
		gotStatus, gotMsg = status, msg
		w.WriteHeader(status)
	}

	rec := httptest.NewRecorder()
	NewGate("1234").Middleware(reject)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transactions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, gotStatus)
	assert.Equal(t, "unauthorized", gotMsg)
}

func TestWriteError_EncodesJSON(t *testing.T) {
	msg := "bad \u2028 <pin> \x7f \"quoted\""
	rec := httptest.NewRecorder()
	writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusUnauthorized, msg)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, msg, body["error"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
