package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"lapkeu/internal/calc"
	applog "lapkeu/internal/log"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady loads the ledger once to prove the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.ReadyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := s.ledger.Ping(ctx); err != nil {
		_, body := errorResponse(err)
		checks["store"] = "failed: " + body.Error
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	stats := s.reportCache.Stats()
	checks["report_cache"] = map[string]any{
		"entries": stats.Size,
		"hits":    stats.Hits,
		"misses":  stats.Misses,
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"rejected":       s.rateLimiter.GetMetrics().Rejected,
	}
	traceMetrics := s.traceMiddleware.GetMetrics()
	checks["requests"] = map[string]any{
		"total":         traceMetrics.TotalRequests,
		"server_errors": traceMetrics.ServerErrors,
		"avg_micros":    traceMetrics.AverageResponseTime,
		"suspicious":    s.securityDetector.GetMetrics().SuspiciousRequests,
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleDebugEnv reports which secrets are present, never their values.
func (s *Server) handleDebugEnv(w http.ResponseWriter, r *http.Request) {
	presence := map[string]any{}
	if s.opts.EnvPresence != nil {
		presence = s.opts.EnvPresence()
	}
	writeJSON(w, http.StatusOK, presence)
}

// handleLogin checks a PIN. A wrong PIN is a 200 with ok=false.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST, OPTIONS")
		return
	}

	var body struct {
		PIN json.RawMessage `json:"pin"`
	}
	// Anything but a JSON string counts as an empty PIN.
	var pin string
	if err := decodeBody(w, r, &body); err == nil && len(body.PIN) > 0 {
		_ = json.Unmarshal(body.PIN, &pin)
	}

	ok, err := s.gate.Verify(pin)
	if err != nil {
		s.fail(w, r, applog.OpLogin, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogLogin(r.Context(), s.securityDetector.ExtractClientIP(r), ok)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

// handleCalc evaluates a calculator expression.
func (s *Server) handleCalc(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, "POST, OPTIONS")
		return
	}

	var body struct {
		Expr string `json:"expr"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, r, "calc", err)
		return
	}

	v, err := calc.Eval(body.Expr)
	if err != nil {
		s.fail(w, r, "calc", err)
		return
	}
	result := v.String()
	writeJSON(w, http.StatusOK, map[string]string{
		"result":  result,
		"display": calc.Format(result),
	})
}
