package http

import (
	"encoding/json"
	"net/http"

	"lapkeu/internal/core"
	applog "lapkeu/internal/log"
	"lapkeu/internal/report"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET, OPTIONS")
		return
	}
	month, err := ParseMonth(r.URL.Query())
	if err != nil {
		s.fail(w, r, applog.OpReport, err)
		return
	}
	s.serveReport(w, r, "summary", func(list []core.Transaction) any {
		return report.Summarize(list, month)
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET, OPTIONS")
		return
	}
	month, err := ParseMonth(r.URL.Query())
	if err != nil {
		s.fail(w, r, applog.OpReport, err)
		return
	}
	s.serveReport(w, r, "analytics", func(list []core.Transaction) any {
		return report.Analyze(list, month)
	})
}

func (s *Server) handlePeriodic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET, OPTIONS")
		return
	}
	period, ok, err := ParsePeriod(r.URL.Query())
	if err != nil {
		s.fail(w, r, applog.OpReport, err)
		return
	}
	limit, err := ParseLimit(r.URL.Query())
	if err != nil {
		s.fail(w, r, applog.OpReport, err)
		return
	}
	s.serveReport(w, r, "periodic", func(list []core.Transaction) any {
		if !ok {
			return map[string]any{"tables": report.AllPeriodic(list)}
		}
		return report.Periodic(list, period, limit)
	})
}

// serveReport answers from the report cache or builds the payload from the
// current ledger.
func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, route string, build func([]core.Transaction) any) {
	key := cacheKey(route, r.URL.Query())
	caching := s.opts.ReportCacheTTL > 0

	if caching {
		if body, found := s.reportCache.Get(key); found {
			w.Header().Set("X-Cache", "HIT")
			writeRaw(w, http.StatusOK, body)
			return
		}
	}

	gen := s.reportGen.Load()
	list, err := s.ledger.List(r.Context())
	if err != nil {
		s.fail(w, r, applog.OpReport, err)
		return
	}
	body, err := json.Marshal(build(list))
	if err != nil {
		s.fail(w, r, applog.OpReport, err)
		return
	}

	if caching {
		if s.reportGen.Load() == gen {
			s.reportCache.Set(key, body)
		}
		w.Header().Set("X-Cache", "MISS")
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Report built",
		applog.FieldOperation, applog.OpReport,
		"route", route,
		applog.FieldCount, len(list))
	writeRaw(w, http.StatusOK, body)
}
