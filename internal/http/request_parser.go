package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"lapkeu/internal/core"
	"lapkeu/internal/report"
)

// maxBodyBytes bounds a JSON request body.
const maxBodyBytes = 1 << 20

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// decodeBody reads a JSON object into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	return nil
}

// ParseMonth reads the month filter. Blank and "all" select every month.
func ParseMonth(query url.Values) (string, error) {
	month := strings.TrimSpace(query.Get("month"))
	if month == "" || strings.EqualFold(month, report.AllMonths) {
		return report.AllMonths, nil
	}
	if !monthPattern.MatchString(month) {
		return "", fmt.Errorf("%w: month must be YYYY-MM or ALL", core.ErrValidation)
	}
	return month, nil
}

// ParsePeriod reads the period of a periodic report. ok is false when the
// parameter is absent.
func ParsePeriod(query url.Values) (p report.Period, ok bool, err error) {
	raw := strings.TrimSpace(query.Get("period"))
	if raw == "" {
		return "", false, nil
	}
	p, ok = report.ParsePeriod(raw)
	if !ok {
		return "", false, fmt.Errorf("%w: period must be daily, weekly, monthly or yearly", core.ErrValidation)
	}
	return p, true, nil
}

// ParseLimit reads the row window. Absent selects the period default
// (returned as -1); "all" or 0 keeps every row.
func ParseLimit(query url.Values) (int, error) {
	raw := strings.TrimSpace(query.Get("limit"))
	switch {
	case raw == "":
		return -1, nil
	case strings.EqualFold(raw, "all"):
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative number", core.ErrValidation)
	}
	return n, nil
}

// idFrom returns the id of a PUT or DELETE, from the body or the query.
func idFrom(r *http.Request, bodyID string) string {
	if id := strings.TrimSpace(bodyID); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("id"))
}

// cacheKey normalizes route and query so /api/x?b=1&a=2 and /x?a=2&b=1
// share an entry.
func cacheKey(route string, query url.Values) string {
	return route + "?" + query.Encode()
}
