package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"lapkeu/internal/auth"
	"lapkeu/internal/calc"
	"lapkeu/internal/core"
	applog "lapkeu/internal/log"
	"lapkeu/internal/store"
)

var errBadJSON = errors.New("invalid JSON body")

// errorResponse maps an error from the layers below to a status and body.
func errorResponse(err error) (int, errorBody) {
	switch {
	case errors.Is(err, auth.ErrNotConfigured):
		return http.StatusInternalServerError, errorBody{Error: "ADMIN_PIN not set", Hint: auth.NotConfiguredHint}
	case errors.Is(err, store.ErrNotConfigured):
		return http.StatusInternalServerError, errorBody{Error: capitalize(after(err, store.ErrNotConfigured))}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorBody{Error: "penyimpanan tidak merespons (timeout), coba lagi"}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, errorBody{Error: "request canceled"}
	case errors.Is(err, errBadJSON):
		return http.StatusBadRequest, errorBody{Error: "Bad request"}
	case errors.Is(err, core.ErrMissingID):
		return http.StatusBadRequest, errorBody{Error: "id required"}
	case errors.Is(err, auth.ErrEmptyPIN):
		return http.StatusBadRequest, errorBody{Error: "PIN tidak valid"}
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not found"}
	case errors.Is(err, calc.ErrSyntax), errors.Is(err, calc.ErrDivisionByZero):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, errorBody{Error: after(err, core.ErrValidation)}
	case errors.Is(err, core.ErrStoreUnavailable):
		return http.StatusBadGateway, errorBody{Error: err.Error()}
	case errors.Is(err, core.ErrAuth):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized"}
	}
	return http.StatusInternalServerError, errorBody{Error: "Server error"}
}

// fail logs err at a level that matches its status and writes the mapped
// response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := errorResponse(err)

	logger := applog.FromContext(r.Context())
	fields := applog.NewFields().
		WithOperation(op).
		WithError(err).
		WithErrorType(errorType(err))
	if status >= 500 {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	} else {
		logger.WarnContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}
	writeJSON(w, status, body)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, store.ErrNotConfigured), errors.Is(err, auth.ErrNotConfigured):
		return applog.ErrorTypeConfiguration
	case errors.Is(err, context.DeadlineExceeded):
		return applog.ErrorTypeTimeout
	case errors.Is(err, core.ErrNotFound):
		return applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrValidation), errors.Is(err, errBadJSON),
		errors.Is(err, calc.ErrSyntax), errors.Is(err, calc.ErrDivisionByZero):
		return applog.ErrorTypeValidation
	case errors.Is(err, core.ErrStoreUnavailable):
		return applog.ErrorTypeStore
	case errors.Is(err, core.ErrAuth):
		return applog.ErrorTypeAuth
	}
	return applog.ErrorTypeInternal
}

// after returns the message that follows sentinel in err, or the whole
// message when the sentinel text is not found.
func after(err, sentinel error) string {
	msg := err.Error()
	if _, rest, ok := strings.Cut(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
