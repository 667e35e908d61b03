// Package httputil maps domain errors onto HTTP responses so handlers stay
// free of status-code bookkeeping.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "civicportal/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeValidation:      http.StatusBadRequest,
	dErrors.CodeInvalidInput:    http.StatusBadRequest,
	dErrors.CodeBadRequest:      http.StatusBadRequest,
	dErrors.CodeUnauthorized:    http.StatusUnauthorized,
	dErrors.CodeForbidden:       http.StatusForbidden,
	dErrors.CodeNotFound:        http.StatusNotFound,
	dErrors.CodeConflict:        http.StatusConflict,
	dErrors.CodeAlreadyVerified: http.StatusConflict,
	dErrors.CodeBusy:            http.StatusTooManyRequests,
	dErrors.CodeUnavailable:     http.StatusServiceUnavailable,
	dErrors.CodeTimeout:         http.StatusGatewayTimeout,
	dErrors.CodeInternal:        http.StatusInternalServerError,
}

// WriteError renders a coded error as JSON. Internal errors omit the
// description so infrastructure details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		code = dErrors.CodeInternal
		status = http.StatusInternalServerError
	}

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		body["error_description"] = dErrors.MessageOf(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
