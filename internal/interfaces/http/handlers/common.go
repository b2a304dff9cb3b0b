// Package handlers' common helpers are shared by every HTTP handler:
// pagination parsing, JSON responses, and error-code-to-status mapping.

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/hartonomous/substrate/pkg/errors"
)

// parsePagination extracts page and page_size from query parameters.
func parsePagination(r *http.Request) (int, int) {
	page := 1
	pageSize := 20

	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return page, pageSize
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, statusCode int, err error) {
	resp := ErrorResponse{
		Code:    http.StatusText(statusCode),
		Message: err.Error(),
	}
	writeJSON(w, statusCode, resp)
}

// writeAppError maps application-level errors to HTTP status codes using the
// error code carried on the AppError, falling back to 500 for anything else.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := code.HTTPStatus()
	if status == http.StatusInternalServerError && !errors.IsCode(err, errors.CodeInternal) {
		// Unmapped/unknown error: don't leak internal detail.
		writeError(w, status, errors.New(errors.CodeInternal, "internal server error"))
		return
	}
	writeError(w, status, err)
}
