package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/hsrini/wellness/internal/domain"
)

// envelope is the uniform success response body.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// fieldError is one entry in an error response's errors array.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

// respondJSON writes a success envelope with the given status.
func respondJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Message: message, Data: data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError maps a domain error onto an HTTP status and error envelope.
// Internal errors are logged with full detail and surfaced as a generic
// message.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if fields := domain.GetValidationFields(err); fields != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", fieldErrors(fields))
		return
	}

	code := domain.ErrorCode(err)
	if code == domain.EINTERNAL {
		logger.Error("request failed", "error", err)
	}

	writeError(w, statusFromCode(code), domain.ErrorMessage(err), nil)
}

func writeError(w http.ResponseWriter, status int, message string, errs []fieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorEnvelope{Message: message, Errors: errs}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func statusFromCode(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func fieldErrors(fields map[string]string) []fieldError {
	errs := make([]fieldError, 0, len(fields))
	for field, msg := range fields {
		errs = append(errs, fieldError{Field: field, Message: msg})
	}
	// map iteration order is random; keep responses stable
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return errs
}
