package handler

// RESPONSE HELPERS:
// These functions standardise how handlers send JSON and errors, so every
// error response has the same shape:
//
//	{"error": "unauthorized", "message": "no active session"}
//
// The UI always knows what fields to expect, regardless of status code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rootzapp/storefront/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable type (e.g. "upstream_error")
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must go out before the body — once Encode writes, any
// later header change is silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status and sends it.
//
// ERROR MAPPING:
// The api client and session manager return sentinel-tagged errors; this is
// the one place they become HTTP statuses. The gateway's own position shows
// in the mapping: a validation or auth failure is the CALLER's problem (4xx),
// but when the remote Rootz API misbehaves — transport failure, 5xx, a
// response that breaks its contract — this process is an intermediary that
// could not get a good answer, which is precisely 502 Bad Gateway.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusBadGateway
			errorType = "upstream_error"
		case errors.Is(err, apperror.ErrContract):
			status = http.StatusBadGateway
			errorType = "upstream_contract"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	// Unknown error. Never expose internals to the client.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeBody parses a JSON request body into dst, mapping malformed JSON to a
// validation error so the caller sees 400, not 500.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("", "request body is not valid JSON")
	}
	return nil
}
