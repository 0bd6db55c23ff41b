package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/gamestock/internal/apperror"
)

// ErrorResponse is the error body returned by every API endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind, e.g. "not_found"
	Message string `json:"message"` // human-readable description
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already on the wire; logging is all that's left.
		slog.Error("encoding response", slog.String("error", err.Error()))
	}
}

// writeError translates a service error into an HTTP response. The service
// layer speaks apperror sentinels, not status codes; the mapping lives here
// and nowhere else.
//
// A taken username maps to 400, not 409: the admin form treats it as just
// another field validation failure.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		// Unknown error. Never echo it back: the text may carry SQL or paths.
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	kind := "internal_error"
	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, kind = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrConflict):
		status, kind = http.StatusBadRequest, "conflict"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, kind = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		status, kind = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads a request body into dst, rejecting unknown fields so
// client typos surface as 400s instead of silently dropped data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON request body")
	}
	return nil
}
