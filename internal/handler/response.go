package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON and base.fail, so success and
// error bodies have one shape across the API.
//
// CONSISTENT ERROR FORMAT:
//   {"error": "not_found", "details": "post not found with id abc123"}
//   {"error": "validation", "details": "title is required", "field": "title"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/AmanCrafts/CraftBook/internal/apperror"
	"github.com/AmanCrafts/CraftBook/internal/auth"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable type, e.g. "not_found"
	Details string `json:"details"`         // human-readable description
	Field   string `json:"field,omitempty"` // set for validation errors
}

// Options are shared by every handler.
type Options struct {
	Logger *slog.Logger
	// Debug puts the text of unexpected errors in responses. Development only.
	Debug bool
}

// base carries what every handler needs to report failures.
type base struct {
	logger *slog.Logger
	debug  bool
}

func newBase(opts Options) base {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return base{logger: logger, debug: opts.Debug}
}

// writeJSON sends data as JSON with the given status.
// Headers must be set before WriteHeader; after that they are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent, all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// classify maps an error onto a status code and the "error" field.
//
// errors.Is walks the whole chain, so a service may wrap an AppError with
// fmt.Errorf("...: %w") and still be classified correctly.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, apperror.ErrInvalidOperation):
		return http.StatusBadRequest, "invalid_operation"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, apperror.ErrTransactionFailed):
		return http.StatusInternalServerError, "transaction_failed"
	case errors.Is(err, apperror.ErrUpstreamStorage):
		return http.StatusBadGateway, "upstream_storage"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err as an ErrorResponse.
//
// Known errors carry their own message. Anything else is logged with the
// request id and answered with a generic message, unless debug is on.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)

	resp := ErrorResponse{Error: kind}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.Details = appErr.Message
		resp.Field = appErr.Field
	} else {
		resp.Details = "An internal error occurred"
		if b.debug {
			resp.Details = err.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		b.logger.Error("request failed",
			slog.String("requestID", chimiddleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, resp)
}

// actor returns the authenticated user id. Routes that need it are mounted
// behind auth.RequireAuth; an empty id here is reported as Unauthorized.
func actor(r *http.Request) (string, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthorized("authentication required")
	}
	return id, nil
}
