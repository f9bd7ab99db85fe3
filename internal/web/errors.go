package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its full technical detail and the request
// ID, then returned to the client as a user-facing message with an
// action suggestion and a support code from the core error map.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/belisarialeskovac-maker/opsdash/internal/core"
	"github.com/belisarialeskovac-maker/opsdash/internal/logging"
	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

// ErrorResponse is the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs the technical error server-side and writes the
// mapped user-facing message as JSON.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}

// statusFor maps the known sentinel errors to HTTP status codes,
// falling back to the given default for everything else.
func statusFor(err error, fallback int) int {
	var refErr *core.ReferenceError
	switch {
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrImportNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrAlreadyRolledBack):
		return http.StatusConflict
	case errors.Is(err, core.ErrNothingToImport):
		return http.StatusUnprocessableEntity
	case errors.As(err, &refErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests
	}
	return fallback
}

// writeError writes a bare JSON error for request-shape problems that
// never reached the service layer.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
