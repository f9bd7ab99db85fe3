package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleImportHistory lists committed imports, newest first. An
// optional target query parameter narrows the listing.
func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	limit := parseIntParam(r, "limit", 50)

	entries, err := s.service.ImportHistory(r.Context(), target, limit)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, entries)
}

// handleGetImport returns one import log entry.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	entry, err := s.service.GetImport(r.Context(), chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, entry)
}

// handleRollback deletes every row a committed import inserted and
// marks the import rolled back. The body may carry a reason for the
// audit trail.
func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		// Body is optional; a missing or empty one means no reason given
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.RollbackImport(ctx, chi.URLParam(r, "importID"), req.Reason)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, result)
}
