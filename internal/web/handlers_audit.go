package web

// handlers_audit.go serves the audit trail: a filterable paginated
// listing and a CSV export of the same view.

import (
	"net/http"

	"github.com/belisarialeskovac-maker/opsdash/internal/store"
)

// parseAuditOptions extracts the shared audit filters from the URL.
// A date-only "to" bound is widened to the end of that day so the
// range stays inclusive.
func parseAuditOptions(r *http.Request) store.AuditQueryOptions {
	q := r.URL.Query()
	to := q.Get("to")
	if len(to) == len("2006-01-02") {
		to += "T23:59:59Z"
	}
	return store.AuditQueryOptions{
		Target:   q.Get("target"),
		Action:   store.AuditAction(q.Get("action")),
		Severity: q.Get("severity"),
		From:     q.Get("from"),
		To:       to,
		Page:     parseIntParam(r, "page", 1),
		PerPage:  parseIntParam(r, "perPage", store.DefaultPageSize),
	}
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	opts := parseAuditOptions(r)
	entries, total, err := s.service.AuditLog(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, listResponse{Items: entries, Total: total, Page: opts.Page, PerPage: opts.PerPage})
}

func (s *Server) handleAuditExport(w http.ResponseWriter, r *http.Request) {
	opts := parseAuditOptions(r)
	content, filename, err := s.service.ExportAudit(r.Context(), opts)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	serveCSV(w, content, filename)
}
