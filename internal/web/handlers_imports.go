package web

// handlers_imports.go serves the import lifecycle: upload a CSV for
// preview, page through the annotated plan, then commit or discard it.

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/belisarialeskovac-maker/opsdash/internal/core"
	"github.com/belisarialeskovac-maker/opsdash/internal/logging"
)

// handleListTargets returns all registered import targets and their columns.
func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.ListTargets())
}

// handleDownloadTemplate serves a header-only CSV template for a target.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	targetKey := chi.URLParam(r, "targetKey")

	content, filename, err := s.service.TemplateCSV(targetKey)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	serveCSV(w, content, filename)
}

// handlePreview accepts a multipart CSV upload, validates it against
// the current database state, and parks the resulting plan in a
// session awaiting confirmation. Nothing is written.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	targetKey := r.FormValue("target")
	if targetKey == "" {
		writeError(w, http.StatusBadRequest, "missing target field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	log := logging.WithFields(r.Context(), "target", targetKey, "file", header.Filename)

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Preview(ctx, targetKey, header.Filename, data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusBadRequest))
		return
	}

	log.Info("preview ready",
		"session_id", result.SessionID,
		"rows_ready", result.Counts.Ready,
		"rows_duplicate", result.Counts.Duplicate,
		"rows_invalid", result.Counts.Invalid,
	)
	writeJSON(w, result)
}

// handleLimiterStatus reports the import slot occupancy.
func (s *Server) handleLimiterStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Limiter().Status())
}

// handlePlanStatus returns the summary of a parked plan.
func (s *Server) handlePlanStatus(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.PlanStatus(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, result)
}

// handlePlanRows returns a page of annotated plan rows in file order,
// optionally narrowed to one disposition.
func (s *Server) handlePlanRows(w http.ResponseWriter, r *http.Request) {
	disposition := r.URL.Query().Get("disposition")
	switch disposition {
	case "", "ready", "duplicate", "invalid":
	default:
		writeError(w, http.StatusBadRequest, "disposition must be ready, duplicate, or invalid")
		return
	}

	page, err := s.service.PlanRows(chi.URLParam(r, "sessionID"), core.RowsOptions{
		Disposition: disposition,
		Page:        parseIntParam(r, "page", 1),
		PerPage:     parseIntParam(r, "perPage", 100),
	})
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, page)
}

// handleExportPlan downloads the full annotated plan as CSV.
func (s *Server) handleExportPlan(w http.ResponseWriter, r *http.Request) {
	content, filename, err := s.service.ExportPlan(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	serveCSV(w, content, filename)
}

// handleRevalidate rebuilds a parked plan against a fresh snapshot.
func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.Revalidate(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, result)
}

// handleCommit writes all ready rows of a parked plan in one atomic
// batch. On failure the session survives so the client can retry,
// revalidate, or discard.
func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	log := logging.WithFields(r.Context(), "session_id", sessionID)

	ctx := WithRequestMetadata(r.Context(), r)
	result, err := s.service.Commit(ctx, sessionID)
	if err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}

	log.Info("import committed",
		"import_id", result.ImportID,
		"rows_inserted", result.RowsInserted,
		"duration_ms", result.DurationMs,
	)
	writeJSON(w, result)
}

// handleDiscard drops a parked plan without writing anything.
func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Discard(chi.URLParam(r, "sessionID")); err != nil {
		s.respondError(w, r, err, statusFor(err, http.StatusInternalServerError))
		return
	}
	writeJSON(w, map[string]string{"status": "discarded"})
}
