package web

// handlers_stats.go serves the dashboard reporting endpoints.

import "net/http"

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.DashboardStats(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleAgentSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.service.AgentSummaries(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, summaries)
}

func (s *Server) handleMonthlyVolumes(w http.ResponseWriter, r *http.Request) {
	months := parseIntParam(r, "months", 12)
	volumes, err := s.service.MonthlyVolumes(r.Context(), months)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, volumes)
}

func (s *Server) handleTargetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.AllTargetStats(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}
