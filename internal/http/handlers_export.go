package http

import (
	"net/http"
)

type exportRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// handleExportSheets writes the caller's monthly summary to the configured
// spreadsheet. Without an exporter the endpoint reports the feature as
// unavailable.
func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if s.exporter == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "sheets export not configured"})
		return
	}

	var req exportRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	year, month := req.Year, req.Month
	if year == 0 || month < 1 || month > 12 {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "year and month (1-12) are required"})
		return
	}

	user, err := s.users.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	summary, err := s.transactions.Summary(r.Context(), userID, year, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.exporter.ExportMonthly(r.Context(), user.Name, summary); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "exported",
		"year":       year,
		"month":      month,
		"categories": len(summary.ByCategory),
	})
}
