package http

import (
	"net/http"

	"soldi/internal/core"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req createCategoryRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	category, err := s.ledger.CreateCategory(r.Context(), userID, core.Category{
		Name:  sanitizeInput(req.Name),
		Kind:  core.TransactionKind(req.Kind),
		Color: sanitizeInput(req.Color),
		Icon:  sanitizeInput(req.Icon),
	}, req.Family)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toCategory(category))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	categories, err := s.ledger.ListCategories(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategory(c))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteCategory(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateAggregates(userID)
	w.WriteHeader(http.StatusNoContent)
}
