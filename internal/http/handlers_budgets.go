package http

import (
	"net/http"

	"soldi/internal/core"
)

func (s *Server) budgetFromRequest(req budgetRequest) (core.Budget, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		CategoryID: req.CategoryID,
		Amount:     core.Money{Cents: cents},
		Period:     core.PeriodKind(req.Period),
		Threshold:  req.Threshold,
	}, nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req budgetRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	budget, err := s.budgetFromRequest(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.budgets.Create(r.Context(), userID, budget, req.Family)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.progressCache.Delete(userID)
	s.writeJSON(w, http.StatusCreated, toBudget(created))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	budgets, err := s.budgets.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudget(b))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req budgetRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	budget, err := s.budgetFromRequest(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	budget.ID = r.PathValue("id")

	updated, err := s.budgets.Update(r.Context(), userID, budget)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.progressCache.Delete(userID)
	s.writeJSON(w, http.StatusOK, toBudget(updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.budgets.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.progressCache.Delete(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	progress, err := s.budgets.Progress(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toProgress(progress))
}

func (s *Server) handleProgressAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if cached, ok := s.progressCache.Get(userID); ok {
		s.writeJSON(w, http.StatusOK, cached)
		return
	}

	progress, err := s.budgets.ProgressAll(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]progressResponse, 0, len(progress))
	for _, p := range progress {
		out = append(out, toProgress(p))
	}
	s.progressCache.Set(userID, out)
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	trend, err := s.budgets.Trend(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTrend(trend))
}
