package http

import (
	"net/http"

	"soldi/internal/core"
)

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req createAccountRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var initial int64
	if req.InitialBalance != "" {
		cents, err := core.ParseDecimalToCents(req.InitialBalance)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		initial = cents
	}

	account, err := s.ledger.CreateAccount(r.Context(), userID, core.Account{
		Name:         sanitizeInput(req.Name),
		Kind:         core.AccountKind(req.Kind),
		InitialCents: initial,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toAccount(account))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	accounts, err := s.ledger.ListAccounts(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccount(a))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	account, balance, err := s.ledger.AccountWithBalance(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := toAccount(account)
	b := toMoney(balance)
	resp.Balance = &b
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArchiveAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.ledger.ArchiveAccount(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}
