package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"soldi/internal/core"
	"soldi/internal/ledger"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req createTransactionRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tx, err := s.transactions.Create(r.Context(), userID, core.Transaction{
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Kind:       core.TransactionKind(req.Kind),
		Amount:     core.Money{Cents: cents},
		Date:       date,
		Note:       sanitizeInput(req.Note),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.summaryCache.Delete(summaryKey(userID, date.Year(), date.Month()))
	s.progressCache.Delete(userID)
	s.writeJSON(w, http.StatusCreated, toTransaction(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := ledger.TransactionFilter{
		AccountID:  q.Get("account_id"),
		CategoryID: q.Get("category_id"),
		Kind:       core.TransactionKind(q.Get("kind")),
	}
	if v := q.Get("year"); v != "" {
		filter.Year, _ = strconv.Atoi(v)
	}
	if v := q.Get("month"); v != "" {
		filter.Month, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	family := strings.EqualFold(q.Get("scope"), "family")

	txs, err := s.transactions.List(r.Context(), userID, family, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransaction(t))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	tx, err := s.transactions.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toTransaction(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.transactions.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateAggregates(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	year, month := parseYearMonth(r)

	key := summaryKey(userID, year, month)
	if cached, ok := s.summaryCache.Get(key); ok {
		s.writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := s.transactions.Summary(r.Context(), userID, year, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := toSummary(summary)
	s.summaryCache.Set(key, resp)
	s.writeJSON(w, http.StatusOK, resp)
}

func summaryKey(userID string, year, month int) string {
	return fmt.Sprintf("%s|%d-%02d", userID, year, month)
}

// currentSummaryKey is the key a write in the current month invalidates.
func currentSummaryKey(userID string) string {
	now := time.Now()
	return summaryKey(userID, now.Year(), int(now.Month()))
}
