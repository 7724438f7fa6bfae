package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"soldi/internal/core"
	"soldi/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", log.FieldError, err)
	}
}

// writeError maps domain errors onto status codes. Anything unmapped is a
// 500 with a generic body so internals never leak to clients.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var message string

	switch {
	case errors.Is(err, core.ErrNotAuthenticated):
		status = http.StatusUnauthorized
		message = "not authenticated"
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, core.ErrForbidden):
		status = http.StatusForbidden
		message = "forbidden"
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, core.ErrValidation):
		status = http.StatusUnprocessableEntity
		message = err.Error()
	default:
		status = http.StatusInternalServerError
		message = "internal error"
		s.logger.ErrorContext(r.Context(), "request failed",
			log.FieldError, err,
			"method", r.Method,
			"path", r.URL.Path)
	}

	s.writeJSON(w, status, errorBody{Error: message})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return false
	}
	return true
}
