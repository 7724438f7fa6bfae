package http

import (
	"net/http"
)

func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req createFamilyRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	family, err := s.families.Create(r.Context(), userID, sanitizeInput(req.Name))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toFamily(family, nil, userID))
}

func (s *Server) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	family, members, err := s.families.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFamily(family, members, userID))
}

func (s *Server) handleJoinFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	var req joinFamilyRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	family, err := s.families.Join(r.Context(), userID, req.InviteCode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateAggregates(userID)
	s.writeJSON(w, http.StatusOK, toFamily(family, nil, userID))
}

func (s *Server) handleLeaveFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.families.Leave(r.Context(), userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateAggregates(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRotateInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	family, err := s.families.RotateInvite(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFamily(family, nil, userID))
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.families.RemoveMember(r.Context(), userID, r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	if err := s.families.Delete(r.Context(), userID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidateAggregates(userID)
	w.WriteHeader(http.StatusNoContent)
}
