package http

import (
	"net/http"

	"soldi/internal/core"
)

type signupResponse struct {
	User       userResponse       `json:"user"`
	Categories []categoryResponse `json:"categories"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	user, cats, err := s.users.Signup(r.Context(),
		sanitizeInput(req.Name), sanitizeInput(req.Email), sanitizeInput(req.Persona))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := signupResponse{User: toUser(user)}
	for _, c := range cats {
		resp.Categories = append(resp.Categories, toCategory(c))
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	user, err := s.users.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toUser(user))
}

func (s *Server) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	var out []personaResponse
	for _, p := range core.Personas() {
		pr := personaResponse{Name: p.Name, Label: p.Label}
		for _, c := range p.Categories {
			pr.Categories = append(pr.Categories, toCategory(c))
		}
		out = append(out, pr)
	}
	s.writeJSON(w, http.StatusOK, out)
}
