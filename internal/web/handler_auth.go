package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/session"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil || validate.Struct(req) != nil {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if !s.auth.Check(req.Username, req.Password) {
		s.logger.Warn("login failed", "username", req.Username)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid credentials"})
		return
	}

	if err := s.sessions.Start(w, r, &session.Session{Authenticated: true, Username: req.Username}); err != nil {
		s.logger.Error("start session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	s.logger.Info("login succeeded", "username", req.Username)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "username": req.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(w, r); err != nil {
		s.logger.Error("destroy session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	_, sess, err := s.sessions.Load(r)
	if err != nil {
		s.logger.Error("load session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": sess.Authenticated,
		"username":      sess.Username,
	})
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sess, err := s.sessions.Load(r)
		if err != nil {
			s.logger.Error("load session failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to read session")
			return
		}
		if !sess.Authenticated {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
