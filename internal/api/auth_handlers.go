package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/glassdesk/glassdesk/internal/auth"
	"github.com/glassdesk/glassdesk/internal/core"
)

// handleLogin signs a user in by email, creating them on first login,
// and returns a session token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		s.respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := s.users.GetOrCreate(req.Email, req.Name)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// handleOAuthURL starts a provider authorization for the current user
func (s *Server) handleOAuthURL(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	userID := auth.UserID(r.Context())

	url, err := s.oauth.AuthURL(provider, userID)
	if err != nil {
		if errors.Is(err, core.ErrUnknownProvider) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{
		"provider": provider,
		"url":      url,
	})
}

// handleOAuthCallback completes a provider authorization. The state
// carries which user started the flow, so no session is needed here.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		s.respondError(w, http.StatusBadRequest, "state and code are required")
		return
	}

	userID, provider, err := s.oauth.HandleCallback(r.Context(), state, code)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidState):
			s.respondError(w, http.StatusBadRequest, "authorization expired or unknown, restart the flow")
		case errors.Is(err, core.ErrAuthenticationFailed):
			s.respondError(w, http.StatusBadGateway, err.Error())
		default:
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"user_id":   userID,
		"provider":  provider,
		"connected": true,
	})
}

// handleAuthStatus reports which providers the user has connected
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	connected, err := s.oauth.Connected(userID)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"user_id":   userID,
		"providers": connected,
	})
}

// handleLogout acknowledges a sign-out. Session tokens are stateless,
// so the client discards its token; there is nothing to revoke server
// side until a session blocklist exists.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"logged_out": true,
	})
}

// handleDisconnect removes the user's token for a provider
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	userID := auth.UserID(r.Context())

	if err := s.oauth.Disconnect(userID, provider); err != nil {
		if errors.Is(err, core.ErrUnknownProvider) {
			s.respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"provider":     provider,
		"disconnected": true,
	})
}
