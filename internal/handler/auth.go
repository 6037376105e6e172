// Package handler contains the HTTP handlers for the agency site API.
//
// This file implements client portal authentication.
//
// Routes:
//   - POST /api/auth/login  -> HandleLogin (rate limited by middleware)
//   - POST /api/auth/logout -> HandleLogout
//   - GET  /api/auth/me     -> HandleMe (requires auth)
package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/loiredigital/atelier/internal/auth"
	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/middleware"
	"github.com/loiredigital/atelier/internal/service"
)

// AuthHandler handles portal login and session cookies.
type AuthHandler struct {
	portal service.PortalService
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(portal service.PortalService, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		portal: portal,
		tokens: tokens,
		logger: logger,
	}
}

// RegisterRoutes registers auth routes on the provided mux. loginLimit
// throttles login attempts; authRequired guards /me.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, loginLimit, authRequired func(http.Handler) http.Handler) {
	mux.Handle("POST /api/auth/login", loginLimit(http.HandlerFunc(h.HandleLogin)))
	mux.HandleFunc("POST /api/auth/logout", h.HandleLogout)
	mux.Handle("GET /api/auth/me", authRequired(http.HandlerFunc(h.HandleMe)))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// clientResponse is the public view of a client account.
type clientResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func toClientResponse(c *domain.Client) clientResponse {
	return clientResponse{
		ID:        c.ID.String(),
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

// HandleLogin verifies credentials and issues the session cookie.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if req.Email == "" || req.Password == "" {
		ErrorResponse(w, r, h.logger, domain.Invalid("auth.login", "Email et mot de passe requis"))
		return
	}

	client, err := h.portal.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	token, err := h.tokens.CreateToken(client.ID.String(), client.Email)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "auth.login", "create token"))
		return
	}
	h.tokens.SetCookie(w, token)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"client":  toClientResponse(client),
	})
}

// HandleLogout clears the session cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.tokens.ClearCookie(w)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMe returns the authenticated client's profile.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		ErrorResponse(w, r, h.logger, domain.Unauthorized("auth.me", "Non authentifié"))
		return
	}

	clientID, err := uuid.Parse(claims.ClientID)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Unauthorized("auth.me", "Non authentifié"))
		return
	}

	client, err := h.portal.GetClient(r.Context(), clientID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toClientResponse(client))
}
