// Package handler contains the HTTP handlers for the agency site API.
//
// This file implements the client portal project routes.
//
// Routes (all behind RequireClient):
//   - GET  /api/client/projects        -> HandleListProjects
//   - GET  /api/client/projects/{id}   -> HandleGetProject
//   - POST /api/client/mockup-feedback -> HandleMockupFeedback
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/middleware"
	"github.com/loiredigital/atelier/internal/service"
)

// ClientHandler handles the authenticated portal routes.
type ClientHandler struct {
	portal service.PortalService
	logger *slog.Logger
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(portal service.PortalService, logger *slog.Logger) *ClientHandler {
	return &ClientHandler{
		portal: portal,
		logger: logger,
	}
}

// RegisterRoutes registers portal routes, wrapped by authRequired.
func (h *ClientHandler) RegisterRoutes(mux *http.ServeMux, authRequired func(http.Handler) http.Handler) {
	mux.Handle("GET /api/client/projects", authRequired(http.HandlerFunc(h.HandleListProjects)))
	mux.Handle("GET /api/client/projects/{id}", authRequired(http.HandlerFunc(h.HandleGetProject)))
	mux.Handle("POST /api/client/mockup-feedback", authRequired(http.HandlerFunc(h.HandleMockupFeedback)))
}

// clientIDFromContext extracts the authenticated client's UUID.
func clientIDFromContext(r *http.Request) (uuid.UUID, bool) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.ClientID)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// HandleListProjects returns the authenticated client's projects.
func (h *ClientHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	clientID, ok := clientIDFromContext(r)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.Unauthorized("client.projects", "Non authentifié"))
		return
	}

	projects, err := h.portal.ListProjects(r.Context(), clientID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, toProjectResponse(&projects[i]))
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"projects": out})
}

// HandleGetProject returns one project, with ownership enforced.
func (h *ClientHandler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	clientID, ok := clientIDFromContext(r)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.Unauthorized("client.project", "Non authentifié"))
		return
	}

	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("client.project", "Identifiant de projet invalide"))
		return
	}

	project, err := h.portal.GetProject(r.Context(), clientID, projectID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, toProjectResponse(project))
}

// HandleMockupFeedback records approval or revision notes on a mockup.
func (h *ClientHandler) HandleMockupFeedback(w http.ResponseWriter, r *http.Request) {
	clientID, ok := clientIDFromContext(r)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.Unauthorized("client.mockup_feedback", "Non authentifié"))
		return
	}

	var req domain.MockupFeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.portal.SubmitMockupFeedback(r.Context(), clientID, &req); err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			ValidationErrorResponse(w, r, h.logger, err)
			return
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// projectResponse is the portal's JSON view of a project.
type projectResponse struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Pack        string                 `json:"pack"`
	Status      domain.ProjectStatus   `json:"status"`
	Progress    int                    `json:"progress"`
	TotalAmount int                    `json:"totalAmount"`
	PaidAmount  int                    `json:"paidAmount"`
	PaymentType domain.PaymentType     `json:"paymentType"`
	Mockups     []domain.Mockup        `json:"mockups"`
	Invoices    []domain.Invoice       `json:"invoices"`
	Updates     []domain.ProjectUpdate `json:"updates"`
	CreatedAt   time.Time              `json:"createdAt"`
}

func toProjectResponse(p *domain.Project) projectResponse {
	return projectResponse{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		Pack:        p.Pack,
		Status:      p.Status,
		Progress:    p.Progress,
		TotalAmount: p.TotalAmount,
		PaidAmount:  p.PaidAmount,
		PaymentType: p.PaymentType,
		Mockups:     orEmptyMockups(p.Mockups),
		Invoices:    orEmptyInvoices(p.Invoices),
		Updates:     orEmptyUpdates(p.Updates),
		CreatedAt:   p.CreatedAt,
	}
}

func orEmptyMockups(m []domain.Mockup) []domain.Mockup {
	if m == nil {
		return []domain.Mockup{}
	}
	return m
}

func orEmptyInvoices(i []domain.Invoice) []domain.Invoice {
	if i == nil {
		return []domain.Invoice{}
	}
	return i
}

func orEmptyUpdates(u []domain.ProjectUpdate) []domain.ProjectUpdate {
	if u == nil {
		return []domain.ProjectUpdate{}
	}
	return u
}
