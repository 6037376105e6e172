// Package handler contains the HTTP handlers for the agency site API.
//
// This file implements the contact form endpoint.
//
// Route:
//   - POST /api/contact -> HandleContact
//
// Validation runs before the rate limiter; rejected payloads do not
// consume the submission budget.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/metrics"
	"github.com/loiredigital/atelier/internal/middleware"
	"github.com/loiredigital/atelier/internal/service"
)

// ContactHandler handles contact form submissions.
type ContactHandler struct {
	leads   service.LeadService
	limiter *middleware.RateLimiter
	logger  *slog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(leads service.LeadService, limiter *middleware.RateLimiter, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		leads:   leads,
		limiter: limiter,
		logger:  logger,
	}
}

// RegisterRoutes registers contact routes on the provided mux.
func (h *ContactHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/contact", h.HandleContact)
}

// HandleContact processes a contact form submission.
func (h *ContactHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	var req domain.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		metrics.FormSubmissions.WithLabelValues("contact", "invalid").Inc()
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := req.Validate(); err != nil {
		metrics.FormSubmissions.WithLabelValues("contact", "invalid").Inc()
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	ip := middleware.GetClientIP(r)
	if !h.limiter.Allow(ip) {
		metrics.FormSubmissions.WithLabelValues("contact", "rate_limited").Inc()
		retryAfter := fmt.Sprintf("%d", int(h.limiter.TimeUntilReset(ip).Seconds())+1)
		h.logger.Warn("contact form rate limited", "ip", ip)
		RateLimitResponse(w, retryAfter)
		return
	}

	h.leads.SubmitContact(r.Context(), &req)

	metrics.FormSubmissions.WithLabelValues("contact", "accepted").Inc()
	respondJSON(w, http.StatusOK, FormResponse{
		Success: true,
		Message: "Votre message a bien été envoyé. Nous vous répondrons sous 24h.",
	})
}
