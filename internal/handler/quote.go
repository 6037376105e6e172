// Package handler contains the HTTP handlers for the agency site API.
//
// This file implements the quote calculator endpoints.
//
// Routes:
//   - GET  /api/tarifs -> HandleCatalog
//   - POST /api/devis  -> HandleQuote
package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/metrics"
	"github.com/loiredigital/atelier/internal/middleware"
	"github.com/loiredigital/atelier/internal/pricing"
	"github.com/loiredigital/atelier/internal/service"
)

// QuoteHandler handles price catalog reads and quote submissions.
type QuoteHandler struct {
	leads   service.LeadService
	catalog *pricing.Catalog
	limiter *middleware.RateLimiter
	logger  *slog.Logger
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(leads service.LeadService, catalog *pricing.Catalog, limiter *middleware.RateLimiter, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{
		leads:   leads,
		catalog: catalog,
		limiter: limiter,
		logger:  logger,
	}
}

// RegisterRoutes registers quote routes on the provided mux.
func (h *QuoteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tarifs", h.HandleCatalog)
	mux.HandleFunc("POST /api/devis", h.HandleQuote)
}

// HandleCatalog returns the published price list for the calculator UI.
func (h *QuoteHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, catalogResponse(h.catalog))
}

// HandleQuote processes a quote calculator submission. Same contract as
// the contact form: validate, then throttle, then best-effort capture.
func (h *QuoteHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		metrics.FormSubmissions.WithLabelValues("quote", "invalid").Inc()
		ErrorResponse(w, r, h.logger, err)
		return
	}

	validPack := func(id string) bool { _, ok := h.catalog.Pack(id); return ok }
	validMaintenance := func(id string) bool { _, ok := h.catalog.MaintenancePlan(id); return ok }

	if err := req.Validate(validPack, validMaintenance); err != nil {
		metrics.FormSubmissions.WithLabelValues("quote", "invalid").Inc()
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	ip := middleware.GetClientIP(r)
	if !h.limiter.Allow(ip) {
		metrics.FormSubmissions.WithLabelValues("quote", "rate_limited").Inc()
		retryAfter := fmt.Sprintf("%d", int(h.limiter.TimeUntilReset(ip).Seconds())+1)
		h.logger.Warn("quote form rate limited", "ip", ip)
		RateLimitResponse(w, retryAfter)
		return
	}

	_, calc := h.leads.SubmitQuote(r.Context(), &req)

	metrics.FormSubmissions.WithLabelValues("quote", "accepted").Inc()
	respondJSON(w, http.StatusOK, quoteResponse{
		FormResponse: FormResponse{
			Success: true,
			Message: "Votre demande de devis a bien été envoyée. Nous vous recontactons sous 24h.",
		},
		Calculation: calc,
	})
}

type quoteResponse struct {
	FormResponse
	Calculation pricing.QuoteCalculation `json:"calculation"`
}

// catalogResponse shapes the catalog for the public API.
func catalogResponse(c *pricing.Catalog) map[string]interface{} {
	packs := make([]map[string]interface{}, 0, len(c.Packs))
	for _, p := range c.Packs {
		packs = append(packs, map[string]interface{}{
			"id":            p.ID,
			"name":          p.Name,
			"basePrice":     p.BasePrice,
			"pagesIncluded": p.PagesIncluded,
			"popular":       p.Popular,
			"description":   p.Description,
			"deliveryTime":  p.DeliveryTime,
			"features":      p.Features,
			"paymentOptions": map[string]bool{
				"upfront":        p.PaymentOptions.Upfront,
				"installments3x": p.PaymentOptions.Installments3x,
				"installments6x": p.PaymentOptions.Installments6x,
			},
		})
	}

	options := make([]map[string]interface{}, 0, len(c.Options))
	for _, o := range c.Options {
		options = append(options, map[string]interface{}{
			"id":          o.ID,
			"name":        o.Name,
			"price":       o.Price,
			"description": o.Description,
		})
	}

	plans := make([]map[string]interface{}, 0, len(c.MaintenancePlans))
	for _, p := range c.MaintenancePlans {
		plans = append(plans, map[string]interface{}{
			"id":            p.ID,
			"name":          p.Name,
			"pricePerMonth": p.PricePerMonth,
			"description":   p.Description,
			"features":      p.Features,
		})
	}

	return map[string]interface{}{
		"packs":             packs,
		"options":           options,
		"maintenancePlans":  plans,
		"pricePerExtraPage": pricing.PricePerExtraPage,
	}
}
