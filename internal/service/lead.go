// Package service contains the business logic layer.
//
// This file implements lead capture for the contact form and the quote
// calculator.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/loiredigital/atelier/internal/cms"
	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/email"
	"github.com/loiredigital/atelier/internal/metrics"
	"github.com/loiredigital/atelier/internal/pricing"
)

// =============================================================================
// Interface Definition
// =============================================================================

// LeadService captures form submissions.
//
// Both operations are best-effort after validation: a CMS outage or a
// failed notification email is logged and counted but never surfaces to
// the visitor.
type LeadService interface {
	// SubmitContact records a contact form submission and notifies the
	// agency.
	SubmitContact(ctx context.Context, req *domain.ContactRequest) *domain.Lead

	// SubmitQuote records a quote request. The persisted total is always
	// recomputed from the catalog; the client's figure is kept alongside
	// for investigation when it differs.
	SubmitQuote(ctx context.Context, req *domain.QuoteRequest) (*domain.QuoteLead, pricing.QuoteCalculation)
}

// =============================================================================
// Implementation
// =============================================================================

type leadService struct {
	store   cms.Store
	emails  email.EmailService
	catalog *pricing.Catalog
	logger  *slog.Logger
	now     func() time.Time
}

// NewLeadService creates a new LeadService.
func NewLeadService(store cms.Store, emails email.EmailService, catalog *pricing.Catalog, logger *slog.Logger) LeadService {
	return &leadService{
		store:   store,
		emails:  emails,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

// SubmitContact records a contact form submission.
func (s *leadService) SubmitContact(ctx context.Context, req *domain.ContactRequest) *domain.Lead {
	lead := &domain.Lead{
		ID:          uuid.New(),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		ProjectType: domain.ProjectType(req.Project),
		Message:     req.Message,
		Source:      domain.LeadSourceContactForm,
		Status:      domain.LeadStatusNew,
		CreatedAt:   s.now(),
	}

	if err := s.store.CreateLead(ctx, lead); err != nil {
		metrics.CMSWriteFailures.WithLabelValues("lead").Inc()
		s.logger.Error("failed to persist contact lead",
			"lead_id", lead.ID,
			"email", lead.Email,
			"error", err,
		)
	}

	if err := s.emails.SendContactNotification(ctx, lead); err != nil {
		metrics.EmailSendFailures.WithLabelValues("contact_notification").Inc()
		s.logger.Error("failed to send contact notification",
			"lead_id", lead.ID,
			"error", err,
		)
	}

	s.logger.Info("contact form submitted",
		"lead_id", lead.ID,
		"project_type", lead.ProjectType,
	)

	return lead
}

// SubmitQuote records a quote request with a server-derived price.
func (s *leadService) SubmitQuote(ctx context.Context, req *domain.QuoteRequest) (*domain.QuoteLead, pricing.QuoteCalculation) {
	calc := s.catalog.Calculate(pricing.QuoteOptions{
		PackID:      req.PackID,
		Pages:       req.Pages,
		OptionIDs:   req.OptionIDs,
		Maintenance: req.Maintenance,
	})

	if calc.TotalPrice != req.TotalPrice {
		metrics.QuotePriceMismatches.Inc()
		s.logger.Warn("quote price mismatch",
			"email", req.Email,
			"pack", req.PackID,
			"submitted_price", req.TotalPrice,
			"computed_price", calc.TotalPrice,
		)
	}

	lead := &domain.QuoteLead{
		ID:             uuid.New(),
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		PackID:         req.PackID,
		Pages:          req.Pages,
		OptionIDs:      req.OptionIDs,
		Maintenance:    normalizeMaintenance(req.Maintenance),
		TotalPrice:     calc.TotalPrice,
		SubmittedPrice: req.TotalPrice,
		Message:        req.Message,
		Status:         domain.LeadStatusNew,
		CreatedAt:      s.now(),
	}

	if err := s.store.CreateQuoteLead(ctx, lead); err != nil {
		metrics.CMSWriteFailures.WithLabelValues("quote_lead").Inc()
		s.logger.Error("failed to persist quote lead",
			"lead_id", lead.ID,
			"email", lead.Email,
			"error", err,
		)
	}

	if err := s.emails.SendQuoteNotification(ctx, lead, calc); err != nil {
		metrics.EmailSendFailures.WithLabelValues("quote_notification").Inc()
		s.logger.Error("failed to send quote notification",
			"lead_id", lead.ID,
			"error", err,
		)
	}

	s.logger.Info("quote request submitted",
		"lead_id", lead.ID,
		"pack", lead.PackID,
		"total_price", lead.TotalPrice,
	)

	return lead, calc
}

func normalizeMaintenance(m string) string {
	if m == "" {
		return "none"
	}
	return m
}
