// Package service contains the business logic layer.
//
// This file implements client onboarding driven by Stripe checkout
// completion.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loiredigital/atelier/internal/auth"
	"github.com/loiredigital/atelier/internal/cms"
	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/email"
	"github.com/loiredigital/atelier/internal/metrics"
)

// =============================================================================
// Types
// =============================================================================

// CheckoutCompleted is the webhook handler's decoded view of a completed
// Stripe checkout session.
type CheckoutCompleted struct {
	SessionID   string
	Email       string
	FirstName   string
	LastName    string
	PackID      string
	PackName    string
	Pages       int
	PaymentType domain.PaymentType
	TotalAmount int // project total in euros
	AmountPaid  int // amount collected by this session in euros
}

// Initial progress after payment, per payment type.
const (
	progressAfterFullPayment = 10
	progressAfterDeposit     = 5
)

// =============================================================================
// Interface Definition
// =============================================================================

// OnboardingService provisions the client account and project after a
// successful payment.
type OnboardingService interface {
	// HandleCheckoutCompleted creates the client (if new), the project,
	// and the paid invoice, then sends the welcome and payment
	// confirmation emails.
	HandleCheckoutCompleted(ctx context.Context, checkout CheckoutCompleted) error
}

// =============================================================================
// Implementation
// =============================================================================

type onboardingService struct {
	store  cms.Store
	emails email.EmailService
	logger *slog.Logger
	now    func() time.Time
}

// NewOnboardingService creates a new OnboardingService.
func NewOnboardingService(store cms.Store, emails email.EmailService, logger *slog.Logger) OnboardingService {
	return &onboardingService{
		store:  store,
		emails: emails,
		logger: logger,
		now:    time.Now,
	}
}

// HandleCheckoutCompleted provisions everything a paying client needs.
func (s *onboardingService) HandleCheckoutCompleted(ctx context.Context, checkout CheckoutCompleted) error {
	const op = "onboarding.checkout_completed"

	client, tempPassword, err := s.findOrCreateClient(ctx, checkout)
	if err != nil {
		return domain.Internal(err, op, "provision client")
	}

	project, err := s.createProject(ctx, client, checkout)
	if err != nil {
		return domain.Internal(err, op, "create project")
	}

	invoice := domain.Invoice{
		InvoiceNumber: s.invoiceNumber(),
		Amount:        checkout.AmountPaid,
		Type:          invoiceType(checkout.PaymentType),
		Status:        domain.InvoiceStatusPaid,
		IssuedAt:      s.now(),
		PaidAt:        timePtr(s.now()),
	}
	if err := s.store.AddInvoice(ctx, project.ID, invoice); err != nil {
		metrics.CMSWriteFailures.WithLabelValues("invoice").Inc()
		s.logger.Error("failed to record invoice",
			"project_id", project.ID,
			"invoice", invoice.InvoiceNumber,
			"error", err,
		)
	}

	// Emails are best-effort; the payment already happened.
	if tempPassword != "" {
		if err := s.emails.SendWelcomeEmail(ctx, client, tempPassword); err != nil {
			metrics.EmailSendFailures.WithLabelValues("welcome").Inc()
			s.logger.Error("failed to send welcome email", "client_id", client.ID, "error", err)
		}
	}
	if err := s.emails.SendPaymentConfirmation(ctx, client, project, checkout.AmountPaid); err != nil {
		metrics.EmailSendFailures.WithLabelValues("payment_confirmation").Inc()
		s.logger.Error("failed to send payment confirmation", "client_id", client.ID, "error", err)
	}

	s.logger.Info("checkout provisioned",
		"client_id", client.ID,
		"project_id", project.ID,
		"pack", checkout.PackID,
		"payment_type", checkout.PaymentType,
		"amount_paid", checkout.AmountPaid,
	)

	return nil
}

// findOrCreateClient returns the existing client for the checkout email,
// or creates one with a generated temporary password. The password is
// returned only when the account was just created.
func (s *onboardingService) findOrCreateClient(ctx context.Context, checkout CheckoutCompleted) (*domain.Client, string, error) {
	clientEmail := strings.TrimSpace(strings.ToLower(checkout.Email))

	client, err := s.store.GetClientByEmail(ctx, clientEmail)
	if err == nil {
		return client, "", nil
	}
	if !errors.Is(err, cms.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup client: %w", err)
	}

	tempPassword, err := auth.GenerateTemporaryPassword()
	if err != nil {
		return nil, "", fmt.Errorf("generate temporary password: %w", err)
	}
	hash, err := auth.HashPassword(tempPassword)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	client = &domain.Client{
		ID:           uuid.New(),
		Email:        clientEmail,
		FirstName:    checkout.FirstName,
		LastName:     checkout.LastName,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateClient(ctx, client); err != nil {
		return nil, "", fmt.Errorf("create client: %w", err)
	}

	s.logger.Info("client account created", "client_id", client.ID)

	return client, tempPassword, nil
}

func (s *onboardingService) createProject(ctx context.Context, client *domain.Client, checkout CheckoutCompleted) (*domain.Project, error) {
	progress := progressAfterFullPayment
	if checkout.PaymentType == domain.PaymentTypeDeposit {
		progress = progressAfterDeposit
	}

	project := &domain.Project{
		ID:              uuid.New(),
		ClientID:        client.ID,
		Title:           fmt.Sprintf("Site web - Pack %s", checkout.PackName),
		Description:     fmt.Sprintf("Création de site web, pack %s, %d pages", checkout.PackName, checkout.Pages),
		Pack:            checkout.PackID,
		Status:          domain.ProjectStatusDesign,
		Progress:        progress,
		TotalAmount:     checkout.TotalAmount,
		PaidAmount:      checkout.AmountPaid,
		PaymentType:     checkout.PaymentType,
		StripeSessionID: checkout.SessionID,
		CreatedAt:       s.now(),
	}

	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	return project, nil
}

// invoiceNumber generates a reference like FAC-2026-3F9A2C.
func (s *onboardingService) invoiceNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("FAC-%d-%s", s.now().Year(), suffix)
}

func invoiceType(t domain.PaymentType) domain.InvoiceType {
	if t == domain.PaymentTypeDeposit {
		return domain.InvoiceTypeDeposit
	}
	return domain.InvoiceTypeFull
}

func timePtr(t time.Time) *time.Time {
	return &t
}
