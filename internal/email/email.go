// Package email sends the agency's transactional emails over SMTP.
//
// Mailhog in development, any authenticated SMTP relay in production.
// Templates live under web/templates/email and are rendered with
// html/template.
package email

import (
	"context"

	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/pricing"
)

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines the transactional emails the backend sends.
//
// Notification emails go to the agency inbox; welcome and payment
// confirmation emails go to the client. All methods take a context for
// timeout and cancellation.
type EmailService interface {
	// SendContactNotification notifies the agency of a new contact form
	// submission.
	SendContactNotification(ctx context.Context, lead *domain.Lead) error

	// SendQuoteNotification notifies the agency of a new quote request,
	// including the server-side price breakdown.
	SendQuoteNotification(ctx context.Context, lead *domain.QuoteLead, calc pricing.QuoteCalculation) error

	// SendWelcomeEmail sends portal credentials to a freshly provisioned
	// client. tempPassword is only set when the account was just created.
	SendWelcomeEmail(ctx context.Context, client *domain.Client, tempPassword string) error

	// SendPaymentConfirmation confirms a successful Stripe payment to the
	// client. amount is in euros.
	SendPaymentConfirmation(ctx context.Context, client *domain.Client, project *domain.Project, amount int) error
}

// =============================================================================
// Email Data Types
// =============================================================================

// Email represents a single email message.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string // e.g. "localhost" for Mailhog
	Port     int    // e.g. 1025 for Mailhog
	Username string // empty for Mailhog
	Password string // empty for Mailhog
	From     string
	FromName string
}

// =============================================================================
// Common Constants
// =============================================================================

const (
	DefaultFromEmail = "noreply@loiredigital.fr"
	DefaultFromName  = "Loire Digital"
)
