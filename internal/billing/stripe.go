// Package billing provides Stripe integration for one-time project payments.
package billing

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/loiredigital/atelier/internal/domain"
)

// Service defines the interface for billing operations.
type Service interface {
	// CreateCheckoutSession creates a Stripe Checkout session for a
	// project payment. Returns the hosted checkout URL.
	CreateCheckoutSession(params CheckoutParams) (string, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and
	// returns the decoded event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)
}

// CheckoutParams describes a single project payment to collect.
type CheckoutParams struct {
	CustomerEmail string
	FirstName     string
	LastName      string

	PackID      string
	PackName    string
	Pages       int
	OptionIDs   []string
	Maintenance string

	PaymentType domain.PaymentType
	TotalAmount int // project total in euros
	DueAmount   int // amount to collect now in euros

	SuccessURL string
	CancelURL  string
}

// Metadata keys carried on the checkout session. The webhook handler
// reads these back to provision the client and project.
const (
	MetaPack        = "pack"
	MetaPackName    = "pack_name"
	MetaPages       = "pages"
	MetaOptions     = "options"
	MetaMaintenance = "maintenance"
	MetaPaymentType = "payment_type"
	MetaTotalAmount = "total_amount"
	MetaFirstName   = "first_name"
	MetaLastName    = "last_name"
)

type stripeService struct {
	webhookSecret string
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey authenticates Stripe API calls. The webhookSecret
// verifies incoming webhook signatures.
func NewStripeService(secretKey, webhookSecret string) Service {
	stripe.Key = secretKey

	return &stripeService{
		webhookSecret: webhookSecret,
	}
}

func (s *stripeService) CreateCheckoutSession(p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(p.CustomerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyEUR)),
					UnitAmount: stripe.Int64(int64(p.DueAmount) * 100),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(lineItemName(p)),
						Description: stripe.String(lineItemDescription(p)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		Params: stripe.Params{
			Metadata: map[string]string{
				MetaPack:        p.PackID,
				MetaPackName:    p.PackName,
				MetaPages:       fmt.Sprintf("%d", p.Pages),
				MetaOptions:     strings.Join(p.OptionIDs, ","),
				MetaMaintenance: p.Maintenance,
				MetaPaymentType: string(p.PaymentType),
				MetaTotalAmount: fmt.Sprintf("%d", p.TotalAmount),
				MetaFirstName:   p.FirstName,
				MetaLastName:    p.LastName,
			},
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}
