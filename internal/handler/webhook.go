// Routes:
//   - POST /webhooks/stripe -> HandleStripeWebhook
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v79"

	"github.com/loiredigital/atelier/internal/billing"
	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/metrics"
	"github.com/loiredigital/atelier/internal/service"
)

// maxWebhookBodyBytes bounds the Stripe event payload we will read.
const maxWebhookBodyBytes = 64 << 10

// WebhookHandler processes Stripe webhook events. A completed checkout
// session triggers client onboarding.
type WebhookHandler struct {
	billing    billing.Service
	onboarding service.OnboardingService
	logger     *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(b billing.Service, onboarding service.OnboardingService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing:    b,
		onboarding: onboarding,
		logger:     logger,
	}
}

// RegisterRoutes registers webhook routes on the mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies and dispatches a Stripe event.
//
// Stripe retries deliveries that do not get a 2xx, so onboarding
// failures are logged and acknowledged rather than returned: a retry
// would re-run provisioning against a partially created client.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Error("stripe webhook received but billing is not configured")
		http.Error(w, "billing not configured", http.StatusServiceUnavailable)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	event, err := h.billing.VerifyWebhookSignature(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		h.logger.Warn("webhook signature verification failed", "error", err)
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	eventType := string(event.Type)
	switch event.Type {
	case "checkout.session.completed":
		if err := h.handleCheckoutCompleted(r.Context(), event); err != nil {
			metrics.WebhookEvents.WithLabelValues(eventType, "error").Inc()
			h.logger.Error("checkout completion handling failed",
				"event_id", event.ID,
				"error", err,
			)
		} else {
			metrics.WebhookEvents.WithLabelValues(eventType, "ok").Inc()
		}

	case "payment_intent.succeeded":
		metrics.WebhookEvents.WithLabelValues(eventType, "ok").Inc()
		h.logger.Info("payment succeeded", "event_id", event.ID)

	case "payment_intent.payment_failed":
		metrics.WebhookEvents.WithLabelValues(eventType, "ok").Inc()
		h.logger.Warn("payment failed", "event_id", event.ID)

	default:
		metrics.WebhookEvents.WithLabelValues(eventType, "ignored").Inc()
		h.logger.Debug("ignoring webhook event", "type", eventType)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return domain.Internal(err, "webhook.checkout_completed", "decode checkout session")
	}

	meta := session.Metadata
	pages, _ := strconv.Atoi(meta[billing.MetaPages])
	totalAmount, _ := strconv.Atoi(meta[billing.MetaTotalAmount])

	email := meta["email"]
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		email = session.CustomerDetails.Email
	}
	if email == "" && session.CustomerEmail != "" {
		email = session.CustomerEmail
	}
	if email == "" {
		return domain.Errorf(domain.EINVALID, "webhook.checkout_completed", "session %s has no customer email", session.ID)
	}

	checkout := service.CheckoutCompleted{
		SessionID:   session.ID,
		Email:       email,
		FirstName:   meta[billing.MetaFirstName],
		LastName:    meta[billing.MetaLastName],
		PackID:      meta[billing.MetaPack],
		PackName:    meta[billing.MetaPackName],
		Pages:       pages,
		PaymentType: domain.PaymentType(meta[billing.MetaPaymentType]),
		TotalAmount: totalAmount,
		AmountPaid:  int(session.AmountTotal / 100),
	}
	if checkout.PaymentType == "" {
		checkout.PaymentType = domain.PaymentTypeFull
	}

	h.logger.Info("checkout session completed",
		"session_id", session.ID,
		"pack", checkout.PackID,
		"payment_type", checkout.PaymentType,
		"amount_paid", checkout.AmountPaid,
	)

	return h.onboarding.HandleCheckoutCompleted(ctx, checkout)
}
