// Routes:
//   - POST /api/checkout-session -> HandleCreateCheckoutSession
package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/loiredigital/atelier/internal/billing"
	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/metrics"
	"github.com/loiredigital/atelier/internal/pricing"
)

// CheckoutHandler creates Stripe Checkout sessions from a quote
// selection. Amounts are always recomputed from the catalog.
type CheckoutHandler struct {
	billing billing.Service
	catalog *pricing.Catalog
	baseURL string
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(b billing.Service, catalog *pricing.Catalog, baseURL string, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		billing: b,
		catalog: catalog,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// RegisterRoutes registers checkout routes on the mux.
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/checkout-session", h.HandleCreateCheckoutSession)
}

type checkoutRequest struct {
	PackID       string   `json:"packId"`
	Pages        int      `json:"pages"`
	OptionIDs    []string `json:"optionIds"`
	Maintenance  string   `json:"maintenance"`
	PaymentType  string   `json:"paymentType"`
	Installments string   `json:"installments"`
	Email        string   `json:"email"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
}

// Validate checks required fields before any Stripe call.
func (r *checkoutRequest) Validate() error {
	ve := domain.NewValidationError("checkout.validate")
	if r.PackID == "" {
		ve.Add("packId", "La formule est requise")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		ve.Add("email", "Une adresse email valide est requise")
	}
	if r.FirstName == "" {
		ve.Add("firstName", "Le prénom est requis")
	}
	if r.LastName == "" {
		ve.Add("lastName", "Le nom est requis")
	}
	switch r.PaymentType {
	case "", string(domain.PaymentTypeFull), string(domain.PaymentTypeDeposit):
	default:
		ve.Add("paymentType", "Type de paiement invalide")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// HandleCreateCheckoutSession builds a checkout from the submitted
// selection and returns the Stripe-hosted payment page URL.
func (h *CheckoutHandler) HandleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := req.Validate(); err != nil {
		ValidationErrorResponse(w, r, h.logger, err)
		return
	}

	paymentType := domain.PaymentType(req.PaymentType)
	if paymentType == "" {
		paymentType = domain.PaymentTypeFull
	}

	selection := pricing.QuoteOptions{
		PackID:      req.PackID,
		Pages:       req.Pages,
		OptionIDs:   req.OptionIDs,
		Maintenance: req.Maintenance,
	}
	params, err := billing.BuildCheckout(h.catalog, selection, paymentType, req.Installments)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	params.CustomerEmail = strings.ToLower(strings.TrimSpace(req.Email))
	params.FirstName = strings.TrimSpace(req.FirstName)
	params.LastName = strings.TrimSpace(req.LastName)
	params.SuccessURL = h.baseURL + "/merci?session_id={CHECKOUT_SESSION_ID}"
	params.CancelURL = h.baseURL + "/tarifs"

	url, err := h.billing.CreateCheckoutSession(params)
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Internal(err, "checkout.create_session", "create checkout session"))
		return
	}

	metrics.CheckoutSessions.WithLabelValues(req.PackID).Inc()
	h.logger.Info("checkout session created",
		"pack", req.PackID,
		"payment_type", paymentType,
		"due_amount", params.DueAmount,
	)

	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}
