package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"

	"github.com/loiredigital/atelier/internal/billing"
	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/pricing"
	"github.com/loiredigital/atelier/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ==========================================================================
// Lead service mock
// ==========================================================================

type mockLeadService struct {
	contacts []*domain.ContactRequest
	quotes   []*domain.QuoteRequest
	catalog  *pricing.Catalog
}

var _ service.LeadService = (*mockLeadService)(nil)

func newMockLeadService() *mockLeadService {
	return &mockLeadService{catalog: pricing.DefaultCatalog()}
}

func (m *mockLeadService) SubmitContact(_ context.Context, req *domain.ContactRequest) *domain.Lead {
	m.contacts = append(m.contacts, req)
	return &domain.Lead{
		Name:      req.Name,
		Email:     req.Email,
		CreatedAt: time.Now(),
	}
}

func (m *mockLeadService) SubmitQuote(_ context.Context, req *domain.QuoteRequest) (*domain.QuoteLead, pricing.QuoteCalculation) {
	m.quotes = append(m.quotes, req)
	calc := m.catalog.Calculate(pricing.QuoteOptions{
		PackID:      req.PackID,
		Pages:       req.Pages,
		OptionIDs:   req.OptionIDs,
		Maintenance: req.Maintenance,
	})
	return &domain.QuoteLead{
		Name:       req.Name,
		Email:      req.Email,
		PackID:     req.PackID,
		TotalPrice: calc.TotalPrice,
		CreatedAt:  time.Now(),
	}, calc
}

// ==========================================================================
// Portal mock
// ==========================================================================

type mockPortal struct {
	client   *domain.Client
	projects []domain.Project
	feedback []*domain.MockupFeedbackRequest
	loginErr error
}

var _ service.PortalService = (*mockPortal)(nil)

func (m *mockPortal) Login(_ context.Context, email, password string) (*domain.Client, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.client, nil
}

func (m *mockPortal) GetClient(_ context.Context, id uuid.UUID) (*domain.Client, error) {
	if m.client == nil || m.client.ID != id {
		return nil, domain.NotFound("portal.get_client", "client", id.String())
	}
	return m.client, nil
}

func (m *mockPortal) ListProjects(_ context.Context, clientID uuid.UUID) ([]domain.Project, error) {
	return m.projects, nil
}

func (m *mockPortal) GetProject(_ context.Context, clientID, projectID uuid.UUID) (*domain.Project, error) {
	for i := range m.projects {
		if m.projects[i].ID == projectID {
			return &m.projects[i], nil
		}
	}
	return nil, domain.NotFound("portal.get_project", "project", projectID.String())
}

func (m *mockPortal) SubmitMockupFeedback(_ context.Context, clientID uuid.UUID, req *domain.MockupFeedbackRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	m.feedback = append(m.feedback, req)
	return nil
}

// ==========================================================================
// Billing mock
// ==========================================================================

type mockBilling struct {
	created []billing.CheckoutParams
	url     string
	fail    bool

	event    stripe.Event
	eventErr error
}

var _ billing.Service = (*mockBilling)(nil)

func (m *mockBilling) CreateCheckoutSession(p billing.CheckoutParams) (string, error) {
	if m.fail {
		return "", errors.New("stripe unavailable")
	}
	m.created = append(m.created, p)
	if m.url == "" {
		return "https://checkout.stripe.test/session", nil
	}
	return m.url, nil
}

func (m *mockBilling) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	if m.eventErr != nil {
		return stripe.Event{}, m.eventErr
	}
	return m.event, nil
}

// ==========================================================================
// Onboarding mock
// ==========================================================================

type mockOnboarding struct {
	completed []service.CheckoutCompleted
	err       error
}

var _ service.OnboardingService = (*mockOnboarding)(nil)

func (m *mockOnboarding) HandleCheckoutCompleted(_ context.Context, checkout service.CheckoutCompleted) error {
	if m.err != nil {
		return m.err
	}
	m.completed = append(m.completed, checkout)
	return nil
}
