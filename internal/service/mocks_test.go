package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/loiredigital/atelier/internal/cms"
	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/email"
	"github.com/loiredigital/atelier/internal/pricing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockStore is an in-memory cms.Store. Failure flags let tests simulate
// a CMS outage per record type.
type mockStore struct {
	leads      []*domain.Lead
	quoteLeads []*domain.QuoteLead
	clients    map[string]*domain.Client // keyed by email
	projects   map[uuid.UUID]*domain.Project

	failLeads    bool
	failClients  bool
	failProjects bool
}

func newMockStore() *mockStore {
	return &mockStore{
		clients:  make(map[string]*domain.Client),
		projects: make(map[uuid.UUID]*domain.Project),
	}
}

var errStoreDown = errors.New("store unavailable")

func (m *mockStore) CreateLead(ctx context.Context, lead *domain.Lead) error {
	if m.failLeads {
		return errStoreDown
	}
	m.leads = append(m.leads, lead)
	return nil
}

func (m *mockStore) CreateQuoteLead(ctx context.Context, lead *domain.QuoteLead) error {
	if m.failLeads {
		return errStoreDown
	}
	m.quoteLeads = append(m.quoteLeads, lead)
	return nil
}

func (m *mockStore) GetClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	if m.failClients {
		return nil, errStoreDown
	}
	if c, ok := m.clients[email]; ok {
		return c, nil
	}
	return nil, cms.ErrNotFound
}

func (m *mockStore) GetClientByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	if m.failClients {
		return nil, errStoreDown
	}
	for _, c := range m.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, cms.ErrNotFound
}

func (m *mockStore) CreateClient(ctx context.Context, client *domain.Client) error {
	if m.failClients {
		return errStoreDown
	}
	m.clients[client.Email] = client
	return nil
}

func (m *mockStore) CreateProject(ctx context.Context, project *domain.Project) error {
	if m.failProjects {
		return errStoreDown
	}
	m.projects[project.ID] = project
	return nil
}

func (m *mockStore) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	if m.failProjects {
		return nil, errStoreDown
	}
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, cms.ErrNotFound
}

func (m *mockStore) ListClientProjects(ctx context.Context, clientID uuid.UUID) ([]domain.Project, error) {
	if m.failProjects {
		return nil, errStoreDown
	}
	var out []domain.Project
	for _, p := range m.projects {
		if p.ClientID == clientID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateProjectStatus(ctx context.Context, id uuid.UUID, status domain.ProjectStatus, progress int) error {
	p, ok := m.projects[id]
	if !ok {
		return cms.ErrNotFound
	}
	p.Status = status
	p.Progress = progress
	return nil
}

func (m *mockStore) AddInvoice(ctx context.Context, projectID uuid.UUID, invoice domain.Invoice) error {
	p, ok := m.projects[projectID]
	if !ok {
		return cms.ErrNotFound
	}
	p.Invoices = append(p.Invoices, invoice)
	return nil
}

func (m *mockStore) AddMockup(ctx context.Context, projectID uuid.UUID, mockup domain.Mockup) error {
	p, ok := m.projects[projectID]
	if !ok {
		return cms.ErrNotFound
	}
	p.Mockups = append(p.Mockups, mockup)
	return nil
}

func (m *mockStore) UpdateMockupFeedback(ctx context.Context, projectID uuid.UUID, index int, feedback string, status domain.MockupStatus) error {
	p, ok := m.projects[projectID]
	if !ok {
		return cms.ErrNotFound
	}
	if index < 0 || index >= len(p.Mockups) {
		return cms.ErrNotFound
	}
	p.Mockups[index].Feedback = feedback
	p.Mockups[index].Status = status
	return nil
}

var _ cms.Store = (*mockStore)(nil)

// mockEmailService records sends and can simulate SMTP failures.
type mockEmailService struct {
	contactNotifications []*domain.Lead
	quoteNotifications   []*domain.QuoteLead
	welcomes             []string // temp passwords, "" for existing clients
	confirmations        []int    // amounts

	fail bool
}

var errSMTPDown = errors.New("smtp unavailable")

func (m *mockEmailService) SendContactNotification(ctx context.Context, lead *domain.Lead) error {
	if m.fail {
		return errSMTPDown
	}
	m.contactNotifications = append(m.contactNotifications, lead)
	return nil
}

func (m *mockEmailService) SendQuoteNotification(ctx context.Context, lead *domain.QuoteLead, calc pricing.QuoteCalculation) error {
	if m.fail {
		return errSMTPDown
	}
	m.quoteNotifications = append(m.quoteNotifications, lead)
	return nil
}

func (m *mockEmailService) SendWelcomeEmail(ctx context.Context, client *domain.Client, tempPassword string) error {
	if m.fail {
		return errSMTPDown
	}
	m.welcomes = append(m.welcomes, tempPassword)
	return nil
}

func (m *mockEmailService) SendPaymentConfirmation(ctx context.Context, client *domain.Client, project *domain.Project, amount int) error {
	if m.fail {
		return errSMTPDown
	}
	m.confirmations = append(m.confirmations, amount)
	return nil
}

var _ email.EmailService = (*mockEmailService)(nil)
