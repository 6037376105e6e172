// Package cms persists leads, clients, and projects to the content backend.
//
// Two implementations exist:
//   - SanityStore talks to the hosted headless CMS over HTTP
//   - PostgresStore keeps the same records in a local database
//
// Handlers and services only see the Store interface; the provider is chosen
// by configuration at startup.
package cms

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/loiredigital/atelier/internal/domain"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("cms: record not found")

// Store is the persistence contract for the content backend.
type Store interface {
	// Lead capture
	CreateLead(ctx context.Context, lead *domain.Lead) error
	CreateQuoteLead(ctx context.Context, lead *domain.QuoteLead) error

	// Clients
	GetClientByEmail(ctx context.Context, email string) (*domain.Client, error)
	GetClientByID(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	CreateClient(ctx context.Context, client *domain.Client) error

	// Projects
	CreateProject(ctx context.Context, project *domain.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error)
	ListClientProjects(ctx context.Context, clientID uuid.UUID) ([]domain.Project, error)
	UpdateProjectStatus(ctx context.Context, id uuid.UUID, status domain.ProjectStatus, progress int) error
	AddInvoice(ctx context.Context, projectID uuid.UUID, invoice domain.Invoice) error
	AddMockup(ctx context.Context, projectID uuid.UUID, mockup domain.Mockup) error
	UpdateMockupFeedback(ctx context.Context, projectID uuid.UUID, index int, feedback string, status domain.MockupStatus) error
}
