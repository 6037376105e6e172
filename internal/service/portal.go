// Package service contains the business logic layer.
//
// This file implements the client portal: login and project access.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/loiredigital/atelier/internal/auth"
	"github.com/loiredigital/atelier/internal/cms"
	"github.com/loiredigital/atelier/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// PortalService defines the client portal operations.
type PortalService interface {
	// Login verifies credentials and returns the client.
	// Returns domain.EUNAUTHORIZED for bad credentials and
	// domain.EFORBIDDEN for deactivated accounts.
	Login(ctx context.Context, email, password string) (*domain.Client, error)

	// GetClient retrieves a client by ID.
	GetClient(ctx context.Context, id uuid.UUID) (*domain.Client, error)

	// ListProjects returns the projects of the given client, newest first.
	ListProjects(ctx context.Context, clientID uuid.UUID) ([]domain.Project, error)

	// GetProject returns a project if it belongs to the client.
	// Returns domain.EFORBIDDEN when it belongs to someone else.
	GetProject(ctx context.Context, clientID, projectID uuid.UUID) (*domain.Project, error)

	// SubmitMockupFeedback records a client's approval or revision request
	// on one of their project's mockups.
	SubmitMockupFeedback(ctx context.Context, clientID uuid.UUID, req *domain.MockupFeedbackRequest) error
}

// =============================================================================
// Implementation
// =============================================================================

type portalService struct {
	store  cms.Store
	logger *slog.Logger
}

// NewPortalService creates a new PortalService.
func NewPortalService(store cms.Store, logger *slog.Logger) PortalService {
	return &portalService{
		store:  store,
		logger: logger,
	}
}

// dummyHash keeps login timing flat when the email is unknown.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// Login verifies credentials against the client record.
func (s *portalService) Login(ctx context.Context, loginEmail, password string) (*domain.Client, error) {
	const op = "portal.login"

	loginEmail = strings.TrimSpace(strings.ToLower(loginEmail))

	client, err := s.store.GetClientByEmail(ctx, loginEmail)
	if err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			auth.VerifyPassword(password, dummyHash)
			return nil, domain.Unauthorized(op, "Email ou mot de passe incorrect")
		}
		return nil, domain.Internal(err, op, "lookup client")
	}

	if !auth.VerifyPassword(password, client.PasswordHash) {
		return nil, domain.Unauthorized(op, "Email ou mot de passe incorrect")
	}

	if !client.IsActive {
		return nil, domain.Forbidden(op, "Ce compte est désactivé")
	}

	s.logger.Info("client logged in", "client_id", client.ID)

	return client, nil
}

// GetClient retrieves a client by ID.
func (s *portalService) GetClient(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	const op = "portal.get_client"

	client, err := s.store.GetClientByID(ctx, id)
	if err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			return nil, domain.NotFound(op, "client", id.String())
		}
		return nil, domain.Internal(err, op, "lookup client")
	}
	return client, nil
}

// ListProjects returns the client's projects.
func (s *portalService) ListProjects(ctx context.Context, clientID uuid.UUID) ([]domain.Project, error) {
	const op = "portal.list_projects"

	projects, err := s.store.ListClientProjects(ctx, clientID)
	if err != nil {
		return nil, domain.Internal(err, op, "list projects")
	}
	return projects, nil
}

// GetProject returns a project after an ownership check.
func (s *portalService) GetProject(ctx context.Context, clientID, projectID uuid.UUID) (*domain.Project, error) {
	const op = "portal.get_project"

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		if errors.Is(err, cms.ErrNotFound) {
			return nil, domain.NotFound(op, "project", projectID.String())
		}
		return nil, domain.Internal(err, op, "lookup project")
	}

	if project.ClientID != clientID {
		s.logger.Warn("cross-client project access denied",
			"client_id", clientID,
			"project_id", projectID,
			"owner_id", project.ClientID,
		)
		return nil, domain.Forbidden(op, "Accès refusé")
	}

	return project, nil
}

// SubmitMockupFeedback records feedback on one mockup of the client's project.
func (s *portalService) SubmitMockupFeedback(ctx context.Context, clientID uuid.UUID, req *domain.MockupFeedbackRequest) error {
	const op = "portal.mockup_feedback"

	if err := req.Validate(); err != nil {
		return err
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return domain.Invalid(op, "Identifiant de projet invalide")
	}

	// Ownership check before touching the record.
	project, err := s.GetProject(ctx, clientID, projectID)
	if err != nil {
		return err
	}

	index := *req.MockupIndex
	if index < 0 || index >= len(project.Mockups) {
		return domain.Invalid(op, "Maquette introuvable")
	}

	status := domain.MockupStatus(req.Status)
	if err := s.store.UpdateMockupFeedback(ctx, projectID, index, req.Feedback, status); err != nil {
		return domain.Internal(err, op, "update mockup feedback")
	}

	s.logger.Info("mockup feedback recorded",
		"client_id", clientID,
		"project_id", projectID,
		"mockup_index", index,
		"status", status,
	)

	return nil
}
