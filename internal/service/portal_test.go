package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loiredigital/atelier/internal/auth"
	"github.com/loiredigital/atelier/internal/domain"
)

func seedClient(t *testing.T, store *mockStore, password string, active bool) *domain.Client {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	client := &domain.Client{
		ID:           uuid.New(),
		Email:        "client@example.fr",
		FirstName:    "Claire",
		LastName:     "Dubois",
		PasswordHash: hash,
		IsActive:     active,
	}
	require.NoError(t, store.CreateClient(context.Background(), client))
	return client
}

func TestLoginSuccess(t *testing.T) {
	store := newMockStore()
	seeded := seedClient(t, store, "s3cret-pass", true)
	svc := NewPortalService(store, testLogger())

	client, err := svc.Login(context.Background(), "Client@Example.fr", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, client.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMockStore()
	seedClient(t, store, "s3cret-pass", true)
	svc := NewPortalService(store, testLogger())

	_, err := svc.Login(context.Background(), "client@example.fr", "wrong")
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewPortalService(newMockStore(), testLogger())

	_, err := svc.Login(context.Background(), "nobody@example.fr", "whatever")
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestLoginInactiveAccount(t *testing.T) {
	store := newMockStore()
	seedClient(t, store, "s3cret-pass", false)
	svc := NewPortalService(store, testLogger())

	_, err := svc.Login(context.Background(), "client@example.fr", "s3cret-pass")
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
}

func TestGetProjectOwnership(t *testing.T) {
	store := newMockStore()
	svc := NewPortalService(store, testLogger())

	owner := uuid.New()
	other := uuid.New()
	project := &domain.Project{ID: uuid.New(), ClientID: owner, Title: "Site vitrine"}
	require.NoError(t, store.CreateProject(context.Background(), project))

	got, err := svc.GetProject(context.Background(), owner, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, got.ID)

	_, err = svc.GetProject(context.Background(), other, project.ID)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	_, err = svc.GetProject(context.Background(), owner, uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestSubmitMockupFeedback(t *testing.T) {
	store := newMockStore()
	svc := NewPortalService(store, testLogger())

	clientID := uuid.New()
	project := &domain.Project{
		ID:       uuid.New(),
		ClientID: clientID,
		Mockups: []domain.Mockup{
			{Title: "Accueil", Status: domain.MockupStatusPending},
			{Title: "Contact", Status: domain.MockupStatusPending},
		},
	}
	require.NoError(t, store.CreateProject(context.Background(), project))

	index := 1
	err := svc.SubmitMockupFeedback(context.Background(), clientID, &domain.MockupFeedbackRequest{
		ProjectID:   project.ID.String(),
		MockupIndex: &index,
		Feedback:    "Le logo est trop petit",
		Status:      "revision",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.MockupStatusRevision, project.Mockups[1].Status)
	assert.Equal(t, "Le logo est trop petit", project.Mockups[1].Feedback)
	// Untouched sibling
	assert.Equal(t, domain.MockupStatusPending, project.Mockups[0].Status)
}

func TestSubmitMockupFeedbackRejectsOtherClients(t *testing.T) {
	store := newMockStore()
	svc := NewPortalService(store, testLogger())

	project := &domain.Project{
		ID:       uuid.New(),
		ClientID: uuid.New(),
		Mockups:  []domain.Mockup{{Title: "Accueil"}},
	}
	require.NoError(t, store.CreateProject(context.Background(), project))

	index := 0
	err := svc.SubmitMockupFeedback(context.Background(), uuid.New(), &domain.MockupFeedbackRequest{
		ProjectID:   project.ID.String(),
		MockupIndex: &index,
		Feedback:    "Validé",
		Status:      "approved",
	})
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
}

func TestSubmitMockupFeedbackIndexOutOfRange(t *testing.T) {
	store := newMockStore()
	svc := NewPortalService(store, testLogger())

	clientID := uuid.New()
	project := &domain.Project{
		ID:       uuid.New(),
		ClientID: clientID,
		Mockups:  []domain.Mockup{{Title: "Accueil"}},
	}
	require.NoError(t, store.CreateProject(context.Background(), project))

	index := 5
	err := svc.SubmitMockupFeedback(context.Background(), clientID, &domain.MockupFeedbackRequest{
		ProjectID:   project.ID.String(),
		MockupIndex: &index,
		Feedback:    "Validé",
		Status:      "approved",
	})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}
