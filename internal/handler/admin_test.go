package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loiredigital/atelier/internal/cms"
	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/middleware"
	"github.com/loiredigital/atelier/internal/service"
	"github.com/loiredigital/atelier/internal/storage"
)

const adminTestToken = "test-admin-token"

// mockCMSStore covers the project operations the admin handler touches.
type mockCMSStore struct {
	projects map[uuid.UUID]*domain.Project
}

var _ cms.Store = (*mockCMSStore)(nil)

func newMockCMSStore() *mockCMSStore {
	return &mockCMSStore{projects: make(map[uuid.UUID]*domain.Project)}
}

func (m *mockCMSStore) CreateLead(context.Context, *domain.Lead) error           { return nil }
func (m *mockCMSStore) CreateQuoteLead(context.Context, *domain.QuoteLead) error { return nil }

func (m *mockCMSStore) GetClientByEmail(context.Context, string) (*domain.Client, error) {
	return nil, cms.ErrNotFound
}

func (m *mockCMSStore) GetClientByID(context.Context, uuid.UUID) (*domain.Client, error) {
	return nil, cms.ErrNotFound
}

func (m *mockCMSStore) CreateClient(context.Context, *domain.Client) error { return nil }

func (m *mockCMSStore) CreateProject(_ context.Context, p *domain.Project) error {
	m.projects[p.ID] = p
	return nil
}

func (m *mockCMSStore) GetProject(_ context.Context, id uuid.UUID) (*domain.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, cms.ErrNotFound
	}
	return p, nil
}

func (m *mockCMSStore) ListClientProjects(context.Context, uuid.UUID) ([]domain.Project, error) {
	return nil, nil
}

func (m *mockCMSStore) UpdateProjectStatus(_ context.Context, id uuid.UUID, status domain.ProjectStatus, progress int) error {
	p, ok := m.projects[id]
	if !ok {
		return cms.ErrNotFound
	}
	p.Status = status
	p.Progress = progress
	return nil
}

func (m *mockCMSStore) AddInvoice(context.Context, uuid.UUID, domain.Invoice) error { return nil }

func (m *mockCMSStore) AddMockup(_ context.Context, projectID uuid.UUID, mockup domain.Mockup) error {
	p, ok := m.projects[projectID]
	if !ok {
		return cms.ErrNotFound
	}
	p.Mockups = append(p.Mockups, mockup)
	return nil
}

func (m *mockCMSStore) UpdateMockupFeedback(context.Context, uuid.UUID, int, string, domain.MockupStatus) error {
	return nil
}

func newAdminServer(t *testing.T) (*mockCMSStore, *httptest.Server) {
	t.Helper()
	store := newMockCMSStore()
	files, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files",
	}, testLogger())
	require.NoError(t, err)

	adminMw := middleware.NewAdminAuthMiddleware(adminTestToken, testLogger())
	h := NewAdminHandler(store, files, service.NewImagingProcessor(), testLogger())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, adminMw.Require)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return store, srv
}

func seedProject(store *mockCMSStore) *domain.Project {
	p := &domain.Project{
		ID:     uuid.New(),
		Title:  "Site web - Pack Essentiel",
		Status: domain.ProjectStatusDesign,
	}
	store.projects[p.ID] = p
	return p
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadMockup(t *testing.T, srv *httptest.Server, projectID, token string, imgData []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "maquette.png")
	require.NoError(t, err)
	_, err = part.Write(imgData)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("title", "Accueil v1"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/admin/projects/"+projectID+"/mockups", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleUploadMockup(t *testing.T) {
	store, srv := newAdminServer(t)
	project := seedProject(store)

	resp := uploadMockup(t, srv, project.ID.String(), adminTestToken, pngBytes(t, 600, 400))

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool          `json:"success"`
		Mockup  domain.Mockup `json:"mockup"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "Accueil v1", body.Mockup.Title)
	assert.Equal(t, domain.MockupStatusPending, body.Mockup.Status)
	assert.Contains(t, body.Mockup.ImageURL, "/files/projects/"+project.ID.String()+"/mockups/")
	assert.NotEmpty(t, body.Mockup.ThumbnailURL)

	require.Len(t, project.Mockups, 1)
	assert.Equal(t, domain.MockupStatusPending, project.Mockups[0].Status)
}

func TestHandleUploadMockup_RequiresToken(t *testing.T) {
	store, srv := newAdminServer(t)
	project := seedProject(store)

	resp := uploadMockup(t, srv, project.ID.String(), "", pngBytes(t, 10, 10))

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, project.Mockups)
}

func TestHandleUploadMockup_RejectsNonImage(t *testing.T) {
	store, srv := newAdminServer(t)
	project := seedProject(store)

	resp := uploadMockup(t, srv, project.ID.String(), adminTestToken, []byte("<!DOCTYPE html><html></html>"))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, project.Mockups)
}

func TestHandleUploadMockup_UnknownProject(t *testing.T) {
	_, srv := newAdminServer(t)

	resp := uploadMockup(t, srv, uuid.NewString(), adminTestToken, pngBytes(t, 10, 10))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleUpdateStatus(t *testing.T) {
	store, srv := newAdminServer(t)
	project := seedProject(store)

	req, err := http.NewRequest(http.MethodPost,
		srv.URL+"/api/admin/projects/"+project.ID.String()+"/status",
		strings.NewReader(`{"status": "development", "progress": 40}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminTestToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ProjectStatusDevelopment, project.Status)
	assert.Equal(t, 40, project.Progress)
}

func TestHandleUpdateStatus_InvalidStatus(t *testing.T) {
	store, srv := newAdminServer(t)
	project := seedProject(store)

	req, err := http.NewRequest(http.MethodPost,
		srv.URL+"/api/admin/projects/"+project.ID.String()+"/status",
		strings.NewReader(`{"status": "archived", "progress": 150}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminTestToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body FormResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Errors, "status")
	assert.Contains(t, body.Errors, "progress")
	assert.Equal(t, domain.ProjectStatusDesign, project.Status)
}
