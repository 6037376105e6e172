package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loiredigital/atelier/internal/auth"
	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/middleware"
)

func newPortalServer(t *testing.T, portal *mockPortal) *httptest.Server {
	t.Helper()
	tokens := auth.NewTokenService("test-secret", false)
	authMw := middleware.NewAuthMiddleware(tokens, testLogger())
	requireClient := middleware.Stack(authMw.WithClaims, authMw.RequireClient)

	loginLimiter := middleware.NewRateLimiter(5, 15*time.Minute, testLogger())
	loginLimit := middleware.NewRateLimitMiddleware(loginLimiter, testLogger()).Limit

	mux := http.NewServeMux()
	NewAuthHandler(portal, tokens, testLogger()).RegisterRoutes(mux, loginLimit, requireClient)
	NewClientHandler(portal, testLogger()).RegisterRoutes(mux, requireClient)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testClient() *domain.Client {
	return &domain.Client{
		ID:        uuid.New(),
		Email:     "sophie@example.fr",
		FirstName: "Sophie",
		LastName:  "Bernard",
		IsActive:  true,
	}
}

func login(t *testing.T, srv *httptest.Server) *http.Cookie {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email": "sophie@example.fr", "password": "secret123"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func TestHandleLogin_SetsCookie(t *testing.T) {
	portal := &mockPortal{client: testClient()}
	srv := newPortalServer(t, portal)

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email": "sophie@example.fr", "password": "secret123"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool           `json:"success"`
		Client  clientResponse `json:"client"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "sophie@example.fr", body.Client.Email)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
}

func TestHandleLogin_BadCredentials(t *testing.T) {
	portal := &mockPortal{loginErr: domain.Unauthorized("portal.login", "Email ou mot de passe incorrect")}
	srv := newPortalServer(t, portal)

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email": "sophie@example.fr", "password": "wrong"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Cookies())
}

func TestHandleLogin_MissingFields(t *testing.T) {
	portal := &mockPortal{client: testClient()}
	srv := newPortalServer(t, portal)

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"email": "sophie@example.fr"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleMe_WithSession(t *testing.T) {
	portal := &mockPortal{client: testClient()}
	srv := newPortalServer(t, portal)
	cookie := login(t, srv)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/me", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body clientResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, portal.client.ID.String(), body.ID)
	assert.Equal(t, "Sophie", body.FirstName)
}

func TestHandleMe_NoSession(t *testing.T) {
	portal := &mockPortal{client: testClient()}
	srv := newPortalServer(t, portal)

	resp, err := http.Get(srv.URL + "/api/auth/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleLogout_ClearsCookie(t *testing.T) {
	portal := &mockPortal{client: testClient()}
	srv := newPortalServer(t, portal)

	resp, err := http.Post(srv.URL+"/api/auth/logout", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cleared *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestClientRoutes_RequireSession(t *testing.T) {
	portal := &mockPortal{client: testClient()}
	srv := newPortalServer(t, portal)

	resp, err := http.Get(srv.URL + "/api/client/projects")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleListProjects(t *testing.T) {
	client := testClient()
	portal := &mockPortal{
		client: client,
		projects: []domain.Project{
			{
				ID:          uuid.New(),
				ClientID:    client.ID,
				Title:       "Site web - Pack Essentiel",
				Pack:        "essentiel",
				Status:      domain.ProjectStatusDesign,
				TotalAmount: 1300,
			},
		},
	}
	srv := newPortalServer(t, portal)
	cookie := login(t, srv)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/client/projects", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Projects []projectResponse `json:"projects"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Projects, 1)
	assert.Equal(t, "Site web - Pack Essentiel", body.Projects[0].Title)
	assert.NotNil(t, body.Projects[0].Mockups, "empty collections serialize as [] not null")
}

func TestHandleMockupFeedback(t *testing.T) {
	client := testClient()
	projectID := uuid.New()
	portal := &mockPortal{
		client: client,
		projects: []domain.Project{
			{
				ID:       projectID,
				ClientID: client.ID,
				Mockups:  []domain.Mockup{{Title: "Accueil v1", Status: domain.MockupStatusPending}},
			},
		},
	}
	srv := newPortalServer(t, portal)
	cookie := login(t, srv)

	payload := `{"projectId": "` + projectID.String() + `", "mockupIndex": 0, "feedback": "Validé", "status": "approved"}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/client/mockup-feedback", strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, portal.feedback, 1)
	assert.Equal(t, "Validé", portal.feedback[0].Feedback)
}

func TestHandleMockupFeedback_ValidationError(t *testing.T) {
	portal := &mockPortal{client: testClient()}
	srv := newPortalServer(t, portal)
	cookie := login(t, srv)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/client/mockup-feedback",
		strings.NewReader(`{"projectId": "", "feedback": ""}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body FormResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Errors, "projectId")
	assert.Empty(t, portal.feedback)
}
