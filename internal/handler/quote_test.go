package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loiredigital/atelier/internal/middleware"
	"github.com/loiredigital/atelier/internal/pricing"
)

func newQuoteServer(t *testing.T, limit int) (*mockLeadService, *httptest.Server) {
	t.Helper()
	leads := newMockLeadService()
	limiter := middleware.NewRateLimiter(limit, time.Minute, testLogger())
	h := NewQuoteHandler(leads, pricing.DefaultCatalog(), limiter, testLogger())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return leads, srv
}

func TestHandleTarifs(t *testing.T) {
	_, srv := newQuoteServer(t, 10)

	resp, err := http.Get(srv.URL + "/api/tarifs")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var body struct {
		Packs             []json.RawMessage `json:"packs"`
		Options           []json.RawMessage `json:"options"`
		MaintenancePlans  []json.RawMessage `json:"maintenancePlans"`
		PricePerExtraPage int               `json:"pricePerExtraPage"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Packs, 4)
	assert.Len(t, body.Options, 5)
	assert.Len(t, body.MaintenancePlans, 2)
	assert.Equal(t, pricing.PricePerExtraPage, body.PricePerExtraPage)
}

func TestHandleQuote_RecomputesTotal(t *testing.T) {
	leads, srv := newQuoteServer(t, 10)

	// essentiel 800 + seo 300 + 2 extra pages = 1300; the client claims 1.
	payload := `{
		"name": "Marc Petit",
		"email": "marc@example.fr",
		"packId": "essentiel",
		"pages": 6,
		"optionIds": ["seo"],
		"maintenance": "none",
		"totalPrice": 1
	}`
	resp, err := http.Post(srv.URL+"/api/devis", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		FormResponse
		Calculation pricing.QuoteCalculation `json:"calculation"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, 1300, body.Calculation.TotalPrice)

	require.Len(t, leads.quotes, 1)
	assert.Equal(t, 1, leads.quotes[0].TotalPrice, "submitted price is passed through for audit")
}

func TestHandleQuote_UnknownPack(t *testing.T) {
	leads, srv := newQuoteServer(t, 10)

	payload := `{
		"name": "Marc Petit",
		"email": "marc@example.fr",
		"packId": "platine",
		"pages": 4,
		"totalPrice": 800
	}`
	resp, err := http.Post(srv.URL+"/api/devis", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, leads.quotes)
}

func TestHandleQuote_RateLimited(t *testing.T) {
	_, srv := newQuoteServer(t, 1)

	payload := `{
		"name": "Marc Petit",
		"email": "marc@example.fr",
		"packId": "essentiel",
		"pages": 4,
		"totalPrice": 800
	}`
	first, err := http.Post(srv.URL+"/api/devis", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Post(srv.URL+"/api/devis", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer second.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}
