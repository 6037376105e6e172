package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/loiredigital/atelier/internal/domain"
)

// SanityConfig holds connection settings for the hosted CMS.
type SanityConfig struct {
	ProjectID  string
	Dataset    string
	Token      string
	APIHost    string // e.g. "https://api.sanity.io"
	APIVersion string // defaults to "v2021-06-07"
}

// SanityStore implements Store against the Sanity HTTP API.
//
// Writes go through the mutations endpoint, reads through GROQ queries.
// Transient failures (network errors, 5xx) are retried with exponential
// backoff before the error is surfaced to the caller, who treats it as
// best-effort anyway.
type SanityStore struct {
	cfg        SanityConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSanityStore creates a store talking to the configured project/dataset.
func NewSanityStore(cfg SanityConfig, logger *slog.Logger) *SanityStore {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v2021-06-07"
	}
	if cfg.APIHost == "" {
		cfg.APIHost = "https://api.sanity.io"
	}
	return &SanityStore{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// =============================================================================
// Document shapes
//
// Field names mirror the studio schema so the sales team sees the records
// in the same desk structure as manually entered ones.
// =============================================================================

type sanityDoc map[string]interface{}

func leadDoc(l *domain.Lead) sanityDoc {
	return sanityDoc{
		"_type":       "lead",
		"_id":         l.ID.String(),
		"name":        l.Name,
		"email":       l.Email,
		"phone":       nilIfEmpty(l.Phone),
		"projectType": string(l.ProjectType),
		"message":     l.Message,
		"source":      l.Source,
		"status":      string(l.Status),
		"createdAt":   l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func quoteLeadDoc(l *domain.QuoteLead) sanityDoc {
	return sanityDoc{
		"_type":          "quoteLead",
		"_id":            l.ID.String(),
		"name":           l.Name,
		"email":          l.Email,
		"phone":          nilIfEmpty(l.Phone),
		"packId":         l.PackID,
		"pages":          l.Pages,
		"options":        l.OptionIDs,
		"maintenance":    l.Maintenance,
		"totalPrice":     l.TotalPrice,
		"submittedPrice": l.SubmittedPrice,
		"message":        nilIfEmpty(l.Message),
		"status":         string(l.Status),
		"createdAt":      l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func clientDoc(c *domain.Client) sanityDoc {
	return sanityDoc{
		"_type":        "client",
		"_id":          c.ID.String(),
		"email":        c.Email,
		"firstName":    c.FirstName,
		"lastName":     c.LastName,
		"passwordHash": c.PasswordHash,
		"isActive":     c.IsActive,
		"createdAt":    c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func projectDoc(p *domain.Project) sanityDoc {
	return sanityDoc{
		"_type":           "clientProject",
		"_id":             p.ID.String(),
		"client":          sanityDoc{"_type": "reference", "_ref": p.ClientID.String()},
		"title":           p.Title,
		"description":     nilIfEmpty(p.Description),
		"pack":            p.Pack,
		"status":          string(p.Status),
		"progress":        p.Progress,
		"totalAmount":     p.TotalAmount,
		"paidAmount":      p.PaidAmount,
		"paymentType":     string(p.PaymentType),
		"stripeSessionId": nilIfEmpty(p.StripeSessionID),
		"mockups":         p.Mockups,
		"invoices":        p.Invoices,
		"updates":         p.Updates,
		"createdAt":       p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// =============================================================================
// Store implementation
// =============================================================================

func (s *SanityStore) CreateLead(ctx context.Context, lead *domain.Lead) error {
	return s.mutate(ctx, []sanityDoc{{"create": leadDoc(lead)}})
}

func (s *SanityStore) CreateQuoteLead(ctx context.Context, lead *domain.QuoteLead) error {
	return s.mutate(ctx, []sanityDoc{{"create": quoteLeadDoc(lead)}})
}

func (s *SanityStore) CreateClient(ctx context.Context, client *domain.Client) error {
	return s.mutate(ctx, []sanityDoc{{"create": clientDoc(client)}})
}

func (s *SanityStore) CreateProject(ctx context.Context, project *domain.Project) error {
	return s.mutate(ctx, []sanityDoc{{"create": projectDoc(project)}})
}

func (s *SanityStore) GetClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	var docs []clientResult
	query := `*[_type == "client" && email == $email][0...1]`
	if err := s.query(ctx, query, map[string]string{"$email": email}, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0].toDomain()
}

func (s *SanityStore) GetClientByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var docs []clientResult
	query := `*[_type == "client" && _id == $id][0...1]`
	if err := s.query(ctx, query, map[string]string{"$id": id.String()}, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0].toDomain()
}

func (s *SanityStore) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	var docs []projectResult
	query := `*[_type == "clientProject" && _id == $id][0...1]`
	if err := s.query(ctx, query, map[string]string{"$id": id.String()}, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0].toDomain()
}

func (s *SanityStore) ListClientProjects(ctx context.Context, clientID uuid.UUID) ([]domain.Project, error) {
	var docs []projectResult
	query := `*[_type == "clientProject" && client._ref == $clientId] | order(createdAt desc)`
	if err := s.query(ctx, query, map[string]string{"$clientId": clientID.String()}, &docs); err != nil {
		return nil, err
	}

	projects := make([]domain.Project, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

func (s *SanityStore) UpdateProjectStatus(ctx context.Context, id uuid.UUID, status domain.ProjectStatus, progress int) error {
	return s.mutate(ctx, []sanityDoc{{
		"patch": sanityDoc{
			"id":  id.String(),
			"set": sanityDoc{"status": string(status), "progress": progress},
		},
	}})
}

func (s *SanityStore) AddInvoice(ctx context.Context, projectID uuid.UUID, invoice domain.Invoice) error {
	return s.appendToArray(ctx, projectID, "invoices", invoice)
}

func (s *SanityStore) AddMockup(ctx context.Context, projectID uuid.UUID, mockup domain.Mockup) error {
	return s.appendToArray(ctx, projectID, "mockups", mockup)
}

func (s *SanityStore) UpdateMockupFeedback(ctx context.Context, projectID uuid.UUID, index int, feedback string, status domain.MockupStatus) error {
	return s.mutate(ctx, []sanityDoc{{
		"patch": sanityDoc{
			"id": projectID.String(),
			"set": sanityDoc{
				fmt.Sprintf("mockups[%d].feedback", index): feedback,
				fmt.Sprintf("mockups[%d].status", index):   string(status),
			},
		},
	}})
}

func (s *SanityStore) appendToArray(ctx context.Context, projectID uuid.UUID, field string, item interface{}) error {
	return s.mutate(ctx, []sanityDoc{{
		"patch": sanityDoc{
			"id": projectID.String(),
			"insert": sanityDoc{
				"after": field + "[-1]",
				"items": []interface{}{item},
			},
		},
	}})
}

// =============================================================================
// Result decoding
// =============================================================================

type clientResult struct {
	ID           string `json:"_id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	PasswordHash string `json:"passwordHash"`
	IsActive     bool   `json:"isActive"`
	CreatedAt    string `json:"createdAt"`
}

func (r clientResult) toDomain() (*domain.Client, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("sanity: client %q has non-uuid id: %w", r.ID, err)
	}
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return &domain.Client{
		ID:           id,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    created,
	}, nil
}

type projectResult struct {
	ID     string `json:"_id"`
	Client struct {
		Ref string `json:"_ref"`
	} `json:"client"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Pack            string                 `json:"pack"`
	Status          string                 `json:"status"`
	Progress        int                    `json:"progress"`
	TotalAmount     int                    `json:"totalAmount"`
	PaidAmount      int                    `json:"paidAmount"`
	PaymentType     string                 `json:"paymentType"`
	StripeSessionID string                 `json:"stripeSessionId"`
	Mockups         []domain.Mockup        `json:"mockups"`
	Invoices        []domain.Invoice       `json:"invoices"`
	Updates         []domain.ProjectUpdate `json:"updates"`
	CreatedAt       string                 `json:"createdAt"`
}

func (r projectResult) toDomain() (*domain.Project, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("sanity: project %q has non-uuid id: %w", r.ID, err)
	}
	clientID, err := uuid.Parse(r.Client.Ref)
	if err != nil {
		return nil, fmt.Errorf("sanity: project %q has non-uuid client ref: %w", r.ID, err)
	}
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return &domain.Project{
		ID:              id,
		ClientID:        clientID,
		Title:           r.Title,
		Description:     r.Description,
		Pack:            r.Pack,
		Status:          domain.ProjectStatus(r.Status),
		Progress:        r.Progress,
		TotalAmount:     r.TotalAmount,
		PaidAmount:      r.PaidAmount,
		PaymentType:     domain.PaymentType(r.PaymentType),
		StripeSessionID: r.StripeSessionID,
		Mockups:         r.Mockups,
		Invoices:        r.Invoices,
		Updates:         r.Updates,
		CreatedAt:       created,
	}, nil
}

// =============================================================================
// HTTP plumbing
// =============================================================================

func (s *SanityStore) mutate(ctx context.Context, mutations []sanityDoc) error {
	body, err := json.Marshal(map[string]interface{}{"mutations": mutations})
	if err != nil {
		return fmt.Errorf("sanity: marshal mutations: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/data/mutate/%s", s.cfg.APIHost, s.cfg.APIVersion, s.cfg.Dataset)
	return s.doWithRetry(ctx, http.MethodPost, endpoint, body, nil)
}

func (s *SanityStore) query(ctx context.Context, groq string, params map[string]string, result interface{}) error {
	values := url.Values{}
	values.Set("query", groq)
	for key, val := range params {
		// GROQ parameters are JSON-encoded values
		encoded, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("sanity: encode param %s: %w", key, err)
		}
		values.Set(key, string(encoded))
	}

	endpoint := fmt.Sprintf("%s/%s/data/query/%s?%s", s.cfg.APIHost, s.cfg.APIVersion, s.cfg.Dataset, values.Encode())

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := s.doWithRetry(ctx, http.MethodGet, endpoint, nil, &envelope); err != nil {
		return err
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("sanity: decode result: %w", err)
	}
	return nil
}

// doWithRetry performs the request, retrying network errors and 5xx
// responses with exponential backoff (capped at ~10s total).
func (s *SanityStore) doWithRetry(ctx context.Context, method, endpoint string, body []byte, result interface{}) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)

	return backoff.Retry(func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("sanity: build request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sanity: %s %s: %w", method, endpoint, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("sanity: %s returned %d", endpoint, resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			// Client errors won't get better on retry.
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return backoff.Permanent(fmt.Errorf("sanity: %s returned %d: %s", endpoint, resp.StatusCode, payload))
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return backoff.Permanent(fmt.Errorf("sanity: decode response: %w", err))
			}
		}
		return nil
	}, policy)
}
