package cms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loiredigital/atelier/internal/domain"
)

// PostgresStore implements Store on a pgx connection pool.
//
// Mockups, invoices and update entries live in JSONB columns on the
// projects table. They are small bounded lists owned by a single
// project, so a read-modify-write inside a transaction is simpler than
// normalizing them out.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateLead(ctx context.Context, lead *domain.Lead) error {
	query := `
		INSERT INTO leads (id, name, email, phone, project_type, message, source, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.pool.Exec(ctx, query,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.ProjectType,
		lead.Message, lead.Source, lead.Status, lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateQuoteLead(ctx context.Context, lead *domain.QuoteLead) error {
	query := `
		INSERT INTO quote_leads (id, name, email, phone, pack_id, pages, option_ids,
			maintenance, total_price, submitted_price, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.pool.Exec(ctx, query,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.PackID, lead.Pages,
		lead.OptionIDs, lead.Maintenance, lead.TotalPrice, lead.SubmittedPrice,
		lead.Message, lead.Status, lead.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert quote lead: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateClient(ctx context.Context, client *domain.Client) error {
	query := `
		INSERT INTO clients (id, email, first_name, last_name, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, query,
		client.ID, client.Email, client.FirstName, client.LastName,
		client.PasswordHash, client.IsActive, client.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetClientByEmail(ctx context.Context, email string) (*domain.Client, error) {
	query := `
		SELECT id, email, first_name, last_name, password_hash, is_active, created_at, updated_at
		FROM clients
		WHERE lower(email) = lower($1)`

	return s.scanClient(s.pool.QueryRow(ctx, query, email))
}

func (s *PostgresStore) GetClientByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	query := `
		SELECT id, email, first_name, last_name, password_hash, is_active, created_at, updated_at
		FROM clients
		WHERE id = $1`

	return s.scanClient(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStore) scanClient(row pgx.Row) (*domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.PasswordHash, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan client: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, project *domain.Project) error {
	mockups, invoices, updates, err := marshalProjectArrays(project)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (id, client_id, title, description, pack, status, progress,
			total_amount, paid_amount, payment_type, stripe_session_id,
			mockups, invoices, updates, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = s.pool.Exec(ctx, query,
		project.ID, project.ClientID, project.Title, project.Description,
		project.Pack, project.Status, project.Progress,
		project.TotalAmount, project.PaidAmount, project.PaymentType, project.StripeSessionID,
		mockups, invoices, updates, project.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

const projectColumns = `id, client_id, title, description, pack, status, progress,
	total_amount, paid_amount, payment_type, stripe_session_id,
	mockups, invoices, updates, created_at, updated_at`

func (s *PostgresStore) GetProject(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	return scanProject(s.pool.QueryRow(ctx, query, id))
}

func (s *PostgresStore) ListClientProjects(ctx context.Context, clientID uuid.UUID) ([]domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE client_id = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (s *PostgresStore) UpdateProjectStatus(ctx context.Context, id uuid.UUID, status domain.ProjectStatus, progress int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET status = $2, progress = $3, updated_at = now() WHERE id = $1`,
		id, status, progress)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddInvoice(ctx context.Context, projectID uuid.UUID, invoice domain.Invoice) error {
	return s.appendJSONB(ctx, projectID, "invoices", invoice)
}

func (s *PostgresStore) AddMockup(ctx context.Context, projectID uuid.UUID, mockup domain.Mockup) error {
	return s.appendJSONB(ctx, projectID, "mockups", mockup)
}

func (s *PostgresStore) appendJSONB(ctx context.Context, projectID uuid.UUID, column string, item interface{}) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal %s entry: %w", column, err)
	}

	// column is a compile-time constant from the two callers above
	query := fmt.Sprintf(
		`UPDATE projects SET %s = coalesce(%s, '[]'::jsonb) || $2::jsonb, updated_at = now() WHERE id = $1`,
		column, column)

	tag, err := s.pool.Exec(ctx, query, projectID, payload)
	if err != nil {
		return fmt.Errorf("append %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateMockupFeedback(ctx context.Context, projectID uuid.UUID, index int, feedback string, status domain.MockupStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT coalesce(mockups, '[]'::jsonb) FROM projects WHERE id = $1 FOR UPDATE`, projectID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select mockups: %w", err)
	}

	var mockups []domain.Mockup
	if err := json.Unmarshal(raw, &mockups); err != nil {
		return fmt.Errorf("decode mockups: %w", err)
	}
	if index < 0 || index >= len(mockups) {
		return ErrNotFound
	}

	mockups[index].Feedback = feedback
	mockups[index].Status = status

	updated, err := json.Marshal(mockups)
	if err != nil {
		return fmt.Errorf("encode mockups: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE projects SET mockups = $2, updated_at = now() WHERE id = $1`, projectID, updated); err != nil {
		return fmt.Errorf("update mockups: %w", err)
	}

	return tx.Commit(ctx)
}

func marshalProjectArrays(p *domain.Project) (mockups, invoices, updates []byte, err error) {
	if mockups, err = json.Marshal(orEmpty(p.Mockups)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal mockups: %w", err)
	}
	if invoices, err = json.Marshal(orEmpty(p.Invoices)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal invoices: %w", err)
	}
	if updates, err = json.Marshal(orEmpty(p.Updates)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal updates: %w", err)
	}
	return mockups, invoices, updates, nil
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p                                   domain.Project
		mockupsRaw, invoicesRaw, updatesRaw []byte
	)
	err := row.Scan(&p.ID, &p.ClientID, &p.Title, &p.Description, &p.Pack, &p.Status, &p.Progress,
		&p.TotalAmount, &p.PaidAmount, &p.PaymentType, &p.StripeSessionID,
		&mockupsRaw, &invoicesRaw, &updatesRaw, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan project: %w", err)
	}

	if mockupsRaw != nil {
		if err := json.Unmarshal(mockupsRaw, &p.Mockups); err != nil {
			return nil, fmt.Errorf("decode mockups: %w", err)
		}
	}
	if invoicesRaw != nil {
		if err := json.Unmarshal(invoicesRaw, &p.Invoices); err != nil {
			return nil, fmt.Errorf("decode invoices: %w", err)
		}
	}
	if updatesRaw != nil {
		if err := json.Unmarshal(updatesRaw, &p.Updates); err != nil {
			return nil, fmt.Errorf("decode updates: %w", err)
		}
	}
	return &p, nil
}
