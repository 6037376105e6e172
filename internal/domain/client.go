package domain

import (
	"time"

	"github.com/google/uuid"
)

// Client is a paying customer with access to the client portal.
type Client struct {
	ID           uuid.UUID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string // Never expose this in API responses
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the client's first name, falling back to the email.
func (c *Client) DisplayName() string {
	if c.FirstName != "" {
		return c.FirstName
	}
	return c.Email
}

// ProjectStatus is a project's position in the delivery pipeline.
type ProjectStatus string

const (
	ProjectStatusPendingPayment ProjectStatus = "pending-payment"
	ProjectStatusDesign         ProjectStatus = "design"
	ProjectStatusDevelopment    ProjectStatus = "development"
	ProjectStatusReview         ProjectStatus = "review"
	ProjectStatusCompleted      ProjectStatus = "completed"
	ProjectStatusDeployed       ProjectStatus = "deployed"
)

// PaymentType distinguishes full upfront payment from a deposit.
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "full"
	PaymentTypeDeposit PaymentType = "deposit"
)

// MockupStatus is the client's verdict on a design mockup.
type MockupStatus string

const (
	MockupStatusPending  MockupStatus = "pending"
	MockupStatusApproved MockupStatus = "approved"
	MockupStatusRevision MockupStatus = "revision"
)

// Mockup is a design proposal attached to a project, awaiting client review.
type Mockup struct {
	Title        string       `json:"title"`
	ImageURL     string       `json:"imageUrl"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	Status       MockupStatus `json:"status"`
	Feedback     string       `json:"feedback,omitempty"`
	UploadedAt   time.Time    `json:"uploadedAt"`
}

// InvoiceStatus values
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// InvoiceType values
type InvoiceType string

const (
	InvoiceTypeDeposit InvoiceType = "deposit"
	InvoiceTypeBalance InvoiceType = "balance"
	InvoiceTypeFull    InvoiceType = "full"
)

// Invoice is a billing record attached to a project. Amounts are whole euros.
type Invoice struct {
	InvoiceNumber string        `json:"invoiceNumber"`
	Amount        int           `json:"amount"`
	Type          InvoiceType   `json:"type"`
	Status        InvoiceStatus `json:"status"`
	PDFURL        string        `json:"pdfUrl,omitempty"`
	IssuedAt      time.Time     `json:"issuedAt"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
}

// ProjectUpdate is a progress note shown to the client.
type ProjectUpdate struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Project is a client engagement: one website build, its payment state, and
// everything the portal shows about it.
type Project struct {
	ID              uuid.UUID
	ClientID        uuid.UUID
	Title           string
	Description     string
	Pack            string
	Status          ProjectStatus
	Progress        int // 0-100
	TotalAmount     int // euros
	PaidAmount      int // euros
	PaymentType     PaymentType
	StripeSessionID string
	Mockups         []Mockup
	Invoices        []Invoice
	Updates         []ProjectUpdate
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MockupFeedbackRequest is the decoded body of POST /api/client/mockup-feedback.
type MockupFeedbackRequest struct {
	ProjectID   string `json:"projectId"`
	MockupIndex *int   `json:"mockupIndex"`
	Feedback    string `json:"feedback"`
	Status      string `json:"status"`
}

// Validate checks the feedback payload.
func (r *MockupFeedbackRequest) Validate() error {
	ve := NewValidationError("mockup_feedback.validate")

	if r.ProjectID == "" {
		ve.Add("projectId", "Identifiant de projet requis")
	}
	if r.MockupIndex == nil || *r.MockupIndex < 0 {
		ve.Add("mockupIndex", "Index de maquette invalide")
	}
	if r.Feedback == "" {
		ve.Add("feedback", "Un commentaire est requis")
	}
	switch MockupStatus(r.Status) {
	case MockupStatusApproved, MockupStatusRevision:
	default:
		ve.Add("status", "Statut invalide (approved ou revision)")
	}

	return ve.OrNil()
}
