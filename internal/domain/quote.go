package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuoteLead is a quote-calculator submission persisted to the content backend.
//
// TotalPrice is always the server-derived figure; SubmittedPrice keeps the
// total the browser displayed so a discrepancy can be investigated later.
type QuoteLead struct {
	ID             uuid.UUID
	Name           string
	Email          string
	Phone          string
	PackID         string
	Pages          int
	OptionIDs      []string
	Maintenance    string
	TotalPrice     int
	SubmittedPrice int
	Message        string
	Status         LeadStatus
	CreatedAt      time.Time
}

// QuoteRequest is the decoded body of POST /api/devis.
type QuoteRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	PackID      string   `json:"packId"`
	Pages       int      `json:"pages"`
	OptionIDs   []string `json:"optionIds"`
	Maintenance string   `json:"maintenance"`
	TotalPrice  int      `json:"totalPrice"`
	Message     string   `json:"message"`

	// Honeypot, same contract as ContactRequest.
	Website string `json:"website"`
}

// Validate checks field constraints. Pack, option, and maintenance
// identifiers are only checked for shape here; the pricing engine degrades
// gracefully on unknown ids, and the pack's existence is enforced by the
// handler through the catalog.
func (r *QuoteRequest) Validate(validPack func(string) bool, validMaintenance func(string) bool) error {
	ve := NewValidationError("quote.validate")

	if len(strings.TrimSpace(r.Name)) < 2 {
		ve.Add("name", "Le nom doit contenir au moins 2 caractères")
	}

	if !validEmail(r.Email) {
		ve.Add("email", "Adresse email invalide")
	}

	if r.Phone != "" && !frPhonePattern.MatchString(r.Phone) {
		ve.Add("phone", "Numéro de téléphone français invalide")
	}

	if !validPack(r.PackID) {
		ve.Add("packId", "Pack invalide")
	}

	if r.Pages < 1 {
		ve.Add("pages", "Au moins 1 page requise")
	} else if r.Pages > 100 {
		ve.Add("pages", "Maximum 100 pages")
	}

	if r.Maintenance != "" && r.Maintenance != "none" && !validMaintenance(r.Maintenance) {
		ve.Add("maintenance", "Type de maintenance invalide")
	}

	if r.TotalPrice < 0 {
		ve.Add("totalPrice", "Le prix ne peut pas être négatif")
	}

	if len(r.Message) > 1000 {
		ve.Add("message", "Le message est trop long (max 1000 caractères)")
	}

	if r.Website != "" {
		ve.Add("website", "Spam detected")
	}

	return ve.OrNil()
}
