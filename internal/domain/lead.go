// Package domain contains core business types for the agency site backend.
package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProjectType is the kind of work a contact lead is asking about.
type ProjectType string

const (
	ProjectTypeCreation    ProjectType = "creation"
	ProjectTypeRefonte     ProjectType = "refonte"
	ProjectTypeMaintenance ProjectType = "maintenance"
	ProjectTypeSEO         ProjectType = "seo"
	ProjectTypeAutre       ProjectType = "autre"
)

// LeadStatus is the sales pipeline state of a captured lead.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusConverted  LeadStatus = "converted"
	LeadStatusClosed     LeadStatus = "closed"
)

// Lead source values
const (
	LeadSourceContactForm     = "contact_form"
	LeadSourceQuoteCalculator = "quote_calculator"
)

// Lead is a prospective-client contact record persisted to the content
// backend for sales follow-up.
type Lead struct {
	ID          uuid.UUID
	Name        string
	Email       string
	Phone       string
	ProjectType ProjectType
	Message     string
	Source      string
	Status      LeadStatus
	CreatedAt   time.Time
}

// frPhonePattern matches French phone numbers (0612345678 or +33612345678).
var frPhonePattern = regexp.MustCompile(`^(?:\+33|0)[1-9][0-9]{8}$`)

// ContactRequest is the decoded body of POST /api/contact.
type ContactRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Project     string `json:"project"`
	Message     string `json:"message"`
	GDPRConsent bool   `json:"gdprConsent"`

	// Honeypot. Hidden in the UI; bots fill it, humans never see it.
	Website string `json:"website"`
}

// Validate checks field constraints and returns a ValidationError with
// per-field French messages, or nil.
func (r *ContactRequest) Validate() error {
	ve := NewValidationError("contact.validate")

	name := strings.TrimSpace(r.Name)
	if len(name) < 2 {
		ve.Add("name", "Le nom doit contenir au moins 2 caractères")
	} else if len(name) > 100 {
		ve.Add("name", "Le nom ne peut pas dépasser 100 caractères")
	}

	if !validEmail(r.Email) {
		ve.Add("email", "Veuillez entrer une adresse email valide")
	}

	if r.Phone != "" && !frPhonePattern.MatchString(r.Phone) {
		ve.Add("phone", "Numéro de téléphone invalide (ex: 0612345678)")
	}

	switch ProjectType(r.Project) {
	case ProjectTypeCreation, ProjectTypeRefonte, ProjectTypeMaintenance, ProjectTypeSEO, ProjectTypeAutre:
	default:
		ve.Add("project", "Veuillez sélectionner un type de projet")
	}

	msg := strings.TrimSpace(r.Message)
	if len(msg) < 10 {
		ve.Add("message", "Le message doit contenir au moins 10 caractères")
	} else if len(msg) > 1000 {
		ve.Add("message", "Le message ne peut pas dépasser 1000 caractères")
	}

	if !r.GDPRConsent {
		ve.Add("gdprConsent", "Vous devez accepter la politique de confidentialité pour continuer")
	}

	if r.Website != "" {
		ve.Add("website", "Spam detected")
	}

	return ve.OrNil()
}

// validEmail is a pragmatic check: one @, non-empty local part, and a domain
// with at least one dot. Mail providers are the real validators.
func validEmail(s string) bool {
	at := strings.Index(s, "@")
	if at < 1 || at == len(s)-1 {
		return false
	}
	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1 && !strings.ContainsAny(s, " \t")
}

// ProjectTypeLabel maps a project type to its French display label for
// notification emails.
func ProjectTypeLabel(t ProjectType) string {
	switch t {
	case ProjectTypeCreation:
		return "Création de site"
	case ProjectTypeRefonte:
		return "Refonte"
	case ProjectTypeMaintenance:
		return "Maintenance"
	case ProjectTypeSEO:
		return "SEO"
	case ProjectTypeAutre:
		return "Autre"
	default:
		return string(t)
	}
}
