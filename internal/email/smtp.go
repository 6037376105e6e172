package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/loiredigital/atelier/internal/domain"
	"github.com/loiredigital/atelier/internal/pricing"
)

// frPrinter formats numbers with French digit grouping for prices.
var frPrinter = message.NewPrinter(language.French)

// formatEUR renders a euro amount the way French invoices write it.
func formatEUR(amount int) string {
	return frPrinter.Sprintf("%d €", amount)
}

// =============================================================================
// SMTP Email Service Implementation
// =============================================================================

// SMTPEmailService sends emails via SMTP.
type SMTPEmailService struct {
	config      SMTPConfig
	baseURL     string
	notifyEmail string
	templates   *template.Template
	logger      *slog.Logger
}

// NewSMTPEmailService creates a new SMTP-based email service.
//
// baseURL is the public site URL used for portal links. notifyEmail is
// the agency inbox that receives form notifications. templatesDir is
// the email template directory, e.g. "web/templates/email".
func NewSMTPEmailService(
	config SMTPConfig,
	baseURL string,
	notifyEmail string,
	templatesDir string,
	logger *slog.Logger,
) (*SMTPEmailService, error) {
	if config.From == "" {
		config.From = DefaultFromEmail
	}
	if config.FromName == "" {
		config.FromName = DefaultFromName
	}

	pattern := filepath.Join(templatesDir, "*.html")
	templates, err := template.New("email").Funcs(emailTemplateFuncs()).ParseGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &SMTPEmailService{
		config:      config,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		notifyEmail: notifyEmail,
		templates:   templates,
		logger:      logger,
	}, nil
}

// =============================================================================
// EmailService Interface Implementation
// =============================================================================

// SendContactNotification notifies the agency of a new contact form submission.
func (s *SMTPEmailService) SendContactNotification(ctx context.Context, lead *domain.Lead) error {
	data := map[string]interface{}{
		"Name":        lead.Name,
		"Email":       lead.Email,
		"Phone":       lead.Phone,
		"ProjectType": domain.ProjectTypeLabel(lead.ProjectType),
		"Message":     lead.Message,
		"Year":        time.Now().Year(),
	}

	htmlBody, err := s.renderTemplate("contact_notification.html", data)
	if err != nil {
		return fmt.Errorf("failed to render contact notification template: %w", err)
	}

	textBody := fmt.Sprintf(`Nouvelle demande de contact

Nom : %s
Email : %s
Téléphone : %s
Type de projet : %s

Message :
%s
`, lead.Name, lead.Email, orDash(lead.Phone), domain.ProjectTypeLabel(lead.ProjectType), lead.Message)

	return s.send(ctx, Email{
		To:       s.notifyEmail,
		Subject:  fmt.Sprintf("Nouveau contact : %s", lead.Name),
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// SendQuoteNotification notifies the agency of a new quote request.
func (s *SMTPEmailService) SendQuoteNotification(ctx context.Context, lead *domain.QuoteLead, calc pricing.QuoteCalculation) error {
	data := map[string]interface{}{
		"Name":            lead.Name,
		"Email":           lead.Email,
		"Phone":           lead.Phone,
		"PackID":          lead.PackID,
		"Pages":           lead.Pages,
		"Options":         strings.Join(lead.OptionIDs, ", "),
		"Maintenance":     lead.Maintenance,
		"BasePrice":       formatEUR(calc.BasePrice),
		"ExtraPagesPrice": formatEUR(calc.ExtraPagesPrice),
		"OptionsPrice":    formatEUR(calc.OptionsPrice),
		"TotalPrice":      formatEUR(calc.TotalPrice),
		"Message":         lead.Message,
		"Year":            time.Now().Year(),
	}

	htmlBody, err := s.renderTemplate("quote_notification.html", data)
	if err != nil {
		return fmt.Errorf("failed to render quote notification template: %w", err)
	}

	textBody := fmt.Sprintf(`Nouvelle demande de devis

Nom : %s
Email : %s
Téléphone : %s

Pack : %s (%d pages)
Options : %s
Maintenance : %s

Total estimé : %s
`, lead.Name, lead.Email, orDash(lead.Phone), lead.PackID, lead.Pages,
		orDash(strings.Join(lead.OptionIDs, ", ")), orDash(lead.Maintenance), formatEUR(calc.TotalPrice))

	return s.send(ctx, Email{
		To:       s.notifyEmail,
		Subject:  fmt.Sprintf("Nouveau devis : %s (%s)", lead.Name, formatEUR(calc.TotalPrice)),
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// SendWelcomeEmail sends portal credentials to a freshly provisioned client.
func (s *SMTPEmailService) SendWelcomeEmail(ctx context.Context, client *domain.Client, tempPassword string) error {
	portalURL := s.baseURL + "/espace-client"

	data := map[string]interface{}{
		"Name":         client.DisplayName(),
		"Email":        client.Email,
		"TempPassword": tempPassword,
		"PortalURL":    portalURL,
		"Year":         time.Now().Year(),
	}

	htmlBody, err := s.renderTemplate("welcome.html", data)
	if err != nil {
		return fmt.Errorf("failed to render welcome template: %w", err)
	}

	var credentials string
	if tempPassword != "" {
		credentials = fmt.Sprintf(`Identifiant : %s
Mot de passe provisoire : %s

Pensez à changer ce mot de passe dès votre première connexion.`, client.Email, tempPassword)
	} else {
		credentials = fmt.Sprintf("Identifiant : %s", client.Email)
	}

	textBody := fmt.Sprintf(`Bonjour %s,

Bienvenue chez Loire Digital ! Votre espace client est prêt :

%s

%s

À très vite,
L'équipe Loire Digital
`, client.DisplayName(), portalURL, credentials)

	return s.send(ctx, Email{
		To:       client.Email,
		Subject:  "Bienvenue chez Loire Digital",
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// SendPaymentConfirmation confirms a successful payment to the client.
func (s *SMTPEmailService) SendPaymentConfirmation(ctx context.Context, client *domain.Client, project *domain.Project, amount int) error {
	data := map[string]interface{}{
		"Name":      client.DisplayName(),
		"Title":     project.Title,
		"Amount":    formatEUR(amount),
		"Total":     formatEUR(project.TotalAmount),
		"PortalURL": s.baseURL + "/espace-client",
		"Year":      time.Now().Year(),
	}

	htmlBody, err := s.renderTemplate("payment_confirmation.html", data)
	if err != nil {
		return fmt.Errorf("failed to render payment confirmation template: %w", err)
	}

	textBody := fmt.Sprintf(`Bonjour %s,

Nous avons bien reçu votre paiement de %s pour le projet « %s ».

Vous pouvez suivre l'avancement de votre projet depuis votre espace client :
%s

Merci de votre confiance,
L'équipe Loire Digital
`, client.DisplayName(), formatEUR(amount), project.Title, s.baseURL+"/espace-client")

	return s.send(ctx, Email{
		To:       client.Email,
		Subject:  fmt.Sprintf("Paiement reçu : %s", formatEUR(amount)),
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
}

// =============================================================================
// Internal Methods
// =============================================================================

func (s *SMTPEmailService) send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := s.buildMessage(email)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	// Mailhog takes unauthenticated connections
	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	err := smtp.SendMail(addr, auth, s.config.From, []string{email.To}, msg)
	if err != nil {
		s.logger.Error("failed to send email",
			"to", email.To,
			"subject", email.Subject,
			"error", err,
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
	)

	return nil
}

// buildMessage constructs the raw multipart message with headers.
func (s *SMTPEmailService) buildMessage(email Email) []byte {
	var buf bytes.Buffer

	fromHeader := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)

	buf.WriteString(fmt.Sprintf("From: %s\r\n", fromHeader))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", email.To))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	boundary := "===============LOIRE_BOUNDARY==============="
	buf.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary))
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.TextBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s\r\n", boundary))
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(email.HTMLBody)
	buf.WriteString("\r\n")

	buf.WriteString(fmt.Sprintf("--%s--\r\n", boundary))

	return buf.Bytes()
}

func (s *SMTPEmailService) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// =============================================================================
// Template Functions
// =============================================================================

func emailTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"currentYear": func() int {
			return time.Now().Year()
		},
	}
}

// Compile-time interface check
var _ EmailService = (*SMTPEmailService)(nil)
