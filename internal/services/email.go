package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/princeprakhar/foodnetwork-backend/internal/config"
	"github.com/princeprakhar/foodnetwork-backend/internal/models"
	"gopkg.in/gomail.v2"
)

// Mailer delivers one HTML message.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.FromEmail,
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return m.dialer.DialAndSend(msg)
}

type EmailService struct {
	mailer  Mailer
	baseURL string
}

func NewEmailService(mailer Mailer, baseURL string) *EmailService {
	return &EmailService{mailer: mailer, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *EmailService) SendPasswordResetEmail(email, resetToken string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, resetToken)
	body := fmt.Sprintf(`<h2>Password Reset Request</h2>
<p>We received a request to reset the password of the account associated with <strong>%s</strong>.</p>
<p><a href="%s">Reset your password</a></p>
<p>This link expires in 1 hour. If you did not ask for it, ignore this email.</p>`,
		html.EscapeString(email), resetLink)
	return s.mailer.Send(email, "Password Reset Request", body)
}

var reportOutcomes = map[models.ReportStatus]string{
	models.ReportReviewed:    "is being looked at by our moderators",
	models.ReportActionTaken: "was upheld and the content has been dealt with",
	models.ReportDismissed:   "was reviewed and no action was needed",
}

// ReportResolved implements ReportNotifier.
func (s *EmailService) ReportResolved(ctx context.Context, reporter models.User, report models.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	outcome, ok := reportOutcomes[report.Status]
	if !ok {
		return nil
	}
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Your report #%d about a %s %s.</p>
<p>Thank you for helping keep the food network accurate and friendly.</p>`,
		html.EscapeString(reporter.Name), report.ID, strings.ReplaceAll(string(report.ReportableType), "_", " "), outcome)
	return s.mailer.Send(reporter.Email, fmt.Sprintf("Update on your report #%d", report.ID), body)
}
