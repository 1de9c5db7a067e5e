// email.go - Outbound SMTP collaborator.
//
// Sending is strictly best-effort: a failure is logged and never blocks
// the flow that requested the email (signup still succeeds when the
// verification mail bounces).
package server

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

// EmailConfig holds SMTP settings. With Enabled false the service logs
// the would-be message instead of dialing out, which is the default for
// local development and tests.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FromEmail    string
	Enabled      bool
}

// LoadEmailConfig reads email configuration from environment variables.
func LoadEmailConfig() EmailConfig {
	cfg := EmailConfig{
		SMTPHost:     os.Getenv("SFX_SMTP_HOST"),
		SMTPPort:     os.Getenv("SFX_SMTP_PORT"),
		SMTPUser:     os.Getenv("SFX_SMTP_USER"),
		SMTPPassword: os.Getenv("SFX_SMTP_PASSWORD"),
		FromEmail:    os.Getenv("SFX_FROM_EMAIL"),
		Enabled:      os.Getenv("SFX_EMAIL_ENABLED") == "true",
	}
	if cfg.SMTPPort == "" {
		cfg.SMTPPort = "587"
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.SMTPUser
	}
	return cfg
}

// EmailService sends the exchange's outbound mail.
type EmailService struct {
	config EmailConfig
}

// NewEmailService creates an email service over the given config.
func NewEmailService(cfg EmailConfig) *EmailService {
	return &EmailService{config: cfg}
}

// SendEmail delivers one message. Disabled mode logs and reports success.
func (s *EmailService) SendEmail(to, subject, body string) error {
	if !s.config.Enabled {
		log.Printf("email=disabled to=%s subject=%q", to, subject)
		return nil
	}

	if s.config.SMTPHost == "" || s.config.SMTPUser == "" || s.config.SMTPPassword == "" {
		return fmt.Errorf("SMTP not configured")
	}

	message := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.config.FromEmail, to, subject, body,
	))

	auth := smtp.PlainAuth("", s.config.SMTPUser, s.config.SMTPPassword, s.config.SMTPHost)
	addr := s.config.SMTPHost + ":" + s.config.SMTPPort
	if err := smtp.SendMail(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		log.Printf("email=error to=%s err=%v", to, err)
		return err
	}

	log.Printf("email=sent to=%s subject=%q", to, subject)
	return nil
}

// SendVerificationEmail mails the email-verification link. Returns false
// when delivery failed; callers treat that as a soft failure.
func (s *EmailService) SendVerificationEmail(to, verificationURL string) bool {
	subject := "Verify Your Email - Secure File Exchange"
	body := fmt.Sprintf(`
		<h2>Welcome to Secure File Exchange</h2>
		<p>Click the link below to verify your email address. The link is
		valid for one hour.</p>
		<p><a href="%s">Verify my email</a></p>
		<p>If you did not sign up, you can ignore this message.</p>`,
		verificationURL)

	return s.SendEmail(to, subject, body) == nil
}
