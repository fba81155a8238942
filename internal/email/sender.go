package email

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"mailstudio/builder/internal/config"
)

// Sender delivers a rendered template as an HTML email.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, htmlBody []byte) error
}

// BuildMessage assembles a complete HTML mail message with headers from the
// rendered template body.
func BuildMessage(from string, to []string, subject string, htmlBody []byte) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.Write(htmlBody)
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

// SMTPSender implements Sender using Go's net/smtp package.
type SMTPSender struct {
	cfg  *config.Config
	auth smtp.Auth
	addr string
}

// NewSMTPSender creates a new SMTPSender. When no SMTP host is configured it
// falls back to a logging sender so test sends still do something visible in
// development.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		log.Println("SMTP host not configured, using logging email sender.")
		return &LoggingSender{cfg: cfg}
	}

	auth := smtp.PlainAuth(
		"", // identity
		cfg.SmtpUsername,
		cfg.SmtpPassword,
		cfg.SmtpHost,
	)
	addr := fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort)

	return &SMTPSender{
		cfg:  cfg,
		auth: auth,
		addr: addr,
	}
}

// Send delivers the rendered template via SMTP.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, htmlBody []byte) error {
	message := BuildMessage(s.cfg.SmtpFromAddress, to, subject, htmlBody)
	if err := smtp.SendMail(s.addr, s.auth, s.cfg.SmtpFromAddress, to, message); err != nil {
		log.Printf("Failed to send email via SMTP to %v: %v", to, err)
		return fmt.Errorf("smtp error: %w", err)
	}
	log.Printf("Test email sent via SMTP to %v (Subject: %s)", to, subject)
	return nil
}

// LoggingSender logs email details instead of sending.
// Useful for development or when SMTP isn't configured.
type LoggingSender struct {
	cfg *config.Config
}

// Send logs the email instead of delivering it. The HTML body is truncated to
// keep logs readable; rendered templates can be large.
func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, htmlBody []byte) error {
	preview := string(htmlBody)
	if len(preview) > 512 {
		preview = preview[:512] + "... (truncated)"
	}
	log.Printf("--- Sending Email (Logged) ---")
	log.Printf("To: %v", to)
	log.Printf("From: %s", s.cfg.SmtpFromAddress)
	log.Printf("Subject: %s", subject)
	log.Printf("Body: %s", preview)
	log.Println("--- End Email ---")
	return nil
}
