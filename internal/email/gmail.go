package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"contentpilot/internal/config"
)

// gmailProvider delivers mail over SMTP with STARTTLS and an app-specific
// password.
type gmailProvider struct {
	host     string
	port     int
	email    string
	password string
	from     from
}

func newGmailProvider(cfg config.GmailConfig, f from) *gmailProvider {
	return &gmailProvider{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		email:    cfg.Email,
		password: cfg.AppPassword,
		from:     f,
	}
}

func (p *gmailProvider) send(ctx context.Context, m message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := m.ToEmail
	if m.ToName != "" {
		to = fmt.Sprintf("%s <%s>", m.ToName, m.ToEmail)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", p.from.Name, p.from.Email)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(m.HTML)

	addr := fmt.Sprintf("%s:%d", p.host, p.port)
	auth := smtp.PlainAuth("", p.email, p.password, p.host)
	if err := smtp.SendMail(addr, auth, p.from.Email, []string{m.ToEmail}, []byte(b.String())); err != nil {
		return fmt.Errorf("gmail smtp: %w", err)
	}
	return nil
}
