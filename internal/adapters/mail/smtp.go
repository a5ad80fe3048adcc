package mail

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/shoemart/auth-service/internal/infra/config"
)

// SMTPMailer sends plain-text mail through the configured relay. Bodies may
// contain one-time codes, so neither subject nor body is ever logged here.
type SMTPMailer struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		from: cfg.SMTPFrom,
		auth: smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := []byte("From: " + m.from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
		"\r\n" +
		body + "\r\n")

	return smtp.SendMail(m.addr, m.auth, m.from, []string{to}, msg)
}
