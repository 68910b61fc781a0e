package notifications

import (
	"context"
	"fmt"

	"gopkg.in/mail.v2"
)

// Mailer sends an HTML email
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends emails through an SMTP server
type SMTPMailer struct {
	dialer *mail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer for the given SMTP server
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send sends an email using gopkg.in/mail.v2
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.dialer.DialAndSend(m.newMessage(to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (m *SMTPMailer) newMessage(to, subject, body string) *mail.Message {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)
	return msg
}
