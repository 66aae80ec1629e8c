// Package mail delivers outbound messages for the contact flow. The
// provider is deliberately behind a narrow interface: a send either
// succeeds or fails, and a failure must never corrupt stored state.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// Mailer sends a single plain-text message.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// SMTPMailer is the production Mailer backed by an SMTP relay.
type SMTPMailer struct {
	client *gomail.Client
}

// NewSMTPMailer connects lazily; dialing happens per send.
func NewSMTPMailer(host string, port int, username, password string) (*SMTPMailer, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return &SMTPMailer{client: client}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, from, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid to address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	return m.client.DialAndSendWithContext(ctx, msg)
}
